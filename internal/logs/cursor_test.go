package logs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanCursorCacheRecordsExistingFileSizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eqlog_Fippy_erollisi.txt")
	require.NoError(t, os.WriteFile(path, []byte("[Thu Jul 18 17:35:14 2024] hello\n"), 0o644))

	cache, err := ScanCursorCache(dir)
	require.NoError(t, err)

	cursor, err := cache.GetCursorAndMarkStale(path)
	require.NoError(t, err)
	require.Equal(t, int64(33), cursor.Position)
}

func TestGetCursorAndMarkStaleFallsBackToLiveSizeOnSecondCall(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eqlog_Fippy_erollisi.txt")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	cache, err := ScanCursorCache(dir)
	require.NoError(t, err)

	first, err := cache.GetCursorAndMarkStale(path)
	require.NoError(t, err)
	require.Equal(t, int64(3), first.Position)

	require.NoError(t, os.WriteFile(path, []byte("abcdefgh"), 0o644))
	second, err := cache.GetCursorAndMarkStale(path)
	require.NoError(t, err)
	require.Equal(t, int64(8), second.Position)
}

func TestScanCursorCacheIgnoresNonLogFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	cache, err := ScanCursorCache(dir)
	require.NoError(t, err)
	require.Empty(t, cache.entries)
}
