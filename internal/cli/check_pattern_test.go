package cli

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	require.NoError(t, w.Close())
	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String()
}

func TestCheckPatternCmdReportsCompileSuccess(t *testing.T) {
	cmd := &CheckPatternCmd{Pattern: "You have slain {S}!"}
	out := captureStdout(t, func() {
		require.NoError(t, cmd.Run(&Globals{}))
	})
	require.Contains(t, out, "compiled OK")
}

func TestCheckPatternCmdReportsCompileFailure(t *testing.T) {
	cmd := &CheckPatternCmd{Pattern: "unterminated ("}
	err := cmd.Run(&Globals{})
	require.Error(t, err)
}

func TestCheckPatternCmdReportsMatchCaptures(t *testing.T) {
	cmd := &CheckPatternCmd{Pattern: "You have slain {S}!", Line: "You have slain Gribbler!"}
	out := captureStdout(t, func() {
		require.NoError(t, cmd.Run(&Globals{}))
	})
	require.Contains(t, out, "match:")
	require.Contains(t, out, "Gribbler")
}

func TestCheckPatternCmdReportsNoMatch(t *testing.T) {
	cmd := &CheckPatternCmd{Pattern: "You have slain {S}!", Line: "a completely unrelated line"}
	out := captureStdout(t, func() {
		require.NoError(t, cmd.Run(&Globals{}))
	})
	require.Contains(t, out, "no match")
}
