package audioarchive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Resolver finds a playable local path for a PlayAudioFile effect's
// rendered path, in priority order: 1) directly under the local sound-pack
// directory, 2) already present in the local archive cache (a prior
// download), 3) as an absolute path on this machine, 4) downloaded from the
// S3 archive into the cache, if one is configured. Generalized from the
// teacher's ResolveFile, whose three-step managed/TR-audio-dir/absolute
// chain becomes a sound-pack-dir/archive-cache/absolute chain here, plus a
// fourth step this project adds: falling back to S3 when nothing local
// resolves.
type Resolver struct {
	soundPackDir string
	cacheDir     string
	store        *Store // nil when no S3 archive is configured
}

// NewResolver builds a Resolver. store may be nil.
func NewResolver(soundPackDir, cacheDir string, store *Store) *Resolver {
	return &Resolver{soundPackDir: soundPackDir, cacheDir: cacheDir, store: store}
}

// Resolve returns a local filesystem path playable for relPath, downloading
// from S3 into cacheDir if necessary. Returns an error only when no step
// resolves.
func (r *Resolver) Resolve(ctx context.Context, relPath string) (string, error) {
	if r.soundPackDir != "" {
		full := filepath.Join(r.soundPackDir, relPath)
		if _, err := os.Stat(full); err == nil {
			return full, nil
		}
	}

	var cached string
	if r.cacheDir != "" {
		cached = filepath.Join(r.cacheDir, relPath)
		if _, err := os.Stat(cached); err == nil {
			return cached, nil
		}
	}

	if filepath.IsAbs(relPath) {
		if _, err := os.Stat(relPath); err == nil {
			return relPath, nil
		}
	}

	if r.store == nil || cached == "" {
		return "", fmt.Errorf("audioarchive: no local file for %q and no archive configured", relPath)
	}

	data, err := r.store.Download(ctx, relPath)
	if err != nil {
		return "", fmt.Errorf("audioarchive: download %q: %w", relPath, err)
	}

	if err := os.MkdirAll(filepath.Dir(cached), 0o755); err != nil {
		return "", fmt.Errorf("audioarchive: cache dir for %q: %w", relPath, err)
	}
	if err := os.WriteFile(cached, data, 0o644); err != nil {
		return "", fmt.Errorf("audioarchive: writing cache for %q: %w", relPath, err)
	}

	return cached, nil
}
