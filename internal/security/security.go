// Package security signs and verifies system-command templates against a
// machine-bound Ed25519 key so an imported Triggers file's
// RunSystemCommand effects can't execute on a different machine without
// the user re-approving them (spec §4.8).
package security

import (
	"crypto/ed25519"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const salt = "LogQuest"

// machineIDPaths is tried in order; the first that yields a non-empty id
// wins. Linux-only, since LogQuest's original machine-uid detection is
// itself platform-specific and this project targets the same Linux/EQ
// deployment target.
var machineIDPaths = []string{"/etc/machine-id", "/var/lib/dbus/machine-id"}

// Signer derives a machine-bound Ed25519 key on first use and signs or
// verifies RunSystemCommand templates against it. The key is derived lazily
// (not at New) since deriveKeyPair touches the filesystem and logs on
// failure.
type Signer struct {
	log zerolog.Logger

	once      sync.Once
	keyPair   ed25519.PrivateKey
	public    ed25519.PublicKey
	available bool
}

// New returns a Signer that logs through log.
func New(log zerolog.Logger) *Signer {
	return &Signer{log: log.With().Str("component", "security").Logger()}
}

// IsAvailable reports whether a machine-bound signing key could be derived.
// RunSystemCommand approval is unavailable entirely when false.
func (s *Signer) IsAvailable() bool {
	s.ensureInit()
	return s.available
}

// Sign returns a URL-safe base64 signature over data using the
// machine-bound key. Panics if IsAvailable() is false; callers must check
// first, mirroring the original's "expect" contract.
func (s *Signer) Sign(data string) string {
	s.ensureInit()
	if !s.available {
		panic("security: Sign called without checking IsAvailable()")
	}
	sig := ed25519.Sign(s.keyPair, []byte(data))
	return base64.URLEncoding.EncodeToString(sig)
}

// Verify reports whether signature is a valid Sign(data) for this machine.
func (s *Signer) Verify(data, signature string) bool {
	s.ensureInit()
	if !s.available {
		return false
	}
	sig, err := base64.URLEncoding.DecodeString(signature)
	if err != nil {
		s.log.Error().Err(err).Str("signature", signature).Msg("failed to decode command signature")
		return false
	}
	return ed25519.Verify(s.public, []byte(data), sig)
}

func (s *Signer) ensureInit() {
	s.once.Do(s.deriveKeyPair)
}

func (s *Signer) deriveKeyPair() {
	id, err := machineID()
	if err != nil {
		s.log.Error().Err(err).Msg("could not determine a machine id; system command approval disabled")
		return
	}

	seeded := append([]byte(id), []byte(salt)...)
	checksum := sha512.Sum512(seeded)

	s.keyPair = ed25519.NewKeyFromSeed(checksum[:ed25519.SeedSize])
	s.public = s.keyPair.Public().(ed25519.PublicKey)
	s.available = true
}

func machineID() (string, error) {
	var lastErr error
	for _, path := range machineIDPaths {
		contents, err := os.ReadFile(path)
		if err != nil {
			lastErr = err
			continue
		}
		id := strings.TrimSpace(string(contents))
		if id != "" {
			return id, nil
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no machine id source produced a non-empty id")
	}
	return "", lastErr
}
