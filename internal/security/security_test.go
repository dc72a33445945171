package security

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	s := New(zerolog.Nop())
	if !s.IsAvailable() {
		t.Skip("no machine id available in this environment")
	}

	data := "rm -rf ~/raid-logs"
	sig := s.Sign(data)
	require.True(t, s.Verify(data, sig))
}

func TestVerifyRejectsTamperedData(t *testing.T) {
	s := New(zerolog.Nop())
	if !s.IsAvailable() {
		t.Skip("no machine id available in this environment")
	}

	sig := s.Sign("the approved command")
	require.False(t, s.Verify("a different command", sig))
}

func TestVerifyRejectsMalformedSignature(t *testing.T) {
	s := New(zerolog.Nop())
	if !s.IsAvailable() {
		t.Skip("no machine id available in this environment")
	}

	require.False(t, s.Verify("anything", "not-valid-base64!!"))
}
