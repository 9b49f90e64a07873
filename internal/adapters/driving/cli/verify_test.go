package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLayoutVerifier records the verified layout.
type mockLayoutVerifier struct {
	dir    string
	prefix string
	err    error
}

func (m *mockLayoutVerifier) VerifyLayout(_ context.Context, dir, prefix string) error {
	m.dir = dir
	m.prefix = prefix
	return m.err
}

func TestVerifyCmd_Use(t *testing.T) {
	assert.Equal(t, "verify DIR", verifyCmd.Use)
}

func TestVerifyCmd_VerifiesLayout(t *testing.T) {
	verifier := &mockLayoutVerifier{}
	setupCLITest(t, &Services{Verifier: verifier}, nil)

	out, err := executeCommand("verify", "/backups/photos", "-p", "photos ")
	require.NoError(t, err)

	assert.Equal(t, "/backups/photos", verifier.dir)
	assert.Equal(t, "photos ", verifier.prefix)
	assert.Contains(t, out, "All volumes verified")
}

func TestVerifyCmd_DefaultPrefixFromDir(t *testing.T) {
	verifier := &mockLayoutVerifier{}
	setupCLITest(t, &Services{Verifier: verifier}, nil)

	_, err := executeCommand("verify", "/backups/photos")
	require.NoError(t, err)

	assert.Equal(t, "photos ", verifier.prefix)
}

func TestVerifyCmd_FailurePropagates(t *testing.T) {
	verifier := &mockLayoutVerifier{err: errors.New("checksum mismatch in volume 2")}
	setupCLITest(t, &Services{Verifier: verifier}, nil)

	_, err := executeCommand("verify", "/backups/photos")

	assert.ErrorContains(t, err, "checksum mismatch")
}

func TestVerifyCmd_NoVerifierAvailable(t *testing.T) {
	setupCLITest(t, &Services{}, nil)

	_, err := executeCommand("verify", "/backups/photos")

	assert.ErrorContains(t, err, "not available")
}
