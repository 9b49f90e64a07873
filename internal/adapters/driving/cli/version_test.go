package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd_Use(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
}

func TestVersionCmd_PrintsVersion(t *testing.T) {
	setupCLITest(t, &Services{}, nil)

	out, err := executeCommand("version")
	require.NoError(t, err)

	assert.Contains(t, out, "create-par2 version")
}
