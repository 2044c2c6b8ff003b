package cmd_test

import (
	"bytes"
	"testing"

	"github.com/nanovms/ldemul/cmd"
	"github.com/nanovms/ldemul/constants"
	"github.com/stretchr/testify/assert"
)

func TestVersionCommand(t *testing.T) {
	versionCmd := cmd.VersionCommand()
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.SetArgs([]string{})

	err := versionCmd.Execute()

	assert.Nil(t, err)
	assert.Equal(t, "ldemul version: "+constants.Version+"\n", out.String())
}
