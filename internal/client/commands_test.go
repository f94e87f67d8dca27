package client

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommandLowercasesVerbOnly(t *testing.T) {
	var errOut bytes.Buffer
	cmd, err := ParseCommand("LOGIN alice pass1234", &errOut)
	require.NoError(t, err)
	require.NotNil(t, cmd)
	assert.Equal(t, CmdLogin, cmd.Kind)
	assert.Equal(t, "alice", cmd.Name)
	assert.Equal(t, "pass1234", cmd.Password)
}

func TestParseCommandLoginWrongArgCountPrintsUsage(t *testing.T) {
	var errOut bytes.Buffer
	cmd, err := ParseCommand("login onlyname", &errOut)
	require.NoError(t, err)
	assert.Nil(t, cmd)
	assert.Contains(t, errOut.String(), `Usage: login name password`)
}

func TestParseCommandSendPreservesSpacesInMessage(t *testing.T) {
	var errOut bytes.Buffer
	cmd, err := ParseCommand("send hello there world", &errOut)
	require.NoError(t, err)
	require.NotNil(t, cmd)
	assert.Equal(t, CmdSend, cmd.Kind)
	assert.Equal(t, "hello there world", cmd.Message)
	assert.False(t, cmd.Anonymous)
}

func TestParseCommandSendAMarksAnonymous(t *testing.T) {
	var errOut bytes.Buffer
	cmd, err := ParseCommand("senda shh", &errOut)
	require.NoError(t, err)
	require.NotNil(t, cmd)
	assert.True(t, cmd.Anonymous)
}

func TestParseCommandSendPrivPreservesSpacesInMessage(t *testing.T) {
	var errOut bytes.Buffer
	cmd, err := ParseCommand("sendpriv bob hi there bob", &errOut)
	require.NoError(t, err)
	require.NotNil(t, cmd)
	assert.Equal(t, CmdSendPrivate, cmd.Kind)
	assert.Equal(t, "bob", cmd.Name)
	assert.Equal(t, "hi there bob", cmd.Message)
}

func TestParseCommandSendPrivMissingMessagePrintsUsage(t *testing.T) {
	var errOut bytes.Buffer
	cmd, err := ParseCommand("sendpriv bob", &errOut)
	require.NoError(t, err)
	assert.Nil(t, cmd)
	assert.Contains(t, errOut.String(), "Usage: sendpriv name message")
}

func TestParseCommandUnknownVerb(t *testing.T) {
	var errOut bytes.Buffer
	cmd, err := ParseCommand("frobnicate", &errOut)
	require.NoError(t, err)
	assert.Nil(t, cmd)
	assert.Contains(t, errOut.String(), `Unknown command "frobnicate"`)
}

func TestParseCommandQuitRejectsTrailingArgs(t *testing.T) {
	var errOut bytes.Buffer
	cmd, err := ParseCommand("quit now", &errOut)
	require.NoError(t, err)
	assert.Nil(t, cmd)
	assert.Contains(t, errOut.String(), "Usage: quit")
}
