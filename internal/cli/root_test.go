package cli

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	rootCmd.SetArgs(nil)
	return buf.String(), err
}

func TestGetVersion(t *testing.T) {
	version := getVersion()
	assert.Contains(t, version, Version)
	assert.Contains(t, version, "commit:")
}

func TestRootHelpListsCommands(t *testing.T) {
	out, err := executeCommand(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "build")
	assert.Contains(t, out, "version")
}

func TestCompleteRequiresFlags(t *testing.T) {
	_, err := executeCommand(t, "complete")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestBuildRequiresFlags(t *testing.T) {
	_, err := executeCommand(t, "build")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestInitLoggingDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, initLogging)
}

func TestFirstEnv(t *testing.T) {
	t.Setenv("COMPLETIONIST_TEST_A", "")
	t.Setenv("COMPLETIONIST_TEST_B", "value-b")
	assert.Equal(t, "value-b", firstEnv("COMPLETIONIST_TEST_A", "COMPLETIONIST_TEST_B"))
	assert.Empty(t, firstEnv("COMPLETIONIST_TEST_A"))
}

func TestNewProviderOpenAI(t *testing.T) {
	p, err := newProvider("openai", "http://localhost:11434/v1", false, "sk-test", "")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
}

func TestNewProviderAnthropic(t *testing.T) {
	p, err := newProvider("anthropic", "http://localhost:11434/v1", false, "sk-ant-test", "")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := newProvider("cohere", "http://localhost:11434/v1", false, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "cohere"`)
}

func TestNewProviderManagedEndpointNeedsHubToken(t *testing.T) {
	_, err := newProvider("openai", "https://abc.aws.endpoints.huggingface.cloud/v1", true, "sk-test", "")
	require.Error(t, err)

	p, err := newProvider("openai", "https://abc.aws.endpoints.huggingface.cloud/v1", true, "", "hf_secret")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
}

func TestReadFileContent(t *testing.T) {
	content, err := readFileContent("")
	require.NoError(t, err)
	assert.Empty(t, content)

	f, err := os.CreateTemp(t.TempDir(), "prompt-*.txt")
	require.NoError(t, err)
	_, err = f.WriteString("You are helpful.")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	content, err = readFileContent(f.Name())
	require.NoError(t, err)
	assert.Equal(t, "You are helpful.", content)

	_, err = readFileContent("/nonexistent/prompt.txt")
	require.Error(t, err)
}
