//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// TestConfig holds configuration for integration tests.
type TestConfig struct {
	APIKey   string
	APIToken string
	BaseURI  string
	AuvoPath string
	Verbose  bool
}

// LoadTestConfig loads configuration from environment variables.
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		APIKey:   os.Getenv("AUVO_API_KEY"),
		APIToken: os.Getenv("AUVO_API_TOKEN"),
		BaseURI:  os.Getenv("AUVO_API_BASE_URL"),
		AuvoPath: getAuvoPath(),
		Verbose:  os.Getenv("AUVO_VERBOSE") == "true",
	}
}

// getAuvoPath determines the path to the auvo binary.
func getAuvoPath() string {
	if path := os.Getenv("AUVO_BINARY_PATH"); path != "" {
		return path
	}

	candidates := []string{
		"../../auvo",
		"./auvo",
		"../auvo",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "auvo"
}

// SkipIfMissingCredentials skips the test when no API credentials are set.
func (config *TestConfig) SkipIfMissingCredentials(t *testing.T) {
	t.Helper()

	if config.APIKey == "" || config.APIToken == "" {
		t.Skip("AUVO_API_KEY and AUVO_API_TOKEN not set, skipping integration test")
	}
}

// SkipIfMissingBinary additionally skips CLI tests when the binary is absent.
func (config *TestConfig) SkipIfMissingBinary(t *testing.T) {
	t.Helper()
	config.SkipIfMissingCredentials(t)

	if _, err := exec.LookPath(config.AuvoPath); err != nil {
		t.Skipf("auvo binary not found at %s, skipping integration test", config.AuvoPath)
	}
}

// CommandRunner runs auvo commands with an isolated HOME so the developer's
// config file is never read or written.
type CommandRunner struct {
	config *TestConfig
	home   string
	t      *testing.T
}

// NewCommandRunner creates a new command runner.
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	return &CommandRunner{
		config: config,
		home:   t.TempDir(),
		t:      t,
	}
}

// Run executes an auvo command and returns its output.
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command(runner.config.AuvoPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+runner.home)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.AuvoPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// AssertJSONOutput verifies command output is valid JSON.
func AssertJSONOutput(t *testing.T, output string) {
	t.Helper()

	if !json.Valid([]byte(strings.TrimSpace(output))) {
		t.Errorf("Output is not valid JSON: %s", output)
	}
}

// AssertYAMLOutput verifies command output is valid YAML.
func AssertYAMLOutput(t *testing.T, output string) {
	t.Helper()

	var decoded any
	if err := yaml.Unmarshal([]byte(output), &decoded); err != nil {
		t.Errorf("Output is not valid YAML: %v\n%s", err, output)
	}
}
