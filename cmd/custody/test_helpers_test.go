package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	evidence   string
}

// setupCLITestEnv writes a config file whose paths live under a temp dir.
// driveURL may be empty when the command under test never reaches the API.
func setupCLITestEnv(t *testing.T, driveURL string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	evidence := filepath.Join(base, "evidence")
	if err := os.MkdirAll(evidence, 0o755); err != nil {
		t.Fatalf("mkdir evidence: %v", err)
	}
	configPath := filepath.Join(base, "config.toml")

	content := fmt.Sprintf(
		"[paths]\nevidence_dir = %q\nscreenshot_dir = %q\nlog_dir = %q\n\n"+
			"[drive]\naccess_token = \"test-token\"\n",
		evidence,
		filepath.Join(base, "screenshots"),
		filepath.Join(base, "logs"),
	)
	if driveURL != "" {
		content += fmt.Sprintf("base_url = %q\n", driveURL)
	}
	content += "\n[capture]\nscreenshots = false\nprobe_read_only = false\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{baseDir: base, configPath: configPath, evidence: evidence}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
