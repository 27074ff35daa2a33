package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/runger/sift/internal/config"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(args, strings.NewReader(""), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestConfigCmd_List(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	code, out, _ := runCLI(t, "--color", "never", "--config", path, "config")
	if code != exitSuccess {
		t.Fatalf("exit code = %d, want %d", code, exitSuccess)
	}
	for _, key := range config.ListKeys() {
		if !strings.Contains(out, key+" = ") {
			t.Errorf("list output missing %q", key)
		}
	}
	if !strings.Contains(out, "Config file: "+path) {
		t.Errorf("list output should name the config file, got:\n%s", out)
	}
}

func TestConfigCmd_SetThenGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	code, out, errOut := runCLI(t, "--color", "never", "--config", path, "config", "picker.border", "double")
	if code != exitSuccess {
		t.Fatalf("set exit code = %d, stderr: %s", code, errOut)
	}
	if !strings.Contains(out, "picker.border = double") {
		t.Errorf("set output = %q", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	code, out, _ = runCLI(t, "--config", path, "config", "picker.border")
	if code != exitSuccess || strings.TrimSpace(out) != "double" {
		t.Errorf("get = %q (exit %d), want double", out, code)
	}
}

func TestConfigCmd_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if code, _, errOut := runCLI(t, "--config", path, "config", "preview.kind", "file"); code != exitSuccess {
		t.Fatalf("set exit code = %d, stderr: %s", code, errOut)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[preview]") {
		t.Errorf("expected TOML output, got:\n%s", data)
	}
}

func TestConfigCmd_InvalidValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	code, _, errOut := runCLI(t, "--color", "never", "--config", path, "config", "picker.border", "wavy")
	if code != exitFallback {
		t.Errorf("exit code = %d, want %d", code, exitFallback)
	}
	if !strings.HasPrefix(errOut, "sift: ") {
		t.Errorf("stderr = %q, want sift: prefix", errOut)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("invalid value should not be saved")
	}
}

func TestConfigCmd_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if code, _, _ := runCLI(t, "--config", path, "config", "nope.key"); code != exitFallback {
		t.Errorf("exit code = %d, want %d", code, exitFallback)
	}
}
