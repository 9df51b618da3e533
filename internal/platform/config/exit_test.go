package config_test

import (
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/louisbranch/takehome/internal/platform/config"
)

// Exitf calls os.Exit, so the assertions run against a child copy of the
// test binary.
func TestExitfTerminatesWithStatusOne(t *testing.T) {
	if os.Getenv("EXITF_CHILD") == "1" {
		config.Exitf("open store: %s", "no such file")
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestExitfTerminatesWithStatusOne$")
	cmd.Env = append(os.Environ(), "EXITF_CHILD=1")
	out, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected exit error, got %T: %v", err, err)
	}
	if exitErr.ExitCode() != 1 {
		t.Fatalf("exit code = %d, want 1", exitErr.ExitCode())
	}
	if !strings.Contains(string(out), "open store: no such file") {
		t.Fatalf("stderr missing message, got %q", string(out))
	}
}
