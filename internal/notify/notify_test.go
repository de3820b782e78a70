package notify

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCommandNotifierPassesTitleAndBody(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.txt")

	// Capture the arguments the notifier hands to the command.
	n := NewCommandNotifier("sh", []string{"-c", `printf '%s|%s' "$0" "$1" > ` + out}, nil)
	n.Notify(context.Background(), "Approval required", "Agent wants to run Bash")

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("command did not run: %v", err)
	}
	got := string(data)
	if !strings.Contains(got, "Approval required") || !strings.Contains(got, "Agent wants to run Bash") {
		t.Errorf("command saw %q", got)
	}
}

func TestCommandNotifierFailureIsSilent(t *testing.T) {
	n := NewCommandNotifier("/nonexistent/notifier", nil, nil)
	// Must not panic or return anything; failures are logged only.
	n.Notify(context.Background(), "title", "body")
}

func TestNopNotifier(t *testing.T) {
	NopNotifier{}.Notify(context.Background(), "title", "body")
}
