package subprocess

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func Test_Exec_Run_CapturesStdout(t *testing.T) {
	out, err := Exec{}.Run(context.Background(), "sh", "-c", "echo hello; echo noise >&2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if string(out) != "hello\n" {
		t.Errorf("unexpected result: got %q, want %q", out, "hello\n")
	}
}

func Test_Exec_Run_ReportsStderrOnFailure(t *testing.T) {
	_, err := Exec{}.Run(context.Background(), "sh", "-c", "echo broken >&2; exit 3")
	if err == nil {
		t.Fatal("unexpected success")
	}

	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("error does not mention stderr: %v", err)
	}
}

func Test_Exec_Run_StopsAtDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := Exec{}.Run(ctx, "sleep", "10")
	if err == nil {
		t.Fatal("unexpected success")
	}

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("unexpected error: %v", err)
	}

	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("command was not stopped: took %s", elapsed)
	}
}
