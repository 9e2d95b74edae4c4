package filesystem

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

// =============================================================================
// isStale Tests
// =============================================================================

func TestIsStale(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"Nil", nil, false},
		{"ESTALE", syscall.ESTALE, true},
		{"Path error", &os.PathError{Op: "open", Path: "/x", Err: syscall.ESTALE}, true},
		{"Wrapped", fmt.Errorf("read: %w", syscall.ESTALE), true},
		{"Other errno", syscall.ENOENT, false},
		{"Not exist", os.ErrNotExist, false},
		{"Plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isStale(tt.err); got != tt.want {
				t.Errorf("isStale(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// =============================================================================
// withRetry Tests
// =============================================================================

func TestWithRetry(t *testing.T) {
	stale := &os.PathError{Op: "open", Path: "/nfs/page.html", Err: syscall.ESTALE}

	tests := []struct {
		name      string
		failures  int
		failWith  error
		wantCalls int
		wantErr   bool
	}{
		{name: "First try", failures: 0, wantCalls: 1},
		{name: "Recovers after stale handles", failures: 2, failWith: stale, wantCalls: 3},
		{name: "Gives up", failures: 10, failWith: stale, wantCalls: 4, wantErr: true},
		{name: "Other errors are not retried", failures: 10, failWith: os.ErrPermission, wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			got, err := withRetry("read", "/nfs/page.html", fastRetry(), func() (string, error) {
				calls++
				if calls <= tt.failures {
					return "", tt.failWith
				}
				return "ok", nil
			})

			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != "ok" {
				t.Errorf("result = %q, want ok", got)
			}
			if tt.wantErr && !errors.Is(err, tt.failWith) {
				t.Errorf("error = %v, want %v", err, tt.failWith)
			}
		})
	}
}

func TestWithRetryBackoffCap(t *testing.T) {
	config := RetryConfig{MaxRetries: 3, InitialBackoff: 5 * time.Millisecond, MaxBackoff: 5 * time.Millisecond}

	start := time.Now()
	_, err := withRetry("open", "/nfs/x", config, func() (int, error) {
		return 0, syscall.ESTALE
	})
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected error")
	}
	// Three sleeps of at most 5ms each
	if elapsed < 15*time.Millisecond {
		t.Errorf("elapsed = %v, want at least 15ms", elapsed)
	}
	if elapsed > time.Second {
		t.Errorf("elapsed = %v, backoff not capped", elapsed)
	}
}

// =============================================================================
// ReadFile / Open Tests
// =============================================================================

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(path, []byte("<html></html>"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	data, err := ReadFile(path, fastRetry())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "<html></html>" {
		t.Errorf("ReadFile() = %q", data)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing"), fastRetry()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadFile(missing) error = %v, want ErrNotExist", err)
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: \"8080\"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	f, err := Open(path, DefaultRetryConfig())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(data) != "port: \"8080\"\n" {
		t.Errorf("content = %q", data)
	}

	if _, err := Open(filepath.Join(t.TempDir(), "missing"), DefaultRetryConfig()); err == nil {
		t.Error("expected error for a missing file")
	}
}
