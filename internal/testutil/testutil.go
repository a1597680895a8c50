package testutil

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/headline-goat/oconv/internal/sandbox"
	"github.com/headline-goat/oconv/internal/store"
)

// SandboxNow is the clock every test sandbox runs on.
var SandboxNow = time.Date(2014, 1, 15, 0, 0, 0, 0, time.UTC)

// SetupTestStore creates a test database and returns the store.
// Uses t.TempDir() for automatic cleanup on test completion.
func SetupTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.Open(TempDBPath(t))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// TempDBPath returns a database path inside t.TempDir().
func TempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

// SetupSandbox starts an in-memory sandbox on SandboxNow and returns it with its URL.
func SetupSandbox(t *testing.T) (*sandbox.Server, string) {
	t.Helper()

	sb := sandbox.New(0,
		sandbox.WithLogger(DiscardLogger()),
		sandbox.WithClock(func() time.Time { return SandboxNow }),
	)
	ts := httptest.NewServer(sb.Handler())
	t.Cleanup(ts.Close)

	return sb, ts.URL
}

func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
