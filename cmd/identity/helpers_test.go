package identity

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tunebox/cmd/security/password"
)

func testCodec(t *testing.T) *PasswordCodec {
	t.Helper()

	cfg := password.DefaultConfig()
	cfg.Params.MemoryKiB = 8 * 1024
	cfg.Params.Iterations = 1
	cfg.Params.Parallelism = 1

	codec, err := NewPasswordCodec(cfg)
	require.NoError(t, err)
	return codec
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type storeOption func(*FileStoreOptions)

func withStrictRead() storeOption {
	return func(o *FileStoreOptions) { o.StrictRead = true }
}

func newTestStore(t *testing.T, opts ...storeOption) (*FileStore, *PasswordCodec) {
	t.Helper()

	codec := testCodec(t)
	o := FileStoreOptions{
		Path:   filepath.Join(t.TempDir(), "data", "database.json"),
		Hasher: codec,
		Logger: discardLogger(),
		Now:    func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) },
	}
	for _, opt := range opts {
		opt(&o)
	}

	s, err := NewFileStore(o)
	require.NoError(t, err)
	return s, codec
}
