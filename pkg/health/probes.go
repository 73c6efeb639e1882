package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/codeready-toolchain/calm/pkg/embedding"
	"github.com/codeready-toolchain/calm/pkg/vectorstore"
)

// EmbedderProbe reports whether role's embedder can run inference —
// a real call, not just "is a model path configured", mirroring the
// teacher's own health check (a live query, not a connection-pool stat).
func EmbedderProbe(registry *embedding.Registry, role embedding.Role) Probe {
	return func(ctx context.Context) error {
		_, err := registry.EmbedOne(ctx, role, "healthcheck")
		return err
	}
}

// StoreProbe reports whether the vector store can serve a read for the
// given collection.
func StoreProbe(store vectorstore.Store, collection string) Probe {
	return func(ctx context.Context) error {
		_, err := store.Count(ctx, collection, nil)
		return err
	}
}

// JournalProbe reports whether dir (the journal's home) is present and
// writable by attempting to create and remove a small marker file —
// "journal lock ownership" in practice means this process can still write
// to its own journal directory.
func JournalProbe(dir string) Probe {
	return func(_ context.Context) error {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("journal dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("journal dir %q is not a directory", dir)
		}
		probe := filepath.Join(dir, ".health_probe")
		if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
			return fmt.Errorf("journal dir not writable: %w", err)
		}
		return os.Remove(probe)
	}
}
