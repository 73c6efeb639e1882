// Package retention implements the periodic cleanup sweep: pruning stale
// GHAP archive logs and vacuuming values whose cluster no longer exists.
// It runs the same start/stop/ticker loop shape used elsewhere in this
// codebase for background sweeps.
package retention

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/codeready-toolchain/calm/pkg/config"
	"github.com/codeready-toolchain/calm/pkg/values"
	"github.com/codeready-toolchain/calm/pkg/vectorstore"
)

// Service periodically enforces retention policy:
//   - deletes archive/*.jsonl files older than ArchiveRetentionDays
//   - deletes values whose cluster_id no longer resolves to a live cluster
//     (the cluster was superseded by a later Run and no member carries its
//     label anymore)
//
// Both sweeps are idempotent and safe to re-run.
type Service struct {
	config     *config.RetentionConfig
	archiveDir string
	store      vectorstore.Store
	values     *values.Service

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService builds a Service. archiveDir is the journal's archive
// directory (calm_dir/archive).
func NewService(cfg *config.RetentionConfig, archiveDir string, store vectorstore.Store, valueService *values.Service) *Service {
	return &Service{config: cfg, archiveDir: archiveDir, store: store, values: valueService}
}

// Start launches the background cleanup loop. Calling Start twice is a
// no-op.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("retention sweep started",
		"archive_retention_days", s.config.ArchiveRetentionDays,
		"interval", s.config.CleanupInterval)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("retention sweep stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runAll(ctx)

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

// RunOnce performs one sweep synchronously — used by tests, in addition to
// the ticking loop Start drives.
func (s *Service) RunOnce(ctx context.Context) {
	s.runAll(ctx)
}

func (s *Service) runAll(ctx context.Context) {
	s.pruneArchives()
	s.vacuumOrphanedValues(ctx)
}

func (s *Service) pruneArchives() {
	cutoff := time.Now().AddDate(0, 0, -s.config.ArchiveRetentionDays)

	entries, err := os.ReadDir(s.archiveDir)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		slog.Error("retention: failed to list archive directory", "dir", s.archiveDir, "error", err)
		return
	}

	pruned := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.archiveDir, entry.Name())
		if err := os.Remove(path); err != nil {
			slog.Error("retention: failed to prune archive file", "path", path, "error", err)
			continue
		}
		pruned++
	}
	if pruned > 0 {
		slog.Info("retention: pruned stale archive files", "count", pruned)
	}
}

func (s *Service) vacuumOrphanedValues(ctx context.Context) {
	all, err := s.values.List(ctx, nil)
	if err != nil {
		slog.Error("retention: failed to list values", "error", err)
		return
	}

	removed := 0
	for _, v := range all {
		live, err := s.clusterStillLive(ctx, v.ClusterID)
		if err != nil {
			slog.Warn("retention: failed to check cluster liveness, keeping value", "value_id", v.ID, "cluster_id", v.ClusterID, "error", err)
			continue
		}
		if live {
			continue
		}
		if err := s.store.Delete(ctx, vectorstore.CollectionValues, v.ID); err != nil {
			slog.Error("retention: failed to delete orphaned value", "value_id", v.ID, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		slog.Info("retention: vacuumed orphaned values", "count", removed)
	}
}

// clusterStillLive reports whether any member of the cluster_id's axis
// collection still carries its numeric label — i.e. the cluster the value
// was validated against hasn't been superseded by a later clustering run.
func (s *Service) clusterStillLive(ctx context.Context, clusterID string) (bool, error) {
	axis, label, err := values.ParseClusterID(clusterID)
	if err != nil {
		return false, err
	}
	collection := vectorstore.GHAPCollection(axis)
	if collection == "" {
		return false, nil
	}
	field := "cluster_label_" + string(axis)
	count, err := s.store.Count(ctx, collection, []vectorstore.Filter{
		{Field: field, Op: vectorstore.OpEq, Value: label},
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
