package job

import (
	"context"
	"time"

	"Playshare/logger"
	"Playshare/repository"
	"Playshare/storage"

	"github.com/pkg/errors"
)

// PruneReport summarises one cleanup pass.
type PruneReport struct {
	Scanned int
	Deleted int
	Young   int // unreferenced but inside the grace period
	Failed  int
}

// OrphanCleanupJob deletes uploaded files that no playlist or song references.
// Files younger than the grace period are kept since they may belong to a
// request that has uploaded but not yet committed.
type OrphanCleanupJob struct {
	repos *repository.Repositories
	blobs storage.BlobStore
	grace time.Duration
	now   func() time.Time
}

func NewOrphanCleanupJob(repos *repository.Repositories, blobs storage.BlobStore, grace time.Duration) *OrphanCleanupJob {
	return &OrphanCleanupJob{
		repos: repos,
		blobs: blobs,
		grace: grace,
		now:   time.Now,
	}
}

// Run implements cron.Job.
func (j *OrphanCleanupJob) Run() {
	start := time.Now()
	report, err := j.Prune(context.Background())
	if err != nil {
		logger.Error("Orphan cleanup failed", logger.ErrorField(err))
		return
	}
	if report.Deleted > 0 || report.Failed > 0 {
		logger.Info("Orphan cleanup finished",
			logger.Int("scanned", report.Scanned),
			logger.Int("deleted", report.Deleted),
			logger.Int("failed", report.Failed),
			logger.Duration("took", time.Since(start)))
	}
}

// Prune performs one cleanup pass.
func (j *OrphanCleanupJob) Prune(ctx context.Context) (*PruneReport, error) {
	referenced, err := j.referencedKeys(ctx)
	if err != nil {
		return nil, err
	}

	report := &PruneReport{}
	cutoff := j.now().Add(-j.grace)
	for _, prefix := range []string{storage.CoverPrefix, storage.SongPrefix} {
		objects, err := j.blobs.List(ctx, prefix)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list %s", prefix)
		}
		for _, obj := range objects {
			report.Scanned++
			if referenced[obj.Key] {
				continue
			}
			if obj.LastModified.After(cutoff) {
				report.Young++
				continue
			}
			if err := j.blobs.Delete(ctx, obj.Key); err != nil {
				logger.Warn("Failed to delete orphaned file", logger.String("key", obj.Key), logger.ErrorField(err))
				report.Failed++
				continue
			}
			logger.Debug("Deleted orphaned file", logger.String("key", obj.Key))
			report.Deleted++
		}
	}
	return report, nil
}

func (j *OrphanCleanupJob) referencedKeys(ctx context.Context) (map[string]bool, error) {
	covers, err := j.repos.Playlists.CoverKeys(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load cover keys")
	}
	audio, err := j.repos.Songs.AudioKeys(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load audio keys")
	}

	keys := make(map[string]bool, len(covers)+len(audio))
	for _, k := range covers {
		keys[k] = true
	}
	for _, k := range audio {
		keys[k] = true
	}
	return keys, nil
}
