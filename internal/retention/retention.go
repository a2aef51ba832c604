// Package retention prunes the audit log and archives documents whose category retention has elapsed.
package retention

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"docarchive/internal/logging"
)

// AuditPruner removes audit entries created before cutoff.
type AuditPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// DocumentArchiver flags documents past their category's retention period.
type DocumentArchiver interface {
	ArchiveExpired(ctx context.Context, now time.Time) (int64, error)
}

// Result counts what a single pass changed.
type Result struct {
	AuditRemoved      int64 `json:"audit_removed"`
	DocumentsArchived int64 `json:"documents_archived"`
}

// Job is one retention pass, runnable once or on an interval.
type Job struct {
	audit   AuditPruner
	docs    DocumentArchiver
	maxAge  time.Duration
	log     *logging.Logger
	now     func() time.Time
	removed *prometheus.CounterVec
}

// NewJob builds a Job keeping audit entries for maxAge. reg may be nil when metrics are not exported.
func NewJob(audit AuditPruner, docs DocumentArchiver, maxAge time.Duration, log *logging.Logger, reg prometheus.Registerer) (*Job, error) {
	if maxAge <= 0 {
		return nil, fmt.Errorf("retention: max age must be positive, got %s", maxAge)
	}
	if log == nil {
		log = logging.Default()
	}
	j := &Job{
		audit:  audit,
		docs:   docs,
		maxAge: maxAge,
		log:    log.With("retention"),
		now:    func() time.Time { return time.Now().UTC() },
		removed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retention_rows_total",
				Help: "Rows affected by retention passes.",
			},
			[]string{"kind"},
		),
	}
	if reg != nil {
		if err := reg.Register(j.removed); err != nil {
			return nil, err
		}
	}
	return j, nil
}

// RunOnce prunes the audit log and archives expired documents.
// A failing step does not prevent the other from running.
func (j *Job) RunOnce(ctx context.Context) (Result, error) {
	var res Result
	now := j.now()

	n, auditErr := j.audit.DeleteOlderThan(ctx, now.Add(-j.maxAge))
	if auditErr != nil {
		auditErr = fmt.Errorf("prune audit log: %w", auditErr)
	} else {
		res.AuditRemoved = n
		j.removed.WithLabelValues("audit").Add(float64(n))
	}

	n, docErr := j.docs.ArchiveExpired(ctx, now)
	if docErr != nil {
		docErr = fmt.Errorf("archive documents: %w", docErr)
	} else {
		res.DocumentsArchived = n
		j.removed.WithLabelValues("archived").Add(float64(n))
	}

	err := errors.Join(auditErr, docErr)
	if err != nil {
		j.log.Error(ctx, "retention_failed", err, map[string]any{"audit_removed": res.AuditRemoved, "documents_archived": res.DocumentsArchived})
	} else {
		j.log.Info(ctx, "retention_completed", map[string]any{"audit_removed": res.AuditRemoved, "documents_archived": res.DocumentsArchived})
	}
	return res, err
}

// Run executes a pass immediately and then every interval until ctx is cancelled.
func (j *Job) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 20 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		_, _ = j.RunOnce(ctx)
		select {
		case <-ctx.Done():
			j.log.Info(context.Background(), "retention_stopped", nil)
			return
		case <-ticker.C:
		}
	}
}
