package retention

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"docarchive/internal/logging"
	repoMocks "docarchive/internal/repository/mocks"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newJob(t *testing.T, audit AuditPruner, docs DocumentArchiver, w io.Writer) *Job {
	t.Helper()
	j, err := NewJob(audit, docs, 2*time.Hour, logging.New(w, time.UTC), prometheus.NewRegistry())
	require.NoError(t, err)
	j.now = func() time.Time { return now }
	return j
}

func TestNewJob_RejectsNonPositiveAge(t *testing.T) {
	_, err := NewJob(nil, nil, 0, nil, nil)
	assert.Error(t, err)
}

func TestJob_RunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("prunes and archives", func(t *testing.T) {
		audit := new(repoMocks.MockAuditRepository)
		docs := new(repoMocks.MockDocumentRepository)
		audit.On("DeleteOlderThan", ctx, now.Add(-2*time.Hour)).Return(int64(4), nil)
		docs.On("ArchiveExpired", ctx, now).Return(int64(2), nil)
		j := newJob(t, audit, docs, io.Discard)

		res, err := j.RunOnce(ctx)

		require.NoError(t, err)
		assert.Equal(t, Result{AuditRemoved: 4, DocumentsArchived: 2}, res)
		assert.Equal(t, float64(4), testutil.ToFloat64(j.removed.WithLabelValues("audit")))
		assert.Equal(t, float64(2), testutil.ToFloat64(j.removed.WithLabelValues("archived")))
		audit.AssertExpectations(t)
		docs.AssertExpectations(t)
	})

	t.Run("audit failure still archives", func(t *testing.T) {
		var buf bytes.Buffer
		audit := new(repoMocks.MockAuditRepository)
		docs := new(repoMocks.MockDocumentRepository)
		audit.On("DeleteOlderThan", ctx, mock.Anything).Return(int64(0), errors.New("db fail"))
		docs.On("ArchiveExpired", ctx, now).Return(int64(1), nil)
		j := newJob(t, audit, docs, &buf)

		res, err := j.RunOnce(ctx)

		assert.ErrorContains(t, err, "prune audit log: db fail")
		assert.Equal(t, int64(1), res.DocumentsArchived)
		assert.True(t, strings.Contains(buf.String(), `"event":"retention_failed"`))
		docs.AssertExpectations(t)
	})
}

func TestJob_RunStopsOnCancel(t *testing.T) {
	audit := new(repoMocks.MockAuditRepository)
	docs := new(repoMocks.MockDocumentRepository)
	ran := make(chan struct{}, 1)
	audit.On("DeleteOlderThan", mock.Anything, mock.Anything).Return(int64(0), nil).Run(func(mock.Arguments) {
		select {
		case ran <- struct{}{}:
		default:
		}
	})
	docs.On("ArchiveExpired", mock.Anything, mock.Anything).Return(int64(0), nil)
	j := newJob(t, audit, docs, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Run(ctx, time.Hour)
		close(done)
	}()

	// The first pass runs immediately.
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("first pass did not run")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
