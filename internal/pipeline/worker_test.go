package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Docura/internal/core"
	"github.com/markdave123-py/Docura/internal/models"
)

func TestWorkerProcessesEnqueuedEvents(t *testing.T) {
	db := newFakeDB()
	norm := fixedNormalizer{
		provider: core.ProviderStandardOCR,
		pages:    []core.PageContent{{PageNumber: 1, TextBlocks: []string{"queued document"}}},
	}
	srv := docServer(t, []byte("bytes"))

	w, err := NewWorker(newTestPipeline(t, db, norm), 2, testLogger())
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	w.Enqueue(testEvent(srv.URL + "/d.png"))

	require.Eventually(t, func() bool {
		db.mu.Lock()
		defer db.mu.Unlock()
		return db.jobStatus["job-1"] == models.JobCompleted
	}, 5*time.Second, 10*time.Millisecond)
}

func TestNewWorkerDefaultsPoolSize(t *testing.T) {
	db := newFakeDB()
	w, err := NewWorker(newTestPipeline(t, db, fixedNormalizer{provider: core.ProviderStandardOCR}), 0, testLogger())
	require.NoError(t, err)
	defer w.Stop()
	assert.NotNil(t, w)
}
