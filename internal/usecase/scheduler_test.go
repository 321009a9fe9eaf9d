package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LeadScout/internal/domain"
	"LeadScout/internal/infrastructure/storage"
)

type manualDriver struct {
	job     func(time.Time)
	stopped bool
}

func (d *manualDriver) Start(_ context.Context, job func(time.Time)) error {
	d.job = job
	return nil
}

func (d *manualDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerRunsPipelineOnTrigger(t *testing.T) {
	t.Parallel()

	src := &fakeSource{
		platforms: []domain.Platform{testReddit},
		leads:     map[string][]domain.Lead{"reddit": redditLeads(1)},
		scanErr:   map[string]error{},
	}
	scorer := &scoreByTitle{}
	p := NewPipeline(PipelineDeps{Source: src, Scorer: scorer, Store: storage.NewFileStore(t.TempDir(), nil)})

	driver := &manualDriver{}
	s := NewScheduler(driver, p, nil)
	require.NoError(t, s.Start(context.Background()))
	require.NotNil(t, driver.job)

	driver.job(testNow)
	assert.Len(t, scorer.candidates, 1)

	// A failing heartbeat is logged, never propagated out of the trigger.
	src.scanErr["reddit"] = errors.New("reddit down")
	driver.job(testNow.Add(6 * time.Hour))
	assert.Len(t, scorer.candidates, 1)

	require.NoError(t, s.Stop(context.Background()))
	assert.True(t, driver.stopped)
}

func TestSchedulerWithoutDriverIsNoop(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil, nil, nil)
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}
