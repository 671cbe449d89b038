package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorge-barreto/reportd/internal/genai"
	"github.com/jorge-barreto/reportd/internal/progress"
	"github.com/jorge-barreto/reportd/internal/prompts"
	"github.com/jorge-barreto/reportd/internal/scheduler"
	"github.com/jorge-barreto/reportd/internal/steps"
	"github.com/jorge-barreto/reportd/internal/store"
)

const goodInterface = "```html\n<main>report</main>\n```\n```css\nmain{}\n```"

// happyGen answers every call so that a run saves a report.
func happyGen(_ context.Context, _, _ string, p genai.Params) (string, error) {
	switch p {
	case genai.ResearchParams:
		return "Bitcoin\nVALIDATION RESULT: PASS", nil
	case genai.InterfaceParams:
		return goodInterface, nil
	default:
		return "text", nil
	}
}

func newService(t *testing.T, gen genai.Generator, credential string) (*Service, *store.Memory, *progress.Registry) {
	t.Helper()
	mem := store.NewMemory()
	reg := progress.NewRegistry()
	var n atomic.Int64
	svc := New(Options{
		Steps: steps.New(steps.Deps{
			Generator: gen,
			Prompts:   prompts.MapSource{prompts.CombinedResearchValidation: "Research {{DATE}}"},
			Store:     mem,
		}),
		Registry:           reg,
		Reports:            mem,
		Credential:         credential,
		MaxAttempts:        2,
		MaxProgressEntries: 10,
		NewID:              func() string { return fmt.Sprintf("sess-%d", n.Add(1)) },
	})
	return svc, mem, reg
}

func TestRunWorkflow_Success(t *testing.T) {
	svc, mem, _ := newService(t, genai.GeneratorFunc(happyGen), "key")

	st := svc.RunWorkflow(context.Background(), "key", 3)

	require.NotNil(t, st.ReportID, "errors: %v", st.Errors)
	assert.Equal(t, "sess-1", st.SessionID)
	assert.Equal(t, 3, st.MaxAttempts)
	assert.Equal(t, 1, mem.Len())
}

func TestCreateManualReport(t *testing.T) {
	svc, _, _ := newService(t, genai.GeneratorFunc(happyGen), "key")

	id, err := svc.CreateManualReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}

func TestCreateManualReport_NoCredential(t *testing.T) {
	svc, _, _ := newService(t, genai.GeneratorFunc(happyGen), " ")

	_, err := svc.CreateManualReport(context.Background())
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestCreateManualReport_Failure(t *testing.T) {
	gen := genai.GeneratorFunc(func(context.Context, string, string, genai.Params) (string, error) {
		return "", errors.New("backend down")
	})
	svc, mem, _ := newService(t, gen, "key")

	_, err := svc.CreateManualReport(context.Background())
	require.ErrorIs(t, err, ErrRunFailed)
	assert.Contains(t, err.Error(), "backend down")
	assert.Equal(t, 0, mem.Len())
}

func TestCreateManualReport_RateLimited(t *testing.T) {
	gen := genai.GeneratorFunc(func(context.Context, string, string, genai.Params) (string, error) {
		return "", &genai.RateLimitError{Message: "429 quota"}
	})
	svc, _, _ := newService(t, gen, "key")

	_, err := svc.CreateManualReport(context.Background())
	require.ErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "Skipped save due to rate limit")
}

func TestScheduledRun_UsesManualPath(t *testing.T) {
	svc, mem, _ := newService(t, genai.GeneratorFunc(happyGen), "key")

	id, err := svc.ScheduledRun()(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, 1, mem.Len())
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestStartAsync_CompletesProgress(t *testing.T) {
	svc, _, _ := newService(t, genai.GeneratorFunc(happyGen), "key")

	id, err := svc.StartAsync()
	require.NoError(t, err)
	assert.Equal(t, "sess-1", id)

	require.NoError(t, svc.Shutdown(5*time.Second))
	d, ok := svc.Progress(id)
	require.True(t, ok)
	assert.Equal(t, progress.StatusCompleted, d.Status)
	require.NotNil(t, d.ReportID)
	assert.Equal(t, int64(1), *d.ReportID)
}

func TestStartAsync_ErrorProgress(t *testing.T) {
	gen := genai.GeneratorFunc(func(context.Context, string, string, genai.Params) (string, error) {
		return "", &genai.RateLimitError{Message: "resource exhausted"}
	})
	svc, _, _ := newService(t, gen, "key")

	id, err := svc.StartAsync()
	require.NoError(t, err)
	require.NoError(t, svc.Shutdown(5*time.Second))

	d, ok := svc.Progress(id)
	require.True(t, ok)
	assert.Equal(t, progress.StatusError, d.Status)
	require.NotNil(t, d.Error)
	assert.Contains(t, *d.Error, "rate limit")
}

func TestStartAsync_NoCredential(t *testing.T) {
	svc, _, reg := newService(t, genai.GeneratorFunc(happyGen), "")

	_, err := svc.StartAsync()
	assert.ErrorIs(t, err, ErrNoCredential)
	assert.Equal(t, 0, reg.Len())
}

func TestStartAsync_AfterShutdown(t *testing.T) {
	svc, _, _ := newService(t, genai.GeneratorFunc(happyGen), "key")
	require.NoError(t, svc.Shutdown(time.Second))

	_, err := svc.StartAsync()
	assert.ErrorContains(t, err, "shutting down")
}

func TestShutdown_CancelsAfterGrace(t *testing.T) {
	started := make(chan struct{})
	var once sync.Once
	gen := genai.GeneratorFunc(func(ctx context.Context, _, _ string, _ genai.Params) (string, error) {
		once.Do(func() { close(started) })
		<-ctx.Done()
		return "", ctx.Err()
	})
	svc, mem, _ := newService(t, gen, "key")

	id, err := svc.StartAsync()
	require.NoError(t, err)
	<-started

	err = svc.Shutdown(20 * time.Millisecond)
	assert.ErrorContains(t, err, "cancelled")
	assert.Equal(t, 0, mem.Len())

	waitFor(t, func() bool {
		d, _ := svc.Progress(id)
		return d.Completed
	})
	d, _ := svc.Progress(id)
	assert.Equal(t, progress.StatusError, d.Status)
}

func TestStartAsync_CleansUpRegistry(t *testing.T) {
	svc, _, reg := newService(t, genai.GeneratorFunc(happyGen), "key")
	for i := 0; i < 12; i++ {
		reg.Start(fmt.Sprintf("old-%d", i))
		reg.Complete(fmt.Sprintf("old-%d", i), int64(i))
	}

	_, err := svc.StartAsync()
	require.NoError(t, err)
	require.NoError(t, svc.Shutdown(5*time.Second))

	assert.LessOrEqual(t, reg.Len(), 11)
	_, ok := reg.Get("old-0")
	assert.False(t, ok, "oldest completed session should be evicted")
}

func TestSchedulerStatus(t *testing.T) {
	svc, _, _ := newService(t, genai.GeneratorFunc(happyGen), "key")

	st := svc.SchedulerStatus()
	assert.False(t, st.SchedulerEnabled)
	assert.True(t, st.APIKeyConfigured)
	assert.Equal(t, 2, st.MaxAttempts)

	svc.AttachScheduler(scheduler.New(scheduler.Config{
		Enabled:    true,
		Credential: "key",
		Location:   time.UTC,
	}, svc.ScheduledRun()))
	st = svc.SchedulerStatus()
	assert.True(t, st.SchedulerEnabled)
	assert.Equal(t, []string{"07:30", "19:00"}, st.Times)
	assert.Equal(t, "UTC", st.Timezone)
}

func TestLatestReport(t *testing.T) {
	svc, mem, _ := newService(t, genai.GeneratorFunc(happyGen), "key")

	_, err := svc.LatestReport(context.Background())
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = mem.Insert(context.Background(), store.NewReport{HTML: "<p>a</p>"})
	require.NoError(t, err)
	r, err := svc.LatestReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "<p>a</p>", r.HTML)

	r, err = svc.Report(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.ID)

	_, err = svc.Report(context.Background(), 99)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestNoStore(t *testing.T) {
	svc := New(Options{})
	_, err := svc.LatestReport(context.Background())
	assert.ErrorIs(t, err, ErrNoStore)
	_, ok := svc.Progress("x")
	assert.False(t, ok)
}
