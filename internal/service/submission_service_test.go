package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/RubachokBoss/student-portal/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func descriptors(names ...string) []models.FileDescriptor {
	out := make([]models.FileDescriptor, len(names))
	for i, n := range names {
		body := []byte("content of " + n)
		out[i] = models.FileDescriptor{Name: n, Size: int64(len(body)), Content: models.BytesContent(body)}
	}
	return out
}

type scriptedTransport struct {
	percents []int
	err      error
	block    chan struct{}
}

func (t *scriptedTransport) Upload(ctx context.Context, _ UploadRequest, progress ProgressFunc) error {
	if t.block != nil {
		select {
		case <-t.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	for _, p := range t.percents {
		progress(p)
	}
	return t.err
}

type progressRecorder struct {
	mu   sync.Mutex
	seen []models.UploadProgress
}

func (r *progressRecorder) record(p models.UploadProgress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, p)
}

func (r *progressRecorder) percents() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.seen))
	for i, p := range r.seen {
		out[i] = p.Percent
	}
	return out
}

func TestSelectStagesValidBatch(t *testing.T) {
	p := NewPipeline(&scriptedTransport{}, nil, zerolog.Nop())

	require.NoError(t, p.Select(descriptors("a.pdf", "b.DOCX")))
	staged := p.Staged()
	require.Len(t, staged, 2)
	assert.Equal(t, "pdf", staged[0].Extension)
	assert.Equal(t, "docx", staged[1].Extension)
	assert.Equal(t, "a.pdf، b.DOCX", p.FileNames())
}

func TestSelectRejectsWholeBatch(t *testing.T) {
	p := NewPipeline(&scriptedTransport{}, nil, zerolog.Nop())

	err := p.Select(descriptors("a.pdf", "b.exe"))
	assert.ErrorIs(t, err, ErrFileTypeNotAllowed)
	assert.Contains(t, err.Error(), "b.exe")
	assert.Empty(t, p.Staged())

	require.NoError(t, p.Select(descriptors("keep.zip")))
	for n := 1; n <= 4; n++ {
		batch := descriptors("x.png", "y.jpg", "z.xlsx", "bad")
		assert.ErrorIs(t, p.Select(batch[4-n:]), ErrFileTypeNotAllowed, n)
		require.Len(t, p.Staged(), 1)
		assert.Equal(t, "keep.zip", p.Staged()[0].Name)
	}
}

func TestSelectEmptyKeepsPriorSelection(t *testing.T) {
	p := NewPipeline(&scriptedTransport{}, nil, zerolog.Nop())
	require.NoError(t, p.Select(descriptors("a.pdf")))

	assert.ErrorIs(t, p.Select(nil), ErrNoFilesChosen)
	assert.Len(t, p.Staged(), 1)
}

func TestSelectReplacesPriorSelection(t *testing.T) {
	p := NewPipeline(&scriptedTransport{}, nil, zerolog.Nop())
	require.NoError(t, p.Select(descriptors("a.pdf", "b.pdf")))
	require.NoError(t, p.Select(descriptors("c.png")))

	assert.Equal(t, "c.png", p.FileNames())
}

func TestBeginRequiresStagedFiles(t *testing.T) {
	p := NewPipeline(&scriptedTransport{}, nil, zerolog.Nop())

	_, err := p.Begin("1", "c")
	assert.ErrorIs(t, err, ErrNothingStaged)
	assert.Equal(t, models.UploadProgress{}, p.Progress())
	assert.Equal(t, RunIdle, p.Status().State)
}

func TestSimulatedRunReachesHundredAndClears(t *testing.T) {
	p := NewPipeline(NewSimulatedTransport(20, 0), nil, zerolog.Nop())
	rec := &progressRecorder{}
	p.OnProgress(rec.record)
	require.NoError(t, p.Select(descriptors("a.pdf", "b.docx")))

	run, err := p.Begin("20251234", "cyber101")
	require.NoError(t, err)
	assert.Equal(t, models.UploadProgress{Active: true, Percent: 0}, p.Progress())

	require.NoError(t, run.Execute(context.Background()))

	want := []int{0}
	for i := 1; i <= 20; i++ {
		want = append(want, i*5)
	}
	want = append(want, 100)
	assert.Equal(t, want, rec.percents())
	assert.Equal(t, models.UploadProgress{Active: false, Percent: 100}, p.Progress())
	assert.Empty(t, p.Staged())
	assert.Equal(t, RunSucceeded, p.Status().State)
	assert.Equal(t, []string{"a.pdf", "b.docx"}, p.Status().Uploaded)
}

func TestRunClampsProgress(t *testing.T) {
	p := NewPipeline(&scriptedTransport{percents: []int{10, 5, 30, 30, 150, 90}}, nil, zerolog.Nop())
	rec := &progressRecorder{}
	p.OnProgress(rec.record)
	require.NoError(t, p.Select(descriptors("a.pdf")))

	run, err := p.Begin("1", "c")
	require.NoError(t, err)
	require.NoError(t, run.Execute(context.Background()))

	seen := rec.percents()
	assert.Equal(t, []int{0, 10, 30, 100, 100}, seen)
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1])
	}
}

func TestRunForcesHundredOnCompletion(t *testing.T) {
	p := NewPipeline(&scriptedTransport{percents: []int{40}}, nil, zerolog.Nop())
	rec := &progressRecorder{}
	p.OnProgress(rec.record)
	require.NoError(t, p.Select(descriptors("a.pdf")))

	run, err := p.Begin("1", "c")
	require.NoError(t, err)
	require.NoError(t, run.Execute(context.Background()))

	require.Len(t, rec.seen, 4)
	assert.Equal(t, models.UploadProgress{Active: true, Percent: 100}, rec.seen[2])
	assert.Equal(t, models.UploadProgress{Active: false, Percent: 100}, rec.seen[3])
}

func TestFailedRunKeepsSelection(t *testing.T) {
	boom := &BatchError{Uploaded: []string{"a.pdf"}, Failed: "b.pdf", Err: errors.New("timeout")}
	p := NewPipeline(&scriptedTransport{percents: []int{50}, err: boom}, nil, zerolog.Nop())
	require.NoError(t, p.Select(descriptors("a.pdf", "b.pdf")))

	run, err := p.Begin("1", "c")
	require.NoError(t, err)
	assert.Error(t, run.Execute(context.Background()))

	assert.False(t, p.Progress().Active)
	assert.Len(t, p.Staged(), 2)
	status := p.Status()
	assert.Equal(t, RunFailed, status.State)
	assert.Equal(t, []string{"a.pdf"}, status.Uploaded)
	assert.Equal(t, "b.pdf", status.Failed)

	_, err = p.Begin("1", "c")
	assert.NoError(t, err)
}

func TestBeginWhileActive(t *testing.T) {
	transport := &scriptedTransport{block: make(chan struct{})}
	p := NewPipeline(transport, nil, zerolog.Nop())
	require.NoError(t, p.Select(descriptors("a.pdf")))

	run, err := p.Begin("1", "c")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- run.Execute(context.Background()) }()

	_, err = p.Begin("1", "c")
	assert.ErrorIs(t, err, ErrUploadInProgress)
	assert.ErrorIs(t, p.Select(descriptors("b.pdf")), ErrUploadInProgress)

	close(transport.block)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("run did not finish")
	}
	assert.Equal(t, 100, p.Progress().Percent)
}

func TestAbortSettlesRun(t *testing.T) {
	p := NewPipeline(&scriptedTransport{}, nil, zerolog.Nop())
	require.NoError(t, p.Select(descriptors("a.pdf")))

	run, err := p.Begin("1", "c")
	require.NoError(t, err)
	run.Abort(errors.New("queue full"))
	run.Abort(errors.New("again"))

	assert.False(t, p.Progress().Active)
	assert.Equal(t, "queue full", p.Status().Error)
	assert.Len(t, p.Staged(), 1)
}

func TestExecuteWithCancelledContextFailsRun(t *testing.T) {
	p := NewPipeline(&scriptedTransport{percents: []int{40, 100}}, nil, zerolog.Nop())
	require.NoError(t, p.Select(descriptors("a.pdf")))

	run, err := p.Begin("1", "c")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, run.Execute(ctx), context.Canceled)

	assert.Equal(t, models.UploadProgress{Active: false, Percent: 0}, p.Progress())
	assert.Equal(t, RunFailed, p.Status().State)
	assert.Len(t, p.Staged(), 1)
}

func TestStepPercent(t *testing.T) {
	assert.Equal(t, 5, StepPercent(1, 20))
	assert.Equal(t, 100, StepPercent(20, 20))
	assert.Equal(t, 33, StepPercent(1, 3))
	assert.Equal(t, 67, StepPercent(2, 3))
}
