package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/RubachokBoss/student-portal/internal/metrics"
	"github.com/RubachokBoss/student-portal/internal/models"
	"github.com/rs/zerolog"
)

type RunState string

const (
	RunIdle      RunState = "idle"
	RunActive    RunState = "active"
	RunSucceeded RunState = "succeeded"
	RunFailed    RunState = "failed"
)

// RunStatus describes the most recent upload run.
type RunStatus struct {
	State    RunState `json:"state"`
	Files    []string `json:"files,omitempty"`
	Uploaded []string `json:"uploaded,omitempty"`
	Failed   string   `json:"failed,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Pipeline validates, stages and uploads one session's file selection.
type Pipeline struct {
	// emitMu orders a progress change together with its notifications.
	emitMu sync.Mutex

	mu        sync.Mutex
	staged    []models.FileDescriptor
	progress  models.UploadProgress
	status    RunStatus
	observers []func(models.UploadProgress)

	transport Transport
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewPipeline(transport Transport, m *metrics.Metrics, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		transport: transport,
		status:    RunStatus{State: RunIdle},
		metrics:   m,
		logger:    logger,
	}
}

// Select validates a picker batch and stages it. The batch is accepted or
// rejected as a whole; a rejected or empty batch leaves the staged selection
// as it was.
func (p *Pipeline) Select(files []models.FileDescriptor) error {
	if len(files) == 0 {
		p.metrics.SelectionResult("empty")
		return ErrNoFilesChosen
	}

	batch := make([]models.FileDescriptor, len(files))
	var rejected []string
	for i, f := range files {
		f.Extension = Extension(f.Name)
		if !IsAllowedExtension(f.Extension) {
			rejected = append(rejected, f.Name)
		}
		batch[i] = f
	}
	if len(rejected) > 0 {
		p.metrics.SelectionResult("rejected")
		return fmt.Errorf("%w: %s (accepted: %s)",
			ErrFileTypeNotAllowed, strings.Join(rejected, ", "), strings.Join(AllowedExtensions, ", "))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.progress.Active {
		return ErrUploadInProgress
	}
	p.staged = batch
	p.metrics.SelectionResult("accepted")
	return nil
}

func (p *Pipeline) Staged() []models.FileDescriptor {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.FileDescriptor, len(p.staged))
	copy(out, p.staged)
	return out
}

// FileNames joins the staged names for display.
func (p *Pipeline) FileNames() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return strings.Join(names(p.staged), "، ")
}

func (p *Pipeline) Progress() models.UploadProgress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress
}

func (p *Pipeline) Status() RunStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// OnProgress registers fn for every progress change. fn must not call back
// into the pipeline's mutating methods.
func (p *Pipeline) OnProgress(fn func(models.UploadProgress)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, fn)
}

// Begin starts a run over the staged selection. The returned Run must be
// executed or aborted exactly once.
func (p *Pipeline) Begin(studentID, course string) (*Run, error) {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()

	p.mu.Lock()
	if p.progress.Active {
		p.mu.Unlock()
		return nil, ErrUploadInProgress
	}
	if len(p.staged) == 0 {
		p.mu.Unlock()
		return nil, ErrNothingStaged
	}
	files := make([]models.FileDescriptor, len(p.staged))
	copy(files, p.staged)
	p.progress = models.UploadProgress{Active: true, Percent: 0}
	p.status = RunStatus{State: RunActive, Files: names(files)}
	observers := p.observers
	progress := p.progress
	p.mu.Unlock()

	notify(observers, progress)

	return &Run{
		pipeline: p,
		request:  UploadRequest{StudentID: studentID, Course: course, Files: files},
		started:  time.Now(),
	}, nil
}

// Run is one upload of a staged selection.
type Run struct {
	pipeline *Pipeline
	request  UploadRequest
	started  time.Time
	once     sync.Once
}

func (r *Run) Files() []models.FileDescriptor {
	return r.request.Files
}

// Execute drives the transport to completion and settles the pipeline. A
// cancelled ctx settles the run as failed without calling the transport.
func (r *Run) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		r.finish(err)
		return err
	}
	err := r.pipeline.transport.Upload(ctx, r.request, r.pipeline.report)
	r.finish(err)
	return err
}

// Abort settles a run that could not be scheduled.
func (r *Run) Abort(err error) {
	r.finish(err)
}

func (r *Run) finish(err error) {
	r.once.Do(func() {
		r.pipeline.settle(r, err)
	})
}

func (p *Pipeline) report(percent int) {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()

	if percent > 100 {
		percent = 100
	}

	p.mu.Lock()
	if !p.progress.Active || percent <= p.progress.Percent {
		p.mu.Unlock()
		return
	}
	p.progress.Percent = percent
	observers := p.observers
	progress := p.progress
	p.mu.Unlock()

	notify(observers, progress)
}

func (p *Pipeline) settle(run *Run, err error) {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()

	p.mu.Lock()
	observers := p.observers
	var steps []models.UploadProgress
	if err == nil {
		if p.progress.Percent != 100 {
			p.progress.Percent = 100
			steps = append(steps, p.progress)
		}
		p.progress.Active = false
		p.staged = nil
		p.status = RunStatus{State: RunSucceeded, Files: names(run.request.Files), Uploaded: names(run.request.Files)}
	} else {
		p.progress.Active = false
		status := RunStatus{State: RunFailed, Files: names(run.request.Files), Error: err.Error()}
		var batchErr *BatchError
		if errors.As(err, &batchErr) {
			status.Uploaded = batchErr.Uploaded
			status.Failed = batchErr.Failed
		}
		p.status = status
	}
	steps = append(steps, p.progress)
	p.mu.Unlock()

	for _, s := range steps {
		notify(observers, s)
	}

	event := p.logger.Info()
	result := "success"
	if err != nil {
		event = p.logger.Error().Err(err)
		result = "failure"
	}
	p.metrics.ObserveUpload(result, run.started)
	event.
		Str("student_id", run.request.StudentID).
		Int("files", len(run.request.Files)).
		Dur("duration", time.Since(run.started)).
		Msg("Upload run finished")
}

func notify(observers []func(models.UploadProgress), progress models.UploadProgress) {
	for _, fn := range observers {
		fn(progress)
	}
}

func names(files []models.FileDescriptor) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}
