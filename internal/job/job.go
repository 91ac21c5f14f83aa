// Package job turns an upload request into a key set and payload and drives
// one adaptive run against a sink.
package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"surge/internal/controller"
	"surge/internal/logging"
	"surge/internal/sink"
)

const (
	ModeAdaptive = "adaptive"
	mib          = 1024 * 1024
)

var ErrInvalidRequest = errors.New("job: invalid request")

var validate = validator.New()

// Request mirrors the body of POST /upload-adaptive.
type Request struct {
	FileCount  int    `json:"fileCount" validate:"gt=0,lte=1000000"`
	FileSizeMB int    `json:"fileSizeMB" validate:"gt=0,lte=1024"`
	FilePrefix string `json:"filePrefix"`
}

func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// Result is the response of an adaptive upload. The summary fields are
// inlined in the JSON encoding.
type Result struct {
	Mode   string `json:"mode"`
	RunID  string `json:"runId"`
	Prefix string `json:"prefix"`
	*controller.Summary
}

// RunPrefix returns prefix, or a generated "run-xxxxxxxx" when it is empty.
func RunPrefix(prefix, runID string) string {
	if prefix != "" {
		return prefix
	}
	return "run-" + runID[:8]
}

// Keys names count objects under prefix. The zero padded sequence keeps the
// keys in upload order when listed lexically.
func Keys(prefix string, count int, at time.Time) []string {
	ms := at.UnixMilli()
	keys := make([]string, count)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s/%d-%05d.bin", prefix, ms, i)
	}
	return keys
}

// Runner executes upload jobs against one sink.
type Runner struct {
	cfg       controller.Config
	sink      sink.Sink
	observers controller.Observers
	wrap      []func(controller.WriteFunc) controller.WriteFunc
	now       func() time.Time
}

type Option func(*Runner)

// WithObserver adds an observer to every run.
func WithObserver(o controller.Observer) Option {
	return func(r *Runner) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// WithWriteMiddleware wraps the sink write of every run, innermost first.
func WithWriteMiddleware(mw func(controller.WriteFunc) controller.WriteFunc) Option {
	return func(r *Runner) {
		if mw != nil {
			r.wrap = append(r.wrap, mw)
		}
	}
}

// WithClock replaces time.Now for key naming.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

func NewRunner(cfg controller.Config, s sink.Sink, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{cfg: cfg, sink: s, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Sink returns the backend the runner writes to.
func (r *Runner) Sink() sink.Sink { return r.sink }

// Run validates req, writes every key once and returns the run summary.
// Extra observers apply to this run only.
func (r *Runner) Run(ctx context.Context, req Request, extra ...controller.Observer) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	prefix := RunPrefix(req.FilePrefix, runID)
	keys := Keys(prefix, req.FileCount, r.now())
	payload := sink.Payload(req.FileSizeMB * mib)

	observers := append(controller.Observers{controller.LogObserver{}}, r.observers...)
	observers = append(observers, extra...)
	ctrl, err := controller.New(r.cfg, controller.WithObserver(observers))
	if err != nil {
		return nil, err
	}

	logging.Info("Starting job: %s (%d files, %d MB each, sink %s)", prefix, req.FileCount, req.FileSizeMB, r.sink.Name())
	write := sink.WriteFunc(r.sink, payload)
	for _, mw := range r.wrap {
		write = mw(write)
	}
	summary, err := ctrl.Run(ctx, keys, len(payload), write)
	if err != nil {
		logging.Error("Job %s aborted: %v", prefix, err)
		return nil, err
	}
	logging.Info("Finished job: %s (%d ok, %d failed, %.2f MB/s)", prefix, summary.Succeeded, summary.Failed, summary.ThroughputMBs)

	return &Result{Mode: ModeAdaptive, RunID: runID, Prefix: prefix, Summary: summary}, nil
}
