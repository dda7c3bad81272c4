package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pders01/cascade/internal/fetch"
	"github.com/pders01/cascade/internal/models"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

var (
	// ErrTaskDropped is reported to waiters whose completion was discarded
	ErrTaskDropped = errors.New("image task dropped")
	// ErrUnknownTask is returned when waiting on a task that was never expected
	ErrUnknownTask = errors.New("unknown image task")
)

const (
	sinkWorkers = 4
	// pendingTTL bounds how long an expected task may wait for its completion
	pendingTTL = 10 * time.Minute
)

// Task is an image download in flight, correlated by ID
type Task struct {
	ID        string `json:"taskId"`
	ProjectID int64  `json:"projectId"`
	URL       string `json:"url"`

	created time.Time
	done    chan taskResult
}

type taskResult struct {
	node *models.Node
	err  error
}

// Wait blocks until the task's node is written, the task is dropped, or ctx ends
func (t *Task) Wait(ctx context.Context) (*models.Node, error) {
	select {
	case res := <-t.done:
		return res.node, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ImageSink persists image completions for tasks it was told to expect.
// Completions for unknown tasks, or for projects that no longer exist, are
// dropped.
type ImageSink struct {
	mu      sync.Mutex
	pending map[string]*Task
	// finished keeps claimed tasks around so Await can still collect them
	finished map[string]*Task

	writer   NodeWriter
	notifier Notifier
	favicons *Favicons
	logger   *zap.Logger
	now      func() time.Time
}

// NewImageSink creates a sink writing through w
func NewImageSink(w NodeWriter, notifier Notifier, favicons *Favicons, logger *zap.Logger) *ImageSink {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageSink{
		pending:  make(map[string]*Task),
		finished: make(map[string]*Task),
		writer:   w,
		notifier: notifier,
		favicons: favicons,
		logger:   logger,
		now:      time.Now,
	}
}

// Expect registers a task id before its download starts
func (s *ImageSink) Expect(id string, projectID int64, url string) *Task {
	t := &Task{
		ID:        id,
		ProjectID: projectID,
		URL:       url,
		created:   s.now(),
		done:      make(chan taskResult, 1),
	}
	s.mu.Lock()
	s.pending[id] = t
	s.mu.Unlock()
	return t
}

// Forget cancels an expected task, e.g. after its download failed
func (s *ImageSink) Forget(id string, err error) {
	if t := s.claim(id); t != nil {
		if err == nil {
			err = ErrTaskDropped
		}
		t.done <- taskResult{err: err}
	}
}

// Pending returns the number of tasks awaiting completion
func (s *ImageSink) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Await waits for the task with the given id. Only one caller receives the
// result of a task.
func (s *ImageSink) Await(ctx context.Context, id string) (*models.Node, error) {
	s.mu.Lock()
	t, ok := s.pending[id]
	if !ok {
		t, ok = s.finished[id]
	}
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrUnknownTask)
	}

	node, err := t.Wait(ctx)
	if ctx.Err() == nil {
		s.mu.Lock()
		delete(s.finished, id)
		s.mu.Unlock()
	}
	return node, err
}

func (s *ImageSink) claim(id string) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.pending[id]
	if !ok {
		return nil
	}
	delete(s.pending, id)
	s.finished[id] = t
	return t
}

// Run consumes completions until ctx ends or the channel closes
func (s *ImageSink) Run(ctx context.Context, completions <-chan fetch.Completion) error {
	p := pool.New().WithMaxGoroutines(sinkWorkers)
	defer p.Wait()

	sweep := time.NewTicker(time.Minute)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sweep.C:
			s.prune(pendingTTL)
		case c, ok := <-completions:
			if !ok {
				return nil
			}
			p.Go(func() { s.Handle(ctx, c) })
		}
	}
}

// Handle persists a single completion
func (s *ImageSink) Handle(ctx context.Context, c fetch.Completion) {
	t := s.claim(c.TaskID)
	if t == nil {
		s.logger.Debug("dropping completion for unknown task",
			zap.String("taskId", c.TaskID),
			zap.Int64("projectId", c.ProjectID))
		return
	}
	if t.ProjectID != c.ProjectID {
		s.logger.Warn("dropping completion with mismatched project",
			zap.String("taskId", c.TaskID),
			zap.Int64("expected", t.ProjectID),
			zap.Int64("got", c.ProjectID))
		t.done <- taskResult{err: ErrTaskDropped}
		return
	}

	_, data, err := fetch.DecodeDataURL(c.DataURL)
	if err != nil {
		s.logger.Warn("failed to decode image", zap.String("taskId", c.TaskID), zap.Error(err))
		t.done <- taskResult{err: err}
		return
	}

	src := models.Source{URL: c.SourceURL, Icon: s.favicons.For(c.SourceURL)}
	node, err := s.writer.AddImageNode(ctx, t.ProjectID, c.FileName, data, src)
	if err != nil {
		s.logger.Warn("failed to store image", zap.String("taskId", c.TaskID), zap.Error(err))
		t.done <- taskResult{err: err}
		return
	}

	s.notifier.ImageDownloaded(c)
	s.notifier.NodeCreated(*node)
	t.done <- taskResult{node: node}
}

func (s *ImageSink) prune(maxAge time.Duration) {
	cutoff := s.now().Add(-maxAge)

	s.mu.Lock()
	var stale []*Task
	for id, t := range s.pending {
		if t.created.Before(cutoff) {
			stale = append(stale, t)
			delete(s.pending, id)
		}
	}
	for id, t := range s.finished {
		if t.created.Before(cutoff) {
			delete(s.finished, id)
		}
	}
	s.mu.Unlock()

	for _, t := range stale {
		s.logger.Debug("expiring image task", zap.String("taskId", t.ID))
		t.done <- taskResult{err: ErrTaskDropped}
	}
}
