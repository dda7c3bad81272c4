package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pders01/cascade/internal/fetch"
	"github.com/pders01/cascade/internal/models"
	"go.uber.org/zap"
)

// DefaultInboxName names the inbox when the router has to create it
const DefaultInboxName = "Inbox"

// NodeWriter is the slice of the node store the router writes through
type NodeWriter interface {
	AddTextNode(ctx context.Context, projectID int64, text string, src models.Source) (*models.Node, error)
	AddImageNode(ctx context.Context, projectID int64, fileName string, data []byte, src models.Source) (*models.Node, error)
	AddLinkNode(ctx context.Context, projectID int64, url, title string, src models.Source) (*models.Node, error)
	EnsureInbox(ctx context.Context, name string) (*models.Project, error)
}

// ImageDownloader fetches remote images and publishes completions
type ImageDownloader interface {
	Download(ctx context.Context, req fetch.Request) fetch.Response
}

// Outcome is the result of ingesting one event
type Outcome struct {
	Resolver  string        `json:"resolver,omitempty"`
	ProjectID int64         `json:"projectId"`
	Nodes     []models.Node `json:"nodes"`
	Tasks     []*Task       `json:"tasks,omitempty"`
	// Failures holds one line per capture that could not be started
	Failures []string `json:"failures,omitempty"`
	// Skipped is set when the event was left to the browser
	Skipped bool `json:"skipped,omitempty"`
}

// Created reports whether anything was written or started
func (o *Outcome) Created() bool {
	return len(o.Nodes) > 0 || len(o.Tasks) > 0
}

// Router resolves events into node store writes
type Router struct {
	resolvers []Resolver
	writer    NodeWriter
	images    ImageDownloader
	sink      *ImageSink
	favicons  *Favicons
	notifier  Notifier
	logger    *zap.Logger
	observe   func(resolver, result string)
	inboxName string
	now       func() time.Time
}

// Option configures a Router
type Option func(*Router)

// WithRelay inserts the relay-cache resolver after the custom payload resolver
func WithRelay(source PayloadSource) Option {
	return func(r *Router) {
		resolvers := make([]Resolver, 0, len(r.resolvers)+1)
		resolvers = append(resolvers, r.resolvers[0], &relayResolver{source: source, logger: r.logger})
		r.resolvers = append(resolvers, r.resolvers[1:]...)
	}
}

// WithFavicons sets the favicon deriver
func WithFavicons(f *Favicons) Option {
	return func(r *Router) { r.favicons = f }
}

// WithNotifier sets the notifier told about created nodes
func WithNotifier(n Notifier) Option {
	return func(r *Router) { r.notifier = n }
}

// WithObserver sets a callback invoked with the resolver and result of each event
func WithObserver(fn func(resolver, result string)) Option {
	return func(r *Router) { r.observe = fn }
}

// WithInboxName sets the name used when the inbox has to be created
func WithInboxName(name string) Option {
	return func(r *Router) {
		if name != "" {
			r.inboxName = name
		}
	}
}

// NewRouter creates a router with the default resolver order: custom
// payload, relay cache (with WithRelay), files, uri-list, plain text.
func NewRouter(w NodeWriter, images ImageDownloader, sink *ImageSink, logger *zap.Logger, opts ...Option) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{
		writer:    w,
		images:    images,
		sink:      sink,
		notifier:  NopNotifier{},
		logger:    logger,
		observe:   func(string, string) {},
		inboxName: DefaultInboxName,
		now:       time.Now,
	}
	r.resolvers = []Resolver{
		&payloadResolver{logger: logger},
		&filesResolver{now: func() time.Time { return r.now() }},
		&uriListResolver{},
		&plainTextResolver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolvers returns the names of the resolvers in priority order
func (r *Router) Resolvers() []string {
	names := make([]string, len(r.resolvers))
	for i, res := range r.resolvers {
		names[i] = res.Name()
	}
	return names
}

// Ingest resolves ev and writes its captures. Store errors are returned;
// download failures are reported in the outcome.
func (r *Router) Ingest(ctx context.Context, ev Event) (*Outcome, error) {
	if ev.Kind == KindPaste && ev.TargetEditable {
		r.observe("none", "skipped")
		return &Outcome{ProjectID: ev.ProjectID, Skipped: true}, nil
	}

	projectID, err := r.project(ctx, ev.ProjectID)
	if err != nil {
		return nil, err
	}
	out := &Outcome{ProjectID: projectID}

	res := r.resolve(ctx, &ev)
	if res == nil {
		r.observe("none", "unmatched")
		return out, nil
	}
	out.Resolver = res.Resolver
	if res.Halt {
		r.observe(res.Resolver, "halted")
		return out, nil
	}

	for _, c := range res.Captures {
		if err := r.write(ctx, projectID, c, out); err != nil {
			r.observe(res.Resolver, "error")
			return out, err
		}
	}

	if out.Created() {
		r.observe(res.Resolver, "created")
	} else {
		r.observe(res.Resolver, "failed")
	}
	return out, nil
}

func (r *Router) resolve(ctx context.Context, ev *Event) *Resolution {
	for _, res := range r.resolvers {
		if resolution, ok := res.Resolve(ctx, ev); ok {
			r.logger.Debug("event resolved",
				zap.String("kind", string(ev.Kind)),
				zap.String("resolver", res.Name()),
				zap.Int("captures", len(resolution.Captures)))
			return resolution
		}
	}
	return nil
}

func (r *Router) project(ctx context.Context, id int64) (int64, error) {
	if id != 0 {
		return id, nil
	}
	inbox, err := r.writer.EnsureInbox(ctx, r.inboxName)
	if err != nil {
		return 0, fmt.Errorf("failed to ensure inbox: %w", err)
	}
	return inbox.ID, nil
}

func (r *Router) write(ctx context.Context, projectID int64, c Capture, out *Outcome) error {
	var (
		node *models.Node
		err  error
	)

	switch c.Kind {
	case CaptureText:
		src := c.Source
		if src.Icon == "" {
			src.Icon = r.favicons.For(src.URL)
		}
		node, err = r.writer.AddTextNode(ctx, projectID, c.Text, src)

	case CaptureLink:
		src := c.Source
		if icon := r.favicons.For(c.URL); icon != "" {
			src.Icon = icon
		}
		node, err = r.writer.AddLinkNode(ctx, projectID, c.URL, c.Title, src)

	case CaptureImage:
		src := c.Source
		if src.Icon == "" {
			src.Icon = r.favicons.For(src.URL)
		}
		node, err = r.writer.AddImageNode(ctx, projectID, c.FileName, c.Data, src)

	case CaptureRemoteImage:
		task, err := r.startDownload(ctx, projectID, c.URL, c.Source.URL)
		if err != nil {
			out.Failures = append(out.Failures, err.Error())
			return nil
		}
		out.Tasks = append(out.Tasks, task)
		return nil

	default:
		return fmt.Errorf("unsupported capture kind %s", c.Kind)
	}

	if err != nil {
		return fmt.Errorf("failed to store %s capture: %w", c.Kind, err)
	}
	out.Nodes = append(out.Nodes, *node)
	r.notifier.NodeCreated(*node)
	return nil
}

// RequestImage starts a download for projectID, the inbox when zero. It
// returns once the download has finished; the node is written by the sink.
func (r *Router) RequestImage(ctx context.Context, projectID int64, url, sourceURL string) error {
	projectID, err := r.project(ctx, projectID)
	if err != nil {
		return err
	}
	_, err = r.startDownload(ctx, projectID, url, sourceURL)
	if err != nil {
		r.observe("relay", "failed")
		return err
	}
	r.observe("relay", "created")
	return nil
}

func (r *Router) startDownload(ctx context.Context, projectID int64, url, sourceURL string) (*Task, error) {
	if r.images == nil || r.sink == nil {
		return nil, errors.New("image downloads are not configured")
	}

	id := uuid.NewString()
	task := r.sink.Expect(id, projectID, url)

	resp := r.images.Download(ctx, fetch.Request{
		TaskID:    id,
		URL:       url,
		ProjectID: projectID,
		SourceURL: sourceURL,
	})
	if !resp.Success {
		err := errors.New(resp.Error)
		r.sink.Forget(id, err)
		return nil, err
	}
	return task, nil
}
