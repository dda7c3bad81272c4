// Package fetch downloads images on behalf of capture contexts that cannot
// reach the image origin themselves. It never writes to storage; results are
// published as completions for the ingesting side to persist.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultTimeout  = 30 * time.Second
	DefaultMaxBytes = 20 << 20
	defaultExt      = "png"
)

// Request asks for an image to be downloaded into a project
type Request struct {
	TaskID    string
	URL       string
	ProjectID int64
	SourceURL string
}

// Response reports whether a download started the completion handoff
type Response struct {
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
	FileName   string `json:"fileName,omitempty"`
}

// Completion carries a downloaded image to the ingesting side
type Completion struct {
	TaskID    string `json:"taskId"`
	ProjectID int64  `json:"projectId"`
	FileName  string `json:"fileName"`
	DataURL   string `json:"dataUrl"`
	SourceURL string `json:"sourceUrl,omitempty"`
}

// Config holds relay settings
type Config struct {
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
	// Buffer is the capacity of the completion channel
	Buffer int
}

// Relay performs anonymous image downloads
type Relay struct {
	client      *http.Client
	maxBytes    int64
	userAgent   string
	completions chan Completion
	logger      *zap.Logger
	now         func() time.Time
	observe     func(result string)
}

// New creates a relay
func New(cfg Config, logger *zap.Logger) *Relay {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.Buffer < 1 {
		cfg.Buffer = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Relay{
		// No cookie jar: downloads never carry the user's credentials
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		maxBytes:    cfg.MaxBytes,
		userAgent:   cfg.UserAgent,
		completions: make(chan Completion, cfg.Buffer),
		logger:      logger,
		now:         time.Now,
		observe:     func(string) {},
	}
}

// WithObserver sets a callback invoked with the result of every download
func (r *Relay) WithObserver(fn func(result string)) *Relay {
	if fn != nil {
		r.observe = fn
	}
	return r
}

// Completions returns the channel successful downloads are published on
func (r *Relay) Completions() <-chan Completion {
	return r.completions
}

// Download fetches req.URL and publishes a Completion on success. Failures,
// including a completion dropped because ctx ended, are reported in the
// response, never as a panic.
func (r *Relay) Download(ctx context.Context, req Request) Response {
	completion, err := r.fetch(ctx, req)
	if err != nil {
		var fe *Error
		if !errors.As(err, &fe) {
			fe = &Error{Kind: KindNetwork, Err: err}
		}
		r.observe(fe.Kind.String())
		r.logger.Debug("image download failed",
			zap.String("url", req.URL),
			zap.String("taskId", req.TaskID),
			zap.Error(fe))
		return Response{Success: false, Error: fe.Error(), StatusCode: fe.StatusCode}
	}

	select {
	case r.completions <- *completion:
		r.observe("ok")
		return Response{Success: true, FileName: completion.FileName}
	case <-ctx.Done():
		fe := &Error{Kind: KindCanceled, Err: ctx.Err()}
		r.observe("dropped")
		r.logger.Debug("image completion dropped", zap.String("taskId", req.TaskID), zap.Error(fe))
		return Response{Success: false, Error: fe.Error()}
	}
}

func (r *Relay) fetch(ctx context.Context, req Request) (*Completion, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Err: err}
	}
	if r.userAgent != "" {
		httpReq.Header.Set("User-Agent", r.userAgent)
	}
	httpReq.Header.Set("Accept", "image/*")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: KindStatus, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Err: err}
	}
	if int64(len(body)) > r.maxBytes {
		return nil, &Error{Kind: KindTooLarge, Err: fmt.Errorf("exceeds %d bytes", r.maxBytes)}
	}

	mediaType, ext := parseContentType(resp.Header.Get("Content-Type"))
	return &Completion{
		TaskID:    req.TaskID,
		ProjectID: req.ProjectID,
		FileName:  FileName(r.now(), ext),
		DataURL:   EncodeDataURL(mediaType, body),
		SourceURL: req.SourceURL,
	}, nil
}

// FileName returns the generated name for an image captured at t
func FileName(t time.Time, ext string) string {
	if ext == "" {
		ext = defaultExt
	}
	return fmt.Sprintf("image-%d.%s", t.UnixMilli(), ext)
}

// parseContentType returns the media type and a file extension derived from
// its subtype. Absent or unparseable types yield png.
func parseContentType(contentType string) (mediaType, ext string) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", defaultExt
	}
	return mediaType, ExtFromMediaType(mediaType)
}

// ExtFromMediaType maps image/jpeg to jpeg, image/svg+xml to svg. Anything
// without a subtype yields png.
func ExtFromMediaType(mediaType string) string {
	_, sub, ok := strings.Cut(mediaType, "/")
	if !ok {
		return defaultExt
	}
	sub, _, _ = strings.Cut(sub, "+")
	sub = strings.ToLower(strings.TrimSpace(sub))
	if sub == "" {
		return defaultExt
	}
	return sub
}
