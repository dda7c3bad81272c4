package relay

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/pders01/cascade/internal/models"
	"go.uber.org/zap"
)

// Relay actions
const (
	ActionSetDragPayload = "setDragPayload"
	ActionGetDragPayload = "getDragPayload"
	ActionDownloadImage  = "downloadImage"
	ActionGetFavicon     = "getFavicon"
)

// Request is a message sent into the privileged context
type Request struct {
	Action    string          `json:"action" validate:"required,oneof=setDragPayload getDragPayload downloadImage getFavicon"`
	Payload   *models.Payload `json:"payload,omitempty"`
	URL       string          `json:"url,omitempty" validate:"omitempty,url"`
	ProjectID int64           `json:"projectId,omitempty" validate:"omitempty,gt=0"`
	SourceURL string          `json:"sourceUrl,omitempty"`
}

// Response is the reply to a Request. getDragPayload replies always carry
// the payload key, null when the slot was empty.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Payload *models.Payload `json:"payload"`
	Favicon string          `json:"favicon,omitempty"`

	withPayload bool
}

// MarshalJSON omits the payload key for actions that never return one
func (r Response) MarshalJSON() ([]byte, error) {
	type wire Response
	if r.withPayload {
		return json.Marshal(wire(r))
	}
	return json.Marshal(struct {
		Success bool   `json:"success"`
		Error   string `json:"error,omitempty"`
		Favicon string `json:"favicon,omitempty"`
	}{r.Success, r.Error, r.Favicon})
}

// ImageRequester starts an asynchronous image download for a project
type ImageRequester interface {
	RequestImage(ctx context.Context, projectID int64, url, sourceURL string) error
}

// FaviconFunc derives an icon URL for a page, or "" when it cannot
type FaviconFunc func(pageURL string) string

// Broker answers relay messages
type Broker struct {
	cache   *Cache
	images  ImageRequester
	favicon FaviconFunc
	logger  *zap.Logger
	observe func(op string)
}

// NewBroker creates a broker over cache. images and favicon may be nil, in
// which case the corresponding actions fail.
func NewBroker(cache *Cache, images ImageRequester, favicon FaviconFunc, logger *zap.Logger) *Broker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{
		cache:   cache,
		images:  images,
		favicon: favicon,
		logger:  logger,
		observe: func(string) {},
	}
}

// WithObserver sets a callback invoked with the name of each cache operation
func (b *Broker) WithObserver(fn func(op string)) *Broker {
	if fn != nil {
		b.observe = fn
	}
	return b
}

// WithImages sets the image requester. The ingestion router both reads the
// broker and serves its downloads, so it is attached after construction.
func (b *Broker) WithImages(images ImageRequester) *Broker {
	b.images = images
	return b
}

// Handle dispatches a request. It never returns an error; failures are
// reported in the response.
func (b *Broker) Handle(ctx context.Context, req Request) Response {
	switch req.Action {
	case ActionSetDragPayload:
		if req.Payload == nil {
			return failure("payload is required")
		}
		b.cache.Set(req.Payload)
		b.observe("set")
		b.logger.Debug("drag payload cached",
			zap.String("type", string(req.Payload.Type)),
			zap.String("sourceUrl", req.Payload.SourceURL))
		return Response{Success: true}

	case ActionGetDragPayload:
		p, ok := b.cache.Take()
		if ok {
			b.observe("hit")
		} else {
			b.observe("miss")
		}
		return Response{Success: true, Payload: p, withPayload: true}

	case ActionDownloadImage:
		if req.URL == "" {
			return failure("url is required")
		}
		if b.images == nil {
			return failure("image downloads are not available")
		}
		if err := b.images.RequestImage(ctx, req.ProjectID, req.URL, req.SourceURL); err != nil {
			b.logger.Warn("image download failed", zap.String("url", req.URL), zap.Error(err))
			return failure(err.Error())
		}
		return Response{Success: true}

	case ActionGetFavicon:
		if b.favicon == nil {
			return failure("favicons are not available")
		}
		icon := b.favicon(req.URL)
		if icon == "" {
			return failure("could not derive favicon")
		}
		return Response{Success: true, Favicon: icon}

	default:
		return failure("unknown action: " + req.Action)
	}
}

func failure(msg string) Response {
	return Response{Success: false, Error: msg}
}

// TakeDragPayload claims the cached payload through the getDragPayload action
func (b *Broker) TakeDragPayload(ctx context.Context) (*models.Payload, error) {
	resp := b.Handle(ctx, Request{Action: ActionGetDragPayload})
	if !resp.Success {
		return nil, errors.New(resp.Error)
	}
	return resp.Payload, nil
}

// SetDragPayload stores p through the setDragPayload action
func (b *Broker) SetDragPayload(ctx context.Context, p *models.Payload) error {
	resp := b.Handle(ctx, Request{Action: ActionSetDragPayload, Payload: p})
	if !resp.Success {
		return errors.New(resp.Error)
	}
	return nil
}
