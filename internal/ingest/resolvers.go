package ingest

import (
	"context"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pders01/cascade/internal/fetch"
	"github.com/pders01/cascade/internal/models"
	"go.uber.org/zap"
)

// Resolver inspects an event and either claims it or declines. Resolvers
// are tried in order; the first claim wins.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context, ev *Event) (*Resolution, bool)
}

// PayloadSource hands out the relay's pending drag payload, if any
type PayloadSource interface {
	TakeDragPayload(ctx context.Context) (*models.Payload, error)
}

var (
	bareURLPattern  = regexp.MustCompile(`^https?://\S+$`)
	imageExtPattern = regexp.MustCompile(`(?i)\.(jpeg|jpg|gif|png|webp)$`)
)

// payloadResolver reads the custom payload attached to the event
type payloadResolver struct {
	logger *zap.Logger
}

func (r *payloadResolver) Name() string { return "custom-payload" }

func (r *payloadResolver) Resolve(_ context.Context, ev *Event) (*Resolution, bool) {
	raw := ev.Get(models.PayloadMIME)
	if strings.TrimSpace(raw) == "" {
		return nil, false
	}

	p, err := models.DecodePayload(raw)
	if err != nil {
		// Present but unreadable: stop here rather than guessing from the
		// lower-priority formats of the same gesture.
		r.logger.Info("ignoring invalid drag payload", zap.Error(err))
		return &Resolution{Resolver: r.Name(), Halt: true}, true
	}

	c, ok := captureFromPayload(p)
	if !ok {
		// A readable payload with nothing usable still owns the gesture
		return &Resolution{Resolver: r.Name(), Halt: true}, true
	}
	return &Resolution{Resolver: r.Name(), Captures: []Capture{c}}, true
}

// relayResolver asks the relay for a payload the drop lost in transit
type relayResolver struct {
	source PayloadSource
	logger *zap.Logger
}

func (r *relayResolver) Name() string { return "relay-cache" }

func (r *relayResolver) Resolve(ctx context.Context, ev *Event) (*Resolution, bool) {
	// A paste has no drag gesture behind it
	if ev.Kind != KindDrop || r.source == nil {
		return nil, false
	}

	p, err := r.source.TakeDragPayload(ctx)
	if err != nil {
		r.logger.Debug("relay unavailable", zap.Error(err))
		return nil, false
	}
	if p == nil {
		return nil, false
	}

	c, ok := captureFromPayload(p)
	if !ok {
		return nil, false
	}
	return &Resolution{Resolver: r.Name(), Captures: []Capture{c}}, true
}

func captureFromPayload(p *models.Payload) (Capture, bool) {
	content := strings.TrimSpace(p.ContentString())
	if content == "" {
		return Capture{}, false
	}
	src := models.Source{URL: p.SourceURL, Icon: p.SourceIcon}

	switch p.Type {
	case models.PayloadText:
		return Capture{Kind: CaptureText, Text: content, Source: src}, true
	case models.PayloadLink:
		title := strings.TrimSpace(p.LinkTitle)
		if title == "" {
			title = strings.TrimSpace(p.SourceTitle)
		}
		if title == "" {
			title = content
		}
		return Capture{Kind: CaptureLink, URL: content, Title: title, Source: src}, true
	case models.PayloadImage:
		if strings.HasPrefix(content, "data:") {
			mediaType, data, err := fetch.DecodeDataURL(content)
			if err != nil {
				return Capture{}, false
			}
			return Capture{Kind: CaptureImage, Data: data, FileName: fetch.FileName(time.Now(), fetch.ExtFromMediaType(mediaType)), Source: src}, true
		}
		return Capture{Kind: CaptureRemoteImage, URL: content, Source: src}, true
	default:
		return Capture{}, false
	}
}

// filesResolver turns image files on the event into file nodes. Any file
// list claims the event; non-image files are dropped rather than letting
// the uri-list of the same gesture store their local path.
type filesResolver struct {
	now func() time.Time
}

func (r *filesResolver) Name() string { return "files" }

func (r *filesResolver) Resolve(_ context.Context, ev *Event) (*Resolution, bool) {
	if len(ev.Files) == 0 {
		return nil, false
	}

	var captures []Capture
	for _, f := range ev.Files {
		if len(f.Data) == 0 {
			continue
		}
		mediaType := strings.TrimSpace(f.Type)
		if mediaType == "" {
			mediaType = mimetype.Detect(f.Data).String()
		}
		if !strings.HasPrefix(strings.ToLower(mediaType), "image/") {
			continue
		}

		name := path.Base(strings.TrimSpace(f.Name))
		if name == "" || name == "." || name == "/" {
			mt, _, _ := strings.Cut(mediaType, ";")
			name = fetch.FileName(r.now(), fetch.ExtFromMediaType(mt))
		}
		captures = append(captures, Capture{Kind: CaptureImage, Data: f.Data, FileName: name})
	}

	if len(captures) == 0 {
		return &Resolution{Resolver: r.Name(), Halt: true}, true
	}
	return &Resolution{Resolver: r.Name(), Captures: captures}, true
}

// uriListResolver handles text/uri-list drops
type uriListResolver struct{}

func (r *uriListResolver) Name() string { return "uri-list" }

func (r *uriListResolver) Resolve(_ context.Context, ev *Event) (*Resolution, bool) {
	line := firstURI(ev.Get(MIMEURIList))
	if line == "" {
		return nil, false
	}

	u, err := url.Parse(line)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &Resolution{Resolver: r.Name(), Captures: []Capture{{Kind: CaptureText, Text: line}}}, true
	}

	if imageExtPattern.MatchString(u.Path) {
		return &Resolution{Resolver: r.Name(), Captures: []Capture{{Kind: CaptureRemoteImage, URL: line}}}, true
	}

	title := strings.TrimSpace(ev.Get(MIMEPlainText))
	if title == "" || strings.ContainsAny(title, "\r\n") {
		title = line
	}
	return &Resolution{Resolver: r.Name(), Captures: []Capture{{Kind: CaptureLink, URL: line, Title: title}}}, true
}

// firstURI returns the first line of a uri-list that is not a comment
func firstURI(list string) string {
	for _, line := range strings.Split(list, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return line
	}
	return ""
}

// plainTextResolver is the last resort: a bare URL becomes a link, anything
// else a text node
type plainTextResolver struct{}

func (r *plainTextResolver) Name() string { return "plain-text" }

func (r *plainTextResolver) Resolve(_ context.Context, ev *Event) (*Resolution, bool) {
	text := strings.TrimSpace(ev.Get(MIMEPlainText))
	if text == "" {
		return nil, false
	}

	if bareURLPattern.MatchString(text) {
		return &Resolution{Resolver: r.Name(), Captures: []Capture{{Kind: CaptureLink, URL: text, Title: text}}}, true
	}
	return &Resolution{Resolver: r.Name(), Captures: []Capture{{Kind: CaptureText, Text: text}}}, true
}
