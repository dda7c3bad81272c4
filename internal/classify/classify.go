// Package classify decides what a drag gesture carries and turns it into a
// capture payload.
package classify

import (
	"context"
	"net/url"
	"strings"

	"github.com/pders01/cascade/internal/models"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TargetAttr marks the dragged element inside a gesture fragment
const TargetAttr = "data-cascade-target"

// Gesture describes a drag start as seen by the page
type Gesture struct {
	PageURL   string `json:"pageUrl" validate:"omitempty,url"`
	PageTitle string `json:"pageTitle"`
	PageIcon  string `json:"pageIcon,omitempty"`
	// Fragment is the HTML around the drag target
	Fragment  string `json:"fragment"`
	Selection string `json:"selection"`
}

// DataTransfer receives the payload for same-page drops
type DataTransfer interface {
	SetData(format, data string) error
}

// MapTransfer is a DataTransfer backed by a map
type MapTransfer map[string]string

// SetData stores data under format
func (m MapTransfer) SetData(format, data string) error {
	m[format] = data
	return nil
}

// RelaySender forwards a payload to the relay cache
type RelaySender interface {
	SetDragPayload(ctx context.Context, p *models.Payload) error
}

// Classifier classifies gestures and distributes the resulting payload
type Classifier struct {
	relay  RelaySender
	logger *zap.Logger
}

// New creates a classifier. relay may be nil.
func New(relay RelaySender, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{relay: relay, logger: logger}
}

// Capture classifies g. A classified payload is attached to dt under the
// payload format and sent to the relay; delivery failures are only logged.
// The result is never nil.
func (c *Classifier) Capture(ctx context.Context, g Gesture, dt DataTransfer) *models.Payload {
	p := Classify(g)
	if p.Type == models.PayloadUnknown {
		return p
	}

	raw, err := p.Encode()
	if err != nil {
		c.logger.Debug("failed to encode payload", zap.Error(err))
		return p
	}
	if dt != nil {
		if err := dt.SetData(models.PayloadMIME, raw); err != nil {
			c.logger.Debug("failed to attach payload", zap.Error(err))
		}
	}
	if c.relay != nil {
		if err := c.relay.SetDragPayload(ctx, p); err != nil {
			c.logger.Debug("relay delivery failed", zap.Error(err))
		}
	}
	return p
}

// Classify inspects a gesture. Priority: image target, link target or
// ancestor, selection, unknown.
func Classify(g Gesture) (p *models.Payload) {
	p = &models.Payload{
		SourceURL:   g.PageURL,
		SourceTitle: g.PageTitle,
		SourceIcon:  g.PageIcon,
		Type:        models.PayloadUnknown,
	}
	defer func() {
		if recover() != nil {
			p.Type = models.PayloadUnknown
			p.Content = nil
			p.LinkTitle = ""
		}
	}()

	if target := findTarget(g.Fragment); target != nil {
		if target.DataAtom == atom.Img {
			if src := attr(target, "src"); src != "" {
				p.Type = models.PayloadImage
				p.Content = models.StringPtr(resolve(g.PageURL, src))
				return p
			}
		}

		if link := enclosingLink(target); link != nil {
			p.Type = models.PayloadLink
			p.Content = models.StringPtr(resolve(g.PageURL, attr(link, "href")))
			title := collapse(textContent(link))
			if title == "" {
				title = strings.TrimSpace(attr(link, "title"))
			}
			p.LinkTitle = title
			return p
		}
	}

	if sel := strings.TrimSpace(g.Selection); sel != "" {
		p.Type = models.PayloadText
		p.Content = models.StringPtr(sel)
	}
	return p
}

// findTarget parses the fragment and returns the marked element, or the
// first element when none is marked
func findTarget(fragment string) *html.Node {
	if strings.TrimSpace(fragment) == "" {
		return nil
	}

	root := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), root)
	if err != nil {
		return nil
	}

	// ParseFragment returns top-level siblings without a shared parent;
	// wrap them so ancestor walks stop at the fragment root.
	for _, n := range nodes {
		root.AppendChild(n)
	}

	var first, marked *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if marked != nil {
			return
		}
		if n.Type == html.ElementNode {
			if first == nil {
				first = n
			}
			if hasAttr(n, TargetAttr) {
				marked = n
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}

	if marked != nil {
		return marked
	}
	return first
}

func enclosingLink(n *html.Node) *html.Node {
	for ; n != nil && n.Type == html.ElementNode; n = n.Parent {
		if n.DataAtom != atom.A {
			continue
		}
		href := strings.TrimSpace(attr(n, "href"))
		if href == "" || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return nil
		}
		return n
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
		case html.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// resolve makes ref absolute against the page URL when possible
func resolve(base, ref string) string {
	ref = strings.TrimSpace(ref)
	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
