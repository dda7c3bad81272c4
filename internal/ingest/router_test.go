package ingest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pders01/cascade/internal/fetch"
	"github.com/pders01/cascade/internal/models"
	"github.com/pders01/cascade/internal/relay"
	"github.com/pders01/cascade/internal/store"
	"github.com/pders01/cascade/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFavicons = "https://icons.example/?domain=%s"

type fakeDownloader struct {
	completions chan fetch.Completion
	fail        string
	requests    []fetch.Request
}

func newFakeDownloader() *fakeDownloader {
	return &fakeDownloader{completions: make(chan fetch.Completion, 8)}
}

func (f *fakeDownloader) Download(_ context.Context, req fetch.Request) fetch.Response {
	f.requests = append(f.requests, req)
	if f.fail != "" {
		return fetch.Response{Success: false, Error: f.fail}
	}
	f.completions <- fetch.Completion{
		TaskID:    req.TaskID,
		ProjectID: req.ProjectID,
		FileName:  "image-1.png",
		DataURL:   fetch.EncodeDataURL("image/png", testutil.PNG(64)),
		SourceURL: req.SourceURL,
	}
	return fetch.Response{Success: true, FileName: "image-1.png"}
}

type recordingNotifier struct {
	nodes  []models.Node
	images []fetch.Completion
}

func (n *recordingNotifier) NodeCreated(node models.Node)       { n.nodes = append(n.nodes, node) }
func (n *recordingNotifier) ImageDownloaded(c fetch.Completion) { n.images = append(n.images, c) }

type fixture struct {
	store    *store.Store
	project  *models.Project
	router   *Router
	sink     *ImageSink
	images   *fakeDownloader
	broker   *relay.Broker
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := testutil.NewStore(t)
	p, err := s.CreateProject(context.Background(), "captures", models.ProjectCanvas)
	require.NoError(t, err)

	favicons := NewFavicons(testFavicons)
	notifier := &recordingNotifier{}
	images := newFakeDownloader()
	sink := NewImageSink(s, notifier, favicons, nil)
	broker := relay.NewBroker(relay.NewCache(time.Minute), nil, favicons.For, nil)
	router := NewRouter(s, images, sink, nil,
		WithRelay(broker),
		WithFavicons(favicons),
		WithNotifier(notifier),
	)

	return &fixture{
		store:    s,
		project:  p,
		router:   router,
		sink:     sink,
		images:   images,
		broker:   broker,
		notifier: notifier,
	}
}

func (f *fixture) nodes(t *testing.T) []models.Node {
	t.Helper()
	nodes, err := f.store.ListNodes(context.Background(), f.project.ID)
	require.NoError(t, err)
	return nodes
}

func TestResolverOrder(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, []string{"custom-payload", "relay-cache", "files", "uri-list", "plain-text"}, f.router.Resolvers())
}

func TestDropPlainTextURLCreatesLink(t *testing.T) {
	f := newFixture(t)

	out, err := f.router.Ingest(context.Background(), Event{
		Kind:      KindDrop,
		ProjectID: f.project.ID,
		Data:      map[string]string{MIMEPlainText: "  https://example.com/page \n"},
	})
	require.NoError(t, err)
	assert.Equal(t, "plain-text", out.Resolver)

	nodes := f.nodes(t)
	require.Len(t, nodes, 1)
	assert.Equal(t, models.NodeLink, nodes[0].Type)
	assert.Equal(t, "https://example.com/page", nodes[0].URL)
	assert.Equal(t, "https://icons.example/?domain=example.com", nodes[0].SourceIcon)
	assert.Len(t, f.notifier.nodes, 1)
}

func TestDropPlainTextCreatesTrimmedText(t *testing.T) {
	f := newFixture(t)

	_, err := f.router.Ingest(context.Background(), Event{
		Kind:      KindDrop,
		ProjectID: f.project.ID,
		Data:      map[string]string{MIMEPlainText: "\n some quoted text \t"},
	})
	require.NoError(t, err)

	nodes := f.nodes(t)
	require.Len(t, nodes, 1)
	assert.Equal(t, models.NodeText, nodes[0].Type)
	assert.Equal(t, "some quoted text", nodes[0].Text)
}

func TestPastePNGCreatesFileNode(t *testing.T) {
	f := newFixture(t)

	out, err := f.router.Ingest(context.Background(), Event{
		Kind:      KindPaste,
		ProjectID: f.project.ID,
		Files:     []File{{Data: testutil.PNG(100)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "files", out.Resolver)

	nodes := f.nodes(t)
	require.Len(t, nodes, 1)
	assert.Equal(t, models.NodeFile, nodes[0].Type)
	assert.Len(t, nodes[0].FileData, 100)
	assert.True(t, strings.HasPrefix(nodes[0].FileName, "image-"))
	assert.True(t, strings.HasSuffix(nodes[0].FileName, ".png"), nodes[0].FileName)
}

func TestFilesIgnoresNonImages(t *testing.T) {
	f := newFixture(t)

	out, err := f.router.Ingest(context.Background(), Event{
		Kind:      KindDrop,
		ProjectID: f.project.ID,
		Files: []File{
			{Name: "notes.txt", Type: "text/plain", Data: []byte("hello")},
			{Name: "photo.jpg", Type: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}},
		},
	})
	require.NoError(t, err)
	require.Len(t, out.Nodes, 1)
	assert.Equal(t, "photo.jpg", out.Nodes[0].FileName)
}

func TestNonImageFileDropStopsCascade(t *testing.T) {
	f := newFixture(t)

	out, err := f.router.Ingest(context.Background(), Event{
		Kind:      KindDrop,
		ProjectID: f.project.ID,
		Files:     []File{{Name: "report.pdf", Type: "application/pdf", Data: []byte("%PDF-1.7")}},
		Data: map[string]string{
			MIMEURIList:   "file:///home/u/report.pdf",
			MIMEPlainText: "/home/u/report.pdf",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "files", out.Resolver)
	assert.False(t, out.Created())
	assert.Empty(t, f.nodes(t))
}

func TestInvalidCustomPayloadCreatesNothing(t *testing.T) {
	f := newFixture(t)

	var (
		out *Outcome
		err error
	)
	assert.NotPanics(t, func() {
		out, err = f.router.Ingest(context.Background(), Event{
			Kind:      KindDrop,
			ProjectID: f.project.ID,
			Data: map[string]string{
				models.PayloadMIME: "{not json",
				MIMEPlainText:      "fallback text",
			},
		})
	})
	require.NoError(t, err)
	assert.Equal(t, "custom-payload", out.Resolver)
	assert.False(t, out.Created())
	assert.Empty(t, f.nodes(t))
}

func TestCustomPayloadText(t *testing.T) {
	f := newFixture(t)

	p := &models.Payload{
		SourceURL:   "https://blog.example/post",
		SourceTitle: "Post",
		Type:        models.PayloadText,
		Content:     models.StringPtr("  selected words "),
	}
	raw, err := p.Encode()
	require.NoError(t, err)

	_, err = f.router.Ingest(context.Background(), Event{
		Kind:      KindDrop,
		ProjectID: f.project.ID,
		Data:      map[string]string{models.PayloadMIME: raw, MIMEPlainText: "ignored"},
	})
	require.NoError(t, err)

	nodes := f.nodes(t)
	require.Len(t, nodes, 1)
	assert.Equal(t, "selected words", nodes[0].Text)
	assert.Equal(t, "https://blog.example/post", nodes[0].SourceURL)
	assert.Equal(t, "https://icons.example/?domain=blog.example", nodes[0].SourceIcon)
}

func TestCustomPayloadLinkKeepsTitle(t *testing.T) {
	f := newFixture(t)

	p := &models.Payload{
		SourceURL:  "https://news.example/",
		SourceIcon: "https://news.example/icon.png",
		Type:       models.PayloadLink,
		Content:    models.StringPtr("https://target.example/article"),
		LinkTitle:  "An article",
	}
	raw, err := p.Encode()
	require.NoError(t, err)

	_, err = f.router.Ingest(context.Background(), Event{
		Kind:      KindDrop,
		ProjectID: f.project.ID,
		Data:      map[string]string{models.PayloadMIME: raw},
	})
	require.NoError(t, err)

	nodes := f.nodes(t)
	require.Len(t, nodes, 1)
	assert.Equal(t, "https://target.example/article", nodes[0].URL)
	assert.Equal(t, "An article", nodes[0].Text)
	assert.Equal(t, "https://icons.example/?domain=target.example", nodes[0].SourceIcon)
}

func TestCustomPayloadLinkFallsBackToPageTitle(t *testing.T) {
	f := newFixture(t)

	p := &models.Payload{
		SourceURL:   "https://a.example/",
		SourceTitle: "Page Title",
		Type:        models.PayloadLink,
		Content:     models.StringPtr("https://b.example/x"),
	}
	raw, err := p.Encode()
	require.NoError(t, err)

	_, err = f.router.Ingest(context.Background(), Event{
		Kind:      KindDrop,
		ProjectID: f.project.ID,
		Data:      map[string]string{models.PayloadMIME: raw},
	})
	require.NoError(t, err)

	nodes := f.nodes(t)
	require.Len(t, nodes, 1)
	assert.Equal(t, "https://b.example/x", nodes[0].URL)
	assert.Equal(t, "Page Title", nodes[0].Text)
}

func TestUnusableCustomPayloadStopsCascade(t *testing.T) {
	tests := []struct {
		name    string
		payload *models.Payload
	}{
		{name: "unknown type", payload: &models.Payload{Type: models.PayloadUnknown, Content: models.StringPtr("something")}},
		{name: "empty content", payload: &models.Payload{Type: models.PayloadText, Content: models.StringPtr("  ")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			raw, err := tt.payload.Encode()
			require.NoError(t, err)

			out, err := f.router.Ingest(context.Background(), Event{
				Kind:      KindDrop,
				ProjectID: f.project.ID,
				Data:      map[string]string{models.PayloadMIME: raw, MIMEPlainText: "stray text"},
			})
			require.NoError(t, err)
			assert.Equal(t, "custom-payload", out.Resolver)
			assert.Empty(t, f.nodes(t))
		})
	}
}

func TestRelayFallbackOnDrop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.broker.Handle(ctx, relay.Request{
		Action: relay.ActionSetDragPayload,
		Payload: &models.Payload{
			SourceURL: "https://a.example/",
			Type:      models.PayloadText,
			Content:   models.StringPtr("from the relay"),
		},
	})

	out, err := f.router.Ingest(ctx, Event{
		Kind:      KindDrop,
		ProjectID: f.project.ID,
		Data:      map[string]string{MIMEPlainText: "stripped copy"},
	})
	require.NoError(t, err)
	assert.Equal(t, "relay-cache", out.Resolver)
	require.Len(t, out.Nodes, 1)
	assert.Equal(t, "from the relay", out.Nodes[0].Text)

	// The payload was consumed
	resp := f.broker.Handle(ctx, relay.Request{Action: relay.ActionGetDragPayload})
	assert.Nil(t, resp.Payload)
}

func TestPasteDoesNotConsultRelay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.broker.Handle(ctx, relay.Request{
		Action:  relay.ActionSetDragPayload,
		Payload: &models.Payload{Type: models.PayloadText, Content: models.StringPtr("drag")},
	})

	out, err := f.router.Ingest(ctx, Event{
		Kind:      KindPaste,
		ProjectID: f.project.ID,
		Data:      map[string]string{MIMEPlainText: "pasted"},
	})
	require.NoError(t, err)
	assert.Equal(t, "plain-text", out.Resolver)
	require.Len(t, out.Nodes, 1)
	assert.Equal(t, "pasted", out.Nodes[0].Text)
}

func TestPasteIntoEditableIsSkipped(t *testing.T) {
	f := newFixture(t)

	out, err := f.router.Ingest(context.Background(), Event{
		Kind:           KindPaste,
		ProjectID:      f.project.ID,
		Data:           map[string]string{MIMEPlainText: "typed"},
		TargetEditable: true,
	})
	require.NoError(t, err)
	assert.True(t, out.Skipped)
	assert.Empty(t, f.nodes(t))
}

func TestURIList(t *testing.T) {
	tests := []struct {
		name     string
		list     string
		wantType models.NodeType
		wantURL  string
		wantText string
	}{
		{
			name:     "link with comment",
			list:     "# comment\nhttps://example.com/docs\nhttps://ignored.example/",
			wantType: models.NodeLink,
			wantURL:  "https://example.com/docs",
		},
		{
			name:     "unparseable falls back to text",
			list:     "not a url at all",
			wantType: models.NodeText,
			wantText: "not a url at all",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			out, err := f.router.Ingest(context.Background(), Event{
				Kind:      KindDrop,
				ProjectID: f.project.ID,
				Data:      map[string]string{MIMEURIList: tt.list},
			})
			require.NoError(t, err)
			assert.Equal(t, "uri-list", out.Resolver)
			require.Len(t, out.Nodes, 1)
			assert.Equal(t, tt.wantType, out.Nodes[0].Type)
			if tt.wantURL != "" {
				assert.Equal(t, tt.wantURL, out.Nodes[0].URL)
			}
			if tt.wantText != "" {
				assert.Equal(t, tt.wantText, out.Nodes[0].Text)
			}
		})
	}
}

func TestURIListImageGoesThroughFetchRelay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.router.Ingest(ctx, Event{
		Kind:      KindDrop,
		ProjectID: f.project.ID,
		Data:      map[string]string{MIMEURIList: "https://cdn.example/photos/cat.JPG?size=large"},
	})
	require.NoError(t, err)
	assert.Empty(t, out.Nodes)
	require.Len(t, out.Tasks, 1)
	require.Len(t, f.images.requests, 1)
	assert.Equal(t, out.Tasks[0].ID, f.images.requests[0].TaskID)

	// Nothing is stored until the completion is handled
	assert.Empty(t, f.nodes(t))

	f.sink.Handle(ctx, <-f.images.completions)

	node, err := out.Tasks[0].Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.NodeFile, node.Type)
	assert.Len(t, node.FileData, 64)
	assert.Len(t, f.nodes(t), 1)
	assert.Len(t, f.notifier.images, 1)
	assert.Equal(t, 0, f.sink.Pending())
}

func TestDownloadFailureIsReported(t *testing.T) {
	f := newFixture(t)
	f.images.fail = "HTTP error: 403"

	out, err := f.router.Ingest(context.Background(), Event{
		Kind:      KindDrop,
		ProjectID: f.project.ID,
		Data:      map[string]string{MIMEURIList: "https://cdn.example/cat.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"HTTP error: 403"}, out.Failures)
	assert.False(t, out.Created())
	assert.Equal(t, 0, f.sink.Pending())
}

func TestZeroProjectTargetsInbox(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.router.Ingest(ctx, Event{
		Kind: KindDrop,
		Data: map[string]string{MIMEPlainText: "to the inbox"},
	})
	require.NoError(t, err)

	inbox, err := f.store.Inbox(ctx)
	require.NoError(t, err)
	assert.Equal(t, inbox.ID, out.ProjectID)
	assert.Equal(t, "Inbox", inbox.Name)
}

func TestUnmatchedEvent(t *testing.T) {
	f := newFixture(t)

	out, err := f.router.Ingest(context.Background(), Event{Kind: KindDrop, ProjectID: f.project.ID})
	require.NoError(t, err)
	assert.Empty(t, out.Resolver)
	assert.False(t, out.Created())
}

func TestStoreErrorIsReturned(t *testing.T) {
	f := newFixture(t)

	_, err := f.router.Ingest(context.Background(), Event{
		Kind:      KindDrop,
		ProjectID: 9999,
		Data:      map[string]string{MIMEPlainText: "orphan"},
	})
	assert.ErrorIs(t, err, store.ErrProjectNotFound)
}

func TestRequestImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.router.RequestImage(ctx, f.project.ID, "https://cdn.example/a.gif", "https://page.example/"))
	f.sink.Handle(ctx, <-f.images.completions)

	nodes := f.nodes(t)
	require.Len(t, nodes, 1)
	assert.Equal(t, "https://page.example/", nodes[0].SourceURL)

	f.images.fail = "network error: refused"
	assert.EqualError(t, f.router.RequestImage(ctx, f.project.ID, "https://cdn.example/b.gif", ""), "network error: refused")
}
