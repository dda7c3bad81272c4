package relay

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImages struct {
	projectID int64
	url       string
	err       error
}

func (f *fakeImages) RequestImage(_ context.Context, projectID int64, url, _ string) error {
	f.projectID = projectID
	f.url = url
	return f.err
}

func newTestBroker(images ImageRequester) *Broker {
	favicon := func(u string) string {
		if u == "" {
			return ""
		}
		return "https://icons.example/" + u
	}
	return NewBroker(NewCache(time.Minute), images, favicon, nil)
}

func TestBrokerDragPayloadRoundTrip(t *testing.T) {
	b := newTestBroker(nil)
	ctx := context.Background()

	resp := b.Handle(ctx, Request{Action: ActionSetDragPayload, Payload: textPayload("x")})
	assert.True(t, resp.Success)

	resp = b.Handle(ctx, Request{Action: ActionGetDragPayload})
	require.True(t, resp.Success)
	require.NotNil(t, resp.Payload)
	assert.Equal(t, "x", resp.Payload.ContentString())

	resp = b.Handle(ctx, Request{Action: ActionGetDragPayload})
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Payload)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"payload":null}`, string(raw))
}

func TestBrokerSetWithoutPayload(t *testing.T) {
	resp := newTestBroker(nil).Handle(context.Background(), Request{Action: ActionSetDragPayload})
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestBrokerDownloadImage(t *testing.T) {
	images := &fakeImages{}
	b := newTestBroker(images)

	resp := b.Handle(context.Background(), Request{
		Action:    ActionDownloadImage,
		URL:       "https://cdn.example/cat.png",
		ProjectID: 3,
	})
	assert.True(t, resp.Success)
	assert.Equal(t, int64(3), images.projectID)
	assert.Equal(t, "https://cdn.example/cat.png", images.url)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true}`, string(raw))

	images.err = errors.New("HTTP error: 404")
	resp = b.Handle(context.Background(), Request{Action: ActionDownloadImage, URL: "https://cdn.example/x.png"})
	assert.False(t, resp.Success)
	assert.Equal(t, "HTTP error: 404", resp.Error)
}

func TestBrokerGetFavicon(t *testing.T) {
	b := newTestBroker(nil)

	resp := b.Handle(context.Background(), Request{Action: ActionGetFavicon, URL: "example.com"})
	assert.True(t, resp.Success)
	assert.Equal(t, "https://icons.example/example.com", resp.Favicon)

	resp = b.Handle(context.Background(), Request{Action: ActionGetFavicon})
	assert.False(t, resp.Success)
}

func TestBrokerUnknownAction(t *testing.T) {
	resp := newTestBroker(nil).Handle(context.Background(), Request{Action: "launchRockets"})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "unknown action")
}

func TestBrokerObserver(t *testing.T) {
	var ops []string
	b := newTestBroker(nil).WithObserver(func(op string) { ops = append(ops, op) })
	ctx := context.Background()

	b.Handle(ctx, Request{Action: ActionSetDragPayload, Payload: textPayload("x")})
	b.Handle(ctx, Request{Action: ActionGetDragPayload})
	b.Handle(ctx, Request{Action: ActionGetDragPayload})

	assert.Equal(t, []string{"set", "hit", "miss"}, ops)
}
