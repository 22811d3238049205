package loki

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient("  ", "")
	require.ErrorIs(t, err, ErrNoBaseURL)
}

func TestPushEventJSON_LabelsAndTimestamp(t *testing.T) {
	var (
		got  PushRequest
		path string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL+"/", "")
	require.NoError(t, err)

	raw := []byte(`{"id":"e1","eventType":"route_redirected","source":"farmgate","verdict":"PENDING","createdAt":"2026-03-01T08:00:00Z"}`)
	require.NoError(t, c.PushEventJSON(context.Background(), raw))

	require.Equal(t, "/loki/api/v1/push", path)
	require.Len(t, got.Streams, 1)
	s := got.Streams[0]
	require.Equal(t, "farmgate", s.Stream["job"])
	require.Equal(t, "route_redirected", s.Stream["event_type"])
	require.Equal(t, "PENDING", s.Stream["verdict"])
	require.Equal(t, string(raw), s.Values[0][1])
	want := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC).UnixNano()
	require.Equal(t, strconv.FormatInt(want, 10), s.Values[0][0])
}

func TestPushEventJSON_MalformedIsPushedRaw(t *testing.T) {
	var got PushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "farmgate-test")
	require.NoError(t, err)
	require.NoError(t, c.PushEventJSON(context.Background(), []byte("not json")))
	require.Equal(t, map[string]string{"job": "farmgate-test"}, got.Streams[0].Stream)
}

func TestPush_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "")
	require.NoError(t, err)
	require.Error(t, c.Push(context.Background(), time.Now(), "line", nil))
}

