package handler_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"farmgate/backend/internal/membership/domain"
)

type sseEvent struct {
	name string
	data string
}

func readEvents(r *bufio.Reader, out chan<- sseEvent) {
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			close(out)
			return
		}
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if ev.name != "" {
				out <- ev
			}
			ev = sseEvent{}
		case strings.HasPrefix(line, "event:"):
			ev.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			ev.data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
}

func nextProfile(t *testing.T, events <-chan sseEvent) profileBody {
	t.Helper()
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "stream closed")
			if ev.name != "profile" {
				continue
			}
			var p profileBody
			require.NoError(t, json.Unmarshal([]byte(ev.data), &p), ev.data)
			return p
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for profile event")
		}
	}
}

func openStream(t *testing.T, srv *httptest.Server, token string) <-chan sseEvent {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/navigation/stream", nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	events := make(chan sseEvent, 16)
	go readEvents(bufio.NewReader(resp.Body), events)
	return events
}

func TestStream_ApprovalArrivesWithoutRestart(t *testing.T) {
	api := newTestAPI(t)
	api.memberships.put(&domain.Membership{UserID: "mgr", OrgID: "o1", Role: "owner", Status: domain.StatusActive, ActiveMode: domain.ModeManagement})
	api.memberships.put(&domain.Membership{UserID: "u1", OrgID: "o1", Status: domain.StatusPending})
	srv := httptest.NewServer(api.router)
	t.Cleanup(srv.Close)

	events := openStream(t, srv, api.token(t, "u1"))
	first := nextProfile(t, events)
	require.Equal(t, "PENDING", first.Verdict)
	require.Equal(t, "/status", first.Landing)

	w := api.do(t, http.MethodPost, "/v1/membership/u1/approve", api.token(t, "mgr"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	next := nextProfile(t, events)
	require.Equal(t, "GRANTED", next.Verdict)
	require.Equal(t, "OFFICER", next.Mode)
	require.Equal(t, "/home", next.Landing)
	require.Equal(t, next.Destinations, destinations(next.TabBar))
}

func TestStream_RejectionRevokesAccess(t *testing.T) {
	api := newTestAPI(t)
	api.memberships.put(&domain.Membership{UserID: "mgr", OrgID: "o1", Role: "admin", Status: domain.StatusActive, ActiveMode: domain.ModeManagement})
	api.memberships.put(&domain.Membership{UserID: "u1", OrgID: "o1", Status: domain.StatusActive, ActiveMode: domain.ModeOfficer})
	srv := httptest.NewServer(api.router)
	t.Cleanup(srv.Close)

	events := openStream(t, srv, api.token(t, "u1"))
	require.Equal(t, "GRANTED", nextProfile(t, events).Verdict)

	w := api.do(t, http.MethodPost, "/v1/membership/u1/reject", api.token(t, "mgr"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	next := nextProfile(t, events)
	require.Equal(t, "REJECTED", next.Verdict)
	require.Empty(t, next.Destinations)
	require.NotNil(t, next.Drawer.SignOut)
}

func TestStream_SurvivesSignOutOnAnotherDevice(t *testing.T) {
	api := newTestAPI(t)
	api.memberships.put(&domain.Membership{UserID: "u1", OrgID: "o1", Status: domain.StatusActive, ActiveMode: domain.ModeOfficer})
	srv := httptest.NewServer(api.router)
	t.Cleanup(srv.Close)
	phone, tablet := api.token(t, "u1"), api.token(t, "u1")

	events := openStream(t, srv, tablet)
	require.Equal(t, "GRANTED", nextProfile(t, events).Verdict)

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/v1/session/sign-out", phone, nil).Code)
	require.Equal(t, "UNAUTHENTICATED", api.profile(t, phone).Verdict)

	w := api.do(t, http.MethodPut, "/v1/membership/mode", tablet, map[string]string{"mode": "management"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	next := nextProfile(t, events)
	require.Equal(t, "GRANTED", next.Verdict)
	require.Equal(t, "MANAGEMENT", next.Mode)
}

func TestStream_EndsOnShutdown(t *testing.T) {
	api := newTestAPI(t)
	api.memberships.put(&domain.Membership{UserID: "u1", OrgID: "o1", Status: domain.StatusActive, ActiveMode: domain.ModeOfficer})
	srv := httptest.NewServer(api.router)
	t.Cleanup(srv.Close)

	events := openStream(t, srv, api.token(t, "u1"))
	require.Equal(t, "GRANTED", nextProfile(t, events).Verdict)

	close(api.done)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-time.After(5 * time.Second):
			t.Fatal("stream stayed open after shutdown")
		}
	}
}

func TestStream_AnonymousGetsSingleEvent(t *testing.T) {
	api := newTestAPI(t)
	srv := httptest.NewServer(api.router)
	t.Cleanup(srv.Close)

	events := openStream(t, srv, "")
	require.Equal(t, "UNAUTHENTICATED", nextProfile(t, events).Verdict)
	select {
	case _, ok := <-events:
		require.False(t, ok, "anonymous stream should end after one event")
	case <-time.After(5 * time.Second):
		t.Fatal("anonymous stream stayed open")
	}
}
