package devtools

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulse-dev/pulse/pkg/pulse"
)

func newTestInspector(t *testing.T) (*pulse.Runtime, *Server, *httptest.Server) {
	t.Helper()

	rt := pulse.NewRuntime(pulse.WithDevMode(true))
	srv := New(rt)
	ts := httptest.NewServer(srv.Handler())

	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return rt, srv, ts
}

func TestSnapshotEndpoint(t *testing.T) {
	rt, srv, ts := newTestInspector(t)

	count := pulse.NewSignal(rt, 1)
	srv.Watch("count", count)
	rt.FlushSync()

	resp, err := http.Get(ts.URL + "/snapshot")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body struct {
		Watches map[string][]any   `json:"watches"`
		Stats   pulse.RuntimeStats `json:"stats"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	require.Contains(t, body.Watches, "count")
	assert.Equal(t, float64(1), body.Watches["count"][0])
	assert.GreaterOrEqual(t, body.Stats.Flushes, uint64(1))
}

func TestStatsEndpoint(t *testing.T) {
	rt, _, ts := newTestInspector(t)

	s := pulse.NewSignal(rt, 0)
	rt.CreateEffect(func() pulse.Cleanup {
		_ = s.Get()
		return nil
	})
	rt.FlushSync()

	resp, err := http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var stats pulse.RuntimeStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, uint64(1), stats.EffectRuns)
	assert.Equal(t, uint64(1), stats.SignalsCreated)
}

func TestLiveStream(t *testing.T) {
	rt, srv, ts := newTestInspector(t)

	count := pulse.NewSignal(rt, 1)
	srv.Watch("count", count)
	rt.FlushSync()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Let the server register the client before the next change.
	time.Sleep(20 * time.Millisecond)

	count.Set(2)
	rt.FlushSync()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))

	assert.Equal(t, "count", ev.Name)
	assert.Equal(t, "update", ev.Kind)
	require.Len(t, ev.Values, 1)
	assert.Equal(t, float64(2), ev.Values[0])
}

func TestUnwatchStopsUpdates(t *testing.T) {
	rt, srv, ts := newTestInspector(t)

	count := pulse.NewSignal(rt, 1)
	srv.Watch("count", count)
	rt.FlushSync()

	srv.Unwatch("count")

	count.Set(2)
	rt.FlushSync()

	resp, err := http.Get(ts.URL + "/snapshot")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Watches map[string][]any `json:"watches"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotContains(t, body.Watches, "count")
}

func TestCloseIsIdempotent(t *testing.T) {
	rt := pulse.NewRuntime(pulse.WithDevMode(true))
	srv := New(rt)

	srv.Watch("x", pulse.NewSignal(rt, 0))
	srv.Close()
	srv.Close()
}
