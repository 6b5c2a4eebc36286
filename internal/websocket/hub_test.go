package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"FundFlow/internal/domain/models"
	applogger "FundFlow/pkg/logger"
)

type fakeConn struct {
	mu       sync.Mutex
	frames   [][]byte
	writeErr error
	closed   bool
}

func (c *fakeConn) WriteText(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.frames = append(c.frames, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) sent() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var m map[string]any
		if err := json.Unmarshal(f, &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (c *fakeConn) lastType() string {
	msgs := c.sent()
	if len(msgs) == 0 {
		return ""
	}
	t, _ := msgs[len(msgs)-1]["type"].(string)
	return t
}

// stubRepoLatest implements FlowRepository; only FindLatestResult matters to
// the hub.
type stubRepoLatest struct {
	result *models.FlowResult
}

func (r *stubRepoLatest) FindLatestResult(context.Context) (*models.FlowResult, error) {
	if r.result == nil {
		return nil, models.ErrNoData
	}
	return r.result, nil
}

func (r *stubRepoLatest) SaveRaw(context.Context, *models.RawSnapshot) error { return nil }

func (r *stubRepoLatest) FindRawByDate(context.Context, models.Date) ([]*models.RawSnapshot, error) {
	return nil, nil
}

func (r *stubRepoLatest) SaveResult(context.Context, *models.FlowResult) error { return nil }

func (r *stubRepoLatest) FindResultByDate(context.Context, models.Date) (*models.FlowResult, error) {
	return nil, models.ErrNoData
}

func (r *stubRepoLatest) FindResultsInRange(context.Context, models.Date, models.Date) ([]*models.FlowResult, error) {
	return nil, nil
}

func (r *stubRepoLatest) FindRecentResults(context.Context, models.Date) ([]*models.FlowResult, error) {
	return nil, nil
}

func (r *stubRepoLatest) ConfidenceStats(context.Context, models.Date) (*models.ConfidenceStats, error) {
	return nil, models.ErrNoData
}

func (r *stubRepoLatest) NetInflowStats(context.Context, models.Date) (*models.NetInflowStats, error) {
	return nil, models.ErrNoData
}

func (r *stubRepoLatest) AverageQualityScore(context.Context, models.Date) (float64, error) {
	return 0, nil
}

func (r *stubRepoLatest) CountValidationFailed(context.Context, models.Date) (int64, error) {
	return 0, nil
}

func (r *stubRepoLatest) SourceStats(context.Context, models.Date) ([]*models.SourceAvailability, error) {
	return nil, nil
}

func (r *stubRepoLatest) Health(context.Context) error { return nil }
func (r *stubRepoLatest) Close() error                 { return nil }

type fakeClientMetrics struct {
	mu   sync.Mutex
	last int
}

func (m *fakeClientMetrics) RecordCollection(string, string)  {}
func (m *fakeClientMetrics) RecordError(string)               {}
func (m *fakeClientMetrics) RecordNetInflow(string, float64)  {}
func (m *fakeClientMetrics) RecordLatency(string, float64)    {}
func (m *fakeClientMetrics) RecordClients(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = n
}

func testHub(t *testing.T) (*Hub, *fakeClientMetrics) {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	m := &fakeClientMetrics{}
	return NewHub(&stubRepoLatest{}, m, l), m
}

func TestRegisterSendsWelcomeAndLatest(t *testing.T) {
	hub, metrics := testHub(t)
	conn := &fakeConn{}

	hub.Register(context.Background(), "s1", conn)

	msgs := conn.sent()
	if len(msgs) != 2 {
		t.Fatalf("expected welcome and latest_data, got %d frames", len(msgs))
	}
	if msgs[0]["type"] != "welcome" {
		t.Fatalf("first frame must be welcome, got %v", msgs[0]["type"])
	}
	if msgs[1]["type"] != "latest_data" {
		t.Fatalf("second frame must be latest_data, got %v", msgs[1]["type"])
	}
	if msgs[1]["data"] != nil {
		t.Fatalf("empty store must yield null latest data")
	}
	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.ClientCount())
	}
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	if metrics.last != 1 {
		t.Fatalf("client gauge not updated, got %d", metrics.last)
	}
}

func TestBroadcastReachesOnlySubscribers(t *testing.T) {
	hub, _ := testHub(t)
	ctx := context.Background()

	conns := map[string]*fakeConn{
		"a": {}, "b": {}, "c": {},
	}
	for id, conn := range conns {
		hub.Register(ctx, id, conn)
	}
	hub.HandleMessage(ctx, "a", []byte(`{"action":"subscribe","type":"spy_updates"}`))
	hub.HandleMessage(ctx, "b", []byte(`{"action":"subscribe","type":"spy_updates"}`))

	hub.Broadcast(&models.FlowResult{DataDate: models.Today(), PrimarySource: models.SourceYahoo})

	if got := conns["a"].lastType(); got != "spy_update" {
		t.Fatalf("subscriber a missed the update, last=%q", got)
	}
	if got := conns["b"].lastType(); got != "spy_update" {
		t.Fatalf("subscriber b missed the update, last=%q", got)
	}
	if got := conns["c"].lastType(); got == "spy_update" {
		t.Fatalf("non-subscriber c must not receive updates")
	}
}

func TestUnsubscribeStopsUpdates(t *testing.T) {
	hub, _ := testHub(t)
	ctx := context.Background()
	conn := &fakeConn{}

	hub.Register(ctx, "a", conn)
	hub.HandleMessage(ctx, "a", []byte(`{"action":"subscribe","type":"spy_updates"}`))
	if conn.lastType() != "subscription_confirmed" {
		t.Fatalf("expected subscription_confirmed, got %q", conn.lastType())
	}

	hub.HandleMessage(ctx, "a", []byte(`{"action":"unsubscribe"}`))
	if conn.lastType() != "unsubscribed" {
		t.Fatalf("expected unsubscribed, got %q", conn.lastType())
	}

	hub.Broadcast(&models.FlowResult{DataDate: models.Today()})
	if conn.lastType() == "spy_update" {
		t.Fatalf("unsubscribed session must not receive updates")
	}
	if hub.ClientCount() != 1 {
		t.Fatalf("unsubscribe must not drop the session")
	}
}

func TestBrokenSubscriberIsEvicted(t *testing.T) {
	hub, _ := testHub(t)
	ctx := context.Background()

	healthy := &fakeConn{}
	hub.Register(ctx, "ok", healthy)
	hub.HandleMessage(ctx, "ok", []byte(`{"action":"subscribe","type":"spy_updates"}`))

	broken := &fakeConn{}
	hub.Register(ctx, "broken", broken)
	hub.HandleMessage(ctx, "broken", []byte(`{"action":"subscribe","type":"spy_updates"}`))
	broken.mu.Lock()
	broken.writeErr = fmt.Errorf("pipe closed")
	broken.mu.Unlock()

	hub.Broadcast(&models.FlowResult{DataDate: models.Today()})

	if hub.ClientCount() != 1 {
		t.Fatalf("broken session must be evicted, count=%d", hub.ClientCount())
	}
	if healthy.lastType() != "spy_update" {
		t.Fatalf("healthy subscriber must still receive updates")
	}
	broken.mu.Lock()
	closed := broken.closed
	broken.mu.Unlock()
	if !closed {
		t.Fatalf("evicted connection must be closed")
	}
}

func TestMalformedMessageGetsErrorReply(t *testing.T) {
	hub, _ := testHub(t)
	ctx := context.Background()
	conn := &fakeConn{}

	hub.Register(ctx, "a", conn)
	hub.HandleMessage(ctx, "a", []byte(`{not json`))

	msgs := conn.sent()
	last := msgs[len(msgs)-1]
	if last["type"] != "error" {
		t.Fatalf("expected error reply, got %v", last["type"])
	}
	if last["message"] != "message format error" {
		t.Fatalf("unexpected error message: %v", last["message"])
	}
	if hub.ClientCount() != 1 {
		t.Fatalf("protocol errors must not drop the session")
	}
}

func TestUnknownActionGetsErrorReply(t *testing.T) {
	hub, _ := testHub(t)
	ctx := context.Background()
	conn := &fakeConn{}

	hub.Register(ctx, "a", conn)
	hub.HandleMessage(ctx, "a", []byte(`{"action":"dance"}`))

	if conn.lastType() != "error" {
		t.Fatalf("expected error reply, got %q", conn.lastType())
	}
}

func TestUnsupportedSubscriptionType(t *testing.T) {
	hub, _ := testHub(t)
	ctx := context.Background()
	conn := &fakeConn{}

	hub.Register(ctx, "a", conn)
	hub.HandleMessage(ctx, "a", []byte(`{"action":"subscribe","type":"btc_updates"}`))

	if conn.lastType() != "error" {
		t.Fatalf("expected error reply, got %q", conn.lastType())
	}

	hub.Broadcast(&models.FlowResult{DataDate: models.Today()})
	if conn.lastType() == "spy_update" {
		t.Fatalf("failed subscription must not receive updates")
	}
}

func TestGetLatestReturnsStoredResult(t *testing.T) {
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	repo := &stubRepoLatest{result: &models.FlowResult{
		DataDate:       models.Today(),
		FinalNetInflow: models.Float(505_200_000),
		PrimarySource:  models.SourceYahoo,
	}}
	hub := NewHub(repo, &fakeClientMetrics{}, l)

	ctx := context.Background()
	conn := &fakeConn{}
	hub.Register(ctx, "a", conn)
	hub.HandleMessage(ctx, "a", []byte(`{"action":"getLatest"}`))

	msgs := conn.sent()
	last := msgs[len(msgs)-1]
	if last["type"] != "latest_data" {
		t.Fatalf("expected latest_data, got %v", last["type"])
	}
	data, ok := last["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected result payload, got %v", last["data"])
	}
	if data["primarySource"] != models.SourceYahoo {
		t.Fatalf("unexpected payload source: %v", data["primarySource"])
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	hub, _ := testHub(t)
	conn := &fakeConn{}

	hub.Register(context.Background(), "a", conn)
	hub.Unregister("a")
	hub.Unregister("a")

	if hub.ClientCount() != 0 {
		t.Fatalf("expected empty hub, got %d", hub.ClientCount())
	}
}
