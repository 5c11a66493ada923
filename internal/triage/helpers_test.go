package triage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
	"github.com/lueurxax/proactive-notifier/internal/core/llm"
	"github.com/lueurxax/proactive-notifier/internal/core/ports/mocks"
	"github.com/lueurxax/proactive-notifier/internal/notify"
)

const (
	testUserID   = int64(1)
	testRoomID   = "!alice:hs"
	testMgmtRoom = "!whatsapp-mgmt:hs"
	testSender   = "@whatsapp_358401:hs"
	testOwnID    = "@me:hs"
)

var testStart = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.t = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.t = c.t.Add(d)
}

type harness struct {
	clk    *fakeClock
	store  *mocks.Store
	llm    *llm.Mock
	sms    *mocks.SMSSender
	engine *Engine

	mu      sync.Mutex
	delays  []time.Duration
	onSleep func()
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		clk:   &fakeClock{t: testStart},
		store: mocks.NewStore(),
		llm:   llm.NewMock(),
		sms:   &mocks.SMSSender{},
	}

	h.store.Now = h.clk.Now
	h.store.PutUser(domain.UserSettings{
		UserID:             testUserID,
		PhoneNumber:        "+358401111111",
		Timezone:           "Europe/Helsinki",
		CriticalEnabled:    domain.NotiTypeSMS,
		CallNotify:         true,
		ProactiveAgentOn:   true,
		SubscriptionActive: true,
	})
	h.store.PutBridge(domain.Bridge{
		UserID:     testUserID,
		BridgeType: string(domain.ServiceWhatsApp),
		Status:     domain.BridgeStatusConnected,
		RoomID:     testMgmtRoom,
	})
	h.store.SetCredits(testUserID, 100)

	logger := zerolog.Nop()

	dispatcher := notify.NewDispatcher(notify.Deps{
		Users:   h.store,
		Credits: h.store,
		Log:     h.store,
		History: h.store,
		SMS:     h.sms,
		Costs:   notify.Costs{Msg: 0.075, Call: 0.15},
		Now:     h.clk.Now,
	}, &logger)

	h.engine = NewEngine(Deps{
		Users:     h.store,
		Bridges:   h.store,
		Rooms:     h.store,
		Timeline:  h.store,
		Checks:    h.store,
		Senders:   h.store,
		Log:       h.store,
		Credits:   h.store,
		LLM:       h.llm,
		Notifier:  dispatcher,
		SleepFunc: h.sleep,
		Now:       h.clk.Now,
	}, Config{NotiMsgCost: 0.075}, &logger)

	return h
}

// sleep advances the fake clock instead of blocking.
func (h *harness) sleep(ctx context.Context, d time.Duration) error {
	h.mu.Lock()
	h.delays = append(h.delays, d)
	hook := h.onSleep
	h.mu.Unlock()

	h.clk.Advance(d)

	if hook != nil {
		hook()
	}

	return ctx.Err()
}

func (h *harness) Delays() []time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]time.Duration(nil), h.delays...)
}

func incoming(id, body string, at time.Time) domain.BridgeEvent {
	return domain.BridgeEvent{
		EventID:     id,
		UserID:      testUserID,
		RoomID:      testRoomID,
		RoomName:    "Alice (WA)",
		Service:     domain.ServiceWhatsApp,
		Sender:      testSender,
		MsgType:     "m.text",
		Body:        body,
		Timestamp:   at,
		MemberCount: 2,
	}
}

func own(id, body string, at time.Time) domain.BridgeEvent {
	return domain.BridgeEvent{
		EventID:   id,
		UserID:    testUserID,
		RoomID:    testRoomID,
		RoomName:  "Alice (WA)",
		Service:   domain.ServiceWhatsApp,
		Sender:    testOwnID,
		IsOwn:     true,
		MsgType:   "m.text",
		Body:      body,
		Timestamp: at,
	}
}

// process stores ev in the timeline and runs its pipeline.
func (h *harness) process(t *testing.T, ev domain.BridgeEvent) string {
	t.Helper()

	h.store.AddEvent(ev)

	outcome, err := h.engine.Process(context.Background(), ev, "pipeline-"+ev.EventID)
	if err != nil {
		t.Fatalf("Process(%s) error = %v", ev.EventID, err)
	}

	return outcome
}
