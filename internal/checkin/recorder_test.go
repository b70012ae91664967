package checkin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"line-checkin/internal/line"
)

type fakeStore struct {
	mu      sync.Mutex
	tabs    map[string][][]any
	ensures map[string]int

	ensureErr error
	appendErr error
	readErr   error
	clearErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tabs:    map[string][][]any{},
		ensures: map[string]int{},
	}
}

func (s *fakeStore) EnsureTab(_ context.Context, name string, header []string) error {
	if s.ensureErr != nil {
		return s.ensureErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensures[name]++
	if _, ok := s.tabs[name]; ok {
		return nil
	}
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	s.tabs[name] = [][]any{row}
	return nil
}

func (s *fakeStore) AppendRow(_ context.Context, tab string, row []any) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabs[tab] = append(s.tabs[tab], row)
	return nil
}

func (s *fakeStore) ReadAllRows(_ context.Context, tab string) ([][]string, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([][]string, 0, len(s.tabs[tab]))
	for _, raw := range s.tabs[tab] {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *fakeStore) Clear(_ context.Context, tab string) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabs[tab] = nil
	return nil
}

func (s *fakeStore) rows(tab string) [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tabs[tab]
}

type fakeReply struct {
	token string
	msgs  []line.Message
}

type fakeGateway struct {
	mu       sync.Mutex
	profiles map[string]string
	replies  []fakeReply

	profileErr error
	replyErr   error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{profiles: map[string]string{"U123": "Alice", "U456": "Bob"}}
}

func (g *fakeGateway) Reply(_ context.Context, token string, msgs []line.Message) error {
	if g.replyErr != nil {
		return g.replyErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replies = append(g.replies, fakeReply{token: token, msgs: msgs})
	return nil
}

func (g *fakeGateway) DisplayName(_ context.Context, userID string) (string, error) {
	if g.profileErr != nil {
		return "", g.profileErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	name, ok := g.profiles[userID]
	if !ok {
		return "", fmt.Errorf("profile not found: %s", userID)
	}
	return name, nil
}

// newTestRecorder pins the clock to 2025-04-15 09:30:00 UTC.
func newTestRecorder(store *fakeStore, gw *fakeGateway, opts Options) *Recorder {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	r := NewRecorder(store, gw, opts)
	r.now = func() time.Time { return time.Date(2025, 4, 15, 9, 30, 0, 0, time.UTC) }
	return r
}

func taipeiEvent() LocationEvent {
	return LocationEvent{
		ReplyToken: "rt-1",
		UserID:     "U123",
		Address:    "Taipei 101",
		Latitude:   25.0330,
		Longitude:  121.5654,
	}
}

func TestHandleTrigger_RepliesOnceWithoutWrites(t *testing.T) {
	store := newFakeStore()
	gw := newFakeGateway()
	r := newTestRecorder(store, gw, Options{PromptCard: true})

	require.NoError(t, r.HandleTrigger(context.Background(), "rt-1"))

	require.Len(t, gw.replies, 1)
	assert.Equal(t, "rt-1", gw.replies[0].token)
	require.Len(t, gw.replies[0].msgs, 1)
	card, ok := gw.replies[0].msgs[0].(line.TemplateMessage)
	require.True(t, ok, "card prompt expected")
	require.Len(t, card.Template.Actions, 1)
	assert.Equal(t, TriggerWord, card.Template.Actions[0].Text, "card action re-sends the trigger word")
	assert.Empty(t, store.tabs, "prompt must not touch the spreadsheet")
}

func TestHandleTrigger_PlainTextVariant(t *testing.T) {
	gw := newFakeGateway()
	r := newTestRecorder(newFakeStore(), gw, Options{PromptCard: false})

	require.NoError(t, r.HandleTrigger(context.Background(), "rt-1"))

	require.Len(t, gw.replies, 1)
	_, ok := gw.replies[0].msgs[0].(line.TextMessage)
	assert.True(t, ok)
}

func TestHandleLocation_AppendsRecordAndConfirms(t *testing.T) {
	store := newFakeStore()
	gw := newFakeGateway()
	r := newTestRecorder(store, gw, Options{SummaryEnabled: true})

	require.NoError(t, r.HandleLocation(context.Background(), taipeiEvent()))

	rows := store.rows("2025-04")
	require.Len(t, rows, 2)
	assert.Equal(t, []any{"時間", "使用者名稱", "User ID", "地點", "緯度", "經度"}, rows[0])
	assert.Equal(t, []any{"2025-04-15 09:30:00", "Alice", "U123", "Taipei 101", 25.0330, 121.5654}, rows[1])

	require.Len(t, gw.replies, 1)
	assert.Equal(t, "rt-1", gw.replies[0].token)
	text := gw.replies[0].msgs[0].(line.TextMessage).Text
	assert.Contains(t, text, "Alice")
	assert.Contains(t, text, "2025-04-15 09:30:00")
	assert.Contains(t, text, "Taipei 101")
}

func TestHandleLocation_AddressDefaulted(t *testing.T) {
	store := newFakeStore()
	gw := newFakeGateway()
	r := newTestRecorder(store, gw, Options{})

	ev := taipeiEvent()
	ev.Address = "  "
	require.NoError(t, r.HandleLocation(context.Background(), ev))

	rows := store.rows("2025-04")
	require.Len(t, rows, 2)
	assert.Equal(t, "未提供", rows[1][3])
	assert.Contains(t, gw.replies[0].msgs[0].(line.TextMessage).Text, "未提供")
}

func TestHandleLocation_DuplicateDeliveryAppendsTwice(t *testing.T) {
	store := newFakeStore()
	gw := newFakeGateway()
	r := newTestRecorder(store, gw, Options{})

	ev := taipeiEvent()
	require.NoError(t, r.HandleLocation(context.Background(), ev))
	require.NoError(t, r.HandleLocation(context.Background(), ev))

	// No dedup: the same event delivered twice is two rows, one header.
	rows := store.rows("2025-04")
	require.Len(t, rows, 3)
	assert.Equal(t, rows[1], rows[2])
	assert.Equal(t, 2, store.ensures["2025-04"], "ensure is called per check-in but creates once")
}

func TestHandleLocation_NameLookupFailureIsFatal(t *testing.T) {
	store := newFakeStore()
	gw := newFakeGateway()
	gw.profileErr = errors.New("rate limited")
	r := newTestRecorder(store, gw, Options{SummaryEnabled: true})

	err := r.HandleLocation(context.Background(), taipeiEvent())
	require.Error(t, err)

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, UpstreamMessaging, ue.Upstream)
	assert.Empty(t, store.tabs, "nothing is written when the name cannot be resolved")
	assert.Empty(t, gw.replies)
}

func TestHandleLocation_StoreFailureIsFatal(t *testing.T) {
	store := newFakeStore()
	store.appendErr = errors.New("quota exceeded")
	gw := newFakeGateway()
	r := newTestRecorder(store, gw, Options{})

	err := r.HandleLocation(context.Background(), taipeiEvent())
	require.Error(t, err)

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, UpstreamStore, ue.Upstream)
	assert.Empty(t, gw.replies, "no confirmation when the row was not written")
}

func TestHandleLocation_SummaryFailureStillConfirms(t *testing.T) {
	store := newFakeStore()
	store.readErr = errors.New("backend unavailable")
	gw := newFakeGateway()
	r := newTestRecorder(store, gw, Options{SummaryEnabled: true})

	require.NoError(t, r.HandleLocation(context.Background(), taipeiEvent()))

	require.Len(t, store.rows("2025-04"), 2, "attendance row still written")
	require.Len(t, gw.replies, 1, "confirmation still sent")
}
