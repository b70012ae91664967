package checkin

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"line-checkin/internal/line"
)

// TriggerWord is the text command that asks the bot for a check-in prompt.
const TriggerWord = "打卡"

const (
	timestampLayout = "2006-01-02 15:04:05"
	monthLayout     = "2006-01"

	// unknownAddress fills the address column when the shared location
	// carries no free-text address.
	unknownAddress = "未提供"
)

var attendanceHeader = []string{"時間", "使用者名稱", "User ID", "地點", "緯度", "經度"}

// SpreadsheetStore is the tabular backend: one workbook, tabs addressed by
// name. EnsureTab must be idempotent; ReadAllRows includes the header row.
type SpreadsheetStore interface {
	EnsureTab(ctx context.Context, name string, header []string) error
	AppendRow(ctx context.Context, tab string, row []any) error
	ReadAllRows(ctx context.Context, tab string) ([][]string, error)
	Clear(ctx context.Context, tab string) error
}

// MessagingGateway is the chat platform: reply to an inbound event and
// resolve a user's display name.
type MessagingGateway interface {
	Reply(ctx context.Context, replyToken string, msgs []line.Message) error
	DisplayName(ctx context.Context, userID string) (string, error)
}

// LocationEvent is one inbound location share.
type LocationEvent struct {
	ReplyToken string
	UserID     string
	Address    string
	Latitude   float64
	Longitude  float64
}

type Options struct {
	// Location is the fixed timezone timestamps are rendered in.
	// Nil means time.Local.
	Location *time.Location
	// SummaryEnabled turns on the per-month count projection.
	SummaryEnabled bool
	// PromptCard selects the buttons-template prompt over plain text.
	PromptCard bool
}

// Recorder handles both bot interactions: the trigger-word prompt and the
// location check-in itself. Collaborators are injected so the pipeline runs
// against fakes in tests.
type Recorder struct {
	store      SpreadsheetStore
	gateway    MessagingGateway
	loc        *time.Location
	summary    bool
	promptCard bool
	now        func() time.Time

	mu       sync.Mutex
	monthMus map[string]*sync.Mutex
}

func NewRecorder(store SpreadsheetStore, gateway MessagingGateway, opts Options) *Recorder {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &Recorder{
		store:      store,
		gateway:    gateway,
		loc:        loc,
		summary:    opts.SummaryEnabled,
		promptCard: opts.PromptCard,
		now:        time.Now,
		monthMus:   map[string]*sync.Mutex{},
	}
}

// HandleTrigger replies once with the check-in prompt. No state is kept
// between the prompt and the location message that follows it.
func (r *Recorder) HandleTrigger(ctx context.Context, replyToken string) error {
	var msg line.Message
	if r.promptCard {
		msg = line.NewButtonsMessage(
			"每日打卡",
			"每日打卡",
			"請分享您的位置資訊完成打卡",
			line.NewMessageAction(TriggerWord, TriggerWord),
		)
	} else {
		msg = line.NewTextMessage("請分享您的位置資訊完成打卡")
	}
	if err := r.gateway.Reply(ctx, replyToken, []line.Message{msg}); err != nil {
		return messagingErr("reply prompt", err)
	}
	return nil
}

// HandleLocation records one check-in: resolve the sender's display name,
// timestamp in the configured timezone, append to the monthly tab, rebuild
// the summary projection, and confirm to the sender. There is no dedup; a
// redelivered event appends a second row.
func (r *Recorder) HandleLocation(ctx context.Context, ev LocationEvent) error {
	name, err := r.gateway.DisplayName(ctx, ev.UserID)
	if err != nil {
		return messagingErr("fetch display name", err)
	}

	now := r.now().In(r.loc)
	ts := now.Format(timestampLayout)
	month := now.Format(monthLayout)

	addr := strings.TrimSpace(ev.Address)
	if addr == "" {
		addr = unknownAddress
	}

	if err := r.store.EnsureTab(ctx, month, attendanceHeader); err != nil {
		return storeErr("ensure monthly tab "+month, err)
	}
	row := []any{ts, name, ev.UserID, addr, ev.Latitude, ev.Longitude}
	if err := r.store.AppendRow(ctx, month, row); err != nil {
		return storeErr("append attendance row", err)
	}

	// Best-effort: a failed rebuild must not swallow the confirmation.
	if r.summary {
		if err := r.rebuildSummary(ctx, month); err != nil {
			log.Printf("summary rebuild failed (month=%s): %v", month, err)
		}
	}

	reply := fmt.Sprintf("%s 打卡成功！\n時間：%s\n地點：%s", name, ts, addr)
	if err := r.gateway.Reply(ctx, ev.ReplyToken, []line.Message{line.NewTextMessage(reply)}); err != nil {
		return messagingErr("reply confirmation", err)
	}
	return nil
}

// monthLock returns the per-month mutex serializing summary rebuilds.
func (r *Recorder) monthLock(month string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.monthMus[month]
	if !ok {
		m = &sync.Mutex{}
		r.monthMus[month] = m
	}
	return m
}
