package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"networth-tracker/internal/config"
	"networth-tracker/internal/database"
	"networth-tracker/internal/models"
	"networth-tracker/internal/snapshots"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const testChatID int64 = 4242

type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, c)
	return tgbotapi.Message{MessageID: len(b.sent)}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) texts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, c := range b.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, msg.Text)
		}
	}
	return out
}

func (b *fakeBot) lastMessage(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.sent) - 1; i >= 0; i-- {
		if msg, ok := b.sent[i].(tgbotapi.MessageConfig); ok {
			return msg
		}
	}
	t.Fatalf("no message sent")
	return tgbotapi.MessageConfig{}
}

type fakeAnalytics struct {
	result  models.AnalyticsResult
	history []models.CategoryHistoryPoint
	err     error
}

func (f *fakeAnalytics) GetAnalytics(ctx context.Context, userID string) (models.AnalyticsResult, error) {
	return f.result, f.err
}

func (f *fakeAnalytics) GetCategoryHistory(ctx context.Context, userID string) ([]models.CategoryHistoryPoint, error) {
	return f.history, f.err
}

type fakeSnapshots struct {
	mu        sync.Mutex
	items     []models.Item
	created   []snapshots.SnapshotInput
	newItems  []snapshots.ItemInput
	updates   map[string]snapshots.ItemInput
	deleted   []string
	createErr error
	deleteErr error

	deletedItems []string
	itemErr      error
	entries      []string
	totals       map[string]float64
}

func (f *fakeSnapshots) ListItems(ctx context.Context, userID string) ([]models.Item, error) {
	return f.items, nil
}

func (f *fakeSnapshots) CreateItem(ctx context.Context, userID string, in snapshots.ItemInput) (*models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.newItems = append(f.newItems, in)
	return &models.Item{ID: "item-new", UserID: userID, Name: in.Name, Category: in.Category}, nil
}

func (f *fakeSnapshots) UpdateItem(ctx context.Context, userID, id string, in snapshots.ItemInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updates == nil {
		f.updates = make(map[string]snapshots.ItemInput)
	}
	f.updates[id] = in
	return nil
}

func (f *fakeSnapshots) DeleteItem(ctx context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.itemErr != nil {
		return f.itemErr
	}
	f.deletedItems = append(f.deletedItems, id)
	return nil
}

func (f *fakeSnapshots) UpdateSnapshot(ctx context.Context, userID, id string, in snapshots.SnapshotUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.totals == nil {
		f.totals = make(map[string]float64)
	}
	if in.TotalValue != nil {
		f.totals[id] = *in.TotalValue
	}
	return nil
}

func (f *fakeSnapshots) SetEntry(ctx context.Context, userID, snapshotID, itemID string, value float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, fmt.Sprintf("set %s/%s=%v", snapshotID, itemID, value))
	return nil
}

func (f *fakeSnapshots) DeleteEntry(ctx context.Context, userID, snapshotID, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, fmt.Sprintf("delete %s/%s", snapshotID, itemID))
	return nil
}

func (f *fakeSnapshots) RecentSnapshots(ctx context.Context, userID string, limit int) ([]models.Snapshot, error) {
	return nil, nil
}

func (f *fakeSnapshots) CreateSnapshot(ctx context.Context, userID string, in snapshots.SnapshotInput) (*models.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, in)
	var total float64
	for _, e := range in.Entries {
		total += e.Value
	}
	return &models.Snapshot{ID: "snap-1", UserID: userID, Date: in.Date, TotalValue: total}, nil
}

func (f *fakeSnapshots) DeleteSnapshot(ctx context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func newTestHandler(a *fakeAnalytics, s *fakeSnapshots) *EventHandler {
	cfg := &config.Config{ChatID: testChatID, Currency: "USD"}
	h := NewEventHandler(a, s, cfg, zap.NewNop())
	h.confirmTTL = time.Millisecond
	return h
}

func command(chatID int64, text string) *tgbotapi.Message {
	name, _, _ := strings.Cut(text, " ")
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: 7, UserName: "anna"},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}
}

func callback(data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: 7},
		Message: &tgbotapi.Message{MessageID: 99, Chat: &tgbotapi.Chat{ID: testChatID}},
		Data:    data,
	}
}

func TestHandleMessageIgnoresOtherChats(t *testing.T) {
	t.Parallel()

	bot := &fakeBot{}
	h := newTestHandler(&fakeAnalytics{}, &fakeSnapshots{})

	h.HandleMessage(bot, command(1, "/wealth"))

	if len(bot.sent) != 0 {
		t.Fatalf("expected no messages, got %d", len(bot.sent))
	}
}

func TestHandleMessageIgnoresBots(t *testing.T) {
	t.Parallel()

	bot := &fakeBot{}
	h := newTestHandler(&fakeAnalytics{}, &fakeSnapshots{})

	msg := command(testChatID, "/wealth")
	msg.From.IsBot = true
	h.HandleMessage(bot, msg)

	if len(bot.sent) != 0 {
		t.Fatalf("expected no messages, got %d", len(bot.sent))
	}
}

func TestWealthCommand(t *testing.T) {
	t.Parallel()

	result := models.EmptyAnalytics()
	result.TotalWealth = 1500.5
	result.LastMonthChangePercent = -18.18
	bot := &fakeBot{}
	h := newTestHandler(&fakeAnalytics{result: result}, &fakeSnapshots{})

	h.HandleMessage(bot, command(testChatID, "/wealth"))

	text := bot.lastMessage(t).Text
	for _, want := range []string{"NET WORTH", "$1,500.50", "-18.18%", "In 12 months"} {
		if !strings.Contains(text, want) {
			t.Errorf("reply does not contain %q:\n%s", want, text)
		}
	}
}

func TestWealthCommandReportsErrors(t *testing.T) {
	t.Parallel()

	bot := &fakeBot{}
	h := newTestHandler(&fakeAnalytics{err: errors.New("boom")}, &fakeSnapshots{})

	h.HandleMessage(bot, command(testChatID, "/wealth"))

	if got := bot.lastMessage(t).Text; got != "Error computing analytics." {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestBreakdownWithoutSnapshots(t *testing.T) {
	t.Parallel()

	bot := &fakeBot{}
	h := newTestHandler(&fakeAnalytics{result: models.EmptyAnalytics()}, &fakeSnapshots{})

	h.HandleMessage(bot, command(testChatID, "/breakdown"))

	if got := bot.lastMessage(t).Text; !strings.Contains(got, "No snapshots yet") {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestRecordSnapshotResolvesItemNames(t *testing.T) {
	t.Parallel()

	store := &fakeSnapshots{items: []models.Item{
		{ID: "bank", Name: "Conto"},
		{ID: "etf", Name: "ETF World"},
	}}
	bot := &fakeBot{}
	h := newTestHandler(&fakeAnalytics{}, store)

	h.HandleMessage(bot, command(testChatID, "/snapshot 2025-01-31; conto=1200,50; ETF WORLD=3400"))

	if len(store.created) != 1 {
		t.Fatalf("expected one snapshot, got %d", len(store.created))
	}
	in := store.created[0]
	if want := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC); !in.Date.Equal(want) {
		t.Errorf("date\nwant: %v\ngot:  %v", want, in.Date)
	}
	want := []snapshots.EntryInput{{ItemID: "bank", Value: 1200.5}, {ItemID: "etf", Value: 3400}}
	if len(in.Entries) != len(want) {
		t.Fatalf("entries\nwant: %v\ngot:  %v", want, in.Entries)
	}
	for i := range want {
		if in.Entries[i] != want[i] {
			t.Errorf("entry %d\nwant: %v\ngot:  %v", i, want[i], in.Entries[i])
		}
	}

	reply := bot.lastMessage(t)
	keyboard, ok := reply.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("expected an inline keyboard, got %T", reply.ReplyMarkup)
	}
	if data := *keyboard.InlineKeyboard[0][0].CallbackData; data != "delete_snap-1" {
		t.Fatalf("unexpected callback data %q", data)
	}
}

func TestRecordSnapshotRejectsUnknownItem(t *testing.T) {
	t.Parallel()

	store := &fakeSnapshots{items: []models.Item{{ID: "bank", Name: "Conto"}}}
	bot := &fakeBot{}
	h := newTestHandler(&fakeAnalytics{}, store)

	h.HandleMessage(bot, command(testChatID, "/snapshot 2025-01-31; Boat=10"))

	if len(store.created) != 0 {
		t.Fatalf("no snapshot should be created")
	}
	if got := bot.lastMessage(t).Text; !strings.Contains(got, `Unknown item "Boat"`) {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestRecordSnapshotSurfacesValidationErrors(t *testing.T) {
	t.Parallel()

	store := &fakeSnapshots{
		items:     []models.Item{{ID: "bank", Name: "Conto"}},
		createErr: fmt.Errorf("%w: duplicate item bank", snapshots.ErrInvalidInput),
	}
	bot := &fakeBot{}
	h := newTestHandler(&fakeAnalytics{}, store)

	h.HandleMessage(bot, command(testChatID, "/snapshot 2025-01-31; Conto=1; Conto=2"))

	if got := bot.lastMessage(t).Text; !strings.Contains(got, "duplicate item bank") {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestAddItemWithoutCategoryOffersKeyboard(t *testing.T) {
	t.Parallel()

	store := &fakeSnapshots{}
	bot := &fakeBot{}
	h := newTestHandler(&fakeAnalytics{}, store)

	h.HandleMessage(bot, command(testChatID, "/item Conto Arancio"))

	if len(store.newItems) != 1 {
		t.Fatalf("expected one item, got %d", len(store.newItems))
	}
	if got := store.newItems[0]; got.Name != "Conto Arancio" || got.Category != models.DefaultCategories[0] {
		t.Fatalf("unexpected item input %+v", got)
	}
	if _, ok := bot.lastMessage(t).ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); !ok {
		t.Fatalf("expected a category keyboard")
	}
}

func TestAddItemWithCategory(t *testing.T) {
	t.Parallel()

	store := &fakeSnapshots{}
	bot := &fakeBot{}
	h := newTestHandler(&fakeAnalytics{}, store)

	h.HandleMessage(bot, command(testChatID, "/item Barca | Barche"))

	if got := store.newItems[0]; got.Category != "Barche" {
		t.Fatalf("unexpected category %q", got.Category)
	}
	if bot.lastMessage(t).ReplyMarkup != nil {
		t.Fatalf("no keyboard expected for an explicit category")
	}
}

func TestCategoryCallbackUpdatesItem(t *testing.T) {
	t.Parallel()

	store := &fakeSnapshots{}
	bot := &fakeBot{}
	h := newTestHandler(&fakeAnalytics{}, store)

	h.HandleCallbackQuery(bot, callback("category_2_item-9"))

	if got := store.updates["item-9"].Category; got != models.DefaultCategories[2] {
		t.Fatalf("category\nwant: %v\ngot:  %v", models.DefaultCategories[2], got)
	}
	if len(bot.requests) == 0 {
		t.Fatalf("callback was not answered")
	}
}

func TestDeleteCallbackRemovesSnapshot(t *testing.T) {
	t.Parallel()

	store := &fakeSnapshots{}
	bot := &fakeBot{}
	h := newTestHandler(&fakeAnalytics{}, store)

	h.HandleCallbackQuery(bot, callback("delete_snap-3"))

	if len(store.deleted) != 1 || store.deleted[0] != "snap-3" {
		t.Fatalf("unexpected deletions %v", store.deleted)
	}
	if got := bot.texts(); len(got) != 1 || got[0] != "🗑️ Deleted snapshot." {
		t.Fatalf("unexpected replies %v", got)
	}
}

func TestDeleteCommandNotFound(t *testing.T) {
	t.Parallel()

	store := &fakeSnapshots{deleteErr: fmt.Errorf("delete snapshot: %w", database.ErrNotFound)}
	bot := &fakeBot{}
	h := newTestHandler(&fakeAnalytics{}, store)

	h.HandleMessage(bot, command(testChatID, "/delete snap-x"))

	if got := bot.lastMessage(t).Text; got != "❌ Not found." {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestExportSendsDocuments(t *testing.T) {
	t.Parallel()

	analytics := &fakeAnalytics{
		result: models.EmptyAnalytics(),
		history: []models.CategoryHistoryPoint{
			{Date: time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), Categories: map[models.Category]float64{models.CategoryBank: 100}},
		},
	}
	bot := &fakeBot{}
	h := newTestHandler(analytics, &fakeSnapshots{})

	h.HandleMessage(bot, command(testChatID, "/export"))

	var documents int
	for _, c := range bot.sent {
		if _, ok := c.(tgbotapi.DocumentConfig); ok {
			documents++
		}
	}
	if documents != 3 {
		t.Fatalf("expected 3 documents, got %d", documents)
	}
}

func TestItemsListMarksCategories(t *testing.T) {
	t.Parallel()

	store := &fakeSnapshots{items: []models.Item{
		{ID: "loan", Name: "Mutuo", Category: models.CategoryLoan},
		{ID: "boat", Name: "Barca", Category: "Barche"},
		{ID: "bank", Name: "Conto", Category: models.CategoryBank},
	}}
	bot := &fakeBot{}
	h := newTestHandler(&fakeAnalytics{}, store)

	h.HandleMessage(bot, command(testChatID, "/items"))

	text := bot.lastMessage(t).Text
	for _, want := range []string{"Mutuo [Finanziamento] (liability)", "Barca [Barche] (custom)", "Conto [Banca]\n"} {
		if !strings.Contains(text, want) {
			t.Errorf("reply does not contain %q:\n%s", want, text)
		}
	}
}

func TestRemoveItemInUse(t *testing.T) {
	t.Parallel()

	store := &fakeSnapshots{
		items:   []models.Item{{ID: "bank", Name: "Conto"}},
		itemErr: database.ErrItemInUse,
	}
	bot := &fakeBot{}
	h := newTestHandler(&fakeAnalytics{}, store)

	h.HandleMessage(bot, command(testChatID, "/rmitem conto"))

	if got := bot.lastMessage(t).Text; got != "⚠️ The item is still used by a snapshot." {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestRemoveItem(t *testing.T) {
	t.Parallel()

	store := &fakeSnapshots{items: []models.Item{{ID: "bank", Name: "Conto"}}}
	bot := &fakeBot{}
	h := newTestHandler(&fakeAnalytics{}, store)

	h.HandleMessage(bot, command(testChatID, "/rmitem Conto"))

	if len(store.deletedItems) != 1 || store.deletedItems[0] != "bank" {
		t.Fatalf("unexpected deletions %v", store.deletedItems)
	}
}

func TestReorderItems(t *testing.T) {
	t.Parallel()

	store := &fakeSnapshots{items: []models.Item{
		{ID: "bank", Name: "Conto"},
		{ID: "etf", Name: "ETF"},
	}}
	bot := &fakeBot{}
	h := newTestHandler(&fakeAnalytics{}, store)

	h.HandleMessage(bot, command(testChatID, "/order etf=1; Conto=2"))

	for id, want := range map[string]int{"etf": 1, "bank": 2} {
		in, ok := store.updates[id]
		if !ok || in.SortOrder == nil || *in.SortOrder != want {
			t.Errorf("item %s: expected sort order %d, got %+v", id, want, in)
		}
	}
}

func TestEntryCommandsEditSnapshot(t *testing.T) {
	t.Parallel()

	store := &fakeSnapshots{items: []models.Item{
		{ID: "bank", Name: "Conto"},
		{ID: "etf", Name: "ETF"},
	}}
	bot := &fakeBot{}
	h := newTestHandler(&fakeAnalytics{}, store)

	h.HandleMessage(bot, command(testChatID, "/entry snap-1; ETF=3500; conto=10"))
	h.HandleMessage(bot, command(testChatID, "/rmentry snap-1; Conto"))

	want := []string{"set snap-1/etf=3500", "set snap-1/bank=10", "delete snap-1/bank"}
	if strings.Join(store.entries, ",") != strings.Join(want, ",") {
		t.Fatalf("entries\nwant: %v\ngot:  %v", want, store.entries)
	}
	if len(store.totals) != 0 {
		t.Fatalf("entry edits must not touch the total, got %v", store.totals)
	}
}

func TestTotalCommand(t *testing.T) {
	t.Parallel()

	store := &fakeSnapshots{}
	bot := &fakeBot{}
	h := newTestHandler(&fakeAnalytics{}, store)

	h.HandleMessage(bot, command(testChatID, "/total snap-1 4200"))

	if got := store.totals["snap-1"]; got != 4200 {
		t.Fatalf("total\nwant: %v\ngot:  %v", 4200, got)
	}
	if got := bot.lastMessage(t).Text; !strings.Contains(got, "$4,200.00") {
		t.Fatalf("unexpected reply %q", got)
	}
}
