package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/rizzchat/server/internal/ai"
	"github.com/rizzchat/server/internal/apperror"
	"github.com/rizzchat/server/internal/models"
	"github.com/rizzchat/server/internal/quota"
	"github.com/rizzchat/server/internal/store"
)

// fakeProvider records the messages it was handed and returns canned
// output. Either call can be forced to fail.
type fakeProvider struct {
	last      []ai.Message
	reply     string
	title     string
	chatErr   error
	titleErr  error
	titleRuns int
}

func (p *fakeProvider) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	_ = ctx
	p.last = append([]ai.Message(nil), messages...)
	if p.chatErr != nil {
		return "", p.chatErr
	}
	return p.reply, nil
}

func (p *fakeProvider) GenerateTitle(ctx context.Context, firstMessage string) (string, error) {
	_ = ctx
	_ = firstMessage
	p.titleRuns++
	if p.titleErr != nil {
		return "", p.titleErr
	}
	return p.title, nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Chat{}, &models.RedeemCode{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, prov ai.Provider) (*Service, *store.Store) {
	t.Helper()
	st := store.New(openTestDB(t))
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(st, prov, quota.NewEngine(10), log), st
}

func seedUser(t *testing.T, st *store.Store, id string, pro bool) {
	t.Helper()
	u := &models.User{ID: id, Email: id + "@example.com", IsPro: pro}
	if err := st.UpsertUser(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func seedUsedQuota(t *testing.T, svc *Service, st *store.Store, userID string, n int) *models.Chat {
	t.Helper()
	c, err := svc.CreateChat(context.Background(), userID)
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	now := time.Now()
	msgs := models.MessageList{}
	for i := 0; i < n; i++ {
		msgs = append(msgs,
			models.Message{Role: models.RoleUser, Content: "q", Timestamp: now},
			models.Message{Role: models.RoleAssistant, Content: "a", Timestamp: now},
		)
	}
	if _, err := st.ReplaceChatMessages(context.Background(), c.ID, userID, msgs, nil); err != nil {
		t.Fatalf("seed messages: %v", err)
	}
	c.Messages = msgs
	return c
}

func TestSendMessage_AppendsRoundTripAndDerivesTitle(t *testing.T) {
	prov := &fakeProvider{reply: "try an open question", title: "Opening lines"}
	svc, st := newTestService(t, prov)
	seedUser(t, st, "u1", false)

	c, err := svc.CreateChat(context.Background(), "u1")
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	if c.Title != models.DefaultChatTitle {
		t.Fatalf("new chat title = %q, want placeholder", c.Title)
	}

	msg, updated, err := svc.SendMessage(context.Background(), c.ID, "u1", "hi")
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if msg.Role != models.RoleAssistant || msg.Content != "try an open question" {
		t.Fatalf("unexpected assistant msg: %+v", msg)
	}
	if updated.Title != "Opening lines" {
		t.Fatalf("Title = %q, want derived title", updated.Title)
	}
	if len(updated.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2", len(updated.Messages))
	}
	if updated.Messages[0].Role != models.RoleUser || updated.Messages[0].Content != "hi" {
		t.Fatalf("unexpected user msg: %+v", updated.Messages[0])
	}
	if updated.Messages[1].Role != models.RoleAssistant {
		t.Fatalf("unexpected second msg: %+v", updated.Messages[1])
	}

	// provider got the conversation ending in the new user message
	if len(prov.last) != 1 || prov.last[0].Content != "hi" {
		t.Fatalf("provider input = %+v", prov.last)
	}
}

func TestSendMessage_TitleOnlyDerivedOnFirstRoundTrip(t *testing.T) {
	prov := &fakeProvider{reply: "ok", title: "First topic"}
	svc, st := newTestService(t, prov)
	seedUser(t, st, "u1", false)

	c, _ := svc.CreateChat(context.Background(), "u1")
	if _, _, err := svc.SendMessage(context.Background(), c.ID, "u1", "one"); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if _, updated, err := svc.SendMessage(context.Background(), c.ID, "u1", "two"); err != nil {
		t.Fatalf("second send: %v", err)
	} else if updated.Title != "First topic" {
		t.Fatalf("Title = %q, want unchanged", updated.Title)
	}
	if prov.titleRuns != 1 {
		t.Fatalf("titleRuns = %d, want 1", prov.titleRuns)
	}
}

func TestSendMessage_TitleFailureKeepsPlaceholder(t *testing.T) {
	prov := &fakeProvider{reply: "ok", titleErr: errors.New("summarizer down")}
	svc, st := newTestService(t, prov)
	seedUser(t, st, "u1", false)

	c, _ := svc.CreateChat(context.Background(), "u1")
	_, updated, err := svc.SendMessage(context.Background(), c.ID, "u1", "hi")
	if err != nil {
		t.Fatalf("title failure must not fail the round-trip: %v", err)
	}
	if updated.Title != models.DefaultChatTitle {
		t.Fatalf("Title = %q, want placeholder", updated.Title)
	}
	if len(updated.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2", len(updated.Messages))
	}
}

func TestSendMessage_ProviderFailurePersistsNothing(t *testing.T) {
	prov := &fakeProvider{chatErr: errors.New("upstream 500")}
	svc, st := newTestService(t, prov)
	seedUser(t, st, "u1", false)

	c, _ := svc.CreateChat(context.Background(), "u1")
	_, _, err := svc.SendMessage(context.Background(), c.ID, "u1", "hi")
	if !errors.Is(err, apperror.ErrGenerationFailed) {
		t.Fatalf("err = %v, want ErrGenerationFailed", err)
	}

	got, err := st.GetChat(context.Background(), c.ID, "u1")
	if err != nil {
		t.Fatalf("get chat: %v", err)
	}
	if len(got.Messages) != 0 {
		t.Fatalf("no messages may persist on provider failure, got %d", len(got.Messages))
	}
}

func TestSendMessage_EmptyReplyIsGenerationFailure(t *testing.T) {
	prov := &fakeProvider{reply: "   "}
	svc, st := newTestService(t, prov)
	seedUser(t, st, "u1", false)

	c, _ := svc.CreateChat(context.Background(), "u1")
	if _, _, err := svc.SendMessage(context.Background(), c.ID, "u1", "hi"); !errors.Is(err, apperror.ErrGenerationFailed) {
		t.Fatalf("err = %v, want ErrGenerationFailed", err)
	}
}

func TestSendMessage_EmptyText(t *testing.T) {
	svc, st := newTestService(t, &fakeProvider{reply: "ok"})
	seedUser(t, st, "u1", false)
	c, _ := svc.CreateChat(context.Background(), "u1")

	if _, _, err := svc.SendMessage(context.Background(), c.ID, "u1", "  "); !errors.Is(err, apperror.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSendMessage_WrongOwnerIsNotFound(t *testing.T) {
	svc, st := newTestService(t, &fakeProvider{reply: "ok"})
	seedUser(t, st, "u1", false)
	seedUser(t, st, "u2", false)

	c, _ := svc.CreateChat(context.Background(), "u1")
	if _, _, err := svc.SendMessage(context.Background(), c.ID, "u2", "hi"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestQuota_TenthMessageAllowedEleventhRejected(t *testing.T) {
	prov := &fakeProvider{reply: "ok", title: "t"}
	svc, st := newTestService(t, prov)
	seedUser(t, st, "u1", false)

	c := seedUsedQuota(t, svc, st, "u1", 9)

	// 9 used today: the 10th goes through
	if _, _, err := svc.SendMessage(context.Background(), c.ID, "u1", "tenth"); err != nil {
		t.Fatalf("10th message: %v", err)
	}

	// 10 used now: both paths reject
	if _, _, err := svc.SendMessage(context.Background(), c.ID, "u1", "eleventh"); !errors.Is(err, apperror.ErrQuotaExceeded) {
		t.Fatalf("sendMessage err = %v, want ErrQuotaExceeded", err)
	}
	if _, err := svc.CreateChat(context.Background(), "u1"); !errors.Is(err, apperror.ErrQuotaExceeded) {
		t.Fatalf("createChat err = %v, want ErrQuotaExceeded", err)
	}
}

func TestQuota_CountsAcrossAllChats(t *testing.T) {
	prov := &fakeProvider{reply: "ok", title: "t"}
	svc, st := newTestService(t, prov)
	seedUser(t, st, "u1", false)

	seedUsedQuota(t, svc, st, "u1", 6)
	other := seedUsedQuota(t, svc, st, "u1", 4)

	// 10 used across two chats: rejected even in a chat with room
	if _, _, err := svc.SendMessage(context.Background(), other.ID, "u1", "more"); !errors.Is(err, apperror.ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}
}

func TestQuota_ProUserUnlimited(t *testing.T) {
	prov := &fakeProvider{reply: "ok", title: "t"}
	svc, st := newTestService(t, prov)
	seedUser(t, st, "pro", true)

	c := seedUsedQuota(t, svc, st, "pro", 50)
	if _, _, err := svc.SendMessage(context.Background(), c.ID, "pro", "still fine"); err != nil {
		t.Fatalf("pro user must never hit the cap: %v", err)
	}
}

func TestDeleteChat_NotOwned(t *testing.T) {
	svc, st := newTestService(t, &fakeProvider{reply: "ok"})
	seedUser(t, st, "u1", false)
	seedUser(t, st, "u2", false)

	c, _ := svc.CreateChat(context.Background(), "u1")
	if err := svc.DeleteChat(context.Background(), c.ID, "u2"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
