package channel

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"parkbot/internal/repository"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu      sync.Mutex
	sent    []tgbotapi.Chattable
	sendErr error
	updates chan tgbotapi.Update
	stopped bool
}

func newFakeSender() *fakeSender {
	return &fakeSender{updates: make(chan tgbotapi.Update, 16)}
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.sendErr
}

func (f *fakeSender) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeSender) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeSender) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var texts []string
	for _, c := range f.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			texts = append(texts, msg.Text)
		}
	}
	return texts
}

func adminUpdate(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			Text: text,
			Chat: &tgbotapi.Chat{ID: chatID},
		},
	}
}

func newTelegramTestChannel(t *testing.T) (*TelegramChannel, *fakeSender) {
	t.Helper()
	sender := newFakeSender()
	logger := zerolog.Nop()
	return NewTelegramChannel(sender, 42, repository.NewMemoryRequestStore(), &logger), sender
}

func TestTelegramChannel_SendNotifiesAdmin(t *testing.T) {
	ch, sender := newTelegramTestChannel(t)

	req := pendingRequest("REQ-20260305100000-001")
	req.Start = time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC)
	req.End = time.Date(2026, time.March, 12, 12, 0, 0, 0, time.UTC)

	assert.True(t, ch.Send(context.Background(), req))

	texts := sender.sentTexts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "REQ-20260305100000-001")
	assert.Contains(t, texts[0], "John Smith")
	assert.Contains(t, texts[0], "approve REQ-20260305100000-001")
	assert.Contains(t, texts[0], "2026-03-05 10:00 - 2026-03-12 12:00")
}

func TestTelegramChannel_SendFailureReturnsFalse(t *testing.T) {
	ch, sender := newTelegramTestChannel(t)
	sender.sendErr = errors.New("network down")

	assert.False(t, ch.Send(context.Background(), pendingRequest("REQ-20260305100000-001")))
}

func TestTelegramChannel_ApproveCommand(t *testing.T) {
	ch, sender := newTelegramTestChannel(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ch.Listen(ctx)

	sender.updates <- adminUpdate(42, "approve REQ-20260305100000-001")

	require.Eventually(t, func() bool {
		decisions := ch.Poll()
		if len(decisions) == 0 {
			return false
		}
		assert.Equal(t, "REQ-20260305100000-001", decisions[0].RequestID)
		assert.True(t, decisions[0].Approved)
		return true
	}, time.Second, 5*time.Millisecond)
}

func TestTelegramChannel_RejectCommandKeepsReason(t *testing.T) {
	ch, sender := newTelegramTestChannel(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ch.Listen(ctx)

	sender.updates <- adminUpdate(42, "reject REQ-20260305100000-001 No availability")

	require.Eventually(t, func() bool {
		decisions := ch.Poll()
		if len(decisions) == 0 {
			return false
		}
		assert.False(t, decisions[0].Approved)
		assert.Equal(t, "No availability", decisions[0].Reason)
		return true
	}, time.Second, 5*time.Millisecond)
}

func TestTelegramChannel_IgnoresOtherChats(t *testing.T) {
	ch, sender := newTelegramTestChannel(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ch.Listen(ctx)

	sender.updates <- adminUpdate(99, "approve REQ-20260305100000-001")

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, ch.Poll())
}

func TestTelegramChannel_UnrecognizedCommandReplies(t *testing.T) {
	ch, sender := newTelegramTestChannel(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ch.Listen(ctx)

	sender.updates <- adminUpdate(42, "do something")

	require.Eventually(t, func() bool {
		for _, text := range sender.sentTexts() {
			if strings.Contains(text, "Unrecognized command") {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, ch.Poll())
}

func TestTelegramChannel_PendingCommand(t *testing.T) {
	store := repository.NewMemoryRequestStore()
	req := pendingRequest("REQ-20260305100000-001")
	require.NoError(t, store.SaveRequest(context.Background(), req))

	sender := newFakeSender()
	logger := zerolog.Nop()
	ch := NewTelegramChannel(sender, 42, store, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ch.Listen(ctx)

	sender.updates <- adminUpdate(42, "/pending")

	require.Eventually(t, func() bool {
		for _, text := range sender.sentTexts() {
			if strings.Contains(text, "REQ-20260305100000-001") {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestTelegramChannel_CloseStopsUpdates(t *testing.T) {
	ch, sender := newTelegramTestChannel(t)
	require.NoError(t, ch.Close())
	assert.True(t, sender.stopped)
}
