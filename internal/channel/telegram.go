package channel

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"parkbot/internal/domain"
	"parkbot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var (
	approvePattern = regexp.MustCompile(`(?i)^approve\s+(REQ-[\w-]+)$`)
	rejectPattern  = regexp.MustCompile(`(?i)^reject\s+(REQ-[\w-]+)\s+(.+)$`)
)

// TelegramChannel notifies the admin chat about new requests and collects
// approve/reject replies from a long-lived listener goroutine.
type TelegramChannel struct {
	api     domain.TelegramSender
	chatID  int64
	store   domain.RequestStore
	limiter *rate.Limiter
	logger  *zerolog.Logger

	mu        sync.Mutex
	decisions []models.ApprovalDecision
}

func NewTelegramChannel(api domain.TelegramSender, chatID int64, store domain.RequestStore, logger *zerolog.Logger) *TelegramChannel {
	return &TelegramChannel{
		api:    api,
		chatID: chatID,
		store:  store,
		// Telegram allows ~30 messages/sec per bot; stay well under it.
		limiter: rate.NewLimiter(rate.Limit(10), 5),
		logger:  logger,
	}
}

// Send pushes a formatted notification to the admin chat. A transport
// failure returns false; the request stays pending and can still be
// decided later via the listener.
func (c *TelegramChannel) Send(ctx context.Context, req *models.ReservationRequest) bool {
	if err := c.limiter.Wait(ctx); err != nil {
		c.logger.Warn().Err(err).Str("request_id", req.ID).Msg("notification rate wait aborted")
		return false
	}

	text := fmt.Sprintf(
		"🚗 *New Reservation Request*\n\n"+
			"Request ID: `%s`\n"+
			"Name: %s\n"+
			"Vehicle: %s\n"+
			"Period: %s\n\n"+
			"Reply with:\n"+
			"`approve %s`\n"+
			"`reject %s <reason>`",
		req.ID, req.DisplayName(), req.VehicleID, req.Period(), req.ID, req.ID,
	)

	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = models.ParseModeMarkdown

	if _, err := c.api.Send(msg); err != nil {
		c.logger.Warn().Err(err).Str("request_id", req.ID).Msg("failed to notify admin")
		return false
	}
	return true
}

// Poll drains all decisions buffered by the listener.
func (c *TelegramChannel) Poll() []models.ApprovalDecision {
	c.mu.Lock()
	defer c.mu.Unlock()
	drained := c.decisions
	c.decisions = nil
	return drained
}

// Close stops the update listener.
func (c *TelegramChannel) Close() error {
	c.api.StopReceivingUpdates()
	return nil
}

// Listen consumes inbound admin messages until ctx is cancelled. Run it in
// its own goroutine; decisions land in the shared drain buffer.
func (c *TelegramChannel) Listen(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := c.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			c.handleUpdate(ctx, update)
		}
	}
}

func (c *TelegramChannel) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.Chat == nil {
		return
	}
	if update.Message.Chat.ID != c.chatID {
		return
	}

	text := strings.TrimSpace(update.Message.Text)

	switch {
	case text == "/start":
		c.reply("👋 Hello! I'm the parking approval bot.\n\n" +
			"Commands:\n" +
			"• `approve REQ-xxx` — approve a request\n" +
			"• `reject REQ-xxx reason` — reject a request\n" +
			"• /pending — list pending requests")

	case text == "/pending":
		c.replyPending(ctx)

	default:
		c.handleCommand(text)
	}
}

func (c *TelegramChannel) handleCommand(text string) {
	if m := approvePattern.FindStringSubmatch(text); m != nil {
		c.buffer(models.ApprovalDecision{
			RequestID: m[1],
			Approved:  true,
			Reason:    "Approved by admin via Telegram",
		})
		c.reply(fmt.Sprintf("✅ Request %s approved.", m[1]))
		return
	}

	if m := rejectPattern.FindStringSubmatch(text); m != nil {
		c.buffer(models.ApprovalDecision{
			RequestID: m[1],
			Approved:  false,
			Reason:    strings.TrimSpace(m[2]),
		})
		c.reply(fmt.Sprintf("❌ Request %s rejected.\nReason: %s", m[1], strings.TrimSpace(m[2])))
		return
	}

	c.reply("❓ Unrecognized command.\n\n" +
		"Use:\n" +
		"• `approve REQ-xxx`\n" +
		"• `reject REQ-xxx reason`\n" +
		"• /pending — list pending requests")
}

func (c *TelegramChannel) replyPending(ctx context.Context) {
	pending, err := c.store.ListRequests(ctx, models.StatusPending)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to list pending requests")
		c.reply("Could not load pending requests, try again.")
		return
	}
	if len(pending) == 0 {
		c.reply("✅ No pending requests.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📋 Pending Requests:\n\n")
	for _, req := range pending {
		fmt.Fprintf(&sb, "ID: `%s`\nName: %s\nVehicle: %s\nPeriod: %s\n---\n",
			req.ID, req.DisplayName(), req.VehicleID, req.Period())
	}
	c.reply(sb.String())
}

func (c *TelegramChannel) buffer(d models.ApprovalDecision) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decisions = append(c.decisions, d)
	c.logger.Info().Str("request_id", d.RequestID).Bool("approved", d.Approved).Msg("decision received")
}

func (c *TelegramChannel) reply(text string) {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = models.ParseModeMarkdown
	if _, err := c.api.Send(msg); err != nil {
		c.logger.Warn().Err(err).Msg("failed to reply in admin chat")
	}
}
