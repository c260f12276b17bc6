package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishfund/internal/models"
	"github.com/Kerhoff/wishfund/pkg/apperrors"
)

// WishBrowser is the read side of the wish registry the bot needs.
type WishBrowser interface {
	FindOne(ctx context.Context, id int64) (*models.Wish, error)
	FindLast(ctx context.Context) ([]*models.Wish, error)
	FindTop(ctx context.Context) ([]*models.Wish, error)
}

// ---------------------------------------------------------------------------
// TopHandler – /top
// ---------------------------------------------------------------------------

// TopHandler lists the most copied wishes.
type TopHandler struct {
	wishes WishBrowser
	logger *logrus.Logger
}

// NewTopHandler creates a new TopHandler.
func NewTopHandler(wishes WishBrowser, logger *logrus.Logger) *TopHandler {
	return &TopHandler{wishes: wishes, logger: logger}
}

// Handle processes the /top command.
func (h *TopHandler) Handle(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	text, err := h.reply(ctx)
	if err != nil {
		return err
	}
	if err := send(bot, message.Chat.ID, text); err != nil {
		return err
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
	}).Info("Sent top wishes")
	return nil
}

func (h *TopHandler) reply(ctx context.Context) (string, error) {
	wishes, err := h.wishes.FindTop(ctx)
	if err != nil {
		return "", fmt.Errorf("find top wishes: %w", err)
	}
	return formatWishList("🔥 Most copied wishes", wishes), nil
}

// ---------------------------------------------------------------------------
// LastHandler – /last
// ---------------------------------------------------------------------------

// LastHandler lists the newest wishes.
type LastHandler struct {
	wishes WishBrowser
	logger *logrus.Logger
}

// NewLastHandler creates a new LastHandler.
func NewLastHandler(wishes WishBrowser, logger *logrus.Logger) *LastHandler {
	return &LastHandler{wishes: wishes, logger: logger}
}

// Handle processes the /last command.
func (h *LastHandler) Handle(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	text, err := h.reply(ctx)
	if err != nil {
		return err
	}
	if err := send(bot, message.Chat.ID, text); err != nil {
		return err
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
	}).Info("Sent last wishes")
	return nil
}

func (h *LastHandler) reply(ctx context.Context) (string, error) {
	wishes, err := h.wishes.FindLast(ctx)
	if err != nil {
		return "", fmt.Errorf("find last wishes: %w", err)
	}
	return formatWishList("🆕 Newest wishes", wishes), nil
}

// ---------------------------------------------------------------------------
// WishHandler – /wish <id>
// ---------------------------------------------------------------------------

// WishHandler shows the funding state of a single wish.
type WishHandler struct {
	wishes WishBrowser
	logger *logrus.Logger
}

// NewWishHandler creates a new WishHandler.
func NewWishHandler(wishes WishBrowser, logger *logrus.Logger) *WishHandler {
	return &WishHandler{wishes: wishes, logger: logger}
}

// Handle processes the /wish command.
func (h *WishHandler) Handle(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	text, err := h.reply(ctx, args)
	if err != nil {
		return err
	}
	if err := send(bot, message.Chat.ID, text); err != nil {
		return err
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"args":    args,
	}).Info("Sent wish details")
	return nil
}

func (h *WishHandler) reply(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "❌ Please provide a wish id.\nUsage: `/wish 42`", nil
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return "❌ Invalid wish id. It must be a positive number.", nil
	}

	wish, err := h.wishes.FindOne(ctx, id)
	if apperrors.Is(err, apperrors.KindNotFound) {
		return fmt.Sprintf("❌ Wish #%d not found.", id), nil
	}
	if err != nil {
		return "", fmt.Errorf("find wish %d: %w", id, err)
	}
	return formatWish(wish), nil
}

// ---------------------------------------------------------------------------
// Formatting
// ---------------------------------------------------------------------------

func send(bot *tgbotapi.BotAPI, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func formatWishList(title string, wishes []*models.Wish) string {
	var sb strings.Builder
	sb.WriteString("*" + title + "*\n\n")
	if len(wishes) == 0 {
		sb.WriteString("_No wishes yet._")
		return sb.String()
	}
	for _, w := range wishes {
		status := ""
		if w.IsFunded() {
			status = " ✅"
		}
		fmt.Fprintf(&sb, "#%d %s: %s / %s%s\n",
			w.ID, escape(w.Name), w.Raised.StringFixed(2), w.Price.StringFixed(2), status)
	}
	sb.WriteString("\nUse /wish <id> for details.")
	return sb.String()
}

// formatWish never names the contributor of a hidden offer.
func formatWish(w *models.Wish) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎁 *%s* (#%d)\n", escape(w.Name), w.ID)
	if w.Owner != nil {
		fmt.Fprintf(&sb, "👤 for %s\n", escape(w.Owner.Username))
	}
	if w.Description != "" {
		sb.WriteString("\n" + escape(w.Description) + "\n")
	}
	if w.Link != "" {
		sb.WriteString(escape(w.Link) + "\n")
	}

	fmt.Fprintf(&sb, "\n💰 Price: %s\n", w.Price.StringFixed(2))
	fmt.Fprintf(&sb, "📈 Raised: %s\n", w.Raised.StringFixed(2))
	if w.IsFunded() {
		sb.WriteString("✅ Fully funded\n")
	} else {
		fmt.Fprintf(&sb, "⏳ Remaining: %s\n", w.Remaining().StringFixed(2))
	}
	if w.Copied > 0 {
		fmt.Fprintf(&sb, "📋 Copied %d times\n", w.Copied)
	}

	if len(w.Offers) > 0 {
		sb.WriteString("\n*Contributors:*\n")
		for _, o := range w.Offers {
			name := "anonymous"
			if !o.Hidden && o.User != nil {
				name = escape(o.User.Username)
			}
			fmt.Fprintf(&sb, "• %s: %s\n", name, o.Amount.StringFixed(2))
		}
	}
	return sb.String()
}
