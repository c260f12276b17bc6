package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

const helpText = `📚 *Wishfund Help*

*Browsing:*
• /top - The %d most copied wishes
• /last - The %d newest wishes
• /wish <id> - Price, raised amount and contributors of a wish

_Hidden contributors are never shown._`

// HelpHandler handles the /help command
type HelpHandler struct {
	logger *logrus.Logger
	top    int
	last   int
}

func NewHelpHandler(logger *logrus.Logger, top, last int) *HelpHandler {
	return &HelpHandler{logger: logger, top: top, last: last}
}

func (h *HelpHandler) Handle(_ context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, _ []string) error {
	msg := tgbotapi.NewMessage(message.Chat.ID, fmt.Sprintf(helpText, h.top, h.last))
	msg.ParseMode = tgbotapi.ModeMarkdown

	_, err := bot.Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send help message: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
	}).Info("Sent help message")

	return nil
}
