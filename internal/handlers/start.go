package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

const welcomeText = `🎁 *Welcome to Wishfund!*

Friends chip in together on the things you wish for. Here you can browse what people are collecting for.

*Available Commands:*
• /top - Most copied wishes
• /last - Newest wishes
• /wish <id> - Details of one wish
• /help - Show this help message

Sign up and pledge through the web app.`

// StartHandler handles the /start command
type StartHandler struct {
	logger *logrus.Logger
}

// NewStartHandler creates a new start command handler
func NewStartHandler(logger *logrus.Logger) *StartHandler {
	return &StartHandler{
		logger: logger,
	}
}

// Handle processes the /start command
func (h *StartHandler) Handle(_ context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, _ []string) error {
	msg := tgbotapi.NewMessage(message.Chat.ID, welcomeText)
	msg.ParseMode = tgbotapi.ModeMarkdown

	_, err := bot.Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send start message: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
	}).Info("Sent start message")

	return nil
}
