package handlers

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GroceryboT/internal/telegram"
)

// HelpHandler handles the /help command
type HelpHandler struct {
	logger *logrus.Logger
}

func NewHelpHandler(logger *logrus.Logger) *HelpHandler {
	return &HelpHandler{logger: logger}
}

func (h *HelpHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	helpText := `📚 *GroceryboT Help*

*Adding:*
• /add <item> [unit] - Add an item (default unit: pcs)

*While shopping:*
• /price <n> <value> - Set the price of item n
• /qty <n> <value> - Set the quantity of item n
• /bought <n> - Mark item n as purchased
• /unbought <n> - Undo a purchase mark

*Managing:*
• /list - Show the list with totals
• /total - Show totals only
• /remove <n> - Remove item n
• /clear - Remove every item

_Units: kg, liters, pcs, packets, dozen_`

	if err := send(bot, message.Chat.ID, helpText); err != nil {
		return fmt.Errorf("failed to send help message: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
	}).Debug("Sent help message")

	return nil
}
