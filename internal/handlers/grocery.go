package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GroceryboT/internal/models"
	"github.com/Kerhoff/GroceryboT/internal/repository"
	"github.com/Kerhoff/GroceryboT/internal/service"
	"github.com/Kerhoff/GroceryboT/internal/telegram"
)

// ChatSessionKey is the session key used for a Telegram chat.
func ChatSessionKey(chatID int64) string {
	return fmt.Sprintf("telegram:%d", chatID)
}

// listHandler carries what every grocery command needs.
type listHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

func (h listHandler) session(message *tgbotapi.Message) *service.Session {
	return h.svc.Session(ChatSessionKey(message.Chat.ID))
}

func (h listHandler) log(message *tgbotapi.Message) *logrus.Entry {
	return h.logger.WithFields(logrus.Fields{
		"chat_id":    message.Chat.ID,
		"message_id": message.MessageID,
	})
}

func send(bot telegram.Sender, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func escape(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, text)
}

// resolveRow maps a 1-based row number from the user onto an item of the
// current list.
func resolveRow(raw string, view service.View) (models.Item, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(raw, "#"))
	if err != nil || n < 1 || n > len(view.Items) {
		return models.Item{}, false
	}
	return view.Items[n-1], true
}

func missingRow(bot telegram.Sender, chatID int64, raw string) error {
	return send(bot, chatID,
		fmt.Sprintf("❌ There is no item *%s* on the list. Use /list to see the current rows.", escape(raw)))
}

// failureText turns a rejected store call into a user-facing warning.
// Anything other than validation or not-found is returned as an error.
func failureText(err error) (string, error) {
	var verr *repository.ValidationError
	switch {
	case errors.As(err, &verr):
		return "⚠️ " + escape(verr.Error()), nil
	case errors.Is(err, repository.ErrNotFound):
		return "❌ That item is no longer on the list. Use /list to refresh.", nil
	default:
		return "", err
	}
}

// renderList formats the list and totals as a Markdown message.
func renderList(view service.View) string {
	if len(view.Items) == 0 {
		return "📝 *No items yet.*\n\nStart by adding one with `/add <item> [unit]`"
	}

	var sb strings.Builder
	sb.WriteString("📋 *Grocery List*\n\n")
	for i, item := range view.Items {
		mark := "⬜"
		if item.Purchased {
			mark = "✅"
		}
		sb.WriteString(fmt.Sprintf("%s *%d.* %s — %s × %s %s = %s\n",
			mark, i+1, escape(item.Name),
			service.FormatAmount(item.Price),
			service.FormatQuantity(item.Quantity), item.Unit,
			service.FormatAmount(item.Subtotal()),
		))
	}
	sb.WriteString("\n")
	sb.WriteString(renderTotals(view.Totals))
	return sb.String()
}

func renderTotals(t models.Totals) string {
	return fmt.Sprintf("🧾 *Total Cost:* %s\n🛍 *Purchased Total:* %s\n📦 *Items Count:* %d",
		service.FormatAmount(t.Total), service.FormatAmount(t.PurchasedTotal), t.Count)
}

// ---------------------------------------------------------------------------
// AddHandler – /add <item> [unit]
// ---------------------------------------------------------------------------

// AddHandler handles the /add command. The last word is taken as the unit
// when it names one; otherwise the item is counted in pieces.
type AddHandler struct {
	listHandler
}

// NewAddHandler creates a new AddHandler.
func NewAddHandler(svc *service.Service, logger *logrus.Logger) *AddHandler {
	return &AddHandler{listHandler{svc: svc, logger: logger}}
}

// Handle processes the /add command.
func (h *AddHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return send(bot, message.Chat.ID,
			"❌ Please provide an item name.\n\n"+
				"*Usage:*\n"+
				"`/add Milk liters`\n"+
				"`/add Whole wheat bread`\n\n"+
				"_Units: kg, liters, pcs, packets, dozen_")
	}

	name, unit := parseNameAndUnit(args)
	id, view, err := h.session(message).Add(name, unit)
	if err != nil {
		if errors.Is(err, repository.ErrValidation) {
			return send(bot, message.Chat.ID, "⚠️ Please enter a valid item name.")
		}
		return fmt.Errorf("add item: %w", err)
	}

	h.log(message).WithFields(logrus.Fields{
		"item_id": id,
		"count":   view.Totals.Count,
	}).Info("Item added to grocery list")

	return send(bot, message.Chat.ID,
		fmt.Sprintf("✅ Added: *%s* (%s) as item *%d*", escape(strings.TrimSpace(name)), unit, view.Totals.Count))
}

func parseNameAndUnit(args []string) (string, models.Unit) {
	if len(args) > 1 {
		if unit, err := models.ParseUnit(args[len(args)-1]); err == nil {
			return strings.Join(args[:len(args)-1], " "), unit
		}
	}
	return strings.Join(args, " "), models.UnitPcs
}

// ---------------------------------------------------------------------------
// ListHandler – /list
// ---------------------------------------------------------------------------

// ListHandler handles the /list command.
type ListHandler struct {
	listHandler
}

// NewListHandler creates a new ListHandler.
func NewListHandler(svc *service.Service, logger *logrus.Logger) *ListHandler {
	return &ListHandler{listHandler{svc: svc, logger: logger}}
}

// Handle processes the /list command.
func (h *ListHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	view := h.session(message).View()
	h.log(message).WithField("count", view.Totals.Count).Debug("Listed grocery list")
	return send(bot, message.Chat.ID, renderList(view))
}

// ---------------------------------------------------------------------------
// TotalHandler – /total
// ---------------------------------------------------------------------------

// TotalHandler handles the /total command.
type TotalHandler struct {
	listHandler
}

// NewTotalHandler creates a new TotalHandler.
func NewTotalHandler(svc *service.Service, logger *logrus.Logger) *TotalHandler {
	return &TotalHandler{listHandler{svc: svc, logger: logger}}
}

// Handle processes the /total command.
func (h *TotalHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	return send(bot, message.Chat.ID, renderTotals(h.session(message).View().Totals))
}

// ---------------------------------------------------------------------------
// AmountHandler – /price <n> <value>, /qty <n> <value>
// ---------------------------------------------------------------------------

// AmountField selects which number an AmountHandler updates.
type AmountField string

const (
	PriceField    AmountField = "price"
	QuantityField AmountField = "quantity"
)

// AmountHandler sets the price or quantity of one row.
type AmountHandler struct {
	listHandler
	field   AmountField
	command string
}

// NewPriceHandler creates the /price handler.
func NewPriceHandler(svc *service.Service, logger *logrus.Logger) *AmountHandler {
	return &AmountHandler{listHandler{svc: svc, logger: logger}, PriceField, "price"}
}

// NewQuantityHandler creates the /qty handler.
func NewQuantityHandler(svc *service.Service, logger *logrus.Logger) *AmountHandler {
	return &AmountHandler{listHandler{svc: svc, logger: logger}, QuantityField, "qty"}
}

// Handle processes /price and /qty.
func (h *AmountHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	if len(args) != 2 {
		return send(bot, message.Chat.ID,
			fmt.Sprintf("❌ Usage: `/%s <item number> <value>`\nExample: `/%s 1 2.5`", h.command, h.command))
	}

	value, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return send(bot, message.Chat.ID,
			fmt.Sprintf("⚠️ %s must be a number, got *%s*.", h.field, escape(args[1])))
	}

	sess := h.session(message)
	item, ok := resolveRow(args[0], sess.View())
	if !ok {
		return missingRow(bot, message.Chat.ID, args[0])
	}

	var view service.View
	if h.field == PriceField {
		view, err = sess.SetPrice(item.ID, value)
	} else {
		view, err = sess.SetQuantity(item.ID, value)
	}
	if err != nil {
		text, ferr := failureText(err)
		if ferr != nil {
			return fmt.Errorf("set %s: %w", h.field, ferr)
		}
		return send(bot, message.Chat.ID, text)
	}

	h.log(message).WithFields(logrus.Fields{
		"item_id": item.ID,
		"field":   h.field,
		"value":   value,
	}).Info("Item updated")

	return send(bot, message.Chat.ID,
		fmt.Sprintf("✏️ Updated %s of *%s*.\n\n%s", h.field, escape(item.Name), renderTotals(view.Totals)))
}

// ---------------------------------------------------------------------------
// PurchasedHandler – /bought <n>, /unbought <n>
// ---------------------------------------------------------------------------

// PurchasedHandler marks one row as purchased or not purchased.
type PurchasedHandler struct {
	listHandler
	purchased bool
}

// NewBoughtHandler creates the /bought handler.
func NewBoughtHandler(svc *service.Service, logger *logrus.Logger) *PurchasedHandler {
	return &PurchasedHandler{listHandler{svc: svc, logger: logger}, true}
}

// NewUnboughtHandler creates the /unbought handler.
func NewUnboughtHandler(svc *service.Service, logger *logrus.Logger) *PurchasedHandler {
	return &PurchasedHandler{listHandler{svc: svc, logger: logger}, false}
}

// Handle processes /bought and /unbought.
func (h *PurchasedHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	command := "bought"
	if !h.purchased {
		command = "unbought"
	}
	if len(args) != 1 {
		return send(bot, message.Chat.ID, fmt.Sprintf("❌ Usage: `/%s <item number>`", command))
	}

	sess := h.session(message)
	item, ok := resolveRow(args[0], sess.View())
	if !ok {
		return missingRow(bot, message.Chat.ID, args[0])
	}

	view, err := sess.SetPurchased(item.ID, h.purchased)
	if err != nil {
		text, ferr := failureText(err)
		if ferr != nil {
			return fmt.Errorf("set purchased: %w", ferr)
		}
		return send(bot, message.Chat.ID, text)
	}

	h.log(message).WithFields(logrus.Fields{
		"item_id":   item.ID,
		"purchased": h.purchased,
	}).Info("Item purchase state changed")

	mark := "✅ Marked *%s* as purchased."
	if !h.purchased {
		mark = "⬜ Marked *%s* as not purchased."
	}
	return send(bot, message.Chat.ID,
		fmt.Sprintf(mark+"\n\n%s", escape(item.Name), renderTotals(view.Totals)))
}

// ---------------------------------------------------------------------------
// RemoveHandler – /remove <n>
// ---------------------------------------------------------------------------

// RemoveHandler handles the /remove command.
type RemoveHandler struct {
	listHandler
}

// NewRemoveHandler creates a new RemoveHandler.
func NewRemoveHandler(svc *service.Service, logger *logrus.Logger) *RemoveHandler {
	return &RemoveHandler{listHandler{svc: svc, logger: logger}}
}

// Handle processes the /remove command.
func (h *RemoveHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	if len(args) != 1 {
		return send(bot, message.Chat.ID, "❌ Usage: `/remove <item number>`")
	}

	sess := h.session(message)
	item, ok := resolveRow(args[0], sess.View())
	if !ok {
		return missingRow(bot, message.Chat.ID, args[0])
	}

	view, err := sess.Remove(item.ID)
	if err != nil {
		text, ferr := failureText(err)
		if ferr != nil {
			return fmt.Errorf("remove item: %w", ferr)
		}
		return send(bot, message.Chat.ID, text)
	}

	h.log(message).WithField("item_id", item.ID).Info("Item removed from grocery list")

	return send(bot, message.Chat.ID,
		fmt.Sprintf("🗑 Removed *%s*.\n\n%s", escape(item.Name), renderTotals(view.Totals)))
}

// ---------------------------------------------------------------------------
// ClearHandler – /clear
// ---------------------------------------------------------------------------

// ClearHandler handles the /clear command, emptying the whole list.
type ClearHandler struct {
	listHandler
}

// NewClearHandler creates a new ClearHandler.
func NewClearHandler(svc *service.Service, logger *logrus.Logger) *ClearHandler {
	return &ClearHandler{listHandler{svc: svc, logger: logger}}
}

// Handle processes the /clear command.
func (h *ClearHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	h.session(message).Clear()
	h.log(message).Info("Cleared grocery list")
	return send(bot, message.Chat.ID, "🧹 All items have been cleared from the list!")
}
