package telegram

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Bot reads updates from a channel and dispatches each one to the router
// on its own goroutine.
type Bot struct {
	sender  Sender
	updates <-chan tgbotapi.Update
	stop    func()
	logger  *logrus.Logger
	router  *Router
	wg      sync.WaitGroup
}

// NewBot connects to the Telegram API and subscribes to updates with long
// polling.
func NewBot(token string, logger *logrus.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	logger.Infof("Authorized on account %s", api.Self.UserName)

	// Polling does not work while a webhook is set.
	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return nil, fmt.Errorf("failed to delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	b := NewBotWithUpdates(api, api.GetUpdatesChan(u), logger)
	b.stop = api.StopReceivingUpdates
	return b, nil
}

// NewBotWithUpdates builds a Bot over an existing update source. Replies go
// through sender.
func NewBotWithUpdates(sender Sender, updates <-chan tgbotapi.Update, logger *logrus.Logger) *Bot {
	return &Bot{
		sender:  sender,
		updates: updates,
		logger:  logger,
		router:  NewRouter(logger),
	}
}

// Start dispatches updates until ctx is cancelled or the update channel is
// closed. It waits for in-flight handlers before returning.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Bot started")
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Stopping bot...")
			if b.stop != nil {
				b.stop()
			}
			return nil
		case update, ok := <-b.updates:
			if !ok {
				b.logger.Info("Update channel closed")
				return nil
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handleUpdate(update)
			}()
		}
	}
}

// handleUpdate routes one update; a panicking handler is logged and does
// not take the bot down.
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.WithField("update_id", update.UpdateID).Errorf("Panic in update handler: %v", r)
		}
	}()

	switch {
	case update.Message != nil:
		b.router.HandleMessage(b.sender, update.Message)
	case update.CallbackQuery != nil:
		b.router.HandleCallbackQuery(b.sender, update.CallbackQuery)
	}
}

// RegisterCommand registers a command handler on the router
func (b *Bot) RegisterCommand(command string, handler CommandHandler) {
	b.router.RegisterCommand(command, handler)
}
