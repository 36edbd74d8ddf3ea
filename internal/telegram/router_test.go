package telegram

import (
	"errors"
	"io"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/GroceryboT/internal/telegram/telegramtest"
)

type recordingHandler struct {
	args []string
	err  error
}

func (h *recordingHandler) Handle(bot Sender, message *tgbotapi.Message, args []string) error {
	h.args = args
	return h.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestRouterDispatchesCommand(t *testing.T) {
	r := NewRouter(quietLogger())
	h := &recordingHandler{}
	r.RegisterCommand("add", h)

	sender := &telegramtest.Sender{}
	r.HandleMessage(sender, telegramtest.Command(1, "/add Milk  liters"))

	assert.Equal(t, []string{"Milk", "liters"}, h.args)
	assert.Empty(t, sender.Messages())
}

func TestRouterUnknownCommand(t *testing.T) {
	r := NewRouter(quietLogger())
	sender := &telegramtest.Sender{}

	r.HandleMessage(sender, telegramtest.Command(1, "/nope"))

	require.Len(t, sender.Messages(), 1)
	assert.Contains(t, sender.LastText(), "Unknown command")
}

func TestRouterReportsHandlerError(t *testing.T) {
	r := NewRouter(quietLogger())
	r.RegisterCommand("list", &recordingHandler{err: errors.New("boom")})
	sender := &telegramtest.Sender{}

	r.HandleMessage(sender, telegramtest.Command(1, "/list"))

	assert.Contains(t, sender.LastText(), "An error occurred")
}

func TestRouterIgnoresPlainText(t *testing.T) {
	r := NewRouter(quietLogger())
	h := &recordingHandler{}
	r.RegisterCommand("add", h)
	sender := &telegramtest.Sender{}

	r.HandleMessage(sender, &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: 1},
		Text: "add milk",
	})

	assert.Nil(t, h.args)
	assert.Empty(t, sender.Messages())
}

func TestRouterAnswersCallbacks(t *testing.T) {
	r := NewRouter(quietLogger())
	sender := &telegramtest.Sender{}

	r.HandleCallbackQuery(sender, &tgbotapi.CallbackQuery{ID: "cb-1", Data: "x"})

	require.Len(t, sender.Requests(), 1)
	cb, ok := sender.Requests()[0].(tgbotapi.CallbackConfig)
	require.True(t, ok)
	assert.Equal(t, "cb-1", cb.CallbackQueryID)
}
