// Package telegramtest provides a recording Sender and message builders for
// command handler tests.
package telegramtest

import (
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender records everything sent through it.
type Sender struct {
	mu       sync.Mutex
	messages []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable

	// SendErr is returned from every Send call when set.
	SendErr error
}

func (s *Sender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		s.messages = append(s.messages, msg)
	}
	return tgbotapi.Message{}, s.SendErr
}

func (s *Sender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// Messages returns the messages sent so far.
func (s *Sender) Messages() []tgbotapi.MessageConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]tgbotapi.MessageConfig, len(s.messages))
	copy(out, s.messages)
	return out
}

// Requests returns the non-message calls made so far.
func (s *Sender) Requests() []tgbotapi.Chattable {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]tgbotapi.Chattable, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastText returns the text of the most recent message, or "".
func (s *Sender) LastText() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.messages) == 0 {
		return ""
	}
	return s.messages[len(s.messages)-1].Text
}

// Command builds an incoming message whose text starts with a bot command,
// e.g. Command(42, "/add Milk liters").
func Command(chatID int64, text string) *tgbotapi.Message {
	length := len(text)
	if i := strings.IndexByte(text, ' '); i >= 0 {
		length = i
	}
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: 7, UserName: "shopper", FirstName: "Sam"},
		Chat:      &tgbotapi.Chat{ID: chatID, Type: "private"},
		Text:      text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: length},
		},
	}
}
