package handlers

import (
	telebot "gopkg.in/telebot.v3"
)

// stubContext implements the slice of telebot.Context the handlers
// touch. Calls outside that slice panic through the embedded nil
// interface.
type stubContext struct {
	telebot.Context

	sender   *telebot.User
	callback *telebot.Callback
	message  *telebot.Message
	text     string

	sent      []string
	edited    []string
	responses []*telebot.CallbackResponse
}

func (s *stubContext) Sender() *telebot.User       { return s.sender }
func (s *stubContext) Callback() *telebot.Callback { return s.callback }
func (s *stubContext) Message() *telebot.Message   { return s.message }
func (s *stubContext) Text() string                { return s.text }

func (s *stubContext) Send(what interface{}, opts ...interface{}) error {
	if text, ok := what.(string); ok {
		s.sent = append(s.sent, text)
	}
	return nil
}

func (s *stubContext) Edit(what interface{}, opts ...interface{}) error {
	if text, ok := what.(string); ok {
		s.edited = append(s.edited, text)
	}
	return nil
}

func (s *stubContext) Respond(resp ...*telebot.CallbackResponse) error {
	if len(resp) == 0 {
		resp = []*telebot.CallbackResponse{{}}
	}
	s.responses = append(s.responses, resp...)
	return nil
}

func (s *stubContext) Notify(action telebot.ChatAction) error { return nil }

func lastResponse(s *stubContext) *telebot.CallbackResponse {
	if len(s.responses) == 0 {
		return nil
	}
	return s.responses[len(s.responses)-1]
}
