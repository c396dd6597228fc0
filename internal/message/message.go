// internal/message/message.go
// Envelopes exchanged over the chat connection and parsing of client input.
package message

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Envelope type tags.
const (
	TypeChat     = "chat"
	TypeSystem   = "system"
	TypeUserList = "userlist"
)

// System is a server notice: welcome, joined and left announcements.
type System struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Chat is a relayed chat line. Timestamp is epoch milliseconds taken when
// the server broadcasts it.
type Chat struct {
	Type      string `json:"type"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// UserList carries the display names of everyone currently connected.
type UserList struct {
	Type  string   `json:"type"`
	Users []string `json:"users"`
}

func NewSystem(content string) System {
	return System{Type: TypeSystem, Content: content}
}

func NewChat(sender, content string, at time.Time) Chat {
	return Chat{Type: TypeChat, Sender: sender, Content: content, Timestamp: at.UnixMilli()}
}

func NewUserList(users []string) UserList {
	if users == nil {
		users = []string{}
	}
	return UserList{Type: TypeUserList, Users: users}
}

func Welcome(name string) System { return NewSystem("Welcome to the chat, " + name + "!") }
func Joined(name string) System  { return NewSystem(name + " joined the chat") }
func Left(name string) System    { return NewSystem(name + " left the chat") }

// Encode serializes an outbound envelope.
func Encode(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return data, nil
}

var (
	ErrMalformed      = errors.New("malformed envelope")
	ErrMissingType    = errors.New("missing or non-string type")
	ErrMissingContent = errors.New("missing or non-string content")
)

// ParseError reports why an inbound payload was rejected. Reason is one of
// ErrMalformed, ErrMissingType or ErrMissingContent.
type ParseError struct {
	Reason error
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %v", e.Reason, e.Err)
	}
	return e.Reason.Error()
}

func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Reason, e.Err}
	}
	return []error{e.Reason}
}

// Inbound is a decoded client envelope. Content is only populated for chat.
type Inbound struct {
	Type    string
	Content string
}

// IsChat reports whether the envelope should be relayed.
func (in Inbound) IsChat() bool { return in.Type == TypeChat }

// Parse decodes a client payload. The type field must be a JSON string; for
// chat envelopes content must be a JSON string as well. Unknown fields are
// ignored and non-chat types are returned without further checks.
func Parse(raw []byte) (Inbound, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Inbound{}, &ParseError{Reason: ErrMalformed, Err: err}
	}
	if fields == nil {
		return Inbound{}, &ParseError{Reason: ErrMalformed}
	}

	msgType, ok := stringField(fields, "type")
	if !ok {
		return Inbound{}, &ParseError{Reason: ErrMissingType}
	}

	in := Inbound{Type: msgType}
	if !in.IsChat() {
		return in, nil
	}

	content, ok := stringField(fields, "content")
	if !ok {
		return Inbound{}, &ParseError{Reason: ErrMissingContent}
	}
	in.Content = content
	return in, nil
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
