package message

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Chat(t *testing.T) {
	in, err := Parse([]byte(`{"type":"chat","content":"hi","extra":42}`))
	require.NoError(t, err)

	assert.True(t, in.IsChat())
	assert.Equal(t, "hi", in.Content)
}

func TestParse_OtherTypesAreNotChat(t *testing.T) {
	for _, raw := range []string{
		`{"type":"ping"}`,
		`{"type":"system","content":"spoof"}`,
		`{"type":""}`,
	} {
		in, err := Parse([]byte(raw))
		require.NoError(t, err, raw)
		assert.False(t, in.IsChat(), raw)
		assert.Empty(t, in.Content, raw)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		reason error
	}{
		{"not json", `hello`, ErrMalformed},
		{"array", `["chat"]`, ErrMalformed},
		{"json null", `null`, ErrMalformed},
		{"missing type", `{"content":"hi"}`, ErrMissingType},
		{"numeric type", `{"type":1,"content":"hi"}`, ErrMissingType},
		{"null type", `{"type":null,"content":"hi"}`, ErrMissingType},
		{"missing content", `{"type":"chat"}`, ErrMissingContent},
		{"numeric content", `{"type":"chat","content":5}`, ErrMissingContent},
		{"null content", `{"type":"chat","content":null}`, ErrMissingContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.reason), "got %v", err)

			var parseErr *ParseError
			assert.True(t, errors.As(err, &parseErr))
		})
	}
}

func TestEncode_Shapes(t *testing.T) {
	at := time.UnixMilli(1700000000123)

	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"welcome", Welcome("User1"), `{"type":"system","content":"Welcome to the chat, User1!"}`},
		{"joined", Joined("User2"), `{"type":"system","content":"User2 joined the chat"}`},
		{"left", Left("User1"), `{"type":"system","content":"User1 left the chat"}`},
		{"chat", NewChat("User1", "hi", at), `{"type":"chat","sender":"User1","content":"hi","timestamp":1700000000123}`},
		{"chat without sender", NewChat("", "hi", at), `{"type":"chat","sender":"","content":"hi","timestamp":1700000000123}`},
		{"userlist", NewUserList([]string{"User1", "User2"}), `{"type":"userlist","users":["User1","User2"]}`},
		{"empty userlist", NewUserList(nil), `{"type":"userlist","users":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.in)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}
