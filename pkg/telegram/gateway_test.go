// FILE: pkg/telegram/gateway_test.go
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBotAPI answers like the platform does: always HTTP 200, with the real
// outcome inside the JSON envelope.
type fakeBotAPI struct {
	calls     []string
	responses map[string]string // method -> raw JSON body
}

func newFakeBotAPI(t *testing.T) (*fakeBotAPI, *BotGateway) {
	t.Helper()
	f := &fakeBotAPI{responses: map[string]string{}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		method := parts[len(parts)-1]
		f.calls = append(f.calls, method)

		body, ok := f.responses[method]
		if !ok {
			body = `{"ok":true,"result":{}}`
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)

	gw := NewBotGateway(srv.URL, "test-token", -100123)
	return f, gw
}

func TestGrantSendsInviteLink(t *testing.T) {
	f, gw := newFakeBotAPI(t)
	f.responses["createChatInviteLink"] = `{"ok":true,"result":{"invite_link":"https://t.me/+abc"}}`

	err := gw.Grant(context.Background(), "1001")
	require.NoError(t, err)
	assert.Equal(t, []string{"unbanChatMember", "createChatInviteLink", "sendMessage"}, f.calls)
}

func TestGrantProceedsWhenUserWasNeverBanned(t *testing.T) {
	f, gw := newFakeBotAPI(t)
	f.responses["unbanChatMember"] = `{"ok":false,"error_code":400,"description":"Bad Request: user_not_participant"}`
	f.responses["createChatInviteLink"] = `{"ok":true,"result":{"invite_link":"https://t.me/+abc"}}`

	err := gw.Grant(context.Background(), "1001")
	require.NoError(t, err)
	assert.Contains(t, f.calls, "sendMessage")
}

func TestRevokeFoldsNotInGroup(t *testing.T) {
	f, gw := newFakeBotAPI(t)
	f.responses["banChatMember"] = `{"ok":false,"error_code":400,"description":"Bad Request: PARTICIPANT_ID_INVALID"}`

	err := gw.Revoke(context.Background(), "1001")
	assert.NoError(t, err, "revoking someone who already left counts as success")
}

func TestRevokeSurfacesPermanentFailure(t *testing.T) {
	f, gw := newFakeBotAPI(t)
	f.responses["banChatMember"] = `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`

	err := gw.Revoke(context.Background(), "1001")
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
}

func TestRateLimitIsTransient(t *testing.T) {
	f, gw := newFakeBotAPI(t)
	f.responses["banChatMember"] = `{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 17"}`

	err := gw.Revoke(context.Background(), "1001")
	require.Error(t, err)
	assert.False(t, IsPermanent(err))
}

func TestConnectionErrorIsTransient(t *testing.T) {
	gw := NewBotGateway("http://127.0.0.1:1", "test-token", -100123)

	err := gw.Revoke(context.Background(), "1001")
	require.Error(t, err)
	assert.False(t, IsPermanent(err))
}

func TestClassifyPermanent(t *testing.T) {
	tests := []struct {
		code        int
		description string
		want        bool
	}{
		{429, "Too Many Requests", false},
		{500, "Internal Server Error", false},
		{502, "Bad Gateway", false},
		{403, "Forbidden: bot was blocked by the user", true},
		{400, "Bad Request: chat not found", true},
		{400, "Bad Request: USER_ID_INVALID", true},
		{400, "Bad Request: CHAT_ADMIN_REQUIRED", true},
		{400, "Bad Request: something retryable", false},
	}

	for _, tt := range tests {
		got := classifyPermanent(tt.code, tt.description)
		if got != tt.want {
			t.Errorf("classifyPermanent(%d, %q) = %v, want %v", tt.code, tt.description, got, tt.want)
		}
	}
}

func TestNotifyDeliversText(t *testing.T) {
	f, gw := newFakeBotAPI(t)

	err := gw.Notify(context.Background(), "1001", "hello")
	require.NoError(t, err)
	assert.Equal(t, []string{"sendMessage"}, f.calls)
}

func TestFailureErrorString(t *testing.T) {
	err := &Failure{Op: "banChatMember", Description: "chat not found", StatusCode: 400, Permanent: true}
	assert.Contains(t, err.Error(), "banChatMember")
	assert.Contains(t, err.Error(), "chat not found")
}
