// FILE: pkg/telegram/gateway.go
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GroupGateway is the slice of the messaging platform the engine needs:
// put a user into the paid group, take them out, and tell them about it.
type GroupGateway interface {
	Grant(ctx context.Context, userID string) error
	Revoke(ctx context.Context, userID string) error
	Notify(ctx context.Context, userID string, text string) error
}

// Failure carries the platform error plus its retry classification.
type Failure struct {
	Op          string
	Description string
	StatusCode  int
	Permanent   bool
}

func (f *Failure) Error() string {
	return fmt.Sprintf("telegram %s failed (%d): %s", f.Op, f.StatusCode, f.Description)
}

// IsPermanent reports whether err is a platform failure that retrying cannot
// fix (bot blocked, chat gone, user unknown). Everything else — rate limits,
// 5xx, timeouts, connection errors — is worth another attempt.
func IsPermanent(err error) bool {
	var f *Failure
	if errors.As(err, &f) {
		return f.Permanent
	}
	return false
}

type BotGateway struct {
	BaseURL   string
	Token     string
	VIPChatID int64
	Client    *http.Client
}

var _ GroupGateway = &BotGateway{}

func NewBotGateway(baseURL, token string, vipChatID int64) *BotGateway {
	return &BotGateway{
		BaseURL:   baseURL,
		Token:     token,
		VIPChatID: vipChatID,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Request/Response structs (Internal to this package) ---

type apiResponse struct {
	Ok          bool            `json:"ok"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

type inviteLinkResult struct {
	InviteLink string `json:"invite_link"`
}

// --- Interface Implementation ---

// Grant lifts any earlier ban and sends the user a fresh single-use invite
// link. Granting someone who is already a member just costs them an unused
// link, so the call is idempotent from the caller's perspective.
func (g *BotGateway) Grant(ctx context.Context, userID string) error {
	err := g.call(ctx, "unbanChatMember", map[string]interface{}{
		"chat_id":        g.VIPChatID,
		"user_id":        userID,
		"only_if_banned": true,
	}, nil)
	if err != nil && !foldableMemberState(err) {
		return err
	}

	var link inviteLinkResult
	err = g.call(ctx, "createChatInviteLink", map[string]interface{}{
		"chat_id":      g.VIPChatID,
		"member_limit": 1,
	}, &link)
	if err != nil {
		return err
	}

	text := "🎉 Your VIP subscription is active! Join here:\n" + link.InviteLink
	return g.call(ctx, "sendMessage", map[string]interface{}{
		"chat_id": userID,
		"text":    text,
	}, nil)
}

// Revoke kicks the user with a short ban. 35 seconds is the platform's
// minimum effective until_date; after it lapses the user may be re-invited
// on a later payment without an explicit unban.
func (g *BotGateway) Revoke(ctx context.Context, userID string) error {
	err := g.call(ctx, "banChatMember", map[string]interface{}{
		"chat_id":    g.VIPChatID,
		"user_id":    userID,
		"until_date": time.Now().Add(35 * time.Second).Unix(),
	}, nil)
	if err != nil && !foldableMemberState(err) {
		return err
	}
	return nil
}

func (g *BotGateway) Notify(ctx context.Context, userID string, text string) error {
	return g.call(ctx, "sendMessage", map[string]interface{}{
		"chat_id": userID,
		"text":    text,
	}, nil)
}

func (g *BotGateway) call(ctx context.Context, method string, params map[string]interface{}, out interface{}) error {
	payloadBytes, err := json.Marshal(params)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/%s", g.BaseURL, g.Token, method)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		// Connection errors and timeouts are transient by definition.
		return &Failure{Op: method, Description: err.Error(), Permanent: false}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Failure{Op: method, Description: err.Error(), StatusCode: resp.StatusCode, Permanent: false}
	}

	var api apiResponse
	if err := json.Unmarshal(body, &api); err != nil {
		return &Failure{Op: method, Description: "unparseable response: " + err.Error(), StatusCode: resp.StatusCode, Permanent: false}
	}

	if !api.Ok {
		return &Failure{
			Op:          method,
			Description: api.Description,
			StatusCode:  api.ErrorCode,
			Permanent:   classifyPermanent(api.ErrorCode, api.Description),
		}
	}

	if out != nil && len(api.Result) > 0 {
		if err := json.Unmarshal(api.Result, out); err != nil {
			return &Failure{Op: method, Description: "unparseable result: " + err.Error(), Permanent: false}
		}
	}
	return nil
}

// classifyPermanent decides whether the platform error can ever succeed on
// retry. 429 and 5xx are transient; 403 (bot blocked by user, bot kicked
// from chat) and 400 variants about unknown users/chats are not.
func classifyPermanent(code int, description string) bool {
	switch {
	case code == 429:
		return false
	case code >= 500:
		return false
	case code == 403:
		return true
	case code == 400:
		desc := strings.ToLower(description)
		return strings.Contains(desc, "not found") ||
			strings.Contains(desc, "user_id_invalid") ||
			strings.Contains(desc, "chat_admin_required")
	default:
		return false
	}
}

// foldableMemberState matches "already in the requested state" errors:
// banning a user who is not in the group, or unbanning one who was never
// banned. Those count as success for an idempotent gateway.
func foldableMemberState(err error) bool {
	var f *Failure
	if !errors.As(err, &f) {
		return false
	}
	desc := strings.ToLower(f.Description)
	return strings.Contains(desc, "participant_id_invalid") ||
		strings.Contains(desc, "user_not_participant") ||
		strings.Contains(desc, "not banned")
}
