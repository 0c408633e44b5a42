package sdk

import (
	"context"
	log "log/slog"
	"net/http"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Timezone string `json:"timezone,omitempty"`
}

func (c *Client) SignUp(ctx context.Context, username, password, timezone string) (*Token, error) {
	var token Token
	if err := c.send(ctx, http.MethodPost, "/auth/sign-up", nil, credentials{username, password, timezone}, &token); err != nil {
		return nil, err
	}
	c.startSession(&token)
	return &token, nil
}

func (c *Client) SignIn(ctx context.Context, username, password string) (*Token, error) {
	var token Token
	if err := c.send(ctx, http.MethodPost, "/auth/sign-in", nil, credentials{Username: username, Password: password}, &token); err != nil {
		return nil, err
	}
	c.startSession(&token)
	return &token, nil
}

// SignOut 服务端注销失败时仍清空本地状态
func (c *Client) SignOut(ctx context.Context) error {
	if c.state.Token() == "" {
		return nil
	}
	err := c.send(ctx, http.MethodPost, "/auth/sign-out", nil, nil, nil)
	if err != nil && KindOf(err) != KindAuth {
		log.WarnContext(ctx, "sign out request failed, clearing local session", "err", err)
	}
	c.state.reset()
	c.cache.clear()
	if KindOf(err) == KindAuth {
		return nil
	}
	return err
}

func (c *Client) startSession(token *Token) {
	c.state.reset()
	c.cache.clear()
	c.state.setSession(token.Token, token.UserID, token.Role)
}
