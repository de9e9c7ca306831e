package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bnema/aeye-cli/internal/domain"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username        string `json:"username"`
	PhoneNumber     string `json:"phoneNumber"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

var errMissingToken = errors.New("login response did not contain a token")

func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body, err := c.postJSON(ctx, c.public, "login", loginPath, loginRequest{Username: username, Password: password})
	if err != nil {
		return "", err
	}

	return extractToken(body)
}

func (c *Client) Register(ctx context.Context, registration domain.Registration) error {
	_, err := c.postJSON(ctx, c.public, "register", registerPath, registerRequest{
		Username:        registration.Username,
		PhoneNumber:     registration.PhoneNumber,
		Password:        registration.Password,
		ConfirmPassword: registration.ConfirmPassword,
	})
	return err
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.postJSON(ctx, c.authenticated, "logout", logoutPath, nil)
	return err
}

func (c *Client) postJSON(ctx context.Context, client *http.Client, op string, path string, payload any) ([]byte, error) {
	endpoint, err := buildAPIURL(c.baseURL, path)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if !isSuccess(resp.StatusCode) {
		return nil, statusError(op, resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", op, err)
	}
	return body, nil
}

// extractToken accepts {"token": ...}, {"accessToken": ...}, a bare JSON
// string, or the token as plain text.
func extractToken(body []byte) (string, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "", errMissingToken
	}

	var asObject struct {
		Token       string `json:"token"`
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal([]byte(trimmed), &asObject); err == nil {
		if token := strings.TrimSpace(asObject.Token); token != "" {
			return token, nil
		}
		if token := strings.TrimSpace(asObject.AccessToken); token != "" {
			return token, nil
		}
		return "", errMissingToken
	}

	var asString string
	if err := json.Unmarshal([]byte(trimmed), &asString); err == nil {
		if token := strings.TrimSpace(asString); token != "" {
			return token, nil
		}
		return "", errMissingToken
	}

	if strings.ContainsAny(trimmed, " \t\r\n{}<>\"") {
		return "", errMissingToken
	}
	return trimmed, nil
}
