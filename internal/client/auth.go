package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"typerace/internal/model"
)

// Auth calls the account endpoints through the gateway
type Auth struct {
	baseURL string
	http    *http.Client
}

func NewAuth(baseURL string) *Auth {
	return &Auth{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *Auth) Signup(ctx context.Context, username, password string) (*model.TokenResponse, error) {
	return a.credentials(ctx, "/api/auth/signup", username, password)
}

func (a *Auth) Login(ctx context.Context, username, password string) (*model.TokenResponse, error) {
	return a.credentials(ctx, "/api/auth/login", username, password)
}

func (a *Auth) credentials(ctx context.Context, path, username, password string) (*model.TokenResponse, error) {
	body, err := json.Marshal(model.CredentialsRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Error == "" {
			return nil, fmt.Errorf("post %s: unexpected status %d", path, resp.StatusCode)
		}
		return nil, fmt.Errorf("post %s: %w", path, model.FromCode(apiErr.Error))
	}

	var token model.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &token, nil
}
