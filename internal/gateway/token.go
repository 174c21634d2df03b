package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// TokenSource yields an Authorization header value for provider calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// apiTokenSource exchanges the API key pair for a short-lived access token
// and caches it until shortly before expiry.
type apiTokenSource struct {
	baseURL string
	key     string
	secret  string
	hc      *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewAPITokenSource(baseURL, key, secret string) TokenSource {
	return &apiTokenSource{
		baseURL: baseURL,
		key:     key,
		secret:  secret,
		hc:      &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *apiTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Before(s.expires) {
		return s.token, nil
	}

	body, _ := json.Marshal(map[string]string{"imp_key": s.key, "imp_secret": s.secret})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/users/getToken", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint responded %d", resp.StatusCode)
	}

	var envelope struct {
		Response struct {
			AccessToken string `json:"access_token"`
			ExpiredAt   int64  `json:"expired_at"`
		} `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}

	s.token = envelope.Response.AccessToken
	// 만료 30초 전에 갱신한다.
	s.expires = time.Unix(envelope.Response.ExpiredAt, 0).Add(-30 * time.Second)
	return s.token, nil
}

// StaticTokenSource returns a fixed header value; used in tests and local
// mock providers.
type StaticTokenSource string

func (s StaticTokenSource) Token(context.Context) (string, error) { return string(s), nil }
