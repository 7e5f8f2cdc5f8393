package identity

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// HTTPProvider talks to the identity service over its REST API.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPProvider(baseURL, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type credentialBody struct {
	UID      string `json:"uid"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

func (p *HTTPProvider) CreateCredential(ctx context.Context, email, password string) (*Credential, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("marshal credential request: %w", err)
	}

	resp, err := p.do(ctx, http.MethodPost, "/credentials", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
	case http.StatusConflict:
		return nil, ErrEmailTaken
	default:
		return nil, fmt.Errorf("create credential: unexpected status %d", resp.StatusCode)
	}

	var out credentialBody
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode credential response: %w", err)
	}
	uid, err := uuid.Parse(out.UID)
	if err != nil {
		return nil, fmt.Errorf("credential uid is not a UUID: %w", err)
	}

	return &Credential{UID: uid, Email: out.Email, Verified: out.Verified}, nil
}

func (p *HTTPProvider) SignIn(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", fmt.Errorf("marshal sign-in request: %w", err)
	}

	resp, err := p.do(ctx, http.MethodPost, "/sessions", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sign in: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode sign-in response: %w", err)
	}
	return out.Token, nil
}

func (p *HTTPProvider) SignOut(ctx context.Context, uid uuid.UUID) error {
	resp, err := p.do(ctx, http.MethodDelete, "/sessions/"+uid.String(), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sign out: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (p *HTTPProvider) SendVerificationEmail(ctx context.Context, uid uuid.UUID) error {
	resp, err := p.do(ctx, http.MethodPost, "/credentials/"+uid.String()+"/verification-email", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("send verification email: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (p *HTTPProvider) DeleteCredential(ctx context.Context, uid uuid.UUID) error {
	resp, err := p.do(ctx, http.MethodDelete, "/credentials/"+uid.String(), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrCredentialNotFound
	default:
		return fmt.Errorf("delete credential: unexpected status %d", resp.StatusCode)
	}
}

func (p *HTTPProvider) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build identity request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return resp, nil
}
