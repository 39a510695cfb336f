package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pvelleleth/JiraChat/cmd/jirachat/app/domain"
	"github.com/pvelleleth/JiraChat/cmd/jirachat/app/service"
)

const (
	supabaseTimeout = 30 * time.Second
	settingsTable   = "user_settings"
)

var (
	_ service.SettingsStore = (*SupabaseClient)(nil)
	_ service.SecretStore   = (*SupabaseClient)(nil)
)

// SupabaseClient reads tenant settings rows and decrypted secrets through the
// PostgREST and RPC endpoints.
type SupabaseClient struct {
	baseURL    string
	serviceKey string
	client     *http.Client
}

func NewSupabaseClient(baseURL, serviceKey string) *SupabaseClient {
	return &SupabaseClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		client:     &http.Client{Timeout: supabaseTimeout},
	}
}

// GetSettings fetches the tenant's settings row.
func (s *SupabaseClient) GetSettings(ctx context.Context, userID string) (*domain.TenantSettings, error) {
	q := url.Values{}
	q.Set("user_id", "eq."+userID)
	q.Set("select", "*")

	body, err := s.request(ctx, http.MethodGet, "/rest/v1/"+settingsTable+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read user settings: %w", err)
	}

	var rows []struct {
		UserID    string `json:"user_id"`
		Domain    string `json:"jira_domain"`
		Email     string `json:"jira_email"`
		Namespace string `json:"pinecone_namespace"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode user settings: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: user %s", domain.ErrSettingsNotFound, userID)
	}

	row := rows[0]
	return &domain.TenantSettings{
		UserID:    row.UserID,
		Domain:    row.Domain,
		Email:     row.Email,
		Namespace: row.Namespace,
	}, nil
}

// SetNamespace persists the tenant's vector namespace on first assignment.
func (s *SupabaseClient) SetNamespace(ctx context.Context, userID, namespace string) error {
	q := url.Values{}
	q.Set("user_id", "eq."+userID)

	payload, err := json.Marshal(map[string]string{"pinecone_namespace": namespace})
	if err != nil {
		return err
	}

	if _, err := s.request(ctx, http.MethodPatch, "/rest/v1/"+settingsTable+"?"+q.Encode(), payload); err != nil {
		return fmt.Errorf("failed to update namespace: %w", err)
	}
	return nil
}

// GetSecret calls the get_secret RPC, which decrypts the stored token with
// the shared encryption key.
func (s *SupabaseClient) GetSecret(ctx context.Context, userID, secretType, encryptionKey string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"p_user_id":        userID,
		"p_type":           secretType,
		"p_encryption_key": encryptionKey,
	})
	if err != nil {
		return "", err
	}

	body, err := s.request(ctx, http.MethodPost, "/rest/v1/rpc/get_secret", payload)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve secret: %w", err)
	}

	var secret string
	if err := json.Unmarshal(body, &secret); err != nil {
		return "", fmt.Errorf("failed to decode secret: %w", err)
	}
	if secret == "" {
		return "", fmt.Errorf("%w: user %s", domain.ErrTokenNotFound, userID)
	}

	return secret, nil
}

func (s *SupabaseClient) request(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", s.serviceKey)
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("error", err))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, path, string(body))
	}

	return body, nil
}
