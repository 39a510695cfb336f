package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pvelleleth/JiraChat/cmd/jirachat/app/domain"
	"github.com/pvelleleth/JiraChat/pkg/ttlcache"
)

// HandleTTL bounds how long a cached tracker client may be served before the
// credentials are refreshed transparently.
const HandleTTL = 30 * time.Minute

const secretTypeJiraToken = "jira_token"

// CredentialResolver turns a tenant identifier into a ready tracker client,
// caching handles per tenant. Concurrent refreshes for the same tenant may
// both build a handle; the later Put wins, which is fine because handles are
// stateless after construction.
type CredentialResolver struct {
	settings      SettingsStore
	secrets       SecretStore
	factory       ClientFactory
	cache         *ttlcache.Cache[TrackerClient]
	encryptionKey string
}

// NewCredentialResolver wires the resolver with an externally constructed
// cache so the same instance serves every request for the process lifetime.
func NewCredentialResolver(settings SettingsStore, secrets SecretStore, factory ClientFactory, cache *ttlcache.Cache[TrackerClient], encryptionKey string) *CredentialResolver {
	return &CredentialResolver{
		settings:      settings,
		secrets:       secrets,
		factory:       factory,
		cache:         cache,
		encryptionKey: encryptionKey,
	}
}

// Resolve returns a tracker client for the tenant, building and caching one
// when no fresh handle exists.
func (r *CredentialResolver) Resolve(ctx context.Context, userID string) (TrackerClient, error) {
	if client, ok := r.cache.Get(userID); ok {
		return client, nil
	}

	settings, err := r.settings.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings.Domain == "" || settings.Email == "" {
		return nil, fmt.Errorf("%w: domain or email missing for user %s", domain.ErrIncompleteSettings, userID)
	}

	token, err := r.secrets.GetSecret(ctx, userID, secretTypeJiraToken, r.encryptionKey)
	if err != nil {
		return nil, err
	}

	client := r.factory(settings.Domain, settings.Email, token)
	if err := client.Verify(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrJiraAuth, err)
	}

	r.cache.Put(userID, client)
	slog.Info("jira client initialized", slog.String("user_id", userID))

	return client, nil
}
