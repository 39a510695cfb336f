package service

import (
	"context"

	"github.com/pvelleleth/JiraChat/cmd/jirachat/app/domain"
	"github.com/pvelleleth/JiraChat/pkg/storage"
)

// TrackerClient is a per-tenant handle to the Jira REST API.
type TrackerClient interface {
	// SearchIssues runs a single bounded JQL query.
	SearchIssues(ctx context.Context, jql string, maxResults int) ([]domain.Issue, error)
	// SearchAllIssues pages through every result of a JQL query.
	SearchAllIssues(ctx context.Context, jql string) ([]domain.Issue, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	// Verify makes a cheap authenticated call to confirm the credentials.
	Verify(ctx context.Context) error
}

// ClientFactory builds a tracker client from tenant credentials.
type ClientFactory func(domainName, email, token string) TrackerClient

// SettingsStore reads and updates per-tenant settings rows.
type SettingsStore interface {
	GetSettings(ctx context.Context, userID string) (*domain.TenantSettings, error)
	SetNamespace(ctx context.Context, userID, namespace string) error
}

// SecretStore retrieves decrypted tenant secrets.
type SecretStore interface {
	GetSecret(ctx context.Context, userID, secretType, encryptionKey string) (string, error)
}

// ChatModel issues one deterministic chat completion. The system prompt may
// be empty for single-shot generations.
type ChatModel interface {
	Complete(ctx context.Context, system string, turns []domain.Turn) (string, error)
}

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorPoint is one issue document ready for upsert.
type VectorPoint struct {
	ID       string
	Vector   []float32
	Metadata domain.IssueMetadata
}

// VectorMatch is one semantic search result with its payload.
type VectorMatch struct {
	Score    float32
	Metadata domain.IssueMetadata
}

// VectorStore is the tenant-partitioned vector index.
type VectorStore interface {
	EnsureCollection(ctx context.Context) error
	UpsertBatch(ctx context.Context, namespace string, points []VectorPoint) error
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]VectorMatch, error)
}

// TranscriptArchiver persists answered questions for offline analysis.
type TranscriptArchiver interface {
	SaveTranscript(ctx context.Context, t *storage.Transcript) error
}
