package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/pvelleleth/JiraChat/cmd/jirachat/app/domain"
	"github.com/pvelleleth/JiraChat/pkg/jql"
)

const (
	syncPageSize    = 50
	upsertBatchSize = 100

	rerankCandidates = 10
	rerankTopK       = 3
)

// SyncService performs full re-ingestion of a tenant's Jira data into the
// vector index.
type SyncService struct {
	resolver *CredentialResolver
	settings SettingsStore
	embedder Embedder
	vectors  VectorStore
}

func NewSyncService(resolver *CredentialResolver, settings SettingsStore, embedder Embedder, vectors VectorStore) *SyncService {
	return &SyncService{
		resolver: resolver,
		settings: settings,
		embedder: embedder,
		vectors:  vectors,
	}
}

// Sync fetches every project and its open issues created within the last
// year, embeds them, and upserts them into the tenant's namespace. Any
// failure aborts the whole sync; no partial cleanup is attempted.
func (s *SyncService) Sync(ctx context.Context, userID string) (*domain.SyncResult, error) {
	result := &domain.SyncResult{StartTime: time.Now()}

	client, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	settings, err := s.settings.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	// One namespace per tenant, assigned on first sync and never reassigned.
	namespace := settings.Namespace
	if namespace == "" {
		namespace = userID
		if err := s.settings.SetNamespace(ctx, userID, namespace); err != nil {
			return nil, fmt.Errorf("failed to persist namespace: %w", err)
		}
		slog.Info("namespace assigned", slog.String("user_id", userID), slog.String("namespace", namespace))
	}
	result.Namespace = namespace

	projects, err := s.fetchAllProjects(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Jira projects: %w", err)
	}
	result.Projects = projects
	for _, p := range projects {
		result.IssuesCollected += len(p.Issues)
	}

	indexed, err := s.embedAndIndex(ctx, namespace, projects)
	if err != nil {
		return nil, fmt.Errorf("failed to store data in vector database: %w", err)
	}
	result.IssuesIndexed = indexed

	result.EndTime = time.Now()
	slog.Info("sync completed",
		slog.String("user_id", userID),
		slog.String("namespace", namespace),
		slog.Int("collected", result.IssuesCollected),
		slog.Int("indexed", result.IssuesIndexed),
		slog.Duration("duration", result.EndTime.Sub(result.StartTime)))

	return result, nil
}

func (s *SyncService) fetchAllProjects(ctx context.Context, client TrackerClient) ([]domain.Project, error) {
	projects, err := client.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	for i := range projects {
		slog.Info("fetching project issues",
			slog.String("project", projects[i].Key),
			slog.String("name", projects[i].Name))

		expr := fmt.Sprintf("project = %s AND statusCategory != Done AND created >= -52w ORDER BY created DESC",
			jql.Quote(projects[i].Key))

		issues, err := client.SearchAllIssues(ctx, expr)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", projects[i].Key, err)
		}
		for j := range issues {
			issues[j].Project = projects[i].Key
		}
		projects[i].Issues = issues
	}

	return projects, nil
}

func (s *SyncService) embedAndIndex(ctx context.Context, namespace string, projects []domain.Project) (int, error) {
	if err := s.vectors.EnsureCollection(ctx); err != nil {
		return 0, err
	}

	indexed := 0
	var batch []VectorPoint

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.vectors.UpsertBatch(ctx, namespace, batch); err != nil {
			return err
		}
		indexed += len(batch)
		batch = batch[:0]
		return nil
	}

	for _, project := range projects {
		for _, issue := range project.Issues {
			// Nothing to embed when both text fields are empty.
			if issue.Summary == "" && issue.Description == "" {
				continue
			}

			m := domain.IssueMetadata{
				IssueKey:    issue.Key,
				Project:     project.Key,
				Summary:     issue.Summary,
				Description: issue.Description,
				Assignee:    issue.Assignee,
				Status:      issue.Status,
				IssueType:   issue.IssueType,
			}

			vector, err := s.embedder.Embed(ctx, documentText(issue, project.Key))
			if err != nil {
				return indexed, fmt.Errorf("issue %s: %w", issue.Key, err)
			}

			batch = append(batch, VectorPoint{ID: issue.Key, Vector: vector, Metadata: m})
			if len(batch) >= upsertBatchSize {
				if err := flush(); err != nil {
					return indexed, err
				}
			}
		}
	}

	if err := flush(); err != nil {
		return indexed, err
	}

	return indexed, nil
}

func documentText(issue domain.Issue, projectKey string) string {
	return fmt.Sprintf("Project: %s Issue Key: %s Parent ID: %s Assignee: %s Status: %s Issue Type: %s Summary: %s Description: %s",
		projectKey, issue.Key, issue.ParentKey, issue.Assignee, issue.Status, issue.IssueType, issue.Summary, issue.Description)
}

// RetrieveReranked is the ingestion-side retrieval helper: it pulls a small
// candidate set and re-ranks it against the query by embedding similarity.
// The live answer path intentionally does not re-rank.
func (s *SyncService) RetrieveReranked(ctx context.Context, query, namespace string) ([]domain.IssueMetadata, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace is empty")
	}

	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := s.vectors.Query(ctx, namespace, queryVector, rerankCandidates)
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	type scored struct {
		score    float32
		metadata domain.IssueMetadata
	}

	rescored := make([]scored, 0, len(matches))
	for _, match := range matches {
		text := match.Metadata.Summary + " " + match.Metadata.Description
		vector, err := s.embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed candidate %s: %w", match.Metadata.IssueKey, err)
		}
		rescored = append(rescored, scored{
			score:    cosineSimilarity(queryVector, vector),
			metadata: match.Metadata,
		})
	}

	sort.Slice(rescored, func(i, j int) bool { return rescored[i].score > rescored[j].score })

	limit := min(rerankTopK, len(rescored))
	results := make([]domain.IssueMetadata, 0, limit)
	for _, r := range rescored[:limit] {
		results = append(results, r.metadata)
	}
	return results, nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
