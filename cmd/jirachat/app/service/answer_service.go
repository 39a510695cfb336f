package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pvelleleth/JiraChat/cmd/jirachat/app/domain"
	"github.com/pvelleleth/JiraChat/pkg/storage"
)

// AnswerService runs the full question pipeline: resolve credentials,
// classify, fetch from each requested source, assemble context, generate.
type AnswerService struct {
	resolver   *CredentialResolver
	classifier *Classifier
	settings   SettingsStore
	chat       ChatModel
	embedder   Embedder
	vectors    VectorStore
	archiver   TranscriptArchiver
}

func NewAnswerService(resolver *CredentialResolver, classifier *Classifier, settings SettingsStore, chat ChatModel, embedder Embedder, vectors VectorStore, archiver TranscriptArchiver) *AnswerService {
	return &AnswerService{
		resolver:   resolver,
		classifier: classifier,
		settings:   settings,
		chat:       chat,
		embedder:   embedder,
		vectors:    vectors,
		archiver:   archiver,
	}
}

// Answer responds to one question. Only credential failures propagate;
// failures inside context gathering degrade to descriptive text so the
// generation step still runs.
func (s *AnswerService) Answer(ctx context.Context, userID, question string, history []domain.Turn) (string, error) {
	client, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return "", err
	}

	classification := s.classifier.Classify(ctx, question, history)
	slog.Info("question classified",
		slog.String("user_id", userID),
		slog.String("category", classification.Category),
		slog.Bool("needs_jql", classification.NeedsJQL),
		slog.Bool("needs_semantic", classification.NeedsSemantic))

	var structuredText string
	if classification.NeedsJQL && classification.JQL != "" {
		structuredText = FetchIssues(ctx, client, classification.JQL)
	}

	var matches []VectorMatch
	if classification.NeedsSemantic {
		matches, err = s.retrieve(ctx, userID, question)
		if err != nil {
			// Folded into context as plain text; the request still answers.
			slog.Warn("semantic retrieval unavailable", slog.String("user_id", userID), slog.Any("error", err))
			structuredText = joinContextNote(structuredText, fmt.Sprintf("Semantic search unavailable: %v", err))
		}
	}

	contextText := Assemble(structuredText, matches)

	usersContext := ""
	if users, err := client.ListUsers(ctx); err != nil {
		slog.Warn("failed to list jira users", slog.String("user_id", userID), slog.Any("error", err))
	} else {
		usersContext = FormatUsersContext(users)
	}

	answer, err := Respond(ctx, s.chat, question, contextText, classification.Category, history, usersContext)
	if err != nil {
		return "", err
	}

	s.archive(ctx, userID, question, answer, classification.Category)

	return answer, nil
}

// retrieve embeds the question and queries the tenant's partition. The
// namespace must already exist; ingestion assigns it on first sync.
func (s *AnswerService) retrieve(ctx context.Context, userID, question string) ([]VectorMatch, error) {
	settings, err := s.settings.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings.Namespace == "" {
		return nil, fmt.Errorf("no vector namespace for user %s: run a sync first", userID)
	}

	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	matches, err := s.vectors.Query(ctx, settings.Namespace, vector, semanticTopK)
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}

	return matches, nil
}

func (s *AnswerService) archive(ctx context.Context, userID, question, answer, category string) {
	if s.archiver == nil {
		return
	}

	t := &storage.Transcript{
		UserID:     userID,
		Question:   question,
		Answer:     answer,
		Category:   category,
		AnsweredAt: time.Now().UTC(),
	}
	if err := s.archiver.SaveTranscript(ctx, t); err != nil {
		slog.Warn("failed to archive transcript", slog.String("user_id", userID), slog.Any("error", err))
	}
}

func joinContextNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}
