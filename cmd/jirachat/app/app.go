package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/pvelleleth/JiraChat/cmd/jirachat/app/adapter"
	"github.com/pvelleleth/JiraChat/cmd/jirachat/app/service"
	"github.com/pvelleleth/JiraChat/pkg/storage"
	"github.com/pvelleleth/JiraChat/pkg/ttlcache"
)

type Config struct {
	ListenAddr string

	OpenAIKey      string
	ChatModel      string
	EmbeddingModel string

	QdrantHost string
	QdrantPort int
	Collection string

	SupabaseURL string
	SupabaseKey string

	EncryptionKey string

	TranscriptBucket string
	AWSRegion        string
}

func loadConfig() (*Config, error) {
	openaiKey, ok := os.LookupEnv("OPENAI_API_KEY")
	if !ok {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}

	qdrantHost, ok := os.LookupEnv("QDRANT_HOST")
	if !ok {
		return nil, errors.New("QDRANT_HOST is not set")
	}

	supabaseURL, ok := os.LookupEnv("SUPABASE_URL")
	if !ok {
		return nil, errors.New("SUPABASE_URL is not set")
	}

	supabaseKey, ok := os.LookupEnv("SUPABASE_SERVICE_KEY")
	if !ok {
		return nil, errors.New("SUPABASE_SERVICE_KEY is not set")
	}

	encryptionKey, ok := os.LookupEnv("ENCRYPTION_KEY")
	if !ok {
		return nil, errors.New("ENCRYPTION_KEY is not set")
	}

	qdrantPort := 6334
	if v := os.Getenv("QDRANT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.New("QDRANT_PORT is not a number")
		}
		qdrantPort = port
	}

	return &Config{
		ListenAddr:       getEnv("LISTEN_ADDR", ":8000"),
		OpenAIKey:        openaiKey,
		ChatModel:        getEnv("CHAT_MODEL", "gpt-4o"),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		QdrantHost:       qdrantHost,
		QdrantPort:       qdrantPort,
		Collection:       getEnv("COLLECTION_NAME", "jira_documents"),
		SupabaseURL:      supabaseURL,
		SupabaseKey:      supabaseKey,
		EncryptionKey:    encryptionKey,
		TranscriptBucket: os.Getenv("TRANSCRIPT_BUCKET"),
		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
	}, nil
}

// Run wires the services and serves HTTP until the context is canceled.
func Run(ctx context.Context) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}

	supabase := adapter.NewSupabaseClient(config.SupabaseURL, config.SupabaseKey)
	openaiClient := adapter.NewOpenAIClient(config.OpenAIKey, config.ChatModel, config.EmbeddingModel)

	qdrantStore, err := adapter.NewQdrantStore(config.QdrantHost, config.QdrantPort, config.Collection)
	if err != nil {
		return err
	}

	var archiver service.TranscriptArchiver
	if config.TranscriptBucket != "" {
		s3Storage, err := storage.NewS3Storage(config.TranscriptBucket, config.AWSRegion)
		if err != nil {
			return err
		}
		archiver = s3Storage
	}

	factory := service.ClientFactory(func(domainName, email, token string) service.TrackerClient {
		return adapter.NewJiraClient(domainName, email, token)
	})
	cache := ttlcache.New[service.TrackerClient](service.HandleTTL)
	resolver := service.NewCredentialResolver(supabase, supabase, factory, cache, config.EncryptionKey)

	classifier := service.NewClassifier(openaiClient)
	answers := service.NewAnswerService(resolver, classifier, supabase, openaiClient, openaiClient, qdrantStore, archiver)
	syncs := service.NewSyncService(resolver, supabase, openaiClient, qdrantStore)

	mux := http.NewServeMux()
	NewHandler(answers, syncs).Register(mux)

	server := &http.Server{
		Addr:    config.ListenAddr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", slog.String("addr", config.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
