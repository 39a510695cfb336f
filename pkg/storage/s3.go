// Package storage archives answered conversations to S3.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Transcript is one answered question.
type Transcript struct {
	UserID     string    `json:"user_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Category   string    `json:"category"`
	AnsweredAt time.Time `json:"answered_at"`
}

// S3Storage writes transcripts to a bucket with date-partitioned keys.
type S3Storage struct {
	client     *s3.Client
	bucketName string
}

func NewS3Storage(bucketName, region string) (*S3Storage, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return &S3Storage{
		client:     s3.NewFromConfig(cfg),
		bucketName: bucketName,
	}, nil
}

// SaveTranscript uploads one transcript as JSON.
func (s *S3Storage) SaveTranscript(ctx context.Context, t *Transcript) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	key := TranscriptKey(t.UserID, t.AnsweredAt)

	metadata := map[string]string{
		"user-id":     t.UserID,
		"category":    t.Category,
		"answered-at": t.AnsweredAt.Format(time.RFC3339),
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata:    metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	slog.Info("transcript saved",
		slog.String("user_id", t.UserID),
		slog.String("category", t.Category),
		slog.String("s3_key", key))

	return nil
}

// TranscriptKey builds the object key for a transcript. Keys are partitioned
// by date so downstream batch readers can prune by prefix.
func TranscriptKey(userID string, at time.Time) string {
	return fmt.Sprintf(
		"transcripts/year=%d/month=%02d/day=%02d/%s_%d.json",
		at.Year(),
		at.Month(),
		at.Day(),
		userID,
		at.Unix(),
	)
}
