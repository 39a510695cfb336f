package adapter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/pvelleleth/JiraChat/cmd/jirachat/app/domain"
	"github.com/pvelleleth/JiraChat/cmd/jirachat/app/service"
)

// Dimension of text-embedding-3-small vectors.
const embeddingDim = 1536

var _ service.VectorStore = (*QdrantStore)(nil)

// QdrantStore keeps every tenant in one collection, partitioned by a
// "namespace" payload field.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
}

func NewQdrantStore(host string, port int, collection string) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, err
	}

	return &QdrantStore{client: client, collection: collection}, nil
}

// EnsureCollection creates the shared collection on first use.
func (q *QdrantStore) EnsureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     embeddingDim,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	slog.Info("collection created", slog.String("collection", q.collection))
	return nil
}

// UpsertBatch writes one batch of points into the tenant's partition. Point
// IDs are derived deterministically from namespace and issue key so repeated
// syncs overwrite instead of duplicating.
func (q *QdrantStore) UpsertBatch(ctx context.Context, namespace string, points []service.VectorPoint) error {
	qdrantPoints := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointID(namespace, p.ID)),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"namespace":   namespace,
				"issue_key":   p.Metadata.IssueKey,
				"project":     p.Metadata.Project,
				"summary":     p.Metadata.Summary,
				"description": p.Metadata.Description,
				"assignee":    p.Metadata.Assignee,
				"status":      p.Metadata.Status,
				"issue_type":  p.Metadata.IssueType,
			}),
		}
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	slog.Info("points upserted",
		slog.String("namespace", namespace),
		slog.Int("count", len(points)))
	return nil
}

// Query runs a dense nearest-neighbor search inside the tenant's partition
// and returns payload metadata inline.
func (q *QdrantStore) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]service.VectorMatch, error) {
	limit := uint64(topK)

	resp, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQueryDense(vector),
		Limit:          &limit,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("namespace", namespace),
			},
		},
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}

	matches := make([]service.VectorMatch, 0, len(resp))
	for _, point := range resp {
		matches = append(matches, service.VectorMatch{
			Score: point.Score,
			Metadata: domain.IssueMetadata{
				IssueKey:    point.Payload["issue_key"].GetStringValue(),
				Project:     point.Payload["project"].GetStringValue(),
				Summary:     point.Payload["summary"].GetStringValue(),
				Description: point.Payload["description"].GetStringValue(),
				Assignee:    point.Payload["assignee"].GetStringValue(),
				Status:      point.Payload["status"].GetStringValue(),
				IssueType:   point.Payload["issue_type"].GetStringValue(),
			},
		})
	}

	return matches, nil
}

// pointID derives a stable UUID for an issue within a namespace.
func pointID(namespace, issueKey string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(namespace+"/"+issueKey)).String()
}
