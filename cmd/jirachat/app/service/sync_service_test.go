package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/pvelleleth/JiraChat/cmd/jirachat/app/domain"
	"github.com/pvelleleth/JiraChat/cmd/jirachat/app/service"
)

func newSyncFixture() (*fakeSettings, *fakeTracker, *fakeVectors, *service.SyncService) {
	settings := validSettings("tenant-1")
	tracker := &fakeTracker{
		projects: []domain.Project{{Key: "ENG", Name: "Engineering"}},
		issues: []domain.Issue{
			{Key: "ENG-1", Summary: "Fix login", Description: "Login times out", Assignee: "Dana", Status: "To Do", IssueType: "Bug"},
			{Key: "ENG-2", Summary: "", Description: ""},
		},
	}
	vectors := &fakeVectors{}
	resolver := newResolver(settings, &fakeSecrets{token: "api-token"}, tracker)
	svc := service.NewSyncService(resolver, settings, &fakeEmbedder{vector: []float32{1, 0}}, vectors)
	return settings, tracker, vectors, svc
}

func TestSyncAssignsNamespaceOnce(t *testing.T) {
	settings, _, _, svc := newSyncFixture()

	result, err := svc.Sync(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if result.Namespace != "tenant-1" {
		t.Fatalf("namespace = %q, want user id", result.Namespace)
	}
	if settings.namespaces["tenant-1"] != "tenant-1" {
		t.Fatalf("namespace was not persisted")
	}

	// Second sync keeps the stored namespace and does not reassign it.
	settings.namespaces = nil
	result, err = svc.Sync(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("second Sync failed: %v", err)
	}
	if result.Namespace != "tenant-1" {
		t.Fatalf("namespace changed on second sync: %q", result.Namespace)
	}
	if len(settings.namespaces) != 0 {
		t.Fatalf("namespace must not be rewritten once assigned")
	}
}

func TestSyncSkipsEmptyIssues(t *testing.T) {
	_, _, vectors, svc := newSyncFixture()

	result, err := svc.Sync(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if result.IssuesCollected != 2 {
		t.Fatalf("collected = %d, want 2", result.IssuesCollected)
	}
	if result.IssuesIndexed != 1 {
		t.Fatalf("indexed = %d, want 1 (empty issue skipped)", result.IssuesIndexed)
	}

	if len(vectors.upserts) != 1 || len(vectors.upserts[0]) != 1 {
		t.Fatalf("unexpected upserts: %+v", vectors.upserts)
	}
	point := vectors.upserts[0][0]
	if point.ID != "ENG-1" {
		t.Fatalf("point ID = %q", point.ID)
	}
	if point.Metadata.Project != "ENG" {
		t.Fatalf("metadata project = %q", point.Metadata.Project)
	}
}

func TestSyncQueriesOpenRecentIssues(t *testing.T) {
	_, tracker, _, svc := newSyncFixture()

	if _, err := svc.Sync(context.Background(), "tenant-1"); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if len(tracker.searchCalls) != 1 {
		t.Fatalf("expected one project search, got %d", len(tracker.searchCalls))
	}
	jql := tracker.searchCalls[0]
	for _, fragment := range []string{`project = "ENG"`, "statusCategory != Done", "created >= -52w", "ORDER BY created DESC"} {
		if !strings.Contains(jql, fragment) {
			t.Fatalf("sync JQL missing %q: %q", fragment, jql)
		}
	}
}

func TestRetrieveRerankedBoundsResults(t *testing.T) {
	settings, _, vectors, _ := newSyncFixture()
	resolver := newResolver(settings, &fakeSecrets{token: "api-token"}, &fakeTracker{})
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	svc := service.NewSyncService(resolver, settings, embedder, vectors)

	for _, key := range []string{"ENG-1", "ENG-2", "ENG-3", "ENG-4", "ENG-5"} {
		vectors.matches = append(vectors.matches, service.VectorMatch{
			Metadata: domain.IssueMetadata{IssueKey: key, Summary: "s", Description: "d"},
		})
	}

	results, err := svc.RetrieveReranked(context.Background(), "some query", "tenant-1")
	if err != nil {
		t.Fatalf("RetrieveReranked failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected top 3 after re-ranking, got %d", len(results))
	}
}

func TestRetrieveRerankedRequiresNamespace(t *testing.T) {
	_, _, _, svc := newSyncFixture()

	if _, err := svc.RetrieveReranked(context.Background(), "query", ""); err == nil {
		t.Fatalf("expected an error for an empty namespace")
	}
}
