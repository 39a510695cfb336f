package service_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/pvelleleth/JiraChat/cmd/jirachat/app/domain"
	"github.com/pvelleleth/JiraChat/cmd/jirachat/app/service"
)

type fakeTracker struct {
	issues      []domain.Issue
	projects    []domain.Project
	users       []domain.User
	searchErr   error
	verifyErr   error
	searchCalls []string
}

func (f *fakeTracker) SearchIssues(_ context.Context, jql string, _ int) ([]domain.Issue, error) {
	f.searchCalls = append(f.searchCalls, jql)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.issues, nil
}

func (f *fakeTracker) SearchAllIssues(_ context.Context, jql string) ([]domain.Issue, error) {
	f.searchCalls = append(f.searchCalls, jql)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.issues, nil
}

func (f *fakeTracker) ListProjects(context.Context) ([]domain.Project, error) {
	return f.projects, nil
}

func (f *fakeTracker) ListUsers(context.Context) ([]domain.User, error) {
	return f.users, nil
}

func (f *fakeTracker) Verify(context.Context) error {
	return f.verifyErr
}

type fakeSettings struct {
	settings   map[string]*domain.TenantSettings
	namespaces map[string]string
	getCalls   int
}

func (f *fakeSettings) GetSettings(_ context.Context, userID string) (*domain.TenantSettings, error) {
	f.getCalls++
	s, ok := f.settings[userID]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", domain.ErrSettingsNotFound, userID)
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSettings) SetNamespace(_ context.Context, userID, namespace string) error {
	if f.namespaces == nil {
		f.namespaces = make(map[string]string)
	}
	f.namespaces[userID] = namespace
	if s, ok := f.settings[userID]; ok {
		s.Namespace = namespace
	}
	return nil
}

type fakeSecrets struct {
	token string
	err   error
	calls int
}

func (f *fakeSecrets) GetSecret(_ context.Context, userID, _, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.token == "" {
		return "", fmt.Errorf("%w: user %s", domain.ErrTokenNotFound, userID)
	}
	return f.token, nil
}

// fakeChat pops one scripted response per Complete call.
type fakeChat struct {
	responses []string
	err       error

	calls   int
	systems []string
	turns   [][]domain.Turn
}

func (f *fakeChat) Complete(_ context.Context, system string, turns []domain.Turn) (string, error) {
	f.calls++
	f.systems = append(f.systems, system)
	f.turns = append(f.turns, turns)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("no scripted response")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type fakeVectors struct {
	matches    []service.VectorMatch
	queryErr   error
	queryCalls int
	upserts    [][]service.VectorPoint
	namespaces []string
}

func (f *fakeVectors) EnsureCollection(context.Context) error {
	return nil
}

func (f *fakeVectors) UpsertBatch(_ context.Context, namespace string, points []service.VectorPoint) error {
	f.namespaces = append(f.namespaces, namespace)
	batch := make([]service.VectorPoint, len(points))
	copy(batch, points)
	f.upserts = append(f.upserts, batch)
	return nil
}

func (f *fakeVectors) Query(_ context.Context, namespace string, _ []float32, _ int) ([]service.VectorMatch, error) {
	f.queryCalls++
	f.namespaces = append(f.namespaces, namespace)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.matches, nil
}

func newResolver(settings *fakeSettings, secrets *fakeSecrets, tracker *fakeTracker) *service.CredentialResolver {
	factory := func(_, _, _ string) service.TrackerClient { return tracker }
	return service.NewCredentialResolver(settings, secrets, factory,
		newHandleCache(), "test-encryption-key")
}
