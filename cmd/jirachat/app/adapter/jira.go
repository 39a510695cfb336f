package adapter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pvelleleth/JiraChat/cmd/jirachat/app/domain"
	"github.com/pvelleleth/JiraChat/cmd/jirachat/app/service"
)

const (
	jiraTimeout    = 300 * time.Second
	jiraMaxRetries = 3
	retryDelay     = 3 * time.Second

	searchFields = "summary,description,status,assignee,issuetype,project,parent,comment,attachment"
)

var _ service.TrackerClient = (*JiraClient)(nil)

// JiraClient talks to one tenant's Jira Cloud REST API with basic auth.
// Handles are value-equivalent after construction and safe to cache.
type JiraClient struct {
	baseURL string
	email   string
	token   string
	client  *http.Client
}

// NewJiraClient builds a client for the given tenant domain, e.g.
// "acme.atlassian.net".
func NewJiraClient(domainName, email, token string) *JiraClient {
	return &JiraClient{
		baseURL: "https://" + domainName,
		email:   email,
		token:   token,
		client:  &http.Client{Timeout: jiraTimeout},
	}
}

// Verify confirms the credentials with a cheap authenticated request.
func (j *JiraClient) Verify(ctx context.Context) error {
	var out json.RawMessage
	return j.get(ctx, "/rest/api/2/myself", nil, &out)
}

// SearchIssues runs a single bounded JQL query.
func (j *JiraClient) SearchIssues(ctx context.Context, jql string, maxResults int) ([]domain.Issue, error) {
	issues, _, err := j.searchPage(ctx, jql, 0, maxResults)
	return issues, err
}

// SearchAllIssues pages through every result of a JQL query.
func (j *JiraClient) SearchAllIssues(ctx context.Context, jql string) ([]domain.Issue, error) {
	var all []domain.Issue
	startAt := 0

	for {
		issues, total, err := j.searchPage(ctx, jql, startAt, 50)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page at offset %d: %w", startAt, err)
		}
		if len(issues) == 0 {
			break
		}

		all = append(all, issues...)
		slog.Info("collected issues", slog.Int("count", len(issues)), slog.Int("total", len(all)))

		startAt += len(issues)
		if startAt >= total {
			break
		}
	}

	return all, nil
}

// ListProjects returns every project visible to the tenant. Issues are not
// populated.
func (j *JiraClient) ListProjects(ctx context.Context) ([]domain.Project, error) {
	var raw []struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	}
	if err := j.get(ctx, "/rest/api/2/project", nil, &raw); err != nil {
		return nil, err
	}

	projects := make([]domain.Project, len(raw))
	for i, p := range raw {
		projects[i] = domain.Project{Key: p.Key, Name: p.Name}
	}
	return projects, nil
}

// ListUsers returns the tenant's user roster, excluding app accounts.
func (j *JiraClient) ListUsers(ctx context.Context) ([]domain.User, error) {
	q := url.Values{}
	q.Set("maxResults", "1000")

	var raw []struct {
		AccountID   string `json:"accountId"`
		AccountType string `json:"accountType"`
		DisplayName string `json:"displayName"`
		Email       string `json:"emailAddress"`
		Active      bool   `json:"active"`
	}
	if err := j.get(ctx, "/rest/api/2/users/search", q, &raw); err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(raw))
	for _, u := range raw {
		if u.AccountType != "atlassian" || !u.Active {
			continue
		}
		users = append(users, domain.User{
			AccountID:   u.AccountID,
			DisplayName: u.DisplayName,
			Email:       u.Email,
		})
	}
	return users, nil
}

type issueFields struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Status      struct {
		Name string `json:"name"`
	} `json:"status"`
	Assignee *struct {
		DisplayName string `json:"displayName"`
	} `json:"assignee"`
	IssueType struct {
		Name string `json:"name"`
	} `json:"issuetype"`
	Project struct {
		Key string `json:"key"`
	} `json:"project"`
	Parent *struct {
		Key string `json:"key"`
	} `json:"parent"`
	Comment struct {
		Comments []struct {
			Author struct {
				DisplayName string `json:"displayName"`
			} `json:"author"`
			Body    string `json:"body"`
			Created string `json:"created"`
		} `json:"comments"`
	} `json:"comment"`
	Attachment []struct {
		Filename string `json:"filename"`
		Content  string `json:"content"`
	} `json:"attachment"`
}

func (j *JiraClient) searchPage(ctx context.Context, jql string, startAt, maxResults int) ([]domain.Issue, int, error) {
	q := url.Values{}
	q.Set("jql", jql)
	q.Set("startAt", strconv.Itoa(startAt))
	q.Set("maxResults", strconv.Itoa(maxResults))
	q.Set("fields", searchFields)

	var resp struct {
		Total  int `json:"total"`
		Issues []struct {
			Key    string      `json:"key"`
			Fields issueFields `json:"fields"`
		} `json:"issues"`
	}
	if err := j.get(ctx, "/rest/api/2/search", q, &resp); err != nil {
		return nil, 0, err
	}

	issues := make([]domain.Issue, 0, len(resp.Issues))
	for _, i := range resp.Issues {
		issues = append(issues, toDomainIssue(i.Key, i.Fields))
	}
	return issues, resp.Total, nil
}

func toDomainIssue(key string, fields issueFields) domain.Issue {
	issue := domain.Issue{
		Key:         key,
		Project:     fields.Project.Key,
		Summary:     fields.Summary,
		Description: fields.Description,
		Assignee:    "Unassigned",
		Status:      fields.Status.Name,
		IssueType:   fields.IssueType.Name,
		Comments:    []domain.Comment{},
		Attachments: []domain.Attachment{},
	}
	if fields.Assignee != nil {
		issue.Assignee = fields.Assignee.DisplayName
	}
	if fields.Parent != nil {
		issue.ParentKey = fields.Parent.Key
	}
	for _, c := range fields.Comment.Comments {
		issue.Comments = append(issue.Comments, domain.Comment{
			Author:  c.Author.DisplayName,
			Body:    c.Body,
			Created: c.Created,
		})
	}
	for _, a := range fields.Attachment {
		issue.Attachments = append(issue.Attachments, domain.Attachment{
			Filename: a.Filename,
			URL:      a.Content,
		})
	}
	return issue
}

func (j *JiraClient) get(ctx context.Context, path string, query url.Values, out any) error {
	u, err := url.Parse(j.baseURL + path)
	if err != nil {
		return err
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	auth := base64.StdEncoding.EncodeToString([]byte(j.email + ":" + j.token))

	for attempt := 1; attempt <= jiraMaxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Basic "+auth)
		req.Header.Set("Accept", "application/json")

		body, status, err := j.do(req)
		switch {
		case err != nil:
			slog.Warn("jira request failed", slog.Int("attempt", attempt), slog.Any("error", err))
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			// Not retryable; bad credentials stay bad.
			return fmt.Errorf("HTTP %d from %s", status, path)
		case status != http.StatusOK:
			slog.Warn("jira HTTP error", slog.Int("attempt", attempt), slog.Int("status", status))
			err = fmt.Errorf("HTTP %d from %s", status, path)
		default:
			if uerr := json.Unmarshal(body, out); uerr != nil {
				slog.Warn("jira JSON parse error", slog.Int("attempt", attempt), slog.Any("error", uerr))
				err = uerr
			} else {
				return nil
			}
		}

		if attempt == jiraMaxRetries {
			return err
		}
		time.Sleep(retryDelay)
	}

	return fmt.Errorf("max retries exceeded")
}

func (j *JiraClient) do(req *http.Request) ([]byte, int, error) {
	resp, err := j.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("error", err))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
