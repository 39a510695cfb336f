package domain

import "time"

// TenantSettings holds one tenant's Jira connection configuration.
// Namespace stays empty until the first sync assigns it.
type TenantSettings struct {
	UserID    string `json:"user_id"`
	Domain    string `json:"jira_domain"`
	Email     string `json:"jira_email"`
	Namespace string `json:"pinecone_namespace"`
}

// Comment is a single comment on an issue.
type Comment struct {
	Author  string `json:"author"`
	Body    string `json:"body"`
	Created string `json:"created"`
}

// Attachment is a file attached to an issue.
type Attachment struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// Issue is the projection of one Jira issue used for ingestion.
type Issue struct {
	Key         string       `json:"key"`
	Project     string       `json:"project,omitempty"`
	Summary     string       `json:"summary"`
	Description string       `json:"description"`
	Assignee    string       `json:"assignee"`
	Status      string       `json:"status"`
	IssueType   string       `json:"issue_type"`
	ParentKey   string       `json:"parent_id,omitempty"`
	Comments    []Comment    `json:"comments"`
	Attachments []Attachment `json:"attachments"`
}

// Project groups the issues fetched for one Jira project.
type Project struct {
	Key    string  `json:"project_key"`
	Name   string  `json:"project_name"`
	Issues []Issue `json:"issues"`
}

// User is one entry of a tenant's Jira user roster.
type User struct {
	AccountID   string `json:"account_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message of a conversation history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Query categories produced by the classifier.
const (
	CategoryTemporal    = "TEMPORAL"
	CategoryStatusBased = "STATUS_BASED"
	CategorySemantic    = "SEMANTIC"
	CategoryHybrid      = "HYBRID"
)

// Classification is the routing decision for one question.
// NeedsJQL may be set with an empty JQL; the structured fetch is then skipped.
type Classification struct {
	Category      string `json:"category"`
	NeedsJQL      bool   `json:"needs_jql"`
	NeedsSemantic bool   `json:"needs_semantic"`
	JQL           string `json:"jql"`
}

// FallbackClassification is the routing decision used when the model's
// output cannot be parsed.
func FallbackClassification() Classification {
	return Classification{
		Category:      CategorySemantic,
		NeedsJQL:      false,
		NeedsSemantic: true,
		JQL:           "",
	}
}

// IssueMetadata is the per-issue payload stored alongside each vector and
// returned inline with semantic matches.
type IssueMetadata struct {
	IssueKey    string `json:"issue_key"`
	Project     string `json:"project"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Assignee    string `json:"assignee"`
	Status      string `json:"status"`
	IssueType   string `json:"issue_type"`
}

// SyncResult is returned by a completed ingestion run.
type SyncResult struct {
	Namespace       string
	Projects        []Project
	IssuesCollected int
	IssuesIndexed   int
	StartTime       time.Time
	EndTime         time.Time
}
