package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pvelleleth/JiraChat/cmd/jirachat/app/domain"
	"github.com/pvelleleth/JiraChat/pkg/jql"
)

const (
	structuredMaxResults = 50
	semanticTopK         = 30

	noResultsSentinel = "No results found for the given JQL query."

	semanticSectionLabel   = "Information from semantic search"
	structuredSectionLabel = "Information from Jira API"
)

var recordDivider = strings.Repeat("-", 50)

// FetchIssues runs a JQL query and renders the matches as context text.
// Execution failures are folded into the returned text so the answer step
// still runs; this function never reports an error to the caller.
func FetchIssues(ctx context.Context, client TrackerClient, expr string) string {
	expr = jql.EnsureOrdering(expr)

	issues, err := client.SearchIssues(ctx, expr, structuredMaxResults)
	if err != nil {
		slog.Warn("jql query failed", slog.String("jql", expr), slog.Any("error", err))
		return fmt.Sprintf("Error executing JQL query: %v", err)
	}

	if len(issues) == 0 {
		return noResultsSentinel
	}

	var b strings.Builder
	for _, issue := range issues {
		writeIssueRecord(&b, issueMetadata(issue))
	}
	return b.String()
}

func issueMetadata(issue domain.Issue) domain.IssueMetadata {
	return domain.IssueMetadata{
		IssueKey:    issue.Key,
		Project:     issue.Project,
		Summary:     issue.Summary,
		Description: issue.Description,
		Assignee:    issue.Assignee,
		Status:      issue.Status,
		IssueType:   issue.IssueType,
	}
}

func writeIssueRecord(b *strings.Builder, m domain.IssueMetadata) {
	description := m.Description
	if description == "" {
		description = "No description"
	}
	assignee := m.Assignee
	if assignee == "" {
		assignee = "Unassigned"
	}

	fmt.Fprintf(b, "\nProject: %s\n", m.Project)
	fmt.Fprintf(b, "Issue Key: %s\n", m.IssueKey)
	fmt.Fprintf(b, "Summary: %s\n", m.Summary)
	fmt.Fprintf(b, "Description: %s\n", description)
	fmt.Fprintf(b, "Assignee: %s\n", assignee)
	fmt.Fprintf(b, "Status: %s\n", m.Status)
	fmt.Fprintf(b, "Issue Type: %s\n", m.IssueType)
	b.WriteString(recordDivider + "\n")
}

// Assemble merges the structured fetch text and the semantic matches into one
// context block. When both sources produced text the semantic section comes
// first; a single non-empty source is returned without labels. Results are
// never deduplicated across sources.
func Assemble(structuredText string, matches []VectorMatch) string {
	var semantic strings.Builder
	for _, match := range matches {
		writeIssueRecord(&semantic, match.Metadata)
	}
	semanticText := semantic.String()

	switch {
	case semanticText != "" && structuredText != "":
		return semanticSectionLabel + ":\n" + semanticText + "\n" +
			structuredSectionLabel + ":\n" + structuredText
	case semanticText != "":
		return semanticText
	case structuredText != "":
		return structuredText
	default:
		return ""
	}
}
