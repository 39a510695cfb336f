package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pvelleleth/JiraChat/cmd/jirachat/app/domain"
	"github.com/pvelleleth/JiraChat/pkg/markdown"
)

const personaInstructions = `You are a helpful assistant that answers questions about a team's Jira projects and issues.
Format every answer in markdown, using lists and tables where they aid readability.
Always cite the issue keys (for example ENG-123) of the issues your answer is based on.
Answer only from the provided context; when the context does not contain the answer, say so instead of guessing.`

// BuildPreamble assembles the system instruction for one request.
func BuildPreamble(category, usersContext, contextText string) string {
	var b strings.Builder
	b.WriteString(personaInstructions)

	fmt.Fprintf(&b, "\n\nQuery type: %s\n", category)

	if usersContext != "" {
		b.WriteString("\nTeam members:\n")
		b.WriteString(usersContext)
	}

	if contextText != "" {
		b.WriteString("\nContext:\n")
		b.WriteString(contextText)
	}

	return b.String()
}

// TranslateTurns maps conversation history into the provider's role
// vocabulary: "user" stays user, anything else becomes assistant.
func TranslateTurns(history []domain.Turn) []domain.Turn {
	turns := make([]domain.Turn, len(history))
	for i, turn := range history {
		role := domain.RoleAssistant
		if turn.Role == domain.RoleUser {
			role = domain.RoleUser
		}
		turns[i] = domain.Turn{Role: role, Content: turn.Content}
	}
	return turns
}

// Respond drives one chat completion with the assembled preamble, prior
// turns, and the new question, then normalizes any pipe tables in the answer.
func Respond(ctx context.Context, chat ChatModel, question, contextText, category string, history []domain.Turn, usersContext string) (string, error) {
	preamble := BuildPreamble(category, usersContext, contextText)

	turns := TranslateTurns(history)
	turns = append(turns, domain.Turn{Role: domain.RoleUser, Content: question})

	answer, err := chat.Complete(ctx, preamble, turns)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	if strings.Contains(answer, "|") {
		answer = markdown.NormalizeTables(answer)
	}

	return answer, nil
}

// FormatUsersContext renders a tenant's user roster for the preamble.
func FormatUsersContext(users []domain.User) string {
	var b strings.Builder
	for _, u := range users {
		fmt.Fprintf(&b, "- %s (%s", u.DisplayName, u.AccountID)
		if u.Email != "" {
			fmt.Fprintf(&b, ", %s", u.Email)
		}
		b.WriteString(")\n")
	}
	return b.String()
}
