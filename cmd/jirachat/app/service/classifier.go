package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pvelleleth/JiraChat/cmd/jirachat/app/domain"
)

const classifierInstructions = `You are a query router for a Jira assistant. Classify the user's question and decide how to gather context for it.

Categories:
- TEMPORAL: the question is about dates, recency, or time ranges ("last week", "this sprint", "since March").
- STATUS_BASED: the question is about workflow state, assignees, or issue counts ("what is in progress", "who owns X").
- SEMANTIC: the question asks about the meaning or content of issues ("anything about the payment retries bug?").
- HYBRID: the question needs both a structured query and content search.

Respond with a single JSON object and nothing else:
{"category": "...", "needs_jql": true|false, "needs_semantic": true|false, "jql": "..."}

Set "jql" to a valid JQL expression when needs_jql is true, otherwise to an empty string.

Examples:
Question: What issues were closed last week?
{"category": "TEMPORAL", "needs_jql": true, "needs_semantic": false, "jql": "status = Done AND resolved >= -1w"}

Question: Show me everything assigned to Dana that is still in progress.
{"category": "STATUS_BASED", "needs_jql": true, "needs_semantic": false, "jql": "assignee = \"Dana\" AND status = \"In Progress\""}

Question: Is anyone working on the checkout latency problem?
{"category": "SEMANTIC", "needs_jql": false, "needs_semantic": true, "jql": ""}

Question: Which of the bugs created this month mention the billing service?
{"category": "HYBRID", "needs_jql": true, "needs_semantic": true, "jql": "issuetype = Bug AND created >= startOfMonth()"}`

// Classifier routes a question to a retrieval strategy by asking the model
// for a structured decision.
type Classifier struct {
	chat ChatModel
}

func NewClassifier(chat ChatModel) *Classifier {
	return &Classifier{chat: chat}
}

// Classify never fails outward: any model or parse error yields the fallback
// decision. The returned JQL is passed through unvalidated.
func (c *Classifier) Classify(ctx context.Context, question string, history []domain.Turn) domain.Classification {
	prompt := buildClassifierPrompt(question, history)

	raw, err := c.chat.Complete(ctx, "", []domain.Turn{{Role: domain.RoleUser, Content: prompt}})
	if err != nil {
		slog.Warn("classification request failed, using fallback", slog.Any("error", err))
		return domain.FallbackClassification()
	}

	result, ok := parseClassification(raw)
	if !ok {
		slog.Warn("classification response unparseable, using fallback", slog.String("raw", raw))
		return domain.FallbackClassification()
	}

	return result
}

func buildClassifierPrompt(question string, history []domain.Turn) string {
	var b strings.Builder
	b.WriteString(classifierInstructions)

	if len(history) > 0 {
		b.WriteString("\n\nConversation so far:\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
		}
	}

	fmt.Fprintf(&b, "\nQuestion: %s\n", question)
	return b.String()
}

// parseClassification extracts the substring between the first '{' and the
// last '}' and decodes it. Models often wrap the object in prose or fences.
func parseClassification(raw string) (domain.Classification, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return domain.Classification{}, false
	}

	var result domain.Classification
	if err := json.Unmarshal([]byte(raw[start:end+1]), &result); err != nil {
		return domain.Classification{}, false
	}

	switch result.Category {
	case domain.CategoryTemporal, domain.CategoryStatusBased, domain.CategorySemantic, domain.CategoryHybrid:
	default:
		return domain.Classification{}, false
	}

	return result, true
}
