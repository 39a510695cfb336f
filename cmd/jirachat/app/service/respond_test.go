package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/pvelleleth/JiraChat/cmd/jirachat/app/domain"
	"github.com/pvelleleth/JiraChat/cmd/jirachat/app/service"
)

func TestTranslateTurns(t *testing.T) {
	history := []domain.Turn{
		{Role: "user", Content: "a"},
		{Role: "assistant", Content: "b"},
		{Role: "model", Content: "c"},
		{Role: "", Content: "d"},
	}

	got := service.TranslateTurns(history)

	wantRoles := []string{"user", "assistant", "assistant", "assistant"}
	for i, want := range wantRoles {
		if got[i].Role != want {
			t.Fatalf("turn %d: role = %q, want %q", i, got[i].Role, want)
		}
		if got[i].Content != history[i].Content {
			t.Fatalf("turn %d: content changed", i)
		}
	}
}

func TestBuildPreamble(t *testing.T) {
	got := service.BuildPreamble("HYBRID", "- Dana (abc123, dana@acme.test)\n", "Context block")

	for _, fragment := range []string{
		"markdown",
		"issue keys",
		"Query type: HYBRID",
		"Dana (abc123, dana@acme.test)",
		"Context block",
	} {
		if !strings.Contains(got, fragment) {
			t.Fatalf("preamble missing %q:\n%s", fragment, got)
		}
	}
}

func TestBuildPreambleOmitsEmptySections(t *testing.T) {
	got := service.BuildPreamble("SEMANTIC", "", "")

	if strings.Contains(got, "Team members:") {
		t.Fatalf("empty roster must be omitted:\n%s", got)
	}
	if strings.Contains(got, "Context:") {
		t.Fatalf("empty context must be omitted:\n%s", got)
	}
}

func TestRespondSendsHistoryAndQuestion(t *testing.T) {
	chat := &fakeChat{responses: []string{"The answer."}}
	history := []domain.Turn{
		{Role: "user", Content: "earlier question"},
		{Role: "model", Content: "earlier answer"},
	}

	answer, err := service.Respond(context.Background(), chat, "new question", "ctx", "SEMANTIC", history, "")
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if answer != "The answer." {
		t.Fatalf("answer = %q", answer)
	}

	turns := chat.turns[0]
	if len(turns) != 3 {
		t.Fatalf("expected history plus question, got %d turns", len(turns))
	}
	if turns[1].Role != domain.RoleAssistant {
		t.Fatalf("history role not translated: %q", turns[1].Role)
	}
	last := turns[len(turns)-1]
	if last.Role != domain.RoleUser || last.Content != "new question" {
		t.Fatalf("final turn must be the new question, got %+v", last)
	}
}

func TestRespondNormalizesTables(t *testing.T) {
	chat := &fakeChat{responses: []string{"| Key | Status |\n| ENG-1 | Done |"}}

	answer, err := service.Respond(context.Background(), chat, "q", "", "STATUS_BASED", nil, "")
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}

	want := "| Key   | Status |\n|-------|--------|\n| ENG-1 | Done   |"
	if answer != want {
		t.Fatalf("table not normalized:\n%s", answer)
	}
}

func TestFormatUsersContext(t *testing.T) {
	users := []domain.User{
		{AccountID: "abc", DisplayName: "Dana", Email: "dana@acme.test"},
		{AccountID: "def", DisplayName: "Kim"},
	}

	got := service.FormatUsersContext(users)
	want := "- Dana (abc, dana@acme.test)\n- Kim (def)\n"
	if got != want {
		t.Fatalf("FormatUsersContext = %q, want %q", got, want)
	}
}
