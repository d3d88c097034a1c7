package triage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"squadup/internal/featureflags"
	"squadup/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `{"approved": true}`, "approved"},
		{"fenced", "```json\n{\"approved\": true}\n```\nextra prose", "approved"},
		{"trailing comma and comment", "{\n  \"reason\": \"spam\", // model note\n}", "reason"},
		{"url kept", `{"subject": "see http://example.com"}`, "subject"},
		{"none", "I cannot help with that.", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractJSON(tt.input)
			if tt.want == "" {
				assert.Empty(t, got)
				return
			}
			var parsed map[string]any
			require.NoError(t, json.Unmarshal([]byte(got), &parsed), got)
			assert.Contains(t, parsed, tt.want)
		})
	}
}

func TestRuleClassifier(t *testing.T) {
	c := NewRuleClassifier()
	ctx := context.Background()

	got, err := c.Classify(ctx, "I can't login to my account after changing my password. Please help!")
	require.NoError(t, err)
	assert.True(t, got.Approved)
	assert.Equal(t, models.TicketCategoryAccount, got.Category)
	assert.Equal(t, "I can't login to my account after changing my password", got.Subject)

	got, err = c.Classify(ctx, "Our team captain keeps getting a roster error when sending an invite")
	require.NoError(t, err)
	assert.Equal(t, models.TicketCategoryTeam, got.Category)

	got, err = c.Classify(ctx, "Just wanted to say the colors are nice today")
	require.NoError(t, err)
	assert.Equal(t, models.TicketCategoryOther, got.Category)

	got, err = c.Classify(ctx, "kys you are all useless, nothing works here")
	require.NoError(t, err)
	assert.False(t, got.Approved)
	assert.NotEmpty(t, got.Reason)

	got, err = c.Classify(ctx, "!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!")
	require.NoError(t, err)
	assert.False(t, got.Approved)
}

func TestContainsWordBoundaries(t *testing.T) {
	assert.True(t, containsWord("ok kys now", "kys"))
	assert.False(t, containsWord("skys are blue", "kys"))
	assert.True(t, containsWord("skys kys", "kys"))
}

func newCompletionServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"upstream down","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIClassifierApproved(t *testing.T) {
	srv := newCompletionServer(t, http.StatusOK,
		"```json\n{\"approved\": true, \"category\": \"Tournament\", \"subject\": \"Bracket stuck\", \"summary\": \"The bracket does not advance.\"}\n```")
	c := NewOpenAIClassifier("sk-test", "", srv.URL+"/v1")

	router := NewRouter(c, featureflags.Parse("ai_triage=on"))
	got, err := router.Classify(context.Background(), 1, "The tournament bracket never advances after we win")
	require.NoError(t, err)
	assert.True(t, got.Approved)
	assert.Equal(t, models.TicketCategoryTournament, got.Category)
	assert.Equal(t, "Bracket stuck", got.Subject)
}

func TestOpenAIClassifierRejected(t *testing.T) {
	srv := newCompletionServer(t, http.StatusOK, `{"approved": false, "reason": "Harassment is not allowed", "subject": "ignored"}`)
	c := NewOpenAIClassifier("sk-test", "gpt-4o-mini", srv.URL+"/v1")

	router := NewRouter(c, featureflags.Parse("ai_triage=on"))
	got, err := router.Classify(context.Background(), 1, "some hostile text about another player")
	require.NoError(t, err)
	assert.False(t, got.Approved)
	assert.Equal(t, "Harassment is not allowed", got.Reason)
	assert.Empty(t, got.Subject)
}

func TestOpenAIClassifierFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		content string
	}{
		{"upstream error", http.StatusInternalServerError, ""},
		{"prose only", http.StatusOK, "Sorry, I can't do that."},
		{"approved without subject", http.StatusOK, `{"approved": true, "category": "bug"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newCompletionServer(t, tt.status, tt.content)
			c := NewOpenAIClassifier("sk-test", "", srv.URL+"/v1")
			_, err := c.Classify(context.Background(), "my matches are not loading at all today")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnavailable))
		})
	}
}

func TestRouterFallsBackToRules(t *testing.T) {
	ai := NewOpenAIClassifier("sk-test", "", "http://127.0.0.1:0/v1")

	assert.Equal(t, "rules", NewRouter(nil, featureflags.Parse("ai_triage=on")).For(1).Name())
	assert.Equal(t, "rules", NewRouter(ai, featureflags.Parse("ai_triage=off")).For(1).Name())
	assert.Equal(t, "rules", NewRouter(ai, nil).For(1).Name())
	assert.Equal(t, "openai", NewRouter(ai, featureflags.Parse("ai_triage=on")).For(1).Name())
}

func TestNormalizeTruncates(t *testing.T) {
	long := strings.Repeat("a", 200)
	got := normalize(Classification{Approved: true, Subject: long, Summary: "x", Category: "nonsense", Reason: "r"})
	assert.Equal(t, maxSubjectLen, len([]rune(got.Subject)))
	assert.Equal(t, models.TicketCategoryOther, got.Category)
	assert.Empty(t, got.Reason)
}
