package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/eqzhou81/CPEN-321-sub000/internal/config"
	"github.com/eqzhou81/CPEN-321-sub000/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, status int, content string, seen *ChatRequest) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
		})
	}))
	t.Cleanup(srv.Close)

	return NewClient(config.LLMConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1/", Model: "test-model", Timeout: 5 * time.Second})
}

func TestClient_AnswerFeedback(t *testing.T) {
	ctx := context.Background()

	t.Run("parses reply", func(t *testing.T) {
		var req ChatRequest
		c := chatServer(t, http.StatusOK, `{"feedback":"Solid.","score":8,"strengths":["clear"],"improvements":["numbers"]}`, &req)

		fb, err := c.AnswerFeedback(ctx, "Tell me about a conflict", "I listened.", &model.JobContext{Title: "SRE", Company: "Acme"})
		require.NoError(t, err)
		assert.Equal(t, &model.Feedback{Feedback: "Solid.", Score: 8, Strengths: []string{"clear"}, Improvements: []string{"numbers"}}, fb)

		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Contains(t, req.Messages[1]["content"], "Role: SRE at Acme")
		assert.Contains(t, req.Messages[1]["content"], "I listened.")
	})

	t.Run("upstream error", func(t *testing.T) {
		c := chatServer(t, http.StatusTooManyRequests, "", nil)
		_, err := c.AnswerFeedback(ctx, "q", "a", nil)
		assert.ErrorContains(t, err, "status 429")
	})

	t.Run("non-2xx success code", func(t *testing.T) {
		c := chatServer(t, http.StatusAccepted, `{"feedback":"Solid.","score":8,"strengths":[],"improvements":[]}`, nil)
		_, err := c.AnswerFeedback(ctx, "q", "a", nil)
		assert.ErrorContains(t, err, "status 202")
	})

	t.Run("garbage reply", func(t *testing.T) {
		c := chatServer(t, http.StatusOK, "I think it was fine", nil)
		_, err := c.AnswerFeedback(ctx, "q", "a", nil)
		assert.Error(t, err)
	})
}

func TestParseFeedback(t *testing.T) {
	t.Run("defaults for missing fields", func(t *testing.T) {
		fb, err := ParseFeedback(`{}`)
		require.NoError(t, err)
		assert.Equal(t, "Good answer!", fb.Feedback)
		assert.Equal(t, 7, fb.Score)
		assert.Equal(t, []string{}, fb.Strengths)
		assert.Equal(t, []string{}, fb.Improvements)
	})

	t.Run("score is clamped", func(t *testing.T) {
		fb, err := ParseFeedback(`{"score": 14}`)
		require.NoError(t, err)
		assert.Equal(t, 10, fb.Score)

		fb, err = ParseFeedback(`{"score": -3}`)
		require.NoError(t, err)
		assert.Equal(t, 0, fb.Score)

		fb, err = ParseFeedback(`{"score": 6.6}`)
		require.NoError(t, err)
		assert.Equal(t, 7, fb.Score)
	})

	t.Run("fenced json", func(t *testing.T) {
		fb, err := ParseFeedback("```json\n{\"feedback\":\"Nice\",\"score\":5}\n```")
		require.NoError(t, err)
		assert.Equal(t, "Nice", fb.Feedback)
		assert.Equal(t, 5, fb.Score)
	})
}

func TestClient_BehavioralQuestions(t *testing.T) {
	ctx := context.Background()
	reply := `{"questions":[
		{"title":"Tell me about a time you led a team.","description":"","tags":["leadership"]},
		{"title":"   ","description":"skipped"},
		{"title":"Describe a failure.","description":"What you learned."},
		{"title":"One too many.","description":"x"}
	]}`
	c := chatServer(t, http.StatusOK, reply, nil)

	qs, err := c.BehavioralQuestions(ctx, &model.JobApplication{Title: "SRE", Company: "Acme"}, 2)
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, "Tell me about a time you led a team.", qs[0].Description)
	assert.Equal(t, "Describe a failure.", qs[1].Title)

	empty := chatServer(t, http.StatusOK, `{"questions":[]}`, nil)
	_, err = empty.BehavioralQuestions(ctx, &model.JobApplication{Title: "SRE"}, 5)
	assert.Error(t, err)
}

func TestClient_BehavioralQuestions_LongPosting(t *testing.T) {
	var req ChatRequest
	c := chatServer(t, http.StatusOK, `{"questions":[{"title":"Tell me about a launch.","description":"x"}]}`, &req)

	job := &model.JobApplication{Title: "SRE", Company: "Acme", Description: strings.Repeat("é", 12000)}
	_, err := c.BehavioralQuestions(context.Background(), job, 1)
	require.NoError(t, err)

	prompt := req.Messages[1]["content"]
	assert.Equal(t, maxPromptChars, utf8.RuneCountInString(prompt))
	assert.NotContains(t, prompt, string(utf8.RuneError))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, strings.Repeat("é", 4), truncate(strings.Repeat("é", 4), 6))
	assert.Equal(t, "日本", truncate("日本語", 2))
}
