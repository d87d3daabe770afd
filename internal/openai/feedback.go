package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/eqzhou81/CPEN-321-sub000/pkg/model"
)

const feedbackSystemMsg = `You are an experienced interview coach reviewing a candidate's answer to a behavioral interview question.

Grade the answer and reply with ONLY a JSON object, no markdown, no backticks:

{
  "feedback": "two to four sentences of overall feedback",
  "score": 0-10,
  "strengths": ["short point", "..."],
  "improvements": ["short point", "..."]
}

Judge structure (situation, task, action, result), specificity, relevance to the question and the role, and communication.`

type feedbackPayload struct {
	Feedback     *string  `json:"feedback"`
	Score        *float64 `json:"score"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// AnswerFeedback grades one behavioral answer. Missing fields in the model's
// reply take their defaults; any transport or decoding failure is returned.
func (c *Client) AnswerFeedback(ctx context.Context, question, answer string, job *model.JobContext) (*model.Feedback, error) {
	var sb strings.Builder
	if job != nil && (job.Title != "" || job.Company != "") {
		fmt.Fprintf(&sb, "Role: %s at %s\n\n", job.Title, job.Company)
	}
	fmt.Fprintf(&sb, "Question:\n%s\n\nCandidate's answer:\n%s\n", question, answer)

	chatReq := ChatRequest{
		Messages: []map[string]string{
			{"role": "system", "content": feedbackSystemMsg},
			{"role": "user", "content": sb.String()},
		},
		MaxTokens:      800,
		Temperature:    0.3,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}

	respStr, err := c.Chat(ctx, chatReq)
	if err != nil {
		return nil, err
	}
	return ParseFeedback(respStr)
}

// ParseFeedback decodes a grading reply, filling defaults for absent fields.
func ParseFeedback(raw string) (*model.Feedback, error) {
	var p feedbackPayload
	if err := json.Unmarshal([]byte(stripFences(raw)), &p); err != nil {
		return nil, fmt.Errorf("failed to parse feedback response: %w", err)
	}

	fb := &model.Feedback{
		Feedback:     "Good answer!",
		Score:        7,
		Strengths:    []string{},
		Improvements: []string{},
	}
	if p.Feedback != nil && strings.TrimSpace(*p.Feedback) != "" {
		fb.Feedback = strings.TrimSpace(*p.Feedback)
	}
	if p.Score != nil {
		fb.Score = clampScore(*p.Score)
	}
	if p.Strengths != nil {
		fb.Strengths = p.Strengths
	}
	if p.Improvements != nil {
		fb.Improvements = p.Improvements
	}
	return fb, nil
}

func clampScore(s float64) int {
	switch {
	case s < 0:
		return 0
	case s > 10:
		return 10
	default:
		return int(s + 0.5)
	}
}
