package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/eqzhou81/CPEN-321-sub000/pkg/model"
)

type GeneratedQuestion struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

const behavioralSystemMsg = `You write behavioral interview questions tailored to a job posting.

Output ONLY a valid JSON object with no additional text, markdown or explanation:

{
  "questions": [
    {
      "title": "the question itself, at most 200 characters",
      "description": "one or two sentences on what a strong answer covers",
      "tags": ["leadership", "teamwork"]
    }
  ]
}

Rules:
- Ask about past behavior ("Tell me about a time...", "Describe a situation...").
- Tie questions to the responsibilities and skills in the posting.
- Never repeat a question.`

const maxPromptChars = 10000

// BehavioralQuestions asks the model for count behavioral questions for job.
func (c *Client) BehavioralQuestions(ctx context.Context, job *model.JobApplication, count int) ([]GeneratedQuestion, error) {
	userPrompt := fmt.Sprintf(
		"Write %d behavioral questions for this posting.\n\nTitle: %s\nCompany: %s\nSkills: %s\n\nDescription:\n%s",
		count, job.Title, job.Company, strings.Join(job.Skills, ", "), job.Description,
	)
	userPrompt = truncate(userPrompt, maxPromptChars)

	chatReq := ChatRequest{
		Messages: []map[string]string{
			{"role": "system", "content": behavioralSystemMsg},
			{"role": "user", "content": userPrompt},
		},
		MaxTokens:      2000,
		Temperature:    0.7,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}

	respStr, err := c.Chat(ctx, chatReq)
	if err != nil {
		return nil, err
	}

	var out struct {
		Questions []GeneratedQuestion `json:"questions"`
	}
	if err := json.Unmarshal([]byte(stripFences(respStr)), &out); err != nil {
		return nil, fmt.Errorf("failed to parse ai response as questions: %w; raw response: %q", err, truncate(respStr, 512))
	}

	qs := make([]GeneratedQuestion, 0, len(out.Questions))
	for _, q := range out.Questions {
		q.Title = strings.TrimSpace(q.Title)
		if q.Title == "" {
			continue
		}
		if r := []rune(q.Title); len(r) > 200 {
			q.Title = string(r[:200])
		}
		if strings.TrimSpace(q.Description) == "" {
			q.Description = q.Title
		}
		qs = append(qs, q)
		if len(qs) == count {
			break
		}
	}
	if len(qs) == 0 {
		return nil, fmt.Errorf("model returned no usable questions")
	}
	return qs, nil
}
