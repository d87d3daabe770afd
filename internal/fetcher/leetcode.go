package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Problem is one LeetCode problem usable as a technical question.
type Problem struct {
	Title      string   `json:"title"`
	Slug       string   `json:"slug"`
	Difficulty string   `json:"difficulty"`
	Tags       []string `json:"tags"`
	URL        string   `json:"url"`
}

type GraphQLRequest struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

type problemListResponse struct {
	Data struct {
		List struct {
			Total     int `json:"total"`
			Questions []struct {
				Title      string `json:"title"`
				TitleSlug  string `json:"titleSlug"`
				Difficulty string `json:"difficulty"`
				PaidOnly   bool   `json:"paidOnly"`
				TopicTags  []struct {
					Name string `json:"name"`
					Slug string `json:"slug"`
				} `json:"topicTags"`
			} `json:"questions"`
		} `json:"problemsetQuestionList"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

const problemListQuery = `
query problemsetQuestionList($categorySlug: String, $limit: Int, $skip: Int, $filters: QuestionListFilterInput) {
  problemsetQuestionList: questionList(categorySlug: $categorySlug, limit: $limit, skip: $skip, filters: $filters) {
    total: totalNum
    questions: data {
      difficulty
      title
      titleSlug
      paidOnly: isPaidOnly
      topicTags {
        name
        slug
      }
    }
  }
}`

// SearchProblems looks up free problems matching keyword. Results are cached
// per (keyword, limit).
func (f *Fetcher) SearchProblems(ctx context.Context, keyword string, limit int) ([]Problem, error) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	cacheKey := fmt.Sprintf("leetcode:%s:%d", keyword, limit)

	var out []Problem
	if f.cached(ctx, cacheKey, &out) {
		return out, nil
	}

	graphqlBody := GraphQLRequest{
		Query: problemListQuery,
		Variables: map[string]interface{}{
			"categorySlug": "",
			"skip":         0,
			"limit":        limit * 2,
			"filters":      map[string]interface{}{"searchKeywords": keyword},
		},
		OperationName: "problemsetQuestionList",
	}

	jsonData, err := json.Marshal(graphqlBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal graphql body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.leetcodeURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Referer", "https://leetcode.com/problemset/")

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("unexpected status %d from leetcode: %s", resp.StatusCode, string(body))
	}

	var apiResp problemListResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode leetcode response: %w", err)
	}
	if len(apiResp.Errors) > 0 {
		return nil, fmt.Errorf("leetcode graphql error: %s", apiResp.Errors[0].Message)
	}

	out = make([]Problem, 0, limit)
	for _, q := range apiResp.Data.List.Questions {
		if q.PaidOnly || q.TitleSlug == "" {
			continue
		}
		tags := make([]string, 0, len(q.TopicTags))
		for _, t := range q.TopicTags {
			tags = append(tags, t.Name)
		}
		out = append(out, Problem{
			Title:      strings.TrimSpace(q.Title),
			Slug:       q.TitleSlug,
			Difficulty: strings.ToLower(q.Difficulty),
			Tags:       tags,
			URL:        fmt.Sprintf("https://leetcode.com/problems/%s/", q.TitleSlug),
		})
		if len(out) == limit {
			break
		}
	}

	f.store(ctx, cacheKey, out)
	return out, nil
}
