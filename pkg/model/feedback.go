package model

// Feedback is the grading of one behavioral answer.
type Feedback struct {
	Feedback     string   `json:"feedback"`
	Score        int      `json:"score"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// AnswerFeedback is returned from submit-answer.
type AnswerFeedback struct {
	Feedback
	IsLastQuestion   bool `json:"isLastQuestion"`
	SessionCompleted bool `json:"sessionCompleted"`
}

// JobContext is the optional job information handed to the grader.
type JobContext struct {
	Title   string
	Company string
}
