package service

import (
	"context"

	"github.com/eqzhou81/CPEN-321-sub000/pkg/model"
	"go.uber.org/zap"
)

// FeedbackClient grades an answer with a language model.
type FeedbackClient interface {
	AnswerFeedback(ctx context.Context, question, answer string, job *model.JobContext) (*model.Feedback, error)
}

// FeedbackService never fails: when the model cannot be reached or answers
// with garbage, the user still gets a payload saying so.
type FeedbackService struct {
	client FeedbackClient
	logger *zap.Logger
}

func NewFeedbackService(client FeedbackClient, logger *zap.Logger) *FeedbackService {
	return &FeedbackService{client: client, logger: logger}
}

// UnavailableFeedback is returned when grading failed.
func UnavailableFeedback() model.Feedback {
	return model.Feedback{
		Feedback:     "We could not generate feedback for this answer due to a technical issue. Your answer has been saved.",
		Score:        0,
		Strengths:    []string{},
		Improvements: []string{},
	}
}

func (s *FeedbackService) Grade(ctx context.Context, question, answer string, job *model.JobContext) model.Feedback {
	fb, err := s.client.AnswerFeedback(ctx, question, answer, job)
	if err != nil {
		s.logger.Warn("answer_feedback: grading failed, using fallback",
			zap.Error(err),
		)
		return UnavailableFeedback()
	}
	return *fb
}
