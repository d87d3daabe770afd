package handler

import (
	"github.com/eqzhou81/CPEN-321-sub000/pkg/model"
	"github.com/eqzhou81/CPEN-321-sub000/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateQuestion creates a question for one of the caller's jobs
func (h *Handler) CreateQuestion(c *gin.Context) {
	var req model.CreateQuestionReq
	if !h.bindJSON(c, &req, "create_question") {
		return
	}

	user := h.GetUserFromContext(c)
	q, err := h.Questions.Create(c.Request.Context(), user.UserID, &req)
	if err != nil {
		h.fail(c, "create_question", err, zap.String("job_id", req.JobID))
		return
	}

	h.Logger.Info("create_question: question created",
		zap.String("job_id", q.JobID.String()),
		zap.String("question_id", q.QID.String()),
	)
	response.Created(c, q)
}

// GenerateQuestions replaces the job's questions with generated ones
func (h *Handler) GenerateQuestions(c *gin.Context) {
	var req model.GenerateQuestionsReq
	if !h.bindJSON(c, &req, "generate_questions") {
		return
	}
	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		response.ValidationError(c, "jobId must be a valid id")
		return
	}

	qs, err := h.Questions.Generate(c.Request.Context(), h.GetUserFromContext(c).UserID, jobID, req.Types)
	if err != nil {
		h.fail(c, "generate_questions", err, zap.String("job_id", req.JobID))
		return
	}
	response.Created(c, qs)
}

// CreateJobQuestions adds a batch of questions to a job, all or nothing
func (h *Handler) CreateJobQuestions(c *gin.Context) {
	jobID, ok := uuidParam(c, "jobId")
	if !ok {
		return
	}
	var req model.CreateQuestionsReq
	if !h.bindJSON(c, &req, "create_job_questions") {
		return
	}

	qs, err := h.Questions.CreateMany(c.Request.Context(), h.GetUserFromContext(c).UserID, jobID, req.Questions)
	if err != nil {
		h.fail(c, "create_job_questions", err, zap.String("job_id", jobID.String()))
		return
	}
	response.Created(c, qs)
}

// ListJobQuestions returns the job's questions, optionally of one type
func (h *Handler) ListJobQuestions(c *gin.Context) {
	jobID, ok := uuidParam(c, "jobId")
	if !ok {
		return
	}
	var q model.ListQuestionsQuery
	if !h.bindQuery(c, &q, "list_questions") {
		return
	}

	var qType *model.QuestionType
	if q.Type != "" {
		t := model.QuestionType(q.Type)
		qType = &t
	}

	qs, err := h.Questions.FindByJobAndType(c.Request.Context(), h.GetUserFromContext(c).UserID, jobID, qType)
	if err != nil {
		h.fail(c, "list_questions", err, zap.String("job_id", jobID.String()))
		return
	}
	response.OK(c, qs)
}

func (h *Handler) DeleteJobQuestions(c *gin.Context) {
	jobID, ok := uuidParam(c, "jobId")
	if !ok {
		return
	}

	n, err := h.Questions.DeleteByJobID(c.Request.Context(), h.GetUserFromContext(c).UserID, jobID)
	if err != nil {
		h.fail(c, "delete_questions", err, zap.String("job_id", jobID.String()))
		return
	}
	response.OK(c, gin.H{"deleted": n})
}

func (h *Handler) JobQuestionProgress(c *gin.Context) {
	jobID, ok := uuidParam(c, "jobId")
	if !ok {
		return
	}

	p, err := h.Questions.GetProgressByJob(c.Request.Context(), h.GetUserFromContext(c).UserID, jobID)
	if err != nil {
		h.fail(c, "question_progress", err, zap.String("job_id", jobID.String()))
		return
	}
	response.OK(c, p)
}

func (h *Handler) GetQuestion(c *gin.Context) {
	questionID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	q, err := h.Questions.FindByID(c.Request.Context(), h.GetUserFromContext(c).UserID, questionID)
	if err != nil {
		h.fail(c, "get_question", err, zap.String("question_id", questionID.String()))
		return
	}
	response.OK(c, q)
}

func (h *Handler) UpdateQuestionStatus(c *gin.Context) {
	questionID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req model.UpdateQuestionStatusReq
	if !h.bindJSON(c, &req, "update_question_status") {
		return
	}

	q, err := h.Questions.UpdateStatus(c.Request.Context(), h.GetUserFromContext(c).UserID, questionID, req.Status)
	if err != nil {
		h.fail(c, "update_question_status", err, zap.String("question_id", questionID.String()))
		return
	}
	response.OK(c, q)
}
