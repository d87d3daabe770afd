package handler

import (
	"github.com/eqzhou81/CPEN-321-sub000/internal/service"
	"github.com/eqzhou81/CPEN-321-sub000/pkg/model"
	"github.com/eqzhou81/CPEN-321-sub000/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateSession starts a mock interview for a job
func (h *Handler) CreateSession(c *gin.Context) {
	var req model.CreateSessionReq
	if !h.bindJSON(c, &req, "create_session") {
		return
	}
	jobID := uuid.MustParse(req.JobID)

	var specific *uuid.UUID
	if req.SpecificQuestionID != nil && *req.SpecificQuestionID != "" {
		id := uuid.MustParse(*req.SpecificQuestionID)
		specific = &id
	}

	user := h.GetUserFromContext(c)
	view, err := h.Sessions.Create(c.Request.Context(), user.UserID, jobID, specific)
	if err != nil {
		h.fail(c, "create_session", err, zap.String("job_id", req.JobID))
		return
	}
	response.Created(c, view)
}

func (h *Handler) ListSessions(c *gin.Context) {
	list, err := h.Sessions.List(c.Request.Context(), h.GetUserFromContext(c).UserID)
	if err != nil {
		h.fail(c, "list_sessions", err)
		return
	}
	response.OK(c, list)
}

func (h *Handler) GetSession(c *gin.Context) {
	sessionID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	view, err := h.Sessions.Get(c.Request.Context(), h.GetUserFromContext(c).UserID, sessionID)
	if err != nil {
		h.fail(c, "get_session", err, zap.String("session_id", sessionID.String()))
		return
	}
	response.OK(c, view)
}

// SubmitAnswer records an answer and returns feedback with the new progress
func (h *Handler) SubmitAnswer(c *gin.Context) {
	var req model.SubmitAnswerReq
	if !h.bindJSON(c, &req, "submit_answer") {
		return
	}
	sessionID := uuid.MustParse(req.SessionID)
	questionID := uuid.MustParse(req.QuestionID)

	res, err := h.Sessions.SubmitAnswer(c.Request.Context(), h.GetUserFromContext(c).UserID, sessionID, questionID, req.Answer)
	if err != nil {
		h.fail(c, "submit_answer", err,
			zap.String("session_id", req.SessionID),
			zap.String("question_id", req.QuestionID),
		)
		return
	}
	response.OK(c, res)
}

func (h *Handler) UpdateSessionStatus(c *gin.Context) {
	sessionID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req model.UpdateSessionStatusReq
	if !h.bindJSON(c, &req, "update_session_status") {
		return
	}

	session, err := h.Sessions.UpdateStatus(c.Request.Context(), h.GetUserFromContext(c).UserID, sessionID, req.Status)
	if err != nil {
		h.fail(c, "update_session_status", err, zap.String("session_id", sessionID.String()))
		return
	}
	response.OK(c, session)
}

// NavigateSession moves the session to another question index
func (h *Handler) NavigateSession(c *gin.Context) {
	sessionID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req model.NavigateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body")
		return
	}
	index, err := service.ParseQuestionIndex(req.QuestionIndex)
	if err != nil {
		response.Error(c, err)
		return
	}

	view, err := h.Sessions.Navigate(c.Request.Context(), h.GetUserFromContext(c).UserID, sessionID, index)
	if err != nil {
		h.fail(c, "navigate_session", err, zap.String("session_id", sessionID.String()))
		return
	}
	response.OK(c, view)
}

func (h *Handler) SessionProgress(c *gin.Context) {
	sessionID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	p, err := h.Sessions.GetProgress(c.Request.Context(), h.GetUserFromContext(c).UserID, sessionID)
	if err != nil {
		h.fail(c, "session_progress", err, zap.String("session_id", sessionID.String()))
		return
	}
	response.OK(c, p)
}

// SessionAnswers lists the feedback recorded so far
func (h *Handler) SessionAnswers(c *gin.Context) {
	sessionID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	answers, err := h.Sessions.Answers(c.Request.Context(), h.GetUserFromContext(c).UserID, sessionID)
	if err != nil {
		h.fail(c, "session_answers", err, zap.String("session_id", sessionID.String()))
		return
	}
	response.OK(c, answers)
}

func (h *Handler) DeleteSession(c *gin.Context) {
	sessionID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.Sessions.Delete(c.Request.Context(), h.GetUserFromContext(c).UserID, sessionID); err != nil {
		h.fail(c, "delete_session", err, zap.String("session_id", sessionID.String()))
		return
	}
	response.Message(c, "session deleted successfully")
}
