package handler

import (
	"github.com/eqzhou81/CPEN-321-sub000/pkg/model"
	"github.com/eqzhou81/CPEN-321-sub000/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) CreateJob(c *gin.Context) {
	var req model.CreateJobReq
	if !h.bindJSON(c, &req, "create_job") {
		return
	}

	user := h.GetUserFromContext(c)
	job, err := h.Jobs.Create(c.Request.Context(), user.UserID, &req)
	if err != nil {
		h.fail(c, "create_job", err)
		return
	}

	h.Logger.Info("create_job: job created",
		zap.String("user_id", user.UserID.String()),
		zap.String("job_id", job.JobID.String()),
	)
	response.Created(c, job)
}

// ListJobs returns a page of the caller's jobs
func (h *Handler) ListJobs(c *gin.Context) {
	var q model.ListJobsQuery
	if !h.bindQuery(c, &q, "list_jobs") {
		return
	}

	user := h.GetUserFromContext(c)
	jobs, total, err := h.Jobs.List(c.Request.Context(), user.UserID, &q)
	if err != nil {
		h.fail(c, "list_jobs", err)
		return
	}
	response.OKWithMeta(c, jobs, response.NewMeta(q.Page, q.PageSize, total))
}

func (h *Handler) GetJob(c *gin.Context) {
	jobID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	job, err := h.Jobs.Get(c.Request.Context(), h.GetUserFromContext(c).UserID, jobID)
	if err != nil {
		h.fail(c, "get_job", err, zap.String("job_id", jobID.String()))
		return
	}
	response.OK(c, job)
}

func (h *Handler) UpdateJob(c *gin.Context) {
	jobID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req model.UpdateJobReq
	if !h.bindJSON(c, &req, "update_job") {
		return
	}

	job, err := h.Jobs.Update(c.Request.Context(), h.GetUserFromContext(c).UserID, jobID, &req)
	if err != nil {
		h.fail(c, "update_job", err, zap.String("job_id", jobID.String()))
		return
	}
	response.OK(c, job)
}

func (h *Handler) DeleteJob(c *gin.Context) {
	jobID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.Jobs.Delete(c.Request.Context(), h.GetUserFromContext(c).UserID, jobID); err != nil {
		h.fail(c, "delete_job", err, zap.String("job_id", jobID.String()))
		return
	}
	response.Message(c, "job deleted successfully")
}

func (h *Handler) GetJobStats(c *gin.Context) {
	stats, err := h.Jobs.Stats(c.Request.Context(), h.GetUserFromContext(c).UserID)
	if err != nil {
		h.fail(c, "job_stats", err)
		return
	}
	response.OK(c, stats)
}

func (h *Handler) SimilarJobs(c *gin.Context) {
	jobID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	similar, err := h.Jobs.Similar(c.Request.Context(), h.GetUserFromContext(c).UserID, jobID)
	if err != nil {
		h.fail(c, "similar_jobs", err, zap.String("job_id", jobID.String()))
		return
	}
	response.OK(c, similar)
}

// ImportJob scrapes a posting page into a draft, saving it when asked
func (h *Handler) ImportJob(c *gin.Context) {
	var req model.ImportJobReq
	if !h.bindJSON(c, &req, "import_job") {
		return
	}

	job, err := h.Jobs.Import(c.Request.Context(), h.GetUserFromContext(c).UserID, req.URL, req.Save)
	if err != nil {
		h.fail(c, "import_job", err, zap.String("url", req.URL))
		return
	}
	if req.Save {
		response.Created(c, job)
		return
	}
	response.OK(c, job)
}
