package handler

import (
	"github.com/eqzhou81/CPEN-321-sub000/pkg/model"
	"github.com/eqzhou81/CPEN-321-sub000/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) ListDiscussions(c *gin.Context) {
	var q model.ListDiscussionsQuery
	if !h.bindQuery(c, &q, "list_discussions") {
		return
	}

	items, total, err := h.Discussions.List(c.Request.Context(), &q)
	if err != nil {
		h.fail(c, "list_discussions", err)
		return
	}
	response.OKWithMeta(c, items, response.NewMeta(q.Page, q.PageSize, total))
}

func (h *Handler) MyDiscussions(c *gin.Context) {
	items, err := h.Discussions.ListMine(c.Request.Context(), h.GetUserFromContext(c).UserID)
	if err != nil {
		h.fail(c, "my_discussions", err)
		return
	}
	response.OK(c, items)
}

func (h *Handler) GetDiscussion(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	d, err := h.Discussions.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get_discussion", err, zap.String("discussion_id", id.String()))
		return
	}
	response.OK(c, d)
}

func (h *Handler) CreateDiscussion(c *gin.Context) {
	var req model.CreateDiscussionReq
	if !h.bindJSON(c, &req, "create_discussion") {
		return
	}

	d, err := h.Discussions.Create(c.Request.Context(), h.GetUserFromContext(c), &req)
	if err != nil {
		h.fail(c, "create_discussion", err)
		return
	}
	response.Created(c, d)
}

// PostMessage adds a message to a discussion thread
func (h *Handler) PostMessage(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req model.PostMessageReq
	if !h.bindJSON(c, &req, "post_message") {
		return
	}

	m, err := h.Discussions.PostMessage(c.Request.Context(), h.GetUserFromContext(c), id, &req)
	if err != nil {
		h.fail(c, "post_message", err, zap.String("discussion_id", id.String()))
		return
	}
	response.Created(c, m)
}
