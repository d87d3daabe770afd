package handler

import (
	"github.com/eqzhou81/CPEN-321-sub000/pkg/model"
	"github.com/eqzhou81/CPEN-321-sub000/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SignUp creates an account from a Google ID token and returns a token
func (h *Handler) SignUp(c *gin.Context) {
	var req model.GoogleIDTokenReq
	if !h.bindJSON(c, &req, "signup") {
		return
	}

	res, err := h.Users.SignUp(c.Request.Context(), req.IDToken)
	if err != nil {
		h.fail(c, "signup", err)
		return
	}
	response.Created(c, res)
}

// SignIn exchanges a Google ID token of an existing user for a token
func (h *Handler) SignIn(c *gin.Context) {
	var req model.GoogleIDTokenReq
	if !h.bindJSON(c, &req, "signin") {
		return
	}

	res, err := h.Users.SignIn(c.Request.Context(), req.IDToken)
	if err != nil {
		h.fail(c, "signin", err)
		return
	}
	response.OK(c, res)
}

// SignOut revokes the caller's token
func (h *Handler) SignOut(c *gin.Context) {
	if err := h.Users.SignOut(c.Request.Context(), h.claimsFromContext(c)); err != nil {
		h.fail(c, "signout", err)
		return
	}
	response.Message(c, "signed out successfully")
}

func (h *Handler) GetProfile(c *gin.Context) {
	user := h.GetUserFromContext(c)
	u, err := h.Users.Profile(c.Request.Context(), user.UserID)
	if err != nil {
		h.fail(c, "get_profile", err, zap.String("user_id", user.UserID.String()))
		return
	}
	response.OK(c, u)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req model.UpdateProfileReq
	if !h.bindJSON(c, &req, "update_profile") {
		return
	}

	user := h.GetUserFromContext(c)
	u, err := h.Users.UpdateProfile(c.Request.Context(), user.UserID, &req)
	if err != nil {
		h.fail(c, "update_profile", err, zap.String("user_id", user.UserID.String()))
		return
	}
	response.OK(c, u)
}

// DeleteProfile deletes the account and everything it owns
func (h *Handler) DeleteProfile(c *gin.Context) {
	user := h.GetUserFromContext(c)
	if err := h.Users.DeleteAccount(c.Request.Context(), user.UserID); err != nil {
		h.fail(c, "delete_profile", err, zap.String("user_id", user.UserID.String()))
		return
	}
	if claims := h.claimsFromContext(c); claims != nil {
		_ = h.Users.SignOut(c.Request.Context(), claims)
	}
	response.Message(c, "account deleted successfully")
}
