package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/eqzhou81/CPEN-321-sub000/internal/apperr"
	"github.com/eqzhou81/CPEN-321-sub000/internal/auth"
	"github.com/eqzhou81/CPEN-321-sub000/internal/service"
	"github.com/eqzhou81/CPEN-321-sub000/pkg/model"
	"github.com/eqzhou81/CPEN-321-sub000/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	UserKey   = "user"
	ClaimsKey = "claims"
)

type Handler struct {
	Logger      *zap.Logger
	Users       *service.UserService
	Jobs        *service.JobService
	Questions   *service.QuestionService
	Sessions    *service.SessionService
	Discussions *service.DiscussionService
}

var registerOnce sync.Once

// RegisterValidators adds the custom binding rules used by pkg/model.
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterValidation("notblank", validateNotBlank)
			v.RegisterTagNameFunc(wireName)
		}
	})
}

// wireName reports fields by their JSON or query name.
func wireName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return ""
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// GetUserFromContext retrieves the current user from the gin context
func (h *Handler) GetUserFromContext(c *gin.Context) *model.User {
	contextUser, exists := c.Get(UserKey)
	if !exists {
		return &model.User{}
	}

	user, ok := contextUser.(*model.User)
	if !ok {
		return &model.User{}
	}

	return user
}

func (h *Handler) claimsFromContext(c *gin.Context) *auth.UserClaims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.UserClaims)
	return claims
}

// uuidParam reads a path parameter holding an id. On failure the response
// has been written.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.ValidationError(c, fmt.Sprintf("invalid %s format", name))
		return uuid.Nil, false
	}
	return id, true
}

// bindingMessage turns a binding failure into a client-facing message.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := lowerFirst(fe.Field())
		switch fe.Tag() {
		case "required", "notblank":
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", ")))
		case "uuid":
			msgs = append(msgs, field+" must be a valid id")
		case "url":
			msgs = append(msgs, field+" must be a valid URL")
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(msgs, "; ")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func (h *Handler) bindJSON(c *gin.Context, dst any, op string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.Logger.Debug(op+": bad request", zap.Error(err))
		response.ValidationError(c, bindingMessage(err))
		return false
	}
	return true
}

func (h *Handler) bindQuery(c *gin.Context, dst any, op string) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		h.Logger.Debug(op+": bad query", zap.Error(err))
		response.ValidationError(c, bindingMessage(err))
		return false
	}
	return true
}

// fail logs server-side failures and answers with the classified error.
func (h *Handler) fail(c *gin.Context, op string, err error, fields ...zap.Field) {
	if apperr.KindOf(err).Status() >= 500 {
		h.Logger.Error(op+": failed", append(fields, zap.Error(err))...)
	} else {
		h.Logger.Debug(op+": rejected", append(fields, zap.Error(err))...)
	}
	response.Error(c, err)
}
