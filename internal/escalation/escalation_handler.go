package escalation

import (
	"net/http"

	"leaveflow/internal/middleware"
	requesterrors "leaveflow/internal/request/errors"
	"leaveflow/internal/shared/apperror"
	"leaveflow/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	repo   Repository
	logger *zap.Logger
}

func NewHandler(repo Repository, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("escalation.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("escalation.handler")
	}
	return &Handler{repo: repo, logger: l}
}

func (h *Handler) ListByRequest(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpErr := apperror.ToHTTP(requesterrors.ErrInvalidRequestID)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	list, err := h.repo.ListByRequest(c.Request.Context(), requestID)
	if err != nil {
		h.logger.Error("list escalation history failed",
			zap.String("request_id", requestID.String()),
			zap.Error(err),
		)
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	response.Success(c, http.StatusOK, list, nil)
}

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	requests := r.Group("/leave-requests")
	requests.Use(middleware.AuthMiddleware())
	{
		requests.GET("/:id/escalations", handler.ListByRequest)
	}
}
