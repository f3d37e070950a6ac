package sysconfig

import (
	"net/http"
	"time"

	"leaveflow/internal/shared/apperror"
	"leaveflow/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errUnknownKey = apperror.New(
	apperror.CodeInvalidInput,
	"unknown configuration key",
	http.StatusBadRequest,
)

type Handler struct {
	repo   Repository
	logger *zap.Logger
}

func NewHandler(repo Repository, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("sysconfig.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("sysconfig.handler")
	}
	return &Handler{repo: repo, logger: l}
}

func (h *Handler) List(c *gin.Context) {
	settings, err := h.repo.FindAll(c.Request.Context())
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}

	seen := make(map[string]bool, len(settings))
	resp := make([]SettingResponse, 0, len(defaults))
	for _, s := range settings {
		seen[s.Key] = true
		item := SettingResponse{
			Key:       s.Key,
			Value:     s.Value,
			UpdatedAt: s.UpdatedAt.Format(time.RFC3339),
		}
		if s.UpdatedBy != nil {
			item.UpdatedBy = *s.UpdatedBy
		}
		resp = append(resp, item)
	}
	// Surface unseeded keys at their documented defaults.
	for key, value := range defaults {
		if !seen[key] {
			resp = append(resp, SettingResponse{Key: key, Value: value})
		}
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Update(c *gin.Context) {
	key := c.Param("key")
	if _, known := defaults[key]; !known {
		httpErr := apperror.ToHTTP(errUnknownKey)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}

	var req UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpErr := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}

	if key == KeyMode && !Mode(req.Value).Valid() {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput,
			"ai_mode must be 'automatic' or 'normal'", nil)
		return
	}

	actorID := c.GetString("employee_id")
	setting := &Setting{
		Key:       key,
		Value:     req.Value,
		UpdatedAt: time.Now().UTC(),
		UpdatedBy: &actorID,
	}
	if err := h.repo.Upsert(c.Request.Context(), setting); err != nil {
		h.logger.Error("update config failed", zap.String("key", key), zap.Error(err))
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}

	h.logger.Info("config updated",
		zap.String("key", key),
		zap.String("value", req.Value),
		zap.String("actor_id", actorID),
	)
	response.Success(c, http.StatusOK, SettingResponse{
		Key:       key,
		Value:     req.Value,
		UpdatedAt: setting.UpdatedAt.Format(time.RFC3339),
		UpdatedBy: actorID,
	}, nil)
}
