package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/untibullet/review-reputation/internal/matching"
	"github.com/untibullet/review-reputation/internal/models"
	"github.com/untibullet/review-reputation/internal/repository"
	"github.com/untibullet/review-reputation/internal/reputation"
	"github.com/untibullet/review-reputation/internal/review"
	"go.uber.org/zap"
)

// Коды ошибок для API
const (
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeAlreadySubmitted = "ALREADY_SUBMITTED"
	ErrCodeSelfAction       = "SELF_ACTION"
	ErrCodeInconsistent     = "INCONSISTENT"
	ErrCodeInternal         = "INTERNAL"
)

type ReputationService interface {
	Recompute(ctx context.Context, userID string) (*models.Reputation, error)
	Apply(ctx context.Context, userID string, action models.ReputationAction) (*models.Reputation, error)
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	ActivityStats(ctx context.Context, userID string, periodDays int) (*models.ActivityStats, error)
}

type MatchingService interface {
	Suggest(ctx context.Context, submissionID string, limit int) ([]models.Candidate, error)
	Availability(ctx context.Context, userID string) (*matching.Availability, error)
}

type ReviewService interface {
	Quality(ctx context.Context, reviewID string) (*review.QualityResult, error)
	Insights(ctx context.Context, submissionID string) (*models.ReviewInsights, error)
	Submit(ctx context.Context, reviewID string) (*models.Review, error)
	MarkHelpful(ctx context.Context, reviewID, userID string) (bool, error)
}

// Limits лимиты по умолчанию для списков
type Limits struct {
	Suggest     int
	Leaderboard int
}

type Handler struct {
	reputation ReputationService
	matcher    MatchingService
	reviews    ReviewService
	limits     Limits
	logger     *zap.Logger
}

// New создает новый экземпляр обработчика
func New(reputationService ReputationService, matcher MatchingService, reviews ReviewService, limits Limits, logger *zap.Logger) *Handler {
	if limits.Suggest <= 0 {
		limits.Suggest = matching.DefaultLimit
	}
	if limits.Leaderboard <= 0 {
		limits.Leaderboard = reputation.DefaultLeaderboardLimit
	}
	return &Handler{
		reputation: reputationService,
		matcher:    matcher,
		reviews:    reviews,
		limits:     limits,
		logger:     logger,
	}
}

// ErrorResponse представляет структуру ошибки API
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// newErrorResponse создает стандартный ответ с ошибкой
func newErrorResponse(code, message string) ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	return resp
}

// respondError сопоставляет доменную ошибку со статусом и кодом API
func (h *Handler) respondError(c echo.Context, op string, err error, fields ...zap.Field) error {
	fields = append(fields, zap.Error(err))

	var status int
	var code, message string
	switch {
	case errors.Is(err, repository.ErrNotFound):
		status, code, message = http.StatusNotFound, ErrCodeNotFound, "resource not found"
	case errors.Is(err, repository.ErrInvalidInput):
		status, code, message = http.StatusBadRequest, ErrCodeInvalidInput, "invalid input"
	case errors.Is(err, repository.ErrAlreadyExists):
		status, code, message = http.StatusConflict, ErrCodeAlreadyExists, "resource already exists"
	case errors.Is(err, repository.ErrAlreadySubmitted):
		status, code, message = http.StatusConflict, ErrCodeAlreadySubmitted, "review already submitted"
	case errors.Is(err, repository.ErrSelfAction):
		status, code, message = http.StatusForbidden, ErrCodeSelfAction, "action on own review is not allowed"
	case errors.Is(err, repository.ErrInconsistent):
		status, code, message = http.StatusUnprocessableEntity, ErrCodeInconsistent, "inconsistent data"
	default:
		h.logger.Error(op+": внутренняя ошибка", fields...)
		return c.JSON(http.StatusInternalServerError, newErrorResponse(ErrCodeInternal, "internal error"))
	}

	h.logger.Warn(op+": "+message, fields...)
	return c.JSON(status, newErrorResponse(code, message))
}

// bindAndValidate разбирает тело запроса и проверяет его по тегам validate.
// При ok == false ответ с ошибкой уже записан.
func (h *Handler) bindAndValidate(c echo.Context, op string, req interface{}) (bool, error) {
	if err := c.Bind(req); err != nil {
		h.logger.Error(op+": ошибка парсинга тела запроса", zap.Error(err))
		return false, c.JSON(http.StatusBadRequest, newErrorResponse(ErrCodeInvalidInput, "invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		h.logger.Warn(op+": невалидный запрос", zap.Error(err))
		return false, c.JSON(http.StatusBadRequest, newErrorResponse(ErrCodeInvalidInput, err.Error()))
	}
	return true, nil
}

// SuggestReviewers подбирает ревьюеров для отправленного кода
func (h *Handler) SuggestReviewers(c echo.Context) error {
	submissionID := c.QueryParam("submission_id")
	limit := matching.ParseLimit(c.QueryParam("limit"), h.limits.Suggest)
	h.logger.Info("SuggestReviewers: подбор ревьюеров", zap.String("submission_id", submissionID), zap.Int("limit", limit))

	if submissionID == "" {
		h.logger.Warn("SuggestReviewers: параметр submission_id отсутствует")
		return c.JSON(http.StatusBadRequest, newErrorResponse(ErrCodeInvalidInput, "submission_id parameter is required"))
	}

	candidates, err := h.matcher.Suggest(c.Request().Context(), submissionID, limit)
	if err != nil {
		return h.respondError(c, "SuggestReviewers", err, zap.String("submission_id", submissionID))
	}

	h.logger.Info("SuggestReviewers: ревьюеры подобраны", zap.String("submission_id", submissionID), zap.Int("count", len(candidates)))
	return c.JSON(http.StatusOK, map[string]interface{}{
		"submission_id": submissionID,
		"reviewers":     candidates,
	})
}

// ReviewerAvailability возвращает нагрузку ревьюера
func (h *Handler) ReviewerAvailability(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		h.logger.Warn("ReviewerAvailability: параметр user_id отсутствует")
		return c.JSON(http.StatusBadRequest, newErrorResponse(ErrCodeInvalidInput, "user_id parameter is required"))
	}

	availability, err := h.matcher.Availability(c.Request().Context(), userID)
	if err != nil {
		return h.respondError(c, "ReviewerAvailability", err, zap.String("user_id", userID))
	}

	return c.JSON(http.StatusOK, availability)
}

// RecomputeReputation полностью пересчитывает репутацию пользователя
func (h *Handler) RecomputeReputation(c echo.Context) error {
	var req struct {
		UserID string `json:"user_id" validate:"required"`
	}
	if ok, err := h.bindAndValidate(c, "RecomputeReputation", &req); !ok {
		return err
	}

	rep, err := h.reputation.Recompute(c.Request().Context(), req.UserID)
	if err != nil {
		return h.respondError(c, "RecomputeReputation", err, zap.String("user_id", req.UserID))
	}

	h.logger.Info("RecomputeReputation: репутация пересчитана", zap.String("user_id", req.UserID), zap.Bool("updated", rep != nil))
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user_id":    req.UserID,
		"updated":    rep != nil,
		"reputation": rep,
	})
}

// ApplyReputationEvent начисляет очки за дискретное действие
func (h *Handler) ApplyReputationEvent(c echo.Context) error {
	var req struct {
		UserID string `json:"user_id" validate:"required"`
		Action string `json:"action" validate:"required,oneof=submission_created review_given review_received helpful_vote comment_created"`
	}
	if ok, err := h.bindAndValidate(c, "ApplyReputationEvent", &req); !ok {
		return err
	}

	rep, err := h.reputation.Apply(c.Request().Context(), req.UserID, models.ReputationAction(req.Action))
	if err != nil {
		return h.respondError(c, "ApplyReputationEvent", err, zap.String("user_id", req.UserID), zap.String("action", req.Action))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"user_id":    req.UserID,
		"updated":    rep != nil,
		"reputation": rep,
	})
}

// GetLeaderboard возвращает таблицу лидеров
func (h *Handler) GetLeaderboard(c echo.Context) error {
	limit := matching.ParseLimit(c.QueryParam("limit"), h.limits.Leaderboard)

	entries, err := h.reputation.Leaderboard(c.Request().Context(), limit)
	if err != nil {
		return h.respondError(c, "GetLeaderboard", err, zap.Int("limit", limit))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"users": entries})
}

// GetUserActivity возвращает статистику активности пользователя за период в днях
func (h *Handler) GetUserActivity(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		h.logger.Warn("GetUserActivity: параметр user_id отсутствует")
		return c.JSON(http.StatusBadRequest, newErrorResponse(ErrCodeInvalidInput, "user_id parameter is required"))
	}
	period := matching.ParseLimit(c.QueryParam("period"), reputation.DefaultActivityPeriodDays)

	stats, err := h.reputation.ActivityStats(c.Request().Context(), userID, period)
	if err != nil {
		return h.respondError(c, "GetUserActivity", err, zap.String("user_id", userID), zap.Int("period", period))
	}

	return c.JSON(http.StatusOK, stats)
}

// GetReviewQuality считает оценку качества ревью
func (h *Handler) GetReviewQuality(c echo.Context) error {
	reviewID := c.QueryParam("review_id")
	if reviewID == "" {
		h.logger.Warn("GetReviewQuality: параметр review_id отсутствует")
		return c.JSON(http.StatusBadRequest, newErrorResponse(ErrCodeInvalidInput, "review_id parameter is required"))
	}

	result, err := h.reviews.Quality(c.Request().Context(), reviewID)
	if err != nil {
		return h.respondError(c, "GetReviewQuality", err, zap.String("review_id", reviewID))
	}

	return c.JSON(http.StatusOK, result)
}

// GetReviewInsights возвращает сводку по отправленным ревью кода
func (h *Handler) GetReviewInsights(c echo.Context) error {
	submissionID := c.QueryParam("submission_id")
	if submissionID == "" {
		h.logger.Warn("GetReviewInsights: параметр submission_id отсутствует")
		return c.JSON(http.StatusBadRequest, newErrorResponse(ErrCodeInvalidInput, "submission_id parameter is required"))
	}

	insights, err := h.reviews.Insights(c.Request().Context(), submissionID)
	if err != nil {
		return h.respondError(c, "GetReviewInsights", err, zap.String("submission_id", submissionID))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"submission_id": submissionID,
		"insights":      insights,
	})
}

// SubmitReview отправляет черновик ревью
func (h *Handler) SubmitReview(c echo.Context) error {
	var req struct {
		ReviewID string `json:"review_id" validate:"required"`
	}
	if ok, err := h.bindAndValidate(c, "SubmitReview", &req); !ok {
		return err
	}

	r, err := h.reviews.Submit(c.Request().Context(), req.ReviewID)
	if err != nil {
		return h.respondError(c, "SubmitReview", err, zap.String("review_id", req.ReviewID))
	}

	h.logger.Info("SubmitReview: ревью отправлено", zap.String("review_id", req.ReviewID))
	return c.JSON(http.StatusOK, map[string]interface{}{"review": r})
}

// MarkHelpful отмечает ревью как полезное
func (h *Handler) MarkHelpful(c echo.Context) error {
	var req struct {
		ReviewID string `json:"review_id" validate:"required"`
		UserID   string `json:"user_id" validate:"required"`
	}
	if ok, err := h.bindAndValidate(c, "MarkHelpful", &req); !ok {
		return err
	}

	added, err := h.reviews.MarkHelpful(c.Request().Context(), req.ReviewID, req.UserID)
	if err != nil {
		return h.respondError(c, "MarkHelpful", err, zap.String("review_id", req.ReviewID), zap.String("user_id", req.UserID))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"review_id": req.ReviewID,
		"added":     added,
	})
}

// RegisterRoutes регистрирует все маршруты API
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	if e.Validator == nil {
		e.Validator = NewValidator()
	}

	// Reviewers
	e.GET("/reviewers/suggest", h.SuggestReviewers)
	e.GET("/reviewers/availability", h.ReviewerAvailability)

	// Reputation
	e.POST("/reputation/recompute", h.RecomputeReputation)
	e.POST("/reputation/event", h.ApplyReputationEvent)
	e.GET("/users/leaderboard", h.GetLeaderboard)
	e.GET("/users/activity", h.GetUserActivity)

	// Reviews
	e.GET("/reviews/quality", h.GetReviewQuality)
	e.GET("/reviews/insights", h.GetReviewInsights)
	e.POST("/reviews/submit", h.SubmitReview)
	e.POST("/reviews/helpful", h.MarkHelpful)
}
