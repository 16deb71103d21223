package review

import (
	"context"
	"fmt"

	"github.com/untibullet/review-reputation/internal/events"
	"github.com/untibullet/review-reputation/internal/models"
	"github.com/untibullet/review-reputation/internal/repository"
	"go.uber.org/zap"
)

// Store часть хранилища активности, нужная для работы с ревью
type Store interface {
	GetReview(ctx context.Context, reviewID string) (*models.Review, error)
	ListSubmittedReviews(ctx context.Context, submissionID string) ([]models.Review, error)
	SubmitReview(ctx context.Context, reviewID string) (*models.Review, string, error)
	AddHelpfulVote(ctx context.Context, reviewID, userID string) (bool, error)
}

// QualityResult оценка качества ревью
type QualityResult struct {
	ReviewID string `json:"review_id"`
	Score    int    `json:"score"`
}

type Service struct {
	store      Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewService создает сервис ревью
func NewService(store Store, dispatcher events.Dispatcher, logger *zap.Logger) *Service {
	return &Service{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Quality загружает ревью и считает его оценку качества
func (s *Service) Quality(ctx context.Context, reviewID string) (*QualityResult, error) {
	r, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &QualityResult{ReviewID: r.ReviewID, Score: Score(*r)}, nil
}

// Insights возвращает сводку по отправленным ревью кода, nil если ревью еще нет
func (s *Service) Insights(ctx context.Context, submissionID string) (*models.ReviewInsights, error) {
	reviews, err := s.store.ListSubmittedReviews(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submitted reviews: %w", err)
	}
	return Insights(reviews), nil
}

// Submit переводит черновик ревью в статус submitted и начисляет репутацию ревьюеру и автору.
// Повторная отправка возвращает repository.ErrAlreadySubmitted и ничего не начисляет.
func (s *Service) Submit(ctx context.Context, reviewID string) (*models.Review, error) {
	r, authorID, err := s.store.SubmitReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	events.DispatchBestEffort(ctx, s.dispatcher, s.logger,
		events.NewEvent(r.ReviewerID, models.ActionReviewGiven),
		events.NewEvent(authorID, models.ActionReviewReceived),
	)

	s.logger.Info("review submitted",
		zap.String("review_id", reviewID),
		zap.String("reviewer_id", r.ReviewerID),
		zap.String("author_id", authorID))

	return r, nil
}

// MarkHelpful отмечает ревью как полезное от имени userID.
// Отметить свое ревью нельзя; повторная отметка ничего не меняет.
func (s *Service) MarkHelpful(ctx context.Context, reviewID, userID string) (bool, error) {
	r, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return false, fmt.Errorf("failed to get review: %w", err)
	}
	if r.ReviewerID == userID {
		return false, repository.ErrSelfAction
	}

	added, err := s.store.AddHelpfulVote(ctx, reviewID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to add helpful vote: %w", err)
	}
	if !added {
		return false, nil
	}

	events.DispatchBestEffort(ctx, s.dispatcher, s.logger,
		events.NewEvent(r.ReviewerID, models.ActionHelpfulVote))

	return true, nil
}
