package reputation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/untibullet/review-reputation/internal/models"
	"github.com/untibullet/review-reputation/internal/repository"
	"go.uber.org/zap"
)

const (
	DefaultLeaderboardLimit = 10

	// Окно статистики активности в днях
	DefaultActivityPeriodDays = 30
	MaxActivityPeriodDays     = 3650
)

// Store часть хранилища активности, нужная для расчета репутации
type Store interface {
	GetUserActivity(ctx context.Context, userID string) (*models.Activity, error)
	IncrementUserReputation(ctx context.Context, userID string, delta int, counter string) (*models.User, error)
	SetUserReputation(ctx context.Context, userID string, points int, level models.Level) error
	GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	GetUserActivityStats(ctx context.Context, userID string, periodDays int) (*models.ActivityStats, error)
}

type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService создает сервис репутации
func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Recompute полностью пересчитывает репутацию пользователя по его активности.
// Для несуществующего пользователя возвращает (nil, nil).
func (s *Service) Recompute(ctx context.Context, userID string) (*models.Reputation, error) {
	activity, err := s.store.GetUserActivity(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Debug("reputation recompute skipped: user not found", zap.String("user_id", userID))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user activity: %w", err)
	}

	points, level := Compute(*activity)

	err = s.store.SetUserReputation(ctx, userID, points, level)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set user reputation: %w", err)
	}

	s.logger.Info("reputation recomputed",
		zap.String("user_id", userID),
		zap.Int("points", points),
		zap.String("level", string(level)))

	return &models.Reputation{
		Points: points,
		Level:  level,
	}, nil
}

// Apply начисляет очки за одно действие атомарным инкрементом в хранилище.
// Для несуществующего пользователя возвращает (nil, nil).
func (s *Service) Apply(ctx context.Context, userID string, action models.ReputationAction) (*models.Reputation, error) {
	delta, counter, ok := Delta(action)
	if !ok {
		return nil, fmt.Errorf("unknown reputation action %q: %w", action, repository.ErrInvalidInput)
	}

	user, err := s.store.IncrementUserReputation(ctx, userID, delta, string(counter))
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Debug("reputation update skipped: user not found",
			zap.String("user_id", userID),
			zap.String("action", string(action)))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to increment user reputation: %w", err)
	}
	if user == nil {
		return nil, nil
	}

	return &user.Reputation, nil
}

// Handle обрабатывает событие из очереди репутации
func (s *Service) Handle(ctx context.Context, event models.ReputationEvent) error {
	rep, err := s.Apply(ctx, event.UserID, event.Action)
	if err != nil {
		return err
	}
	if rep != nil {
		s.logger.Info("reputation event applied",
			zap.String("event_id", event.EventID),
			zap.String("user_id", event.UserID),
			zap.String("action", string(event.Action)),
			zap.Int("points", rep.Points),
			zap.String("level", string(rep.Level)))
	}
	return nil
}

// Leaderboard возвращает активных пользователей с наибольшей репутацией
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	return s.store.GetLeaderboard(ctx, limit)
}

// ActivityStats возвращает активность пользователя за последние periodDays дней.
// Непозитивный период заменяется на DefaultActivityPeriodDays.
func (s *Service) ActivityStats(ctx context.Context, userID string, periodDays int) (*models.ActivityStats, error) {
	if periodDays <= 0 {
		periodDays = DefaultActivityPeriodDays
	}
	if periodDays > MaxActivityPeriodDays {
		return nil, fmt.Errorf("activity period %d exceeds %d days: %w",
			periodDays, MaxActivityPeriodDays, repository.ErrInvalidInput)
	}

	stats, err := s.store.GetUserActivityStats(ctx, userID, periodDays)
	if err != nil {
		return nil, fmt.Errorf("failed to get user activity stats: %w", err)
	}
	if stats.Submissions.Languages == nil {
		stats.Submissions.Languages = []string{}
	}
	stats.CalculatedAt = time.Now().UTC()

	s.logger.Debug("user activity calculated",
		zap.String("user_id", userID),
		zap.Int("period_days", periodDays),
		zap.Int("submissions", stats.Submissions.Count),
		zap.Int("reviews", stats.Reviews.Count),
		zap.Int("comments", stats.Comments.Count))

	return stats, nil
}
