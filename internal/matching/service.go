package matching

import (
	"context"
	"fmt"

	"github.com/untibullet/review-reputation/internal/models"
	"go.uber.org/zap"
)

// Store часть хранилища активности, нужная для подбора ревьюеров
type Store interface {
	GetSubmission(ctx context.Context, submissionID string) (*models.CodeSubmission, error)
	ListEligibleReviewers(ctx context.Context, excludeUserID string) ([]models.User, error)
	CountActiveReviewAssignments(ctx context.Context, userIDs []string) (map[string]int, error)
	GetWorkload(ctx context.Context, userID string) (*models.Workload, error)
}

// Availability доступность ревьюера для новых назначений
type Availability struct {
	UserID    string          `json:"user_id"`
	Workload  models.Workload `json:"workload"`
	Active    int             `json:"active"`
	Available bool            `json:"available"`
}

type Service struct {
	store        Store
	defaultLimit int
	logger       *zap.Logger
}

// NewService создает сервис подбора ревьюеров
func NewService(store Store, defaultLimit int, logger *zap.Logger) *Service {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	return &Service{
		store:        store,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// DefaultLimit возвращает лимит, подставляемый вместо некорректного
func (s *Service) DefaultLimit() int {
	return s.defaultLimit
}

// Suggest подбирает ревьюеров для отправленного кода.
// Отсутствие кода - ошибка, а не пустой результат.
func (s *Service) Suggest(ctx context.Context, submissionID string, limit int) ([]models.Candidate, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}

	submission, err := s.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	users, err := s.store.ListEligibleReviewers(ctx, submission.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible reviewers: %w", err)
	}
	if len(users) == 0 {
		return []models.Candidate{}, nil
	}

	userIDs := make([]string, len(users))
	for i, u := range users {
		userIDs[i] = u.UserID
	}

	// Один запрос на весь пул, чтобы нагрузка бралась из одного снимка
	workloads, err := s.store.CountActiveReviewAssignments(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count active assignments: %w", err)
	}

	pool := make([]models.CandidateInput, len(users))
	for i, u := range users {
		pool[i] = models.CandidateInput{
			User:              u,
			ActiveAssignments: workloads[u.UserID],
		}
	}

	candidates := SuggestReviewers(*submission, pool, limit)

	s.logger.Debug("reviewers suggested",
		zap.String("submission_id", submissionID),
		zap.Int("pool_size", len(pool)),
		zap.Int("suggested", len(candidates)))

	return candidates, nil
}

// Availability возвращает нагрузку ревьюера и признак, можно ли ему назначать новые ревью
func (s *Service) Availability(ctx context.Context, userID string) (*Availability, error) {
	workload, err := s.store.GetWorkload(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workload: %w", err)
	}

	active := workload.Active()
	return &Availability{
		UserID:    userID,
		Workload:  *workload,
		Active:    active,
		Available: active < MaxActiveAssignments,
	}, nil
}
