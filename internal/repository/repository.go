// repository/repository.go
package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/untibullet/review-reputation/internal/models"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("resource already exists")
	ErrInvalidInput     = errors.New("invalid input")
	ErrAlreadySubmitted = errors.New("review already submitted")
	ErrSelfAction       = errors.New("action on own resource is not allowed")
	ErrInconsistent     = errors.New("inconsistent data")
)

//go:embed schema.sql
var schema string

// Колонки счетчиков, которые можно увеличивать вместе с очками репутации
var reputationCounters = map[string]string{
	"reviews_given":    "reviews_given",
	"reviews_received": "reviews_received",
	"helpful_votes":    "helpful_votes",
}

const userColumns = `id, username, skills, languages, available_for_review, is_active,
	reputation_points, reputation_level, reviews_given, reviews_received, helpful_votes`

type Repository struct {
	pool *pgxpool.Pool
	sb   squirrel.StatementBuilderType
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{
		pool: pool,
		sb:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Migrate создает таблицы, если их еще нет
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var level string
	err := row.Scan(
		&user.UserID, &user.Username, &user.Skills, &user.Preferences.Languages,
		&user.Preferences.AvailableForReview, &user.IsActive,
		&user.Reputation.Points, &level, &user.Reputation.ReviewsGiven,
		&user.Reputation.ReviewsReceived, &user.Reputation.HelpfulVotes,
	)
	if err != nil {
		return nil, err
	}
	user.Reputation.Level = models.Level(level)
	return &user, nil
}

// GetUser получает пользователя по ID
func (r *Repository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserActivity собирает агрегаты активности пользователя одним запросом
func (r *Repository) GetUserActivity(ctx context.Context, userID string) (*models.Activity, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM submissions s WHERE s.author_id = u.id),
			(SELECT COALESCE(SUM(s.views), 0) FROM submissions s WHERE s.author_id = u.id),
			(SELECT COUNT(*) FROM reviews rv WHERE rv.reviewer_id = u.id AND rv.status = $2),
			(SELECT COUNT(*) FROM review_helpful h JOIN reviews rv ON rv.id = h.review_id WHERE rv.reviewer_id = u.id),
			(SELECT COUNT(*) FROM comments c WHERE c.author_id = u.id),
			(SELECT COUNT(*) FROM comment_likes l JOIN comments c ON c.id = l.comment_id WHERE c.author_id = u.id)
		FROM users u
		WHERE u.id = $1
	`

	var a models.Activity
	err := r.pool.QueryRow(ctx, query, userID, models.ReviewSubmitted).Scan(
		&a.SubmissionsCount, &a.TotalViews, &a.ReviewsGiven,
		&a.ReviewHelpfulVotes, &a.CommentsCount, &a.CommentLikes,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user activity: %w", err)
	}
	return &a, nil
}

// activitySince условие окна активности по колонке времени
func activitySince(column string, periodDays int) squirrel.Sqlizer {
	return squirrel.Expr(column+" >= NOW() - make_interval(days => ?)", periodDays)
}

// GetUserActivityStats собирает активность пользователя за последние periodDays дней.
// Все запросы читают один снимок базы.
func (r *Repository) GetUserActivityStats(ctx context.Context, userID string, periodDays int) (*models.ActivityStats, error) {
	if periodDays <= 0 {
		return nil, ErrInvalidInput
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	stats := &models.ActivityStats{UserID: userID, PeriodDays: periodDays}

	submissionsQuery, args, err := r.sb.Select(
		"COUNT(*)",
		"COALESCE(SUM(views), 0)",
		"COALESCE(array_agg(DISTINCT language ORDER BY language), '{}')",
	).
		From("submissions").
		Where(squirrel.Eq{"author_id": userID}).
		Where(activitySince("created_at", periodDays)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build submissions activity query: %w", err)
	}
	err = tx.QueryRow(ctx, submissionsQuery, args...).Scan(
		&stats.Submissions.Count, &stats.Submissions.TotalViews, &stats.Submissions.Languages,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get submissions activity: %w", err)
	}

	reviewsQuery, args, err := r.sb.Select(
		"COUNT(*)",
		"COALESCE(AVG(rv.rating), 0)::float8",
		"COALESCE(SUM(hv.votes), 0)::bigint",
	).
		From("reviews rv").
		LeftJoin("(SELECT review_id, COUNT(*) AS votes FROM review_helpful GROUP BY review_id) hv ON hv.review_id = rv.id").
		Where(squirrel.Eq{"rv.reviewer_id": userID, "rv.status": models.ReviewSubmitted}).
		Where(activitySince("rv.submitted_at", periodDays)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build reviews activity query: %w", err)
	}
	err = tx.QueryRow(ctx, reviewsQuery, args...).Scan(
		&stats.Reviews.Count, &stats.Reviews.AverageRating, &stats.Reviews.TotalHelpful,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews activity: %w", err)
	}

	commentsQuery, args, err := r.sb.Select(
		"COUNT(*)",
		"COALESCE(SUM(lk.likes), 0)::bigint",
	).
		From("comments c").
		LeftJoin("(SELECT comment_id, COUNT(*) AS likes FROM comment_likes GROUP BY comment_id) lk ON lk.comment_id = c.id").
		Where(squirrel.Eq{"c.author_id": userID}).
		Where(activitySince("c.created_at", periodDays)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build comments activity query: %w", err)
	}
	err = tx.QueryRow(ctx, commentsQuery, args...).Scan(&stats.Comments.Count, &stats.Comments.TotalLikes)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments activity: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return stats, nil
}

// IncrementUserReputation атомарно прибавляет delta к очкам (не ниже нуля),
// пересчитывает уровень и при необходимости увеличивает счетчик. Все в одном UPDATE.
func (r *Repository) IncrementUserReputation(ctx context.Context, userID string, delta int, counter string) (*models.User, error) {
	counters := map[string]int{}
	if counter != "" {
		column, ok := reputationCounters[counter]
		if !ok {
			return nil, fmt.Errorf("unknown reputation counter %q: %w", counter, ErrInvalidInput)
		}
		counters[column] = 1
	}

	query := `
		UPDATE users SET
			reputation_points = GREATEST(reputation_points + $2, 0),
			reputation_level = CASE
				WHEN GREATEST(reputation_points + $2, 0) >= $3 THEN $6
				WHEN GREATEST(reputation_points + $2, 0) >= $4 THEN $7
				WHEN GREATEST(reputation_points + $2, 0) >= $5 THEN $8
				ELSE $9
			END,
			reviews_given = reviews_given + $10,
			reviews_received = reviews_received + $11,
			helpful_votes = helpful_votes + $12,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	row := r.pool.QueryRow(ctx, query,
		userID, delta,
		models.MasterThreshold, models.ExpertThreshold, models.IntermediateThreshold,
		string(models.LevelMaster), string(models.LevelExpert),
		string(models.LevelIntermediate), string(models.LevelBeginner),
		counters["reviews_given"], counters["reviews_received"], counters["helpful_votes"],
	)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to increment user reputation: %w", err)
	}
	return user, nil
}

// SetUserReputation перезаписывает очки и уровень после полного пересчета
func (r *Repository) SetUserReputation(ctx context.Context, userID string, points int, level models.Level) error {
	if points < 0 {
		return ErrInvalidInput
	}

	query := `UPDATE users SET reputation_points = $1, reputation_level = $2, updated_at = NOW() WHERE id = $3`
	tag, err := r.pool.Exec(ctx, query, points, string(level), userID)
	if err != nil {
		return fmt.Errorf("failed to set user reputation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListEligibleReviewers возвращает активных пользователей, готовых ревьюить, кроме excludeUserID
func (r *Repository) ListEligibleReviewers(ctx context.Context, excludeUserID string) ([]models.User, error) {
	query, args, err := r.sb.Select(userColumns).
		From("users").
		Where(squirrel.Eq{"is_active": true}).
		Where(squirrel.NotEq{"id": excludeUserID}).
		Where("available_for_review IS DISTINCT FROM FALSE").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build eligible reviewers query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible reviewers: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reviewer: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviewers: %w", err)
	}

	return users, nil
}

// CountActiveReviewAssignments считает активные назначения (черновики ревью и назначения
// в статусе assigned) сразу для всех пользователей одним запросом
func (r *Repository) CountActiveReviewAssignments(ctx context.Context, userIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(userIDs))
	if len(userIDs) == 0 {
		return counts, nil
	}

	query, args, err := r.sb.Select(
		"u.id",
		"(SELECT COUNT(*) FROM reviews rv WHERE rv.reviewer_id = u.id AND rv.status = '"+models.ReviewDraft+"')"+
			" + (SELECT COUNT(*) FROM submission_reviewers sr WHERE sr.user_id = u.id AND sr.status = '"+models.AssignmentAssigned+"')",
	).
		From("users u").
		Where(squirrel.Eq{"u.id": userIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build workload query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count active assignments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		var count int
		if err := rows.Scan(&userID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan workload: %w", err)
		}
		counts[userID] = count
	}

	return counts, rows.Err()
}

// GetWorkload возвращает подробную нагрузку ревьюера
func (r *Repository) GetWorkload(ctx context.Context, userID string) (*models.Workload, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM reviews rv WHERE rv.reviewer_id = u.id AND rv.status = $2),
			(SELECT COUNT(*) FROM reviews rv WHERE rv.reviewer_id = u.id AND rv.status = $3),
			(SELECT COUNT(*) FROM submission_reviewers sr WHERE sr.user_id = u.id AND sr.status = $4)
		FROM users u
		WHERE u.id = $1
	`

	var w models.Workload
	err := r.pool.QueryRow(ctx, query, userID,
		models.ReviewSubmitted, models.ReviewDraft, models.AssignmentAssigned,
	).Scan(&w.SubmittedReviews, &w.DraftReviews, &w.PendingAssignments)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workload: %w", err)
	}
	return &w, nil
}

// GetSubmission получает отправленный код вместе с назначенными ревьюерами
func (r *Repository) GetSubmission(ctx context.Context, submissionID string) (*models.CodeSubmission, error) {
	query := `
		SELECT id, author_id, title, language, tags, visibility, status, views
		FROM submissions
		WHERE id = $1
	`

	var s models.CodeSubmission
	err := r.pool.QueryRow(ctx, query, submissionID).Scan(
		&s.SubmissionID, &s.AuthorID, &s.Title, &s.Language, &s.Tags, &s.Visibility, &s.Status, &s.Views,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT user_id, assigned_at, status FROM submission_reviewers WHERE submission_id = $1 ORDER BY assigned_at, user_id`,
		submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get submission reviewers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sr models.SubmissionReviewer
		if err := rows.Scan(&sr.UserID, &sr.AssignedAt, &sr.Status); err != nil {
			return nil, fmt.Errorf("failed to scan submission reviewer: %w", err)
		}
		s.Reviewers = append(s.Reviewers, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submission reviewers: %w", err)
	}

	return &s, nil
}

const reviewColumns = `id, submission_id, reviewer_id, overall_feedback, rating,
	code_quality, performance, security, maintainability, best_practices,
	time_spent, status, submitted_at`

func scanReview(row rowScanner) (*models.Review, error) {
	var rv models.Review
	err := row.Scan(
		&rv.ReviewID, &rv.SubmissionID, &rv.ReviewerID, &rv.OverallFeedback, &rv.Rating,
		&rv.Categories.CodeQuality, &rv.Categories.Performance, &rv.Categories.Security,
		&rv.Categories.Maintainability, &rv.Categories.BestPractices,
		&rv.TimeSpent, &rv.Status, &rv.SubmittedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

// GetReview получает ревью со всеми построчными комментариями, предложениями и отметками полезности
func (r *Repository) GetReview(ctx context.Context, reviewID string) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	rv, err := scanReview(r.pool.QueryRow(ctx, query, reviewID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	reviews := []*models.Review{rv}
	if err := r.loadReviewDetails(ctx, reviews); err != nil {
		return nil, err
	}
	return rv, nil
}

// ListSubmittedReviews получает все отправленные ревью кода
func (r *Repository) ListSubmittedReviews(ctx context.Context, submissionID string) ([]models.Review, error) {
	query, args, err := r.sb.Select(reviewColumns).
		From("reviews").
		Where(squirrel.Eq{"submission_id": submissionID, "status": models.ReviewSubmitted}).
		OrderBy("submitted_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build submitted reviews query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list submitted reviews: %w", err)
	}

	var reviews []*models.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews: %w", err)
	}

	if err := r.loadReviewDetails(ctx, reviews); err != nil {
		return nil, err
	}

	result := make([]models.Review, len(reviews))
	for i, rv := range reviews {
		result[i] = *rv
	}
	return result, nil
}

// loadReviewDetails дозагружает вложенные списки для набора ревью тремя запросами
func (r *Repository) loadReviewDetails(ctx context.Context, reviews []*models.Review) error {
	if len(reviews) == 0 {
		return nil
	}

	byID := make(map[string]*models.Review, len(reviews))
	ids := make([]string, len(reviews))
	for i, rv := range reviews {
		byID[rv.ReviewID] = rv
		ids[i] = rv.ReviewID
		rv.LineComments = []models.LineComment{}
		rv.Suggestions = []models.Suggestion{}
		rv.HelpfulBy = []string{}
	}

	rows, err := r.pool.Query(ctx, `
		SELECT review_id, line_number, comment, severity
		FROM review_line_comments
		WHERE review_id = ANY($1)
		ORDER BY review_id, position
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to get line comments: %w", err)
	}
	for rows.Next() {
		var reviewID string
		var c models.LineComment
		if err := rows.Scan(&reviewID, &c.LineNumber, &c.Comment, &c.Severity); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan line comment: %w", err)
		}
		byID[reviewID].LineComments = append(byID[reviewID].LineComments, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate line comments: %w", err)
	}

	rows, err = r.pool.Query(ctx, `
		SELECT review_id, type, description, priority
		FROM review_suggestions
		WHERE review_id = ANY($1)
		ORDER BY review_id, position
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to get suggestions: %w", err)
	}
	for rows.Next() {
		var reviewID string
		var s models.Suggestion
		if err := rows.Scan(&reviewID, &s.Type, &s.Description, &s.Priority); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan suggestion: %w", err)
		}
		byID[reviewID].Suggestions = append(byID[reviewID].Suggestions, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate suggestions: %w", err)
	}

	rows, err = r.pool.Query(ctx, `
		SELECT review_id, user_id
		FROM review_helpful
		WHERE review_id = ANY($1)
		ORDER BY review_id, created_at, user_id
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to get helpful votes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var reviewID, userID string
		if err := rows.Scan(&reviewID, &userID); err != nil {
			return fmt.Errorf("failed to scan helpful vote: %w", err)
		}
		byID[reviewID].HelpfulBy = append(byID[reviewID].HelpfulBy, userID)
	}

	return rows.Err()
}

// SubmitReview переводит черновик в submitted ровно один раз, отмечает назначение ревьюера
// выполненным и закрывает код, если все назначенные ревьюеры закончили.
// Возвращает ревью и ID автора кода.
func (r *Repository) SubmitReview(ctx context.Context, reviewID string) (*models.Review, string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var submissionID, reviewerID, authorID string
	var submittedAt time.Time
	updateQuery := `
		UPDATE reviews rv
		SET status = $2, submitted_at = NOW()
		FROM submissions s
		WHERE rv.id = $1 AND rv.status = $3 AND s.id = rv.submission_id
		RETURNING rv.submission_id, rv.reviewer_id, s.author_id, rv.submitted_at
	`
	err = tx.QueryRow(ctx, updateQuery, reviewID, models.ReviewSubmitted, models.ReviewDraft).
		Scan(&submissionID, &reviewerID, &authorID, &submittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Либо ревью нет, либо оно уже не черновик
		var status string
		statusErr := tx.QueryRow(ctx, `SELECT status FROM reviews WHERE id = $1`, reviewID).Scan(&status)
		if errors.Is(statusErr, pgx.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		if statusErr != nil {
			return nil, "", fmt.Errorf("failed to check review status: %w", statusErr)
		}
		return nil, "", ErrAlreadySubmitted
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to submit review: %w", err)
	}
	if reviewerID == authorID {
		return nil, "", ErrInconsistent
	}

	_, err = tx.Exec(ctx,
		`UPDATE submission_reviewers SET status = $3 WHERE submission_id = $1 AND user_id = $2`,
		submissionID, reviewerID, models.AssignmentCompleted)
	if err != nil {
		return nil, "", fmt.Errorf("failed to complete reviewer assignment: %w", err)
	}

	completeQuery := `
		UPDATE submissions SET status = $2, completed_at = NOW()
		WHERE id = $1
		  AND EXISTS (SELECT 1 FROM submission_reviewers WHERE submission_id = $1)
		  AND NOT EXISTS (SELECT 1 FROM submission_reviewers WHERE submission_id = $1 AND status <> $3)
	`
	_, err = tx.Exec(ctx, completeQuery, submissionID, models.SubmissionCompleted, models.AssignmentCompleted)
	if err != nil {
		return nil, "", fmt.Errorf("failed to complete submission: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	rv, err := r.GetReview(ctx, reviewID)
	if err != nil {
		return nil, "", err
	}
	return rv, authorID, nil
}

// AddHelpfulVote добавляет отметку полезности. Возвращает false, если отметка уже была.
func (r *Repository) AddHelpfulVote(ctx context.Context, reviewID, userID string) (bool, error) {
	query := `
		INSERT INTO review_helpful (review_id, user_id) VALUES ($1, $2)
		ON CONFLICT (review_id, user_id) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, query, reviewID, userID)
	if err != nil {
		if isForeignKeyError(err) {
			return false, ErrNotFound
		}
		if isDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to add helpful vote: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetLeaderboard возвращает активных пользователей по убыванию очков репутации
func (r *Repository) GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		return nil, ErrInvalidInput
	}

	query, args, err := r.sb.Select(userColumns).
		From("users").
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("reputation_points DESC", "id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build leaderboard query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]models.LeaderboardEntry, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, models.LeaderboardEntry{
			UserID:     user.UserID,
			Username:   user.Username,
			Reputation: user.Reputation,
		})
	}

	return entries, rows.Err()
}
