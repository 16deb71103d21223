// models/models.go
package models

import "time"

// Level уровень репутации пользователя, всегда выводится из количества очков
type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelExpert       Level = "Expert"
	LevelMaster       Level = "Master"
)

// Пороги уровней, граница относится к старшему уровню
const (
	IntermediateThreshold = 100
	ExpertThreshold       = 500
	MasterThreshold       = 1000
)

// Reputation представляет агрегированную репутацию пользователя
type Reputation struct {
	Points          int   `json:"points" db:"reputation_points"`
	Level           Level `json:"level" db:"reputation_level"`
	ReviewsGiven    int   `json:"reviews_given" db:"reviews_given"`
	ReviewsReceived int   `json:"reviews_received" db:"reviews_received"`
	HelpfulVotes    int   `json:"helpful_votes" db:"helpful_votes"`
}

// Preferences настройки пользователя, влияющие на подбор ревьюеров
type Preferences struct {
	// nil означает "не задано" и трактуется как доступность для ревью
	AvailableForReview *bool    `json:"available_for_review,omitempty" db:"available_for_review"`
	Languages          []string `json:"languages" db:"languages"`
}

// IsAvailableForReview сообщает, не отключил ли пользователь прием ревью
func (p Preferences) IsAvailableForReview() bool {
	return p.AvailableForReview == nil || *p.AvailableForReview
}

// User представляет пользователя платформы
type User struct {
	UserID      string      `json:"user_id" db:"user_id"`
	Username    string      `json:"username" db:"username"`
	Skills      []string    `json:"skills" db:"skills"`
	Preferences Preferences `json:"preferences" db:"-"`
	IsActive    bool        `json:"is_active" db:"is_active"`
	Reputation  Reputation  `json:"reputation" db:"-"`
}

// Константы статусов отправленного кода
const (
	SubmissionOpen      = "open"
	SubmissionInReview  = "in-review"
	SubmissionCompleted = "completed"
	SubmissionClosed    = "closed"
)

// Константы статусов назначения ревьюера
const (
	AssignmentAssigned  = "assigned"
	AssignmentReviewing = "reviewing"
	AssignmentCompleted = "completed"
)

// SubmissionReviewer назначение ревьюера на отправленный код
type SubmissionReviewer struct {
	UserID     string    `json:"user_id" db:"user_id"`
	AssignedAt time.Time `json:"assigned_at" db:"assigned_at"`
	Status     string    `json:"status" db:"status"`
}

// CodeSubmission представляет код, отправленный на ревью
type CodeSubmission struct {
	SubmissionID string               `json:"submission_id" db:"submission_id"`
	AuthorID     string               `json:"author_id" db:"author_id"`
	Title        string               `json:"title" db:"title"`
	Language     string               `json:"language" db:"language"`
	Tags         []string             `json:"tags" db:"tags"`
	Visibility   string               `json:"visibility" db:"visibility"`
	Status       string               `json:"status" db:"status"`
	Views        int                  `json:"views" db:"views"`
	Reviewers    []SubmissionReviewer `json:"reviewers" db:"-"`
}

// Константы статусов ревью
const (
	ReviewDraft     = "draft"
	ReviewSubmitted = "submitted"
	ReviewRevised   = "revised"
)

// Константы важности построчного комментария
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Categories оценки ревью по категориям, каждая в диапазоне [1,5]
type Categories struct {
	CodeQuality     int `json:"code_quality" db:"code_quality"`
	Performance     int `json:"performance" db:"performance"`
	Security        int `json:"security" db:"security"`
	Maintainability int `json:"maintainability" db:"maintainability"`
	BestPractices   int `json:"best_practices" db:"best_practices"`
}

type LineComment struct {
	LineNumber int    `json:"line_number" db:"line_number"`
	Comment    string `json:"comment" db:"comment"`
	Severity   string `json:"severity" db:"severity"`
}

type Suggestion struct {
	Type        string `json:"type" db:"type"`
	Description string `json:"description" db:"description"`
	Priority    string `json:"priority" db:"priority"`
}

// Review представляет ревью отправленного кода
type Review struct {
	ReviewID        string        `json:"review_id" db:"review_id"`
	SubmissionID    string        `json:"submission_id" db:"submission_id"`
	ReviewerID      string        `json:"reviewer_id" db:"reviewer_id"`
	OverallFeedback string        `json:"overall_feedback" db:"overall_feedback"`
	Rating          int           `json:"rating" db:"rating"`
	Categories      Categories    `json:"categories" db:"-"`
	LineComments    []LineComment `json:"line_comments" db:"-"`
	Suggestions     []Suggestion  `json:"suggestions" db:"-"`
	TimeSpent       int           `json:"time_spent" db:"time_spent"`
	Status          string        `json:"status" db:"status"`
	HelpfulBy       []string      `json:"helpful_by" db:"-"`
	SubmittedAt     *time.Time    `json:"submitted_at,omitempty" db:"submitted_at"`
}

// Activity агрегированные счетчики активности пользователя для полного пересчета репутации
type Activity struct {
	SubmissionsCount   int `json:"submissions_count"`
	TotalViews         int `json:"total_views"`
	ReviewsGiven       int `json:"reviews_given"`
	ReviewHelpfulVotes int `json:"review_helpful_votes"`
	CommentsCount      int `json:"comments_count"`
	CommentLikes       int `json:"comment_likes"`
}

// Workload незавершенные обязательства ревьюера
type Workload struct {
	SubmittedReviews   int `json:"submitted_reviews"`
	DraftReviews       int `json:"draft_reviews"`
	PendingAssignments int `json:"pending_assignments"`
}

// Active возвращает число активных назначений: черновики ревью и назначения в статусе assigned
func (w Workload) Active() int {
	return w.DraftReviews + w.PendingAssignments
}

// CandidateInput кандидат в ревьюеры вместе со снимком его нагрузки
type CandidateInput struct {
	User              User
	ActiveAssignments int
}

// Candidate результат подбора ревьюера, вычисляется заново при каждом вызове
type Candidate struct {
	User          User    `json:"user"`
	SkillMatch    int     `json:"skill_match"`
	LanguageMatch int     `json:"language_match"`
	Workload      int     `json:"workload"`
	MatchScore    float64 `json:"match_score"`
}

// ReputationAction дискретное действие, начисляющее очки репутации
type ReputationAction string

const (
	ActionSubmissionCreated ReputationAction = "submission_created"
	ActionReviewGiven       ReputationAction = "review_given"
	ActionReviewReceived    ReputationAction = "review_received"
	ActionHelpfulVote       ReputationAction = "helpful_vote"
	ActionCommentCreated    ReputationAction = "comment_created"
)

// ReputationEvent событие начисления репутации, передается через очередь
type ReputationEvent struct {
	EventID    string           `json:"event_id"`
	UserID     string           `json:"user_id"`
	Action     ReputationAction `json:"action"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// LeaderboardEntry строка таблицы лидеров
type LeaderboardEntry struct {
	UserID     string     `json:"user_id" db:"user_id"`
	Username   string     `json:"username" db:"username"`
	Reputation Reputation `json:"reputation" db:"-"`
}

// SeverityBreakdown распределение построчных комментариев по важности
type SeverityBreakdown struct {
	Error   int `json:"error"`
	Warning int `json:"warning"`
	Info    int `json:"info"`
}

// CategoryAverages средние оценки по категориям
type CategoryAverages struct {
	CodeQuality     float64 `json:"code_quality"`
	Performance     float64 `json:"performance"`
	Security        float64 `json:"security"`
	Maintainability float64 `json:"maintainability"`
	BestPractices   float64 `json:"best_practices"`
}

// ReviewInsights сводка по отправленным ревью для автора кода
type ReviewInsights struct {
	TotalReviews      int               `json:"total_reviews"`
	AverageRating     float64           `json:"average_rating"`
	CategoryAverages  CategoryAverages  `json:"category_averages"`
	TotalLineComments int               `json:"total_line_comments"`
	SeverityBreakdown SeverityBreakdown `json:"severity_breakdown"`
	SuggestionTypes   map[string]int    `json:"suggestion_types"`
	TotalHelpfulVotes int               `json:"total_helpful_votes"`
}

// ActivityStats активность пользователя за последние PeriodDays дней
type ActivityStats struct {
	UserID       string             `json:"user_id"`
	PeriodDays   int                `json:"period"`
	Submissions  SubmissionActivity `json:"submissions"`
	Reviews      ReviewActivity     `json:"reviews"`
	Comments     CommentActivity    `json:"comments"`
	CalculatedAt time.Time          `json:"calculated_at"`
}

type SubmissionActivity struct {
	Count      int      `json:"count"`
	TotalViews int      `json:"total_views"`
	Languages  []string `json:"languages"`
}

// ReviewActivity учитывает только отправленные ревью
type ReviewActivity struct {
	Count         int     `json:"count"`
	AverageRating float64 `json:"average_rating"`
	TotalHelpful  int     `json:"total_helpful"`
}

type CommentActivity struct {
	Count      int `json:"count"`
	TotalLikes int `json:"total_likes"`
}
