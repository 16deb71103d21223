package reputation

import "github.com/untibullet/review-reputation/internal/models"

// Веса полного пересчета
const (
	PointsPerSubmission  = 5
	PointsPerReviewGiven = 10
	PointsPerComment     = 1
	PointsPerHelpfulVote = 2
	PointsPerCommentLike = 1
	ViewsPerPoint        = 10
)

// Counter имя счетчика репутации, который увеличивается вместе с очками
type Counter string

const (
	CounterNone            Counter = ""
	CounterReviewsGiven    Counter = "reviews_given"
	CounterReviewsReceived Counter = "reviews_received"
	CounterHelpfulVotes    Counter = "helpful_votes"
)

// Compute вычисляет очки и уровень по агрегированной активности пользователя
func Compute(activity models.Activity) (int, models.Level) {
	points := activity.SubmissionsCount*PointsPerSubmission +
		activity.ReviewsGiven*PointsPerReviewGiven +
		activity.CommentsCount*PointsPerComment +
		activity.ReviewHelpfulVotes*PointsPerHelpfulVote +
		activity.CommentLikes*PointsPerCommentLike

	if activity.TotalViews > 0 {
		points += activity.TotalViews / ViewsPerPoint
	}
	if points < 0 {
		points = 0
	}

	return points, LevelFor(points)
}

// LevelFor выводит уровень из количества очков
func LevelFor(points int) models.Level {
	switch {
	case points >= models.MasterThreshold:
		return models.LevelMaster
	case points >= models.ExpertThreshold:
		return models.LevelExpert
	case points >= models.IntermediateThreshold:
		return models.LevelIntermediate
	default:
		return models.LevelBeginner
	}
}

// Delta возвращает прирост очков и счетчик для дискретного действия.
// ok == false для неизвестного действия.
func Delta(action models.ReputationAction) (points int, counter Counter, ok bool) {
	switch action {
	case models.ActionSubmissionCreated:
		return 5, CounterNone, true
	case models.ActionReviewGiven:
		return 10, CounterReviewsGiven, true
	case models.ActionReviewReceived:
		return 2, CounterReviewsReceived, true
	case models.ActionHelpfulVote:
		return 1, CounterHelpfulVotes, true
	case models.ActionCommentCreated:
		return 1, CounterNone, true
	default:
		return 0, CounterNone, false
	}
}

// Apply применяет прирост к репутации в памяти: очки не уходят ниже нуля, уровень пересчитывается
func Apply(rep models.Reputation, points int, counter Counter) models.Reputation {
	rep.Points += points
	if rep.Points < 0 {
		rep.Points = 0
	}

	switch counter {
	case CounterReviewsGiven:
		rep.ReviewsGiven++
	case CounterReviewsReceived:
		rep.ReviewsReceived++
	case CounterHelpfulVotes:
		rep.HelpfulVotes++
	}

	rep.Level = LevelFor(rep.Points)
	return rep
}
