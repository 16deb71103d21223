package review

import (
	"unicode/utf8"

	"github.com/untibullet/review-reputation/internal/models"
)

const MaxQualityScore = 100

// Score оценивает основательность ревью по его содержимому, результат в [0,100]
func Score(r models.Review) int {
	score := lengthBucket(utf8.RuneCountInString(r.OverallFeedback))
	score += min(len(r.LineComments)*2, 20)
	score += min(len(r.Suggestions)*3, 15)
	score += timeBucket(r.TimeSpent)
	score += min(len(r.HelpfulBy)*5, 25)

	return max(0, min(score, MaxQualityScore))
}

func lengthBucket(n int) int {
	switch {
	case n > 100:
		return 10
	case n > 50:
		return 5
	default:
		return 2
	}
}

// timeBucket принимает время в минутах
func timeBucket(minutes int) int {
	switch {
	case minutes > 30:
		return 10
	case minutes > 15:
		return 5
	default:
		return 0
	}
}
