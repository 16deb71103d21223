package review

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/untibullet/review-reputation/internal/models"
)

func makeReview(feedbackLen, comments, suggestions, minutes, helpful int) models.Review {
	r := models.Review{
		OverallFeedback: strings.Repeat("a", feedbackLen),
		LineComments:    make([]models.LineComment, comments),
		Suggestions:     make([]models.Suggestion, suggestions),
		TimeSpent:       minutes,
	}
	for i := 0; i < helpful; i++ {
		r.HelpfulBy = append(r.HelpfulBy, "u")
	}
	return r
}

func TestScore(t *testing.T) {
	tests := []struct {
		name   string
		review models.Review
		want   int
	}{
		{"thorough review", makeReview(150, 3, 1, 40, 2), 39},
		{"empty review", models.Review{}, 2},
		{"feedback of 50 chars", makeReview(50, 0, 0, 0, 0), 2},
		{"feedback of 51 chars", makeReview(51, 0, 0, 0, 0), 5},
		{"feedback of 100 chars", makeReview(100, 0, 0, 0, 0), 5},
		{"feedback of 101 chars", makeReview(101, 0, 0, 0, 0), 10},
		{"15 minutes", makeReview(0, 0, 0, 15, 0), 2},
		{"16 minutes", makeReview(0, 0, 0, 16, 0), 7},
		{"30 minutes", makeReview(0, 0, 0, 30, 0), 7},
		{"31 minutes", makeReview(0, 0, 0, 31, 0), 12},
		{"line comments capped", makeReview(0, 50, 0, 0, 0), 22},
		{"suggestions capped", makeReview(0, 0, 9, 0, 0), 17},
		{"helpful capped", makeReview(0, 0, 0, 0, 12), 27},
		{"everything maxed", makeReview(500, 100, 100, 600, 100), 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.review))
		})
	}
}

func TestScore_CountsCharactersNotBytes(t *testing.T) {
	r := models.Review{OverallFeedback: strings.Repeat("ж", 60)}
	assert.Equal(t, 5, Score(r))
}

func TestScore_Pure(t *testing.T) {
	r := makeReview(120, 4, 2, 20, 1)
	first := Score(r)

	assert.Equal(t, first, Score(r))
	assert.GreaterOrEqual(t, first, 0)
	assert.LessOrEqual(t, first, MaxQualityScore)
	assert.Len(t, r.LineComments, 4)
}
