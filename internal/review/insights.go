package review

import (
	"math"

	"github.com/untibullet/review-reputation/internal/models"
)

// Insights собирает сводку по отправленным ревью. Для пустого списка возвращает nil.
func Insights(reviews []models.Review) *models.ReviewInsights {
	if len(reviews) == 0 {
		return nil
	}

	insights := &models.ReviewInsights{
		TotalReviews:    len(reviews),
		SuggestionTypes: make(map[string]int),
	}

	var ratingSum int
	var sums models.CategoryAverages
	for _, r := range reviews {
		ratingSum += r.Rating

		sums.CodeQuality += float64(r.Categories.CodeQuality)
		sums.Performance += float64(r.Categories.Performance)
		sums.Security += float64(r.Categories.Security)
		sums.Maintainability += float64(r.Categories.Maintainability)
		sums.BestPractices += float64(r.Categories.BestPractices)

		for _, s := range r.Suggestions {
			insights.SuggestionTypes[s.Type]++
		}

		insights.TotalLineComments += len(r.LineComments)
		for _, c := range r.LineComments {
			switch c.Severity {
			case models.SeverityError:
				insights.SeverityBreakdown.Error++
			case models.SeverityWarning:
				insights.SeverityBreakdown.Warning++
			case models.SeverityInfo:
				insights.SeverityBreakdown.Info++
			}
		}

		insights.TotalHelpfulVotes += len(r.HelpfulBy)
	}

	n := float64(len(reviews))
	insights.AverageRating = math.Round(float64(ratingSum)/n*10) / 10
	insights.CategoryAverages = models.CategoryAverages{
		CodeQuality:     sums.CodeQuality / n,
		Performance:     sums.Performance / n,
		Security:        sums.Security / n,
		Maintainability: sums.Maintainability / n,
		BestPractices:   sums.BestPractices / n,
	}

	return insights
}
