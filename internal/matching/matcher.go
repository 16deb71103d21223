package matching

import (
	"sort"
	"strconv"
	"strings"

	"github.com/untibullet/review-reputation/internal/models"
)

const (
	DefaultLimit = 5
	// MaxActiveAssignments кандидаты с таким числом активных назначений и больше исключаются
	MaxActiveAssignments = 5

	// Оценка считается в сотых долях целыми числами, чтобы равные оценки сравнивались точно
	scoreScale     = 100
	skillWeight    = 3 * scoreScale
	languageWeight = 5 * scoreScale
	pointsWeight   = 1  // points / 100
	reviewsWeight  = 10 // reviewsGiven * 0.1
)

// ParseLimit разбирает лимит из строки запроса; нечисловое или неположительное значение дает def
func ParseLimit(raw string, def int) int {
	if def <= 0 {
		def = DefaultLimit
	}
	limit, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || limit <= 0 {
		return def
	}
	return limit
}

// Eligible проверяет, может ли пользователь ревьюить отправленный код
func Eligible(in models.CandidateInput, authorID string) bool {
	return in.User.IsActive &&
		in.User.UserID != authorID &&
		in.User.Preferences.IsAvailableForReview() &&
		in.ActiveAssignments < MaxActiveAssignments
}

// SuggestReviewers оценивает кандидатов и возвращает не более limit лучших.
// Функция чистая: один и тот же вход всегда дает один и тот же порядок.
func SuggestReviewers(submission models.CodeSubmission, pool []models.CandidateInput, limit int) []models.Candidate {
	if limit <= 0 {
		limit = DefaultLimit
	}

	tags := normalizeSet(submission.Tags)

	scored := make([]scoredCandidate, 0, len(pool))
	for _, in := range pool {
		if !Eligible(in, submission.AuthorID) {
			continue
		}
		scored = append(scored, score(in, tags, submission.Language))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.key != b.key {
			return a.key > b.key
		}
		if a.User.Reputation.Points != b.User.Reputation.Points {
			return a.User.Reputation.Points > b.User.Reputation.Points
		}
		return a.User.UserID < b.User.UserID
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}

	candidates := make([]models.Candidate, len(scored))
	for i, sc := range scored {
		candidates[i] = sc.Candidate
	}
	return candidates
}

// scoredCandidate кандидат вместе с точной оценкой в сотых долях
type scoredCandidate struct {
	models.Candidate
	key int
}

func score(in models.CandidateInput, tags map[string]struct{}, language string) scoredCandidate {
	skillMatch := 0
	for skill := range normalizeSet(in.User.Skills) {
		if _, ok := tags[skill]; ok {
			skillMatch++
		}
	}

	languageMatch := 0
	for _, l := range in.User.Preferences.Languages {
		if l == language {
			languageMatch = 1
			break
		}
	}

	rep := in.User.Reputation
	key := skillMatch*skillWeight + languageMatch*languageWeight +
		rep.Points*pointsWeight + rep.ReviewsGiven*reviewsWeight

	return scoredCandidate{
		Candidate: models.Candidate{
			User:          in.User,
			SkillMatch:    skillMatch,
			LanguageMatch: languageMatch,
			Workload:      in.ActiveAssignments,
			MatchScore:    float64(key) / scoreScale,
		},
		key: key,
	}
}

func normalizeSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}
