// Package fallback implements the deterministic rule-based scorer used when
// the semantic matching service is unavailable.
package fallback

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/careerpath"
	"github.com/spigell/job-matcher/internal/model"
	"github.com/spigell/job-matcher/internal/score"
)

// The weights sum to 1.10. The raw composite can reach 110 and is clamped to
// 100 before bucketing.
const (
	weightSkills     = 0.40
	weightExperience = 0.25
	weightLocation   = 0.20
	weightCareerPath = 0.15
	weightRecency    = 0.10
)

// neutralScore is used when the user expressed no preference for a signal.
const neutralScore = 50

const genericReason = "Matches some of your preferences"

type Quality string

const (
	QualityExcellent Quality = "excellent"
	QualityGood      Quality = "good"
	QualityFair      Quality = "fair"
	QualityLow       Quality = "low"
)

// Breakdown holds the five per-signal scores, each in [0,100].
type Breakdown struct {
	Skills     float64 `json:"skills"`
	Experience float64 `json:"experience"`
	Location   float64 `json:"location"`
	CareerPath float64 `json:"career_path"`
	Recency    float64 `json:"recency"`
}

// Match is a scored candidate produced by the rule-based scorer.
type Match struct {
	Job        *model.Job
	Score      float64
	Breakdown  Breakdown
	Quality    Quality
	Reason     string
	Confidence float64
	// City and Path are the user selections this job was attributed to,
	// empty when none matched.
	City string
	Path string
}

type Scorer struct {
	paths  *careerpath.Table
	logger *zap.Logger
	now    func() time.Time
}

func New(logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{
		paths:  careerpath.Default,
		logger: logger,
		now:    time.Now,
	}
}

// Score rates every job for the user and returns at most maxMatches results
// shaped by the balanced city/path distribution. A non-positive maxMatches
// returns every candidate sorted by score.
func (s *Scorer) Score(jobs []*model.Job, user *model.UserPreferences, maxMatches int) []Match {
	if user == nil {
		user = &model.UserPreferences{}
	}

	now := s.now()
	cities := user.Cities()
	paths := user.Paths()
	keywords := user.Keywords()

	candidates := make([]Match, 0, len(jobs))
	for _, job := range jobs {
		if job == nil {
			continue
		}
		candidates = append(candidates, s.scoreJob(job, user, keywords, cities, paths, now))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if maxMatches <= 0 {
		return candidates
	}

	selected := s.distribute(candidates, cities, paths, maxMatches)

	s.logger.Debug("fallback scoring completed",
		zap.Int("candidates", len(candidates)),
		zap.Int("selected", len(selected)),
		zap.Int("max_matches", maxMatches),
	)

	return selected
}

func (s *Scorer) scoreJob(job *model.Job, user *model.UserPreferences, keywords, cities, paths []string, now time.Time) Match {
	location, city := locationScore(job, cities)
	careerPath, path := s.careerPathScore(job.Categories, paths)

	b := Breakdown{
		Skills:     skillsScore(job, keywords),
		Experience: experienceScore(user.EntryLevelPreference, job.ExperienceRequired),
		Location:   location,
		CareerPath: careerPath,
		Recency:    recencyScore(job.PostedAt, now),
	}

	overall := score.Clamp(Composite(b))
	overall = math.Round(overall*10) / 10

	quality := Bucket(overall)

	return Match{
		Job:        job,
		Score:      overall,
		Breakdown:  b,
		Quality:    quality,
		Reason:     reason(b, quality),
		Confidence: confidence(job, user, keywords, cities, paths),
		City:       city,
		Path:       path,
	}
}

// Composite applies the fixed weights without clamping.
func Composite(b Breakdown) float64 {
	return b.Skills*weightSkills +
		b.Experience*weightExperience +
		b.Location*weightLocation +
		b.CareerPath*weightCareerPath +
		b.Recency*weightRecency
}

func Bucket(overall float64) Quality {
	switch {
	case overall >= 80:
		return QualityExcellent
	case overall >= 65:
		return QualityGood
	case overall >= 45:
		return QualityFair
	default:
		return QualityLow
	}
}

func skillsScore(job *model.Job, keywords []string) float64 {
	if len(keywords) == 0 {
		return neutralScore
	}

	text := strings.ToLower(job.Text())
	found := 0
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			found++
		}
	}

	return float64(found) / float64(len(keywords)) * 100
}

// experienceLevel maps free text onto 1 (entry), 2 (mid) or 3 (senior); 0 is unknown.
func experienceLevel(text string) int {
	text = strings.ToLower(text)
	switch {
	case containsAny(text, "senior", "lead", "principal"):
		return 3
	case containsAny(text, "mid", "intermediate"):
		return 2
	case containsAny(text, "entry", "junior", "graduate"):
		return 1
	default:
		return 0
	}
}

func experienceScore(preference, required string) float64 {
	want := experienceLevel(preference)
	got := experienceLevel(required)
	if want == 0 || got == 0 {
		return neutralScore
	}

	switch diff := want - got; {
	case diff == 0:
		return 100
	case diff == 1 || diff == -1:
		return 75
	default:
		return 25
	}
}

func locationScore(job *model.Job, cities []string) (float64, string) {
	if len(cities) == 0 {
		return neutralScore, ""
	}

	for _, city := range cities {
		lower := strings.ToLower(city)
		switch {
		case strings.EqualFold(strings.TrimSpace(job.City), city):
			return 100, city
		case countryMatches(job.Country, city):
			return 75, city
		case strings.Contains(strings.ToLower(job.Location), lower),
			strings.Contains(strings.ToLower(job.City), lower):
			return 60, city
		}
	}

	return 0, ""
}

func (s *Scorer) careerPathScore(categories, paths []string) (float64, string) {
	if len(paths) == 0 {
		return neutralScore, ""
	}

	tags := make([]string, 0, len(categories))
	for _, c := range categories {
		if c = strings.TrimSpace(c); c != "" {
			tags = append(tags, c)
		}
	}
	if len(tags) == 0 {
		return 0, ""
	}

	matched := 0
	covered := make(map[int]struct{}, len(paths))
	for _, tag := range tags {
		hit := false
		for i, p := range paths {
			if s.paths.Matches(tag, p) {
				covered[i] = struct{}{}
				hit = true
			}
		}
		if hit {
			matched++
		}
	}

	ratio := float64(matched) / float64(len(tags))
	if ratio < 0.4 {
		// partial credit instead of a hard zero below the threshold
		return ratio * 30, s.paths.FirstMatch(tags, paths)
	}

	coverage := float64(len(covered)) / float64(len(paths))
	return (0.7*ratio + 0.3*coverage) * 100, s.paths.FirstMatch(tags, paths)
}

// recencyScore is a non-increasing step function of the posting age.
func recencyScore(postedAt, now time.Time) float64 {
	if postedAt.IsZero() {
		return 0
	}

	days := now.Sub(postedAt).Hours() / 24
	switch {
	case days <= 1:
		return 100
	case days <= 3:
		return 90
	case days <= 7:
		return 75
	case days <= 14:
		return 50
	case days <= 30:
		return 25
	default:
		return 0
	}
}

func reason(b Breakdown, quality Quality) string {
	var phrases []string
	if b.Skills >= 70 {
		phrases = append(phrases, "strong skills match")
	}
	if b.Experience >= 75 {
		phrases = append(phrases, "good experience fit")
	}
	if b.Location >= 75 {
		phrases = append(phrases, "in your preferred location")
	}
	if b.CareerPath >= 70 {
		phrases = append(phrases, "aligned with your career path")
	}
	if b.Recency >= 90 {
		phrases = append(phrases, "recently posted")
	}

	if len(phrases) == 0 {
		return genericReason
	}

	text := strings.Join(phrases, ", ")
	return fmt.Sprintf("%s%s (%s match)", strings.ToUpper(text[:1]), text[1:], quality)
}

// confidence grows with the number of signals backed by real data.
func confidence(job *model.Job, user *model.UserPreferences, keywords, cities, paths []string) float64 {
	c := 50.0
	if len(keywords) > 0 {
		c += 10
	}
	if experienceLevel(user.EntryLevelPreference) > 0 && experienceLevel(job.ExperienceRequired) > 0 {
		c += 10
	}
	if len(cities) > 0 {
		c += 10
	}
	if len(paths) > 0 && len(job.Categories) > 0 {
		c += 10
	}
	if !job.PostedAt.IsZero() {
		c += 10
	}
	return score.Clamp(c)
}

func containsAny(text string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
