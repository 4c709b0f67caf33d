package semantic

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/spigell/job-matcher/internal/model"
	"github.com/spigell/job-matcher/internal/utils"
)

//go:embed prompt_free.md
var freeTemplate string

//go:embed prompt_premium.md
var premiumTemplate string

const systemInstruction = "You are a careful career advisor for early-career candidates. You answer with strict JSON only."

const (
	freeDescriptionLimit    = 300
	premiumDescriptionLimit = 800
)

type promptBuilder interface {
	Build(user *model.UserPreferences, jobs []*model.Job) string
}

func builderFor(user *model.UserPreferences) promptBuilder {
	if user.IsPremium() {
		return premiumPrompt{}
	}
	return freePrompt{}
}

type freePrompt struct{}

func (freePrompt) Build(user *model.UserPreferences, jobs []*model.Job) string {
	var b strings.Builder
	for i, job := range jobs {
		fmt.Fprintf(&b, "%d. %s at %s (%s)\n", i+1, orNone(job.Title), orNone(job.Company), orNone(place(job)))
		if desc := utils.TruncateForLog(job.Description, freeDescriptionLimit); desc != "" {
			fmt.Fprintf(&b, "   %s\n", desc)
		}
	}
	return fill(freeTemplate, user, b.String())
}

type premiumPrompt struct{}

func (premiumPrompt) Build(user *model.UserPreferences, jobs []*model.Job) string {
	var b strings.Builder
	for i, job := range jobs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, orNone(job.Title))
		fmt.Fprintf(&b, "   Company: %s\n", orNone(job.Company))
		fmt.Fprintf(&b, "   Location: %s\n", orNone(place(job)))
		fmt.Fprintf(&b, "   Experience required: %s\n", orNone(job.ExperienceRequired))
		if len(job.Categories) > 0 {
			fmt.Fprintf(&b, "   Categories: %s\n", strings.Join(job.Categories, ", "))
		}
		if !job.PostedAt.IsZero() {
			fmt.Fprintf(&b, "   Posted: %s\n", job.PostedAt.Format("2006-01-02"))
		}
		if desc := utils.TruncateForLog(job.Description, premiumDescriptionLimit); desc != "" {
			fmt.Fprintf(&b, "   Description: %s\n", desc)
		}
	}
	return fill(premiumTemplate, user, b.String())
}

func fill(template string, user *model.UserPreferences, jobs string) string {
	r := strings.NewReplacer(
		"{{CITIES}}", orNone(strings.Join(user.Cities(), ", ")),
		"{{PATHS}}", orNone(strings.Join(user.Paths(), ", ")),
		"{{LEVEL}}", orNone(strings.TrimSpace(user.EntryLevelPreference)),
		"{{KEYWORDS}}", orNone(strings.Join(user.Keywords(), ", ")),
		"{{JOBS}}", strings.TrimRight(jobs, "\n"),
	)
	return r.Replace(template)
}

func place(job *model.Job) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{job.City, job.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return strings.TrimSpace(job.Location)
	}
	return strings.Join(parts, ", ")
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none"
	}
	return s
}
