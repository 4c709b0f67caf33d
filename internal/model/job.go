package model

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Job is a normalized posting produced by the ingestion subsystem.
// It is read-only for the matching core.
type Job struct {
	Title              string    `json:"title,omitempty"`
	Company            string    `json:"company,omitempty"`
	Description        string    `json:"description,omitempty"`
	City               string    `json:"city,omitempty"`
	Country            string    `json:"country,omitempty"`
	Location           string    `json:"location,omitempty"`
	Categories         []string  `json:"categories,omitempty"`
	PostedAt           time.Time `json:"posted_at,omitempty"`
	Source             string    `json:"source,omitempty"`
	JobHash            string    `json:"job_hash,omitempty"`
	JobURL             string    `json:"job_url,omitempty"`
	ExperienceRequired string    `json:"experience_required,omitempty"`
}

type Jobs struct {
	Items []*Job
}

// Signature is the composite text used for embeddings and logging.
func (j *Job) Signature() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{j.Title, j.Company, j.Description, j.Location} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Text returns title and description joined, the haystack for keyword checks.
func (j *Job) Text() string {
	return j.Title + " " + j.Description
}

func (j *Jobs) Len() int {
	return len(j.Items)
}

// ReportBySource groups job titles by their origin tag.
func (j *Jobs) ReportBySource() map[string][]string {
	report := make(map[string][]string)
	for _, job := range j.Items {
		key := job.Source
		if key == "" {
			key = "unknown"
		}
		report[key] = append(report[key], fmt.Sprintf("%s (%s)", job.Title, job.Company))
	}
	return report
}

// LoadJobsFromFile reads a JSON array of jobs. Jobs without a hash are rejected
// because every downstream component keys on it.
func LoadJobsFromFile(path string) (*Jobs, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var items []*Job
	if err := json.NewDecoder(file).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode jobs from %q: %w", path, err)
	}

	for idx, job := range items {
		if job == nil {
			return nil, fmt.Errorf("job #%d is null", idx)
		}
		if strings.TrimSpace(job.JobHash) == "" {
			return nil, fmt.Errorf("job #%d (%q) has no job_hash", idx, job.Title)
		}
	}

	return &Jobs{Items: items}, nil
}
