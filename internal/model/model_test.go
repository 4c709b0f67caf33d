package model

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestIsPremium(t *testing.T) {
	tests := []struct {
		tier SubscriptionTier
		want bool
	}{
		{TierPremium, true},
		{TierPremiumPending, false},
		{TierFree, false},
		{"", false},
	}
	for _, tt := range tests {
		u := &UserPreferences{SubscriptionTier: tt.tier}
		if got := u.IsPremium(); got != tt.want {
			t.Fatalf("%q: expected %v, got %v", tt.tier, tt.want, got)
		}
	}

	var nilUser *UserPreferences
	if nilUser.IsPremium() {
		t.Fatalf("nil user must not be premium")
	}
}

func TestUserListsDropBlanks(t *testing.T) {
	u := &UserPreferences{
		TargetCities:   []string{"Berlin", " ", "Paris "},
		CareerPath:     []string{"", "data"},
		CareerKeywords: "python, sql,, excel ",
	}

	if got := strings.Join(u.Cities(), "|"); got != "Berlin|Paris" {
		t.Fatalf("unexpected cities %q", got)
	}
	if got := strings.Join(u.Paths(), "|"); got != "data" {
		t.Fatalf("unexpected paths %q", got)
	}
	if got := strings.Join(u.Keywords(), "|"); got != "python|sql|excel" {
		t.Fatalf("unexpected keywords %q", got)
	}
}

func TestSignature(t *testing.T) {
	j := &Job{Title: " Data Analyst ", Company: "Acme", Location: "Berlin"}
	if got := j.Signature(); got != "Data Analyst Acme Berlin" {
		t.Fatalf("unexpected signature %q", got)
	}
	if got := (&Job{}).Signature(); got != "" {
		t.Fatalf("expected empty signature, got %q", got)
	}
}

func TestLoadJobsFromFile(t *testing.T) {
	dir := t.TempDir()

	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	good := write("good.json", `[
		{"title": "Analyst", "source": "adzuna", "job_hash": "a", "posted_at": "2026-10-01T00:00:00Z"},
		{"title": "Engineer", "job_hash": "b"}
	]`)
	jobs, err := LoadJobsFromFile(good)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if jobs.Len() != 2 || jobs.Items[1].Title != "Engineer" || !jobs.Items[0].PostedAt.Equal(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected jobs %+v", jobs.Items)
	}
	report := jobs.ReportBySource()
	if len(report["adzuna"]) != 1 || len(report["unknown"]) != 1 {
		t.Fatalf("unexpected report %v", report)
	}

	for name, body := range map[string]string{
		"nohash.json": `[{"title": "Analyst"}]`,
		"null.json":   `[null]`,
		"bad.json":    `{"title":`,
	} {
		if _, err := LoadJobsFromFile(write(name, body)); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}

	if _, err := LoadJobsFromFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
