package careerpath

import "testing"

func TestDefaultTableHasTenPaths(t *testing.T) {
	if got := len(Default.Paths); got != 10 {
		t.Fatalf("expected 10 canonical paths, got %d", got)
	}
	for _, p := range Default.Paths {
		if len(p.Keywords) < 2 {
			t.Fatalf("path %q has too few keywords: %v", p.Name, p.Keywords)
		}
	}
}

func TestMatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		category string
		path     string
		expect   bool
	}{
		{name: "synonym", category: "Software Engineering", path: "tech", expect: true},
		{name: "path name", category: "finance-graduate", path: "Finance", expect: true},
		{name: "spaces normalized", category: "Supply Chain", path: "operations", expect: true},
		{name: "other path", category: "marketing", path: "tech", expect: false},
		{name: "unknown path uses name", category: "legal-counsel", path: "legal", expect: true},
		{name: "empty category", category: " ", path: "tech", expect: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Default.Matches(tt.category, tt.path); got != tt.expect {
				t.Fatalf("Matches(%q, %q) = %v, want %v", tt.category, tt.path, got, tt.expect)
			}
		})
	}
}

func TestFirstMatchFollowsUserOrder(t *testing.T) {
	categories := []string{"marketing", "data-analytics"}

	if got := Default.FirstMatch(categories, []string{"data", "marketing"}); got != "data" {
		t.Fatalf("expected data, got %q", got)
	}
	if got := Default.FirstMatch(categories, []string{"marketing", "data"}); got != "marketing" {
		t.Fatalf("expected marketing, got %q", got)
	}
	if got := Default.FirstMatch(categories, []string{"finance"}); got != "" {
		t.Fatalf("expected no match, got %q", got)
	}
}

func TestParseRejectsEmptyTable(t *testing.T) {
	if _, err := Parse([]byte("paths: []")); err == nil {
		t.Fatal("expected error for empty table")
	}
}
