package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/job-matcher/internal/errs"
	"github.com/spigell/job-matcher/internal/fallback"
	"github.com/spigell/job-matcher/internal/model"
	"github.com/spigell/job-matcher/internal/redistribute"
	"github.com/spigell/job-matcher/internal/score"
)

type stubScorer struct {
	method  score.Method
	results []score.MatchResult
	err     error
	calls   int
	max     int
}

func (s *stubScorer) Method() score.Method { return s.method }

func (s *stubScorer) Score(_ context.Context, _ *model.UserPreferences, _ []*model.Job, maxMatches int) ([]score.MatchResult, error) {
	s.calls++
	s.max = maxMatches
	return s.results, s.err
}

func resultsFor(method score.Method, hashes ...string) []score.MatchResult {
	out := make([]score.MatchResult, 0, len(hashes))
	for i, h := range hashes {
		out = append(out, score.MatchResult{
			Job:          &model.Job{JobHash: h, Title: h},
			UnifiedScore: score.UnifiedScore{Overall: float64(90 - i), Method: method},
		})
	}
	return out
}

func jobs(hashes ...string) []*model.Job {
	out := make([]*model.Job, 0, len(hashes))
	for _, h := range hashes {
		out = append(out, &model.Job{JobHash: h})
	}
	return out
}

func newEngine(t *testing.T, semantic Scorer, rule Scorer, mode Mode, log *zap.Logger) *Engine {
	t.Helper()
	e, err := New(semantic, rule, nil, log, Options{Mode: mode, MaxMatches: 7})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	e.newRunID = func() string { return "run-1" }
	return e
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "", want: ModeAuto},
		{in: " Rule ", want: ModeRule},
		{in: "semantic", want: ModeSemantic},
		{in: "compare", want: ModeCompare},
		{in: "vector", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			if !errs.Is(err, errs.TypeConfig) {
				t.Fatalf("%q: expected config error, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("%q: expected %s, got %s (%v)", tt.in, tt.want, got, err)
		}
	}
}

func TestNewValidatesScorers(t *testing.T) {
	rule := &stubScorer{method: score.MethodRule}

	if _, err := New(nil, nil, nil, nil, Options{}); !errs.Is(err, errs.TypeConfig) {
		t.Fatalf("expected config error without rule scorer, got %v", err)
	}
	for _, mode := range []Mode{ModeSemantic, ModeCompare} {
		if _, err := New(nil, rule, nil, nil, Options{Mode: mode}); !errs.Is(err, errs.TypeConfig) {
			t.Fatalf("%s: expected config error without semantic scorer, got %v", mode, err)
		}
	}
	e, err := New(nil, rule, nil, nil, Options{})
	if err != nil || e.Mode() != ModeAuto {
		t.Fatalf("expected auto mode, got %v (%v)", e, err)
	}
}

func TestAutoPrefersSemantic(t *testing.T) {
	semantic := &stubScorer{method: score.MethodAI, results: resultsFor(score.MethodAI, "a", "b")}
	rule := &stubScorer{method: score.MethodRule, results: resultsFor(score.MethodRule, "c")}

	core, observed := observer.New(zapcore.InfoLevel)
	e := newEngine(t, semantic, rule, ModeAuto, zap.New(core))

	got, err := e.Match(context.Background(), &model.UserPreferences{Email: "a@b.c", SubscriptionTier: model.TierFree}, jobs("a", "b", "c"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].UnifiedScore.Method != score.MethodAI {
		t.Fatalf("expected semantic results, got %+v", got)
	}
	if rule.calls != 0 {
		t.Fatalf("rule scorer must not run")
	}
	if semantic.max != 7 {
		t.Fatalf("expected max matches to be forwarded, got %d", semantic.max)
	}

	done := observed.FilterMessage("matching completed").All()
	if len(done) != 1 {
		t.Fatalf("expected completion record")
	}
	fields := done[0].ContextMap()
	if fields["run_id"] != "run-1" || fields["user"] != "a@b.c" || fields["method"] != "ai" {
		t.Fatalf("unexpected fields %v", fields)
	}
}

func TestAutoFallsBackToRule(t *testing.T) {
	tests := map[string]*stubScorer{
		"empty":  {method: score.MethodAI},
		"failed": {method: score.MethodAI, err: errors.New("boom")},
	}

	for name, semantic := range tests {
		t.Run(name, func(t *testing.T) {
			rule := &stubScorer{method: score.MethodRule, results: resultsFor(score.MethodRule, "c")}
			core, observed := observer.New(zapcore.WarnLevel)
			e := newEngine(t, semantic, rule, ModeAuto, zap.New(core))

			got, err := e.Match(context.Background(), nil, jobs("c"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != 1 || got[0].UnifiedScore.Method != score.MethodRule {
				t.Fatalf("expected rule results, got %+v", got)
			}
			if observed.Len() != 1 {
				t.Fatalf("expected one fallback warning, got %d", observed.Len())
			}
		})
	}
}

func TestAutoWithoutSemanticUsesRule(t *testing.T) {
	rule := NewRuleScorer(fallback.New(zap.NewNop()))
	e := newEngine(t, nil, rule, ModeAuto, zap.NewNop())

	pool := []*model.Job{
		{Title: "Analyst", JobHash: "a", PostedAt: time.Now()},
		{Title: "Engineer", JobHash: "b", PostedAt: time.Now()},
	}
	got, err := e.Match(context.Background(), &model.UserPreferences{}, pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both jobs scored, got %d", len(got))
	}
	for _, m := range got {
		if m.UnifiedScore.Method != score.MethodRule || m.UnifiedScore.Confidence != 60 {
			t.Fatalf("unexpected unified score %+v", m.UnifiedScore)
		}
	}
}

func TestSemanticModeReturnsEmpty(t *testing.T) {
	semantic := &stubScorer{method: score.MethodAI}
	rule := &stubScorer{method: score.MethodRule, results: resultsFor(score.MethodRule, "c")}
	e := newEngine(t, semantic, rule, ModeSemantic, zap.NewNop())

	got, err := e.Match(context.Background(), nil, jobs("c"))
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty semantic output, got %v (%v)", got, err)
	}
	if rule.calls != 0 {
		t.Fatalf("rule scorer must not run in semantic mode")
	}
}

func TestCancellationIsReturned(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	semantic := &stubScorer{method: score.MethodAI, err: context.Canceled}
	rule := &stubScorer{method: score.MethodRule}
	e := newEngine(t, semantic, rule, ModeAuto, zap.NewNop())

	if _, err := e.Match(ctx, nil, jobs("a")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if rule.calls != 0 {
		t.Fatalf("rule scorer must not run after cancellation")
	}
}

func TestCompareLogsOverlap(t *testing.T) {
	semantic := &stubScorer{method: score.MethodAI, results: resultsFor(score.MethodAI, "a", "b", "c")}
	rule := &stubScorer{method: score.MethodRule, results: resultsFor(score.MethodRule, "c", "a", "d")}

	core, observed := observer.New(zapcore.InfoLevel)
	e := newEngine(t, semantic, rule, ModeCompare, zap.New(core))

	got, err := e.Match(context.Background(), nil, jobs("a", "b", "c", "d"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].UnifiedScore.Method != score.MethodAI {
		t.Fatalf("expected semantic results to win")
	}
	if semantic.calls != 1 || rule.calls != 1 {
		t.Fatalf("expected both scorers to run once")
	}

	entries := observed.FilterMessage("scorer comparison").All()
	if len(entries) != 1 || entries[0].ContextMap()["shared"] != int64(2) {
		t.Fatalf("unexpected comparison log %v", entries)
	}
}

func TestMatchRunsRedistributor(t *testing.T) {
	semantic := &stubScorer{method: score.MethodAI}
	semantic.results = []score.MatchResult{
		{Job: &model.Job{JobHash: "b1", City: "Berlin"}, UnifiedScore: score.UnifiedScore{Overall: 90}},
		{Job: &model.Job{JobHash: "b2", City: "Berlin"}, UnifiedScore: score.UnifiedScore{Overall: 80}},
		{Job: &model.Job{JobHash: "b3", City: "Berlin"}, UnifiedScore: score.UnifiedScore{Overall: 70}},
		{Job: &model.Job{JobHash: "p1", City: "Paris"}, UnifiedScore: score.UnifiedScore{Overall: 60}},
	}
	rule := &stubScorer{method: score.MethodRule}

	distributor := redistribute.New(zap.NewNop(), redistribute.Options{Limit: 2})
	e, err := New(semantic, rule, distributor, zap.NewNop(), Options{})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	user := &model.UserPreferences{TargetCities: []string{"Berlin", "Paris"}}
	got, err := e.Match(context.Background(), user, jobs("b1", "b2", "b3", "p1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].JobHash() != "b1" || got[1].JobHash() != "p1" {
		t.Fatalf("expected one result per city, got %+v", got)
	}
}

func TestOverlap(t *testing.T) {
	a := resultsFor(score.MethodAI, "x", "y", "y")
	b := resultsFor(score.MethodRule, "y", "z", "y")
	if got := Overlap(a, b); got != 1 {
		t.Fatalf("expected 1 shared job, got %d", got)
	}
	if got := Overlap(nil, b); got != 0 {
		t.Fatalf("expected no overlap, got %d", got)
	}
}
