package semantic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/job-matcher/internal/ai"
	"github.com/spigell/job-matcher/internal/cache"
	"github.com/spigell/job-matcher/internal/errs"
	"github.com/spigell/job-matcher/internal/model"
	"github.com/spigell/job-matcher/internal/score"
)

type stubReasoner struct {
	mu        sync.Mutex
	responses []stubResponse
	requests  []ai.Request
}

type stubResponse struct {
	text string
	err  error
}

func (s *stubReasoner) Generate(ctx context.Context, req ai.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.requests = append(s.requests, req)
	if len(s.responses) == 0 {
		return "", errors.New("unexpected call")
	}
	next := s.responses[0]
	s.responses = s.responses[1:]
	return next.text, next.err
}

func (s *stubReasoner) Model() string {
	return "stub-model"
}

func (s *stubReasoner) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func makeJobs(n int) []*model.Job {
	jobs := make([]*model.Job, 0, n)
	for i := 0; i < n; i++ {
		jobs = append(jobs, &model.Job{
			Title:   fmt.Sprintf("Analyst %d", i),
			Company: "Acme",
			City:    "Berlin",
			JobHash: fmt.Sprintf("job-%d", i),
		})
	}
	return jobs
}

func newService(t *testing.T, reasoner ai.Reasoner, c cache.Cache, log *zap.Logger) *Service {
	t.Helper()
	if log == nil {
		log = zap.NewNop()
	}
	s, err := New(reasoner, c, log, Options{BatchSize: 5})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return s
}

func hashes(results []score.MatchResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.JobHash())
	}
	return out
}

func TestFindMatchesSkipsFailedBatch(t *testing.T) {
	reasoner := &stubReasoner{responses: []stubResponse{
		{text: `{"matches":[{"jobIndex":1,"matchScore":70,"confidenceScore":80,"matchReason":"good"},{"jobIndex":3,"matchScore":90,"confidenceScore":85,"matchReason":"great"}]}`},
		{err: errors.New("connection reset by peer")},
		{text: "```json\n{\"matches\":[{\"jobIndex\":2,\"matchScore\":80,\"confidenceScore\":70,\"matchReason\":\"solid\"},{\"jobIndex\":9,\"matchScore\":99}]}\n```"},
	}}

	core, observed := observer.New(zapcore.WarnLevel)
	s := newService(t, reasoner, nil, zap.New(core))

	results, err := s.FindMatches(context.Background(), &model.UserPreferences{}, makeJobs(15), FindOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := strings.Join(hashes(results), ",")
	if got != "job-2,job-11,job-0" {
		t.Fatalf("unexpected results: %s", got)
	}
	if reasoner.calls() != 3 {
		t.Fatalf("expected 3 calls, got %d", reasoner.calls())
	}

	for _, r := range results {
		if r.UnifiedScore.Method != score.MethodAI {
			t.Fatalf("expected ai method, got %s", r.UnifiedScore.Method)
		}
	}

	warnings := observed.FilterMessage("semantic batch failed, skipping").All()
	if len(warnings) != 1 {
		t.Fatalf("expected one batch failure warning, got %d", len(warnings))
	}
	if warnings[0].ContextMap()["batch"] != int64(2) {
		t.Fatalf("expected batch 2 to fail, got %v", warnings[0].ContextMap()["batch"])
	}
}

func TestFindMatchesClampsScores(t *testing.T) {
	reasoner := &stubReasoner{responses: []stubResponse{
		{text: `{"matches":[{"jobIndex":"1","matchScore":150,"confidenceScore":-5,"scoreBreakdown":{"skills":120,"company":-3,"experience":"60"}}]}`},
	}}
	s := newService(t, reasoner, nil, nil)

	results, err := s.FindMatches(context.Background(), &model.UserPreferences{}, makeJobs(1), FindOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}

	u := results[0].UnifiedScore
	if u.Overall != 100 || u.Confidence != 0 {
		t.Fatalf("expected clamped overall/confidence, got %v/%v", u.Overall, u.Confidence)
	}

	want := score.Components{Relevance: 100, Quality: 0, Opportunity: 60, Timing: 10}
	if u.Components != want {
		t.Fatalf("expected components %+v, got %+v", want, u.Components)
	}
	if results[0].MatchReason != defaultReason {
		t.Fatalf("expected default reason, got %q", results[0].MatchReason)
	}
	if u.Explanation == "" {
		t.Fatalf("expected explanation")
	}
}

func TestFindMatchesCachesBatches(t *testing.T) {
	reasoner := &stubReasoner{responses: []stubResponse{
		{text: `{"matches":[{"jobIndex":2,"matchScore":65}]}`},
	}}
	c := cache.NewMemory(0)
	s := newService(t, reasoner, c, nil)

	jobs := makeJobs(3)
	user := &model.UserPreferences{Email: "a@b.c", TargetCities: []string{"Berlin"}}

	first, err := s.FindMatches(context.Background(), user, jobs, FindOptions{})
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := s.FindMatches(context.Background(), user, jobs, FindOptions{})
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if reasoner.calls() != 1 {
		t.Fatalf("expected cached second call, got %d reasoner calls", reasoner.calls())
	}
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("unexpected result sizes %d/%d", len(first), len(second))
	}
	if second[0].Job != jobs[1] {
		t.Fatalf("cached result must point at the caller's job")
	}
	if second[0].UnifiedScore != first[0].UnifiedScore {
		t.Fatalf("cached score differs: %+v vs %+v", second[0].UnifiedScore, first[0].UnifiedScore)
	}
}

func TestFindMatchesDoesNotCacheFailures(t *testing.T) {
	reasoner := &stubReasoner{responses: []stubResponse{
		{text: `{"results":[]}`},
		{text: `{"matches":[{"jobIndex":1,"matchScore":55}]}`},
	}}
	c := cache.NewMemory(0)
	s := newService(t, reasoner, c, nil)
	jobs := makeJobs(2)

	first, _ := s.FindMatches(context.Background(), &model.UserPreferences{}, jobs, FindOptions{})
	if len(first) != 0 {
		t.Fatalf("missing matches key must yield no results, got %d", len(first))
	}

	second, _ := s.FindMatches(context.Background(), &model.UserPreferences{}, jobs, FindOptions{})
	if len(second) != 1 || reasoner.calls() != 2 {
		t.Fatalf("expected failed batch to be retried, got %d results after %d calls", len(second), reasoner.calls())
	}
}

func TestFindMatchesTruncates(t *testing.T) {
	reasoner := &stubReasoner{responses: []stubResponse{
		{text: `{"matches":[{"jobIndex":1,"matchScore":10},{"jobIndex":2,"matchScore":30},{"jobIndex":3,"matchScore":20}]}`},
	}}
	s := newService(t, reasoner, nil, nil)

	results, _ := s.FindMatches(context.Background(), &model.UserPreferences{}, makeJobs(3), FindOptions{MaxMatches: 2})
	if got := strings.Join(hashes(results), ","); got != "job-1,job-2" {
		t.Fatalf("unexpected results: %s", got)
	}
}

func TestFindMatchesUsesTierPrompt(t *testing.T) {
	reasoner := &stubReasoner{responses: []stubResponse{
		{text: `{"matches":[]}`},
		{text: `{"matches":[]}`},
	}}
	s := newService(t, reasoner, nil, nil)
	jobs := makeJobs(1)

	_, _ = s.FindMatches(context.Background(), &model.UserPreferences{SubscriptionTier: model.TierPremiumPending}, jobs, FindOptions{})
	_, _ = s.FindMatches(context.Background(), &model.UserPreferences{SubscriptionTier: model.TierPremium, CareerPath: []string{"data"}}, jobs, FindOptions{})

	if len(reasoner.requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reasoner.requests))
	}

	free, premium := reasoner.requests[0], reasoner.requests[1]
	if !strings.Contains(free.Prompt, "Rate how well") || strings.Contains(free.Prompt, "scoreBreakdown") {
		t.Fatalf("expected free prompt, got %s", free.Prompt)
	}
	if !strings.Contains(premium.Prompt, "scoreBreakdown") || !strings.Contains(premium.Prompt, "Career paths (in order of preference): data") {
		t.Fatalf("expected premium prompt, got %s", premium.Prompt)
	}
	if premium.MaxTokens != 2000 || premium.Temperature == nil || *premium.Temperature != 0.3 || !premium.JSON {
		t.Fatalf("unexpected request limits: %+v", premium)
	}
}

func TestNewKeepsExplicitZeroTemperature(t *testing.T) {
	zero, negative := 0.0, -1.0
	tests := []struct {
		name        string
		temperature *float64
		want        float64
	}{
		{name: "unset", temperature: nil, want: 0.3},
		{name: "zero", temperature: &zero, want: 0},
		{name: "negative", temperature: &negative, want: 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reasoner := &stubReasoner{responses: []stubResponse{{text: `{"matches":[]}`}}}
			s, err := New(reasoner, nil, zap.NewNop(), Options{Temperature: tt.temperature})
			if err != nil {
				t.Fatalf("new service: %v", err)
			}

			if _, err := s.FindMatches(context.Background(), &model.UserPreferences{}, makeJobs(1), FindOptions{}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(reasoner.requests) != 1 {
				t.Fatalf("expected 1 request, got %d", len(reasoner.requests))
			}
			got := reasoner.requests[0].Temperature
			if got == nil || *got != tt.want {
				t.Fatalf("expected temperature %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFindMatchesStopsOnCancellation(t *testing.T) {
	reasoner := &stubReasoner{}
	s := newService(t, reasoner, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.FindMatches(ctx, &model.UserPreferences{}, makeJobs(10), FindOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewRequiresReasoner(t *testing.T) {
	_, err := New(nil, nil, zap.NewNop(), DefaultOptions())
	if !errs.Is(err, errs.TypeConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}
