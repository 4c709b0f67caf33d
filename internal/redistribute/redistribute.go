// Package redistribute reshapes an already scored result list to spread it
// across the user's cities, job sources and career paths. Passes never
// rescore; they only select and reorder existing results.
package redistribute

import (
	"sort"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/score"
)

// Pass is a single redistribution step.
type Pass interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	// Apply returns the reshaped list and whether the pass was active. An
	// inactive pass returns its input unchanged.
	Apply(matches []score.MatchResult, in Input, size int) ([]score.MatchResult, Step, bool)
}

// Input is the user context the passes balance against.
type Input struct {
	Cities    []string
	Paths     []string
	IsPremium bool
}

// Step describes the outcome of an active pass.
type Step struct {
	Initial    int
	Left       int
	Backfilled int
	Targets    map[string]int
	Counts     map[string]int
}

// Status represents runtime information about a pass.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
}

type Options struct {
	// Limit caps the output size. Zero preserves the input size.
	Limit int `mapstructure:"limit"`
	// Disable lists pass names to skip.
	Disable []string `mapstructure:"disable"`
}

type Distributor struct {
	passes []Pass
	limit  int
	logger *zap.Logger
}

// DefaultPasses returns the city, source and career path passes in their
// fixed order.
func DefaultPasses() []Pass {
	return []Pass{NewCityBalance(), NewSourceDiversity(), NewCareerPathBalance()}
}

func New(logger *zap.Logger, opts Options, passes ...Pass) *Distributor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(passes) == 0 {
		passes = DefaultPasses()
	}
	for _, name := range opts.Disable {
		DisableByName(passes, name, "disabled by configuration")
	}
	limit := opts.Limit
	if limit < 0 {
		limit = 0
	}
	return &Distributor{passes: passes, limit: limit, logger: logger}
}

// DisableByName marks a pass with the provided name as disabled while keeping it in the list.
func DisableByName(passes []Pass, name, reason string) {
	for _, p := range passes {
		if p.Name() == name {
			p.Disable(reason)
		}
	}
}

// ApplyAll runs every enabled pass in order. The output has the input's
// length, or Limit when that is smaller.
func (d *Distributor) ApplyAll(matches []score.MatchResult, cities, paths []string, isPremium bool) []score.MatchResult {
	size := len(matches)
	if d.limit > 0 && d.limit < size {
		size = d.limit
	}

	in := Input{Cities: nonEmpty(cities), Paths: nonEmpty(paths), IsPremium: isPremium}
	out := matches

	for _, p := range d.passes {
		if !p.IsEnabled() {
			d.logger.Debug("redistribution pass disabled", zap.String("name", p.Name()))
			continue
		}

		next, step, active := p.Apply(out, in, size)
		if !active {
			d.logger.Debug("redistribution pass skipped", zap.String("name", p.Name()))
			continue
		}

		d.logger.Info("redistribution pass",
			zap.String("name", p.Name()),
			zap.Int("initial", step.Initial),
			zap.Int("left", step.Left),
			zap.Int("backfilled", step.Backfilled),
			zap.Any("targets", step.Targets),
			zap.Any("distribution", step.Counts),
		)
		out = next
	}

	if len(out) > size {
		out = out[:size]
	}
	return out
}

// Describe returns status entries for the configured passes.
func (d *Distributor) Describe() []Status {
	statuses := make([]Status, 0, len(d.passes))
	for _, p := range d.passes {
		st := Status{Name: p.Name(), Enabled: p.IsEnabled()}
		if r, ok := p.(interface{ DisabledReason() string }); ok {
			st.Reason = r.DisabledReason()
		}
		statuses = append(statuses, st)
	}
	return statuses
}

// toggle carries the enable state shared by every pass.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

func (t *toggle) DisabledReason() string { return t.reason }

// assemble takes up to targets[k] entries from each bucket in bucket order,
// then backfills from unused entries in input order until size is reached.
// With keepOrder the selected entries are emitted in input order instead of
// bucket order.
func assemble(matches []score.MatchResult, buckets [][]int, targets []int, size int, keepOrder bool) ([]score.MatchResult, int) {
	size = min(size, len(matches))
	used := make([]bool, len(matches))
	picked := make([]int, 0, size)

	for k, bucket := range buckets {
		for _, idx := range bucket[:min(targets[k], len(bucket))] {
			if len(picked) == size {
				break
			}
			used[idx] = true
			picked = append(picked, idx)
		}
	}

	if keepOrder {
		sort.Ints(picked)
	}

	selected := len(picked)
	for i := range matches {
		if len(picked) == size {
			break
		}
		if !used[i] {
			used[i] = true
			picked = append(picked, i)
		}
	}

	out := make([]score.MatchResult, 0, len(picked))
	for _, idx := range picked {
		out = append(out, matches[idx])
	}
	return out, len(picked) - selected
}

// splitEven spreads size over n keys, giving the remainder to the earliest keys.
func splitEven(size, n int) []int {
	targets := make([]int, n)
	if n == 0 {
		return targets
	}
	base, rem := size/n, size%n
	for i := range targets {
		targets[i] = base
		if i < rem {
			targets[i]++
		}
	}
	return targets
}

func countsOf(keys []string, out []score.MatchResult, attribute func(score.MatchResult) string) map[string]int {
	counts := make(map[string]int, len(keys)+1)
	for _, k := range keys {
		counts[k] = 0
	}
	for _, m := range out {
		key := attribute(m)
		if key == "" {
			key = "other"
		}
		counts[key]++
	}
	return counts
}

func targetsOf(keys []string, targets []int) map[string]int {
	m := make(map[string]int, len(keys))
	for i, k := range keys {
		m[k] = targets[i]
	}
	return m
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
