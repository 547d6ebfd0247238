package pipeline

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"rostermatch/internal"
	"rostermatch/internal/config"
	"rostermatch/internal/logger"
	"rostermatch/internal/similarity"
)

const suggestionLimit = 3

type Matcher struct {
	cfg       config.Config
	scorer    Scorer
	threshold float64
	base      []internal.BaseEntry
	parsed    []BaseName
	log       *logger.Logger
}

type nameOutcome struct {
	result     *internal.MatchResult
	suggestion *internal.Suggestion
	absBest    float64
	absBestIdx int
}

type scoredEntry struct {
	idx   int
	score float64
}

func NewMatcher(cfg config.Config, opts internal.Options, base []internal.BaseEntry, log *logger.Logger) *Matcher {
	alg, _ := similarity.ParseAlgorithm(opts.Algorithm)
	parsed := make([]BaseName, len(base))
	for i, e := range base {
		parsed[i] = ParseBaseName(e.Name)
	}
	return &Matcher{
		cfg:       cfg,
		scorer:    NewScorer(alg),
		threshold: opts.Threshold,
		base:      base,
		parsed:    parsed,
		log:       log,
	}
}

// Run scores every input name against every base entry and assembles the
// report. Input order is preserved in results, unmatched names and suggestions.
func (m *Matcher) Run(ctx context.Context, names []string) (internal.Report, error) {
	outcomes := make([]nameOutcome, len(names))

	if m.cfg.MatchWorkers <= 1 {
		for i, name := range names {
			if err := ctx.Err(); err != nil {
				return internal.Report{}, err
			}
			outcomes[i] = m.matchOne(name)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(m.cfg.MatchWorkers)
		for i, name := range names {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				outcomes[i] = m.matchOne(name)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return internal.Report{}, err
		}
	}

	if m.log.Level() <= slog.LevelDebug {
		for i := 0; i < len(names) && i < m.cfg.MatchDebugSamples; i++ {
			m.logSample(names[i], outcomes[i])
		}
	}
	return m.assemble(names, outcomes), nil
}

func (m *Matcher) matchOne(name string) nameOutcome {
	in := ParseRosterName(name)
	scored := make([]scoredEntry, len(m.base))

	out := nameOutcome{absBestIdx: -1}
	bestIdx := -1
	bestScore := 0.0
	for j := range m.base {
		score := m.scorer.ScoreParsed(in, m.parsed[j]).Final
		scored[j] = scoredEntry{idx: j, score: score}

		// Strictly greater keeps the earliest entry on ties.
		if score >= m.threshold && score > bestScore {
			bestIdx = j
			bestScore = score
		}
		if score > out.absBest {
			out.absBest = score
			out.absBestIdx = j
		}
	}

	if bestIdx >= 0 {
		e := m.base[bestIdx]
		out.result = &internal.MatchResult{
			InputName:   name,
			MatchedName: e.Name,
			ClassLabel:  e.ClassLabel,
			Professor:   e.Professor,
			Level:       LevelDisplay(e.LevelRaw),
			Score:       round2(bestScore),
		}
		return out
	}

	if len(scored) == 0 {
		return out
	}
	sort.SliceStable(scored, func(a, b int) bool { return scored[a].score > scored[b].score })
	if len(scored) > suggestionLimit {
		scored = scored[:suggestionLimit]
	}
	candidates := make([]internal.Candidate, 0, len(scored))
	for _, s := range scored {
		e := m.base[s.idx]
		candidates = append(candidates, internal.Candidate{
			Name:       e.Name,
			ClassLabel: e.ClassLabel,
			Professor:  e.Professor,
			Level:      LevelDisplay(e.LevelRaw),
			Score:      round2(s.score),
		})
	}
	out.suggestion = &internal.Suggestion{InputName: name, Candidates: candidates}
	return out
}

func (m *Matcher) assemble(names []string, outcomes []nameOutcome) internal.Report {
	report := internal.Report{
		Success:     true,
		Results:     []internal.MatchResult{},
		Unmatched:   []string{},
		Suggestions: []internal.Suggestion{},
	}

	matched := map[string]struct{}{}
	for _, o := range outcomes {
		if o.result != nil {
			report.Results = append(report.Results, *o.result)
			matched[o.result.InputName] = struct{}{}
		} else if o.suggestion != nil {
			report.Suggestions = append(report.Suggestions, *o.suggestion)
		}
	}
	for _, name := range names {
		if _, ok := matched[name]; !ok {
			report.Unmatched = append(report.Unmatched, name)
		}
	}

	report.Statistics = Summarize(len(names), len(report.Results))
	return report
}

func (m *Matcher) logSample(name string, o nameOutcome) {
	fields := map[string]any{
		"toefl_name": name,
		"abs_best":   round2(o.absBest),
		"threshold":  m.threshold,
		"algorithm":  string(m.scorer.Algorithm()),
	}
	if o.result != nil {
		fields["best_above_threshold"] = o.result.Score
	}
	if o.absBestIdx >= 0 {
		fields["abs_best_name"] = m.base[o.absBestIdx].Name
		fields["abs_best_class"] = m.base[o.absBestIdx].ClassLabel
	}
	m.log.WithFields(fields).Debug("match sample")
}

func Summarize(total, matched int) internal.Statistics {
	stats := internal.Statistics{Total: total, Matched: matched, Unmatched: total - matched}
	if total > 0 {
		stats.MatchPercentage = round2(float64(matched) / float64(total) * 100)
	}
	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
