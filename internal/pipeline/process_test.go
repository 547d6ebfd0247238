package pipeline

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rostermatch/internal"
	"rostermatch/internal/config"
	"rostermatch/internal/logger"
	"rostermatch/internal/metrics"
)

func newTestService(t *testing.T) (*ProcessingService, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	cfg := config.Config{MatchThreshold: 80, MatchAlgorithm: "token_sort_ratio", MatchWorkers: 1, MatchDebugSamples: 5}
	return NewProcessingService(cfg, logger.Discard(), m), m
}

func baseFile() FileInput {
	return FileInput{Name: "base.xlsx", Content: mkXLSX(
		sheetRows{name: "Fund II", rows: [][]any{
			{"Aluno", "Turma", "Professor", "Nível"},
			{"Joao Silva", "6ºA", "Carla", "6.1"},
			{"Maria Pereira", "6ºB", "Carla", "6.2"},
			{"Ana Costa", "Violino", "Pedro", ""},
		}},
		sheetRows{name: "Fund III", rows: [][]any{
			{"Aluno", "Turma", "Professor", "Nível"},
			{"Bruno Dias", "8 - c", "Rita", "8.3"},
		}},
	)}
}

func rosterFile() FileInput {
	return FileInput{Name: "toefl.csv", Content: []byte("Name\n\"Silva, Joao\"\n\"Pereira, Ana Maria\"\n\"Costa, Ana\"\n\"Dias, Bruno\"\n")}
}

func TestCompareEndToEnd(t *testing.T) {
	svc, m := newTestService(t)

	report := svc.Compare(context.Background(), baseFile(), rosterFile(), internal.Options{Threshold: 80, Algorithm: "token_sort_ratio"})
	require.True(t, report.Success, report.Error)
	assert.NotEmpty(t, report.TraceID)

	require.Len(t, report.Results, 3)
	assert.Equal(t, "Joao Silva", report.Results[0].MatchedName)
	assert.Equal(t, "FUND-6A", report.Results[0].ClassLabel)
	assert.Equal(t, "6.1", report.Results[0].Level)
	assert.Equal(t, "Maria Pereira", report.Results[1].MatchedName)
	assert.Equal(t, "FUND-8C", report.Results[2].ClassLabel)
	assert.Equal(t, "8.3", report.Results[2].Level)

	// The violin row is extracurricular and never reaches matching.
	assert.Equal(t, []string{"Costa, Ana"}, report.Unmatched)
	require.Len(t, report.Suggestions, 1)
	for _, c := range report.Suggestions[0].Candidates {
		assert.NotEqual(t, "Ana Costa", c.Name)
	}
	assert.Equal(t, internal.Statistics{Total: 4, Matched: 3, Unmatched: 1, MatchPercentage: 75}, report.Statistics)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ComparisonsTotal.WithLabelValues("success")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.NamesTotal.WithLabelValues("matched")))
}

func TestCompareFailuresAreReports(t *testing.T) {
	svc, m := newTestService(t)
	opts := internal.Options{Threshold: 80}

	cases := []struct {
		name   string
		base   FileInput
		roster FileInput
		kind   string
	}{
		{name: "missing base", base: FileInput{}, roster: rosterFile(), kind: "missing_input"},
		{name: "missing roster", base: baseFile(), roster: FileInput{Name: "x.csv"}, kind: "missing_input"},
		{name: "unsupported", base: FileInput{Name: "base.docx", Content: []byte("x")}, roster: rosterFile(), kind: "unsupported_format"},
		{name: "corrupt", base: baseFile(), roster: FileInput{Name: "r.xlsx", Content: []byte("garbage")}, kind: "unreadable_table"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report := svc.Compare(context.Background(), tc.base, tc.roster, opts)
			assert.False(t, report.Success)
			assert.Equal(t, tc.kind, report.ErrorKind)
			assert.NotEmpty(t, report.Error)
			assert.NotNil(t, report.Results)
			assert.NotNil(t, report.Unmatched)
		})
	}
	assert.Equal(t, float64(len(cases)), testutil.ToFloat64(m.ComparisonsTotal.WithLabelValues("input_error")))
}

func TestCompareRejectsNaNThreshold(t *testing.T) {
	svc, _ := newTestService(t)
	nan := 0.0
	nan /= nan
	report := svc.Compare(context.Background(), baseFile(), rosterFile(), internal.Options{Threshold: nan})
	assert.False(t, report.Success)
	assert.Equal(t, "invalid_options", report.ErrorKind)
}

func TestCompareExplicitColumns(t *testing.T) {
	svc, _ := newTestService(t)
	roster := FileInput{Name: "toefl.csv", Content: []byte("ID,Student\n1,\"Silva, Joao\"\n")}

	report := svc.Compare(context.Background(), baseFile(), roster, internal.Options{Threshold: 80, RosterColumn: "Student"})
	require.True(t, report.Success, report.Error)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "Joao Silva", report.Results[0].MatchedName)

	// Without the column hint the ID column is compared and nothing matches.
	report = svc.Compare(context.Background(), baseFile(), roster, internal.Options{Threshold: 80})
	require.True(t, report.Success)
	assert.Empty(t, report.Results)
	assert.Equal(t, []string{"1"}, report.Unmatched)
}

func TestInspectFile(t *testing.T) {
	svc, _ := newTestService(t)
	info, err := svc.InspectFile(baseFile())
	require.NoError(t, err)
	assert.Equal(t, 3, info.Rows)
	assert.Equal(t, []string{"Fund II", "Fund III"}, info.Sheets)

	_, err = svc.InspectFile(FileInput{Name: "a.txt", Content: []byte("x")})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
