package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rostermatch/internal"
	"rostermatch/internal/config"
	"rostermatch/internal/logger"
	"rostermatch/internal/metrics"
)

// FileInput is an uploaded file held in memory for the duration of a request.
type FileInput struct {
	Name    string
	Content []byte
}

type ProcessingService struct {
	cfg     config.Config
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewProcessingService(cfg config.Config, log *logger.Logger, m *metrics.Metrics) *ProcessingService {
	return &ProcessingService{cfg: cfg, log: log.WithModule("pipeline"), metrics: m}
}

// Compare runs a full comparison of the roster file against the base file.
// It never panics and always returns a report; failures are reported with
// Success=false and a machine-readable ErrorKind.
func (s *ProcessingService) Compare(ctx context.Context, base, roster FileInput, opts internal.Options) (report internal.Report) {
	start := time.Now()
	traceID := uuid.NewString()
	log := s.log.WithRequestID(traceID)

	defer func() {
		if r := recover(); r != nil {
			report = failureReport(fmt.Errorf("comparison panicked: %v", r))
		}
		report.TraceID = traceID
		s.metrics.RecordComparison(comparisonStatus(report), time.Since(start).Seconds())
		if report.Success {
			s.metrics.RecordNames(report.Statistics.Matched, report.Statistics.Unmatched)
		} else {
			log.WithField("error_kind", report.ErrorKind).WithField("error", report.Error).Warn("comparison failed")
		}
	}()

	if len(base.Content) == 0 {
		return failureReport(inputError(ErrMissingInput, "base", nil))
	}
	if len(roster.Content) == 0 {
		return failureReport(inputError(ErrMissingInput, "roster", nil))
	}

	baseWB, err := ReadWorkbook(base.Name, base.Content)
	if err != nil {
		return failureReport(err)
	}
	rosterWB, err := ReadWorkbook(roster.Name, roster.Content)
	if err != nil {
		return failureReport(err)
	}

	report, err = s.CompareWorkbooks(ctx, baseWB, rosterWB, opts, log)
	if err != nil {
		return failureReport(err)
	}
	return report
}

// CompareWorkbooks runs Ingest, Score and Classify on already parsed files.
func (s *ProcessingService) CompareWorkbooks(ctx context.Context, baseWB, rosterWB internal.Workbook, opts internal.Options, log *logger.Logger) (internal.Report, error) {
	if log == nil {
		log = s.log
	}
	if err := opts.Validate(); err != nil {
		return internal.Report{}, err
	}

	entries, stats := BuildBaseRoster(baseWB, opts.BaseColumn)
	for _, st := range stats {
		log.WithFields(map[string]any{
			"sheet":      st.Sheet,
			"rows":       st.Rows,
			"named":      st.Named,
			"kept":       st.Kept,
			"elementary": st.Elementary,
		}).Debug("extracurricular filter")
	}
	s.metrics.RecordBaseEntries(len(entries))

	rosterSheet, ok := rosterWB.First()
	if !ok {
		return internal.Report{}, inputError(ErrUnreadableTable, rosterWB.FileName, errors.New("no sheets"))
	}
	names := RosterNames(rosterSheet, opts.RosterColumn)
	log.WithFields(map[string]any{
		"base_entries": len(entries),
		"roster_names": len(names),
		"threshold":    opts.Threshold,
		"algorithm":    opts.Algorithm,
	}).Info("comparison started")

	matcher := NewMatcher(s.cfg, opts, entries, log)
	report, err := matcher.Run(ctx, names)
	if err != nil {
		return internal.Report{}, err
	}

	log.WithFields(map[string]any{
		"matched": report.Statistics.Matched,
		"total":   report.Statistics.Total,
	}).Info("comparison finished")
	if report.Statistics.Matched == 0 && report.Statistics.Total > 0 {
		log.Info("no names matched; check the selected name columns or lower the threshold")
	}
	return report, nil
}

// InspectFile parses an upload and reports its shape without comparing.
func (s *ProcessingService) InspectFile(file FileInput) (internal.FileInfo, error) {
	wb, err := ReadWorkbook(file.Name, file.Content)
	if err != nil {
		return internal.FileInfo{}, err
	}
	return Inspect(wb), nil
}

func failureReport(err error) internal.Report {
	return internal.Report{
		Success:     false,
		Error:       err.Error(),
		ErrorKind:   ErrorKind(err),
		Results:     []internal.MatchResult{},
		Unmatched:   []string{},
		Suggestions: []internal.Suggestion{},
	}
}

func comparisonStatus(r internal.Report) string {
	switch {
	case r.Success:
		return "success"
	case r.ErrorKind != "internal":
		return "input_error"
	default:
		return "error"
	}
}
