// Package pipeline chains loading, normalization, lookup mapping and
// duplicate detection into a single report-cleaning run.
package pipeline

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/johnathanacortesd/LimpiarV/internal/dedup"
	"github.com/johnathanacortesd/LimpiarV/internal/lookup"
	"github.com/johnathanacortesd/LimpiarV/internal/normalize"
	"github.com/johnathanacortesd/LimpiarV/internal/report"
	"github.com/johnathanacortesd/LimpiarV/internal/workbook"
)

// Options tunes a cleaning run. The zero value means library defaults:
// threshold 0, SubstringMentions off, original row order, domain fallback off.
// Callers normally start from DefaultOptions.
type Options struct {
	SimilarityThreshold float64 `json:"similarity_threshold"`
	SubstringMentions   bool    `json:"substring_mentions"`
	SortByTitle         bool    `json:"sort_by_title"`
	DomainFallback      bool    `json:"domain_fallback"`
	IncludeDigest       bool    `json:"include_digest"`
}

// DefaultOptions returns the options a run uses when the caller supplies none.
func DefaultOptions() Options {
	return Options{
		SimilarityThreshold: dedup.DefaultSimilarityThreshold,
		DomainFallback:      true,
		IncludeDigest:       true,
	}
}

// Summary reports what a cleaning run did, in row counts.
type Summary struct {
	TotalRows          int          `json:"total_rows"`
	ToConserve         int          `json:"to_conserve"`
	ToEliminate        int          `json:"to_eliminate"`
	ExactDuplicates    int          `json:"exact_duplicates"`
	PossibleDuplicates int          `json:"possible_duplicates"`
	Mapping            lookup.Stats `json:"mapping"`
}

// Inputs holds the opened workbooks for one run. Report is required; the
// dictionaries are optional and nil means an empty dictionary.
type Inputs struct {
	Report      *excelize.File
	InternetMap *excelize.File
	RegionMap   *excelize.File
	MentionsMap *excelize.File
}

// Service runs the cleaning pipeline end to end.
type Service struct {
	opts   Options
	logger zerolog.Logger
}

func NewService(logger zerolog.Logger, opts Options) *Service {
	return &Service{opts: opts, logger: logger.With().Str("component", "pipeline").Logger()}
}

// Clean loads the report, expands multi-company rows, normalizes fields,
// applies the lookup dictionaries and marks duplicates. The returned records
// are ready for workbook.BuildReport.
func (s *Service) Clean(in Inputs) ([]report.Record, Summary, error) {
	if in.Report == nil {
		return nil, Summary{}, fmt.Errorf("pipeline: report workbook is required")
	}

	records, err := workbook.LoadRecords(in.Report, s.logger)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("load report: %w", err)
	}
	records = report.Expand(records)
	s.logger.Info().Int("rows", len(records)).Msg("report loaded")

	normalize.Apply(records, s.logger)

	mapper := lookup.NewMapper(
		s.loadDictionary(in.InternetMap, "internet"),
		s.loadDictionary(in.RegionMap, "regions"),
		s.loadDictionary(in.MentionsMap, "mentions"),
		s.logger,
	)
	mapper.SubstringMentions = s.opts.SubstringMentions
	mapper.DomainFallback = s.opts.DomainFallback
	mapping := mapper.Apply(records)

	detector := dedup.New(s.logger, dedup.Options{SimilarityThreshold: s.opts.SimilarityThreshold})
	result := detector.Run(records)

	summary := Summary{
		TotalRows:          len(records),
		ExactDuplicates:    result.ExactDuplicates,
		PossibleDuplicates: result.PossibleDuplicates,
		Mapping:            mapping,
	}
	for i := range records {
		switch records[i].Status {
		case report.StatusEliminate:
			summary.ToEliminate++
		default:
			summary.ToConserve++
		}
	}

	s.logger.Info().
		Int("total_rows", summary.TotalRows).
		Int("to_conserve", summary.ToConserve).
		Int("to_eliminate", summary.ToEliminate).
		Int("exact_duplicates", summary.ExactDuplicates).
		Int("possible_duplicates", summary.PossibleDuplicates).
		Msg("cleaning run complete")
	return records, summary, nil
}

// Build writes the cleaned records into a fresh output workbook.
func (s *Service) Build(records []report.Record) (*excelize.File, error) {
	return workbook.BuildReport(records, workbook.BuildOptions{
		SortByTitle:   s.opts.SortByTitle,
		IncludeDigest: s.opts.IncludeDigest,
	})
}

// BuildDigestWorkbook writes the plain-text digest into its own workbook,
// for clients that want the digest as a separate download.
func (s *Service) BuildDigestWorkbook(records []report.Record) (*excelize.File, error) {
	return workbook.BuildDigest(records, workbook.BuildOptions{SortByTitle: s.opts.SortByTitle})
}

// Run is Clean followed by Build.
func (s *Service) Run(in Inputs) (*excelize.File, Summary, error) {
	records, summary, err := s.Clean(in)
	if err != nil {
		return nil, Summary{}, err
	}
	out, err := s.Build(records)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("build report: %w", err)
	}
	return out, summary, nil
}

func (s *Service) loadDictionary(f *excelize.File, name string) lookup.Dictionary {
	if f == nil {
		return nil
	}
	dict, err := workbook.LoadDictionary(f)
	if err != nil {
		s.logger.Warn().Err(err).Str("dictionary", name).Msg("dictionary workbook unreadable, skipping")
		return nil
	}
	s.logger.Debug().Str("dictionary", name).Int("entries", len(dict)).Msg("dictionary loaded")
	return dict
}
