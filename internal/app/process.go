package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/johnathanacortesd/LimpiarV/internal/cli"
	"github.com/johnathanacortesd/LimpiarV/internal/config"
	"github.com/johnathanacortesd/LimpiarV/internal/logging"
	"github.com/johnathanacortesd/LimpiarV/internal/pipeline"
	payloadschema "github.com/johnathanacortesd/LimpiarV/schema"
)

func runProcess(args []string) int {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	reportPath := fs.String("report", "", "Input report workbook (required)")
	internetPath := fs.String("internet-map", "", "Internet outlet rename workbook")
	regionPath := fs.String("region-map", "", "Outlet to region workbook")
	mentionsPath := fs.String("mentions-map", "", "Mention canonicalization workbook")
	outPath := fs.String("out", "", "Output workbook path (required)")
	digestPath := fs.String("digest-out", "", "Write the digest as a separate workbook")
	optionsPath := fs.String("options", "", "JSON file with run options")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "process does not accept positional arguments")
		return 2
	}
	if strings.TrimSpace(*reportPath) == "" {
		fmt.Fprintln(os.Stderr, "--report is required")
		return 2
	}
	if strings.TrimSpace(*outPath) == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	opts := pipelineOptionsFromConfig(cfg)
	if strings.TrimSpace(*optionsPath) != "" {
		raw, readErr := os.ReadFile(*optionsPath)
		if readErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to read --options file: %v\n", readErr)
			return 2
		}
		opts, err = payloadschema.ValidateRunOptions(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid --options file: %v\n", err)
			return 2
		}
	}

	in, cleanup, err := openPipelineInputs(*reportPath, *internetPath, *regionPath, *mentionsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open inputs: %v\n", err)
		return 1
	}
	defer cleanup()

	svc := pipeline.NewService(logger, opts)
	records, summary, err := svc.Clean(in)
	if err != nil {
		logger.Error().Err(err).Msg("cleaning run failed")
		fmt.Fprintf(os.Stderr, "Failed to process report: %v\n", err)
		return 1
	}

	out, err := svc.Build(records)
	if err != nil {
		logger.Error().Err(err).Msg("output build failed")
		fmt.Fprintf(os.Stderr, "Failed to build output workbook: %v\n", err)
		return 1
	}
	if err := out.SaveAs(*outPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", *outPath, err)
		return 1
	}

	if strings.TrimSpace(*digestPath) != "" {
		digest, buildErr := svc.BuildDigestWorkbook(records)
		if buildErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to build digest workbook: %v\n", buildErr)
			return 1
		}
		if err := digest.SaveAs(*digestPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", *digestPath, err)
			return 1
		}
	}

	logger.Info().
		Str("out", *outPath).
		Int("total_rows", summary.TotalRows).
		Int("to_conserve", summary.ToConserve).
		Int("to_eliminate", summary.ToEliminate).
		Msg("report written")

	fmt.Fprintf(os.Stdout, "Processed %d rows: %d conserved, %d eliminated (%d exact, %d possible duplicates)\n",
		summary.TotalRows, summary.ToConserve, summary.ToEliminate,
		summary.ExactDuplicates, summary.PossibleDuplicates)
	return 0
}

func pipelineOptionsFromConfig(cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		SimilarityThreshold: cfg.SimilarityThreshold,
		SubstringMentions:   cfg.SubstringMentions,
		SortByTitle:         cfg.SortByTitle,
		DomainFallback:      cfg.DomainFallback,
		IncludeDigest:       cfg.IncludeDigest,
	}
}

func openPipelineInputs(reportPath, internetPath, regionPath, mentionsPath string) (pipeline.Inputs, func(), error) {
	var opened []*excelize.File
	cleanup := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	open := func(path string) (*excelize.File, error) {
		if strings.TrimSpace(path) == "" {
			return nil, nil
		}
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		opened = append(opened, f)
		return f, nil
	}

	var in pipeline.Inputs
	var err error
	if in.Report, err = open(reportPath); err != nil {
		cleanup()
		return pipeline.Inputs{}, nil, err
	}
	if in.InternetMap, err = open(internetPath); err != nil {
		cleanup()
		return pipeline.Inputs{}, nil, err
	}
	if in.RegionMap, err = open(regionPath); err != nil {
		cleanup()
		return pipeline.Inputs{}, nil, err
	}
	if in.MentionsMap, err = open(mentionsPath); err != nil {
		cleanup()
		return pipeline.Inputs{}, nil, err
	}
	return in, cleanup, nil
}
