package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/joss/sessionlens/internal/analyzer"
	"github.com/joss/sessionlens/internal/annotate"
	"github.com/joss/sessionlens/internal/config"
	"github.com/joss/sessionlens/internal/domain"
	intllm "github.com/joss/sessionlens/internal/llm"
	"github.com/joss/sessionlens/internal/logging"
	"github.com/joss/sessionlens/internal/metrics"
	"github.com/joss/sessionlens/internal/output"
	"github.com/joss/sessionlens/internal/render"
	"github.com/joss/sessionlens/internal/segment"
	"github.com/joss/sessionlens/internal/warehouse"
)

type analyzeOptions struct {
	projectFilter string
	start         string
	end           string
	backend       string
	warehousePath string
	outputDir     string
	model         string
	breakGap      time.Duration
	sessionGap    time.Duration
	noArtifacts   bool
	metricsPort   int
}

func analyzeCmd() *cobra.Command {
	env := config.Get()
	opts := analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze user sessions for all matching projects",
		Long: `Discover projects matching the filter, then every token in each
project, and run the session pipeline for each (project, token) pair.
A token that fails is logged and skipped; the run continues.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.projectFilter, "project-filter", "p", "", "Substring filter on project ids")
	cmd.Flags().StringVar(&opts.start, "start", "", "Range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.end, "end", "", "Range end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.backend, "warehouse", env.WarehouseBackend, "Warehouse backend: sqlite or csv")
	cmd.Flags().StringVar(&opts.warehousePath, "warehouse-path", env.WarehousePath, "SQLite file or CSV export directory")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", env.OutputDir, "Output directory")
	cmd.Flags().StringVar(&opts.model, "model", env.Model, "Annotator model id")
	cmd.Flags().DurationVar(&opts.breakGap, "break-threshold", 4*time.Hour, "Gap that closes a session")
	cmd.Flags().DurationVar(&opts.sessionGap, "session-threshold", 24*time.Hour, "Gap that starts a new session")
	cmd.Flags().BoolVar(&opts.noArtifacts, "no-artifacts", false, "Skip per-session artifact directories")
	cmd.Flags().IntVar(&opts.metricsPort, "metrics-port", 0, "Serve Prometheus metrics on this port (0 disables)")

	cobra.CheckErr(cmd.MarkFlagRequired("start"))
	cobra.CheckErr(cmd.MarkFlagRequired("end"))

	return cmd
}

func openWarehouse(opts analyzeOptions) (warehouse.Warehouse, error) {
	switch opts.backend {
	case "sqlite":
		return warehouse.OpenSQLite(opts.warehousePath)
	case "csv":
		return warehouse.OpenCSV(opts.warehousePath)
	default:
		return nil, fmt.Errorf("unknown warehouse backend %q", opts.backend)
	}
}

func runAnalyze(ctx context.Context, opts analyzeOptions) error {
	start, err := domain.ParseTime(opts.start)
	if err != nil {
		return fmt.Errorf("parse --start: %w", err)
	}
	end, err := domain.ParseTime(opts.end)
	if err != nil {
		return fmt.Errorf("parse --end: %w", err)
	}

	runID := ulid.Make().String()
	log := logging.New("cli").WithRun(runID)
	r := render.New(pretty)

	if opts.metricsPort > 0 {
		srv := metrics.NewServer(opts.metricsPort)
		if err := srv.Start(); err != nil {
			return err
		}
		defer srv.Stop(context.Background())
	}

	store, err := openWarehouse(opts)
	if err != nil {
		return err
	}
	defer store.Close()

	provider := intllm.NewGoogle(config.Get().GeminiKey)
	annotator := annotate.NewLLMAnnotator(provider, opts.model)

	if err := config.EnsureDir(opts.outputDir); err != nil {
		return err
	}
	intentsOut, err := output.NewStreamWriter(filepath.Join(opts.outputDir, "intents.jsonl"))
	if err != nil {
		return err
	}
	defer intentsOut.Close()
	errorsOut, err := output.NewStreamWriter(filepath.Join(opts.outputDir, "errors.jsonl"))
	if err != nil {
		return err
	}
	defer errorsOut.Close()

	var artifacts *output.ArtifactWriter
	if !opts.noArtifacts {
		artifacts = output.NewArtifactWriter(opts.outputDir)
	}

	segCfg := segment.Config{BreakThreshold: opts.breakGap, NewSessionThreshold: opts.sessionGap}
	a := analyzer.New(store, annotator, artifacts, segCfg, log)

	fmt.Print(r.RunHeader(runID, opts.projectFilter, start, end))

	projectIDs, err := store.DistinctProjectIDs(ctx, opts.projectFilter)
	if err != nil {
		return err
	}
	log.Info("projects_discovered", map[string]any{"count": len(projectIDs), "filter": opts.projectFilter})

	began := time.Now()
	totalTokens, totalIntents, totalErrors := 0, 0, 0

	for _, projectID := range projectIDs {
		tokenIDs, err := store.DistinctTokenIDs(ctx, projectID)
		if err != nil {
			return err
		}
		log.WithProject(projectID).Info("tokens_discovered", map[string]any{"count": len(tokenIDs)})

		for _, tokenID := range tokenIDs {
			totalTokens++

			intents, errs, err := a.AnalyzeUserSessions(ctx, tokenID, projectID, start, end)
			metrics.Global().RecordToken(err == nil)
			if err != nil {
				// One bad token must not kill the run.
				log.WithProject(projectID).WithToken(tokenID).Error("token_failed", nil, err)
				fmt.Print(r.TokenResult(projectID, tokenID, 0, 0, err))
				continue
			}

			for _, intent := range intents {
				if err := intentsOut.Write(intent); err != nil {
					return err
				}
			}
			for _, e := range errs {
				if err := errorsOut.Write(e); err != nil {
					return err
				}
			}

			metrics.Global().RecordEmitted(len(intents), len(errs))
			totalIntents += len(intents)
			totalErrors += len(errs)
			fmt.Print(r.TokenResult(projectID, tokenID, len(intents), len(errs), nil))
		}
	}

	fmt.Print(r.Summary(len(projectIDs), totalTokens, totalIntents, totalErrors, time.Since(began)))
	return nil
}
