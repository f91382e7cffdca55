package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"datalens/adapters/ingest"
	"datalens/app"
	"datalens/domain/analysis"
	"datalens/domain/dataset"
	"datalens/internal"
	"datalens/internal/cache"
	"datalens/internal/executor"
	"datalens/internal/report"
	"datalens/ports"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "datalens-cli",
		Short: "DataLens CLI for one-shot ingestion and analysis",
	}

	rootCmd.AddCommand(
		newInspectCmd(),
		newAnalyzeCmd(),
		newReportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newService builds an in-process service with a memory-only cache.
// CLI runs are one-shot; nothing needs to survive the process.
func newService(logger *internal.Logger, chunkSize, maxRows, sampleCap int) (*app.AnalysisService, *executor.Executor, *cache.TieredStore) {
	store := cache.NewTieredStore(nil, cache.DefaultTTL, logger)
	exec := executor.New(store, executor.NewWorker(logger), logger)
	pipeline := ingest.NewPipeline(logger)
	opts := ingest.Options{ChunkSize: chunkSize, MaxRows: maxRows, SampleCap: sampleCap}
	svc := app.NewAnalysisService(pipeline, exec, store, opts, logger)
	return svc, exec, store
}

func ingestPath(ctx context.Context, svc *app.AnalysisService, path string, progress bool) (*appDataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var onProgress ports.ProgressFunc
	if progress {
		onProgress = func(p ports.Progress) {
			fmt.Fprintf(os.Stderr, "\rchunk %d: %d rows (%.1f%%)", p.ChunkIndex, p.ProcessedRows, p.Percentage)
		}
	}

	ds, err := svc.IngestFile(ctx, path, f, onProgress)
	if progress {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return nil, err
	}
	return &appDataset{svc: svc, ds: ds}, nil
}

// appDataset pairs a registered dataset with the service that owns it.
type appDataset struct {
	svc *app.AnalysisService
	ds  *dataset.Dataset
}

func (d *appDataset) descriptiveBattery(ctx context.Context) ([]*analysis.Result, error) {
	var results []*analysis.Result
	for _, f := range d.ds.Fields() {
		if f.Type != dataset.TypeNumber {
			continue
		}
		resp, err := d.svc.Execute(ctx, d.ds.ID(), ports.Query{
			Operation: executor.OpDescriptive,
			Params:    map[string]string{"field": f.Name},
			Options:   ports.QueryOptions{UseCache: true},
		})
		if err != nil {
			return nil, err
		}
		results = append(results, resp.Data)
	}
	return results, nil
}

func newInspectCmd() *cobra.Command {
	var chunkSize, maxRows, sampleCap int
	var progress bool

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Ingest a file and print the inferred schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := internal.NewDefaultLogger()
			svc, exec, store := newService(logger, chunkSize, maxRows, sampleCap)
			defer func() { exec.Close(); store.Close() }()

			d, err := ingestPath(cmd.Context(), svc, args[0], progress)
			if err != nil {
				return err
			}

			fmt.Printf("%s: %d rows, %d fields (fingerprint %s)\n\n",
				d.ds.Name(), d.ds.RowCount(), d.ds.FieldCount(), d.ds.Fingerprint())
			for _, f := range d.ds.Fields() {
				line := fmt.Sprintf("  %-24s %s", f.Name, f.Type)
				if f.Pattern != nil {
					line += fmt.Sprintf("  [%s %.0f%%]", f.Pattern.Pattern, f.Pattern.Confidence*100)
				}
				if f.Stats != nil {
					line += fmt.Sprintf("  mean=%.4g sd=%.4g null=%.1f%%",
						f.Stats.Mean, f.Stats.StdDev, f.Stats.NullPercentage)
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Rows per ingestion chunk (0 = default)")
	cmd.Flags().IntVar(&maxRows, "max-rows", 0, "Row cap; extra rows are dropped (0 = unlimited)")
	cmd.Flags().IntVar(&sampleCap, "sample-cap", 0, "Values per column fed to type inference (0 = all)")
	cmd.Flags().BoolVar(&progress, "progress", false, "Print ingestion progress to stderr")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	var chunkSize, maxRows, sampleCap int
	var field, x, y, kind string
	var degree int
	var lambda, alpha float64

	cmd := &cobra.Command{
		Use:   "analyze [file] [operation]",
		Short: "Run one analysis operation and print the result as JSON",
		Long: `Run one analysis operation against an ingested file.

Operations: descriptive, regression, hypothesis, correlation.

Example: datalens-cli analyze sales.csv regression --x units --y revenue --kind linear`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := internal.NewDefaultLogger()
			svc, exec, store := newService(logger, chunkSize, maxRows, sampleCap)
			defer func() { exec.Close(); store.Close() }()

			d, err := ingestPath(cmd.Context(), svc, args[0], false)
			if err != nil {
				return err
			}

			params := map[string]string{}
			if field != "" {
				params["field"] = field
			}
			if x != "" {
				params["x"] = x
			}
			if y != "" {
				params["y"] = y
			}
			if kind != "" {
				params["kind"] = kind
			}
			if degree > 0 {
				params["degree"] = strconv.Itoa(degree)
			}
			if lambda > 0 {
				params["lambda"] = strconv.FormatFloat(lambda, 'g', -1, 64)
			}
			if alpha > 0 {
				params["alpha"] = strconv.FormatFloat(alpha, 'g', -1, 64)
			}

			resp, err := svc.Execute(cmd.Context(), d.ds.ID(), ports.Query{
				Operation: args[1],
				Params:    params,
				Options:   ports.QueryOptions{UseCache: true},
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}

	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Rows per ingestion chunk (0 = default)")
	cmd.Flags().IntVar(&maxRows, "max-rows", 0, "Row cap; extra rows are dropped (0 = unlimited)")
	cmd.Flags().IntVar(&sampleCap, "sample-cap", 0, "Values per column fed to type inference (0 = all)")
	cmd.Flags().StringVar(&field, "field", "", "Field name for descriptive and hypothesis operations")
	cmd.Flags().StringVar(&x, "x", "", "Predictor field for regression and correlation")
	cmd.Flags().StringVar(&y, "y", "", "Response field for regression and correlation")
	cmd.Flags().StringVar(&kind, "kind", "", "Regression kind or hypothesis test kind")
	cmd.Flags().IntVar(&degree, "degree", 0, "Polynomial degree")
	cmd.Flags().Float64Var(&lambda, "lambda", 0, "Regularization strength for ridge and lasso")
	cmd.Flags().Float64Var(&alpha, "alpha", 0, "Significance level for hypothesis tests")
	return cmd
}

func newReportCmd() *cobra.Command {
	var chunkSize, maxRows, sampleCap int
	var html bool

	cmd := &cobra.Command{
		Use:   "report [file]",
		Short: "Run descriptive analysis over every numeric field and print a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := internal.NewDefaultLogger()
			svc, exec, store := newService(logger, chunkSize, maxRows, sampleCap)
			defer func() { exec.Close(); store.Close() }()

			d, err := ingestPath(cmd.Context(), svc, args[0], false)
			if err != nil {
				return err
			}

			results, err := d.descriptiveBattery(cmd.Context())
			if err != nil {
				return err
			}

			if html {
				os.Stdout.Write(report.HTML(d.ds, results))
				return nil
			}
			fmt.Print(report.Markdown(d.ds, results))
			return nil
		},
	}

	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Rows per ingestion chunk (0 = default)")
	cmd.Flags().IntVar(&maxRows, "max-rows", 0, "Row cap; extra rows are dropped (0 = unlimited)")
	cmd.Flags().IntVar(&sampleCap, "sample-cap", 0, "Values per column fed to type inference (0 = all)")
	cmd.Flags().BoolVar(&html, "html", false, "Render HTML instead of Markdown")
	return cmd
}
