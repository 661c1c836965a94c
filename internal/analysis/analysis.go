package analysis

import (
	"context"
	"fmt"
	"log"

	"github.com/tinytelemetry/roundwatch/internal/aggregate"
	"github.com/tinytelemetry/roundwatch/internal/duckdb"
	"github.com/tinytelemetry/roundwatch/internal/ingest"
	"github.com/tinytelemetry/roundwatch/internal/timeseries"
)

// Analysis is every loaded run and their comparison.
type Analysis struct {
	Results    []*ingest.Result
	Comparison *aggregate.Comparison
	// Skipped lists inputs whose files were missing.
	Skipped []ingest.Input
}

// Runs returns the run of every result in input order.
func (a *Analysis) Runs() []*timeseries.RunResult {
	runs := make([]*timeseries.RunResult, len(a.Results))
	for i, r := range a.Results {
		runs[i] = r.Run
	}
	return runs
}

// Inputs resolves the runs to load: the manifest entries, if any, followed by
// positional <file> <label> pairs. With no manifest the pairs are required.
func Inputs(cfg Config, args []string) ([]ingest.Input, error) {
	var inputs []ingest.Input
	if cfg.Manifest != "" {
		m, err := ingest.LoadManifest(cfg.Manifest)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, m...)
		if len(args) == 0 {
			return inputs, nil
		}
	}
	pairs, err := ingest.ParseArgs(args)
	if err != nil {
		return nil, err
	}
	return append(inputs, pairs...), nil
}

// Analyze ingests inputs, exports them when a database is configured and
// compares the runs that loaded.
func Analyze(ctx context.Context, cfg Config, inputs []ingest.Input) (*Analysis, error) {
	results, skipped, err := ingest.LoadRuns(ctx, inputs, cfg.Ingest())
	if err != nil {
		return nil, err
	}
	a := &Analysis{Results: results, Skipped: skipped}

	if cfg.DBPath != "" {
		if err := Export(ctx, cfg.DBPath, results); err != nil {
			return nil, err
		}
	}

	a.Comparison, err = aggregate.Compare(a.Runs(), cfg.Aggregate())
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Export writes every result to the DuckDB database at dbPath.
func Export(ctx context.Context, dbPath string, results []*ingest.Result) error {
	store, err := duckdb.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize DuckDB: %w", err)
	}
	defer store.Close()

	for _, r := range results {
		if err := store.SaveRun(ctx, r.Run, r.Report.Path, r.Report.Diagnostics); err != nil {
			return err
		}
		busiest, err := Busiest(ctx, store, r.Run.Label, timeseries.FamilyNodeUsage)
		if err != nil {
			return err
		}
		if busiest != nil {
			log.Printf("analysis: %s: busiest node %s (mean usage %.2f%%, peak %.2f%%)",
				r.Run.Label, busiest.Entity, busiest.Mean*100, busiest.Max*100)
		}
	}
	log.Printf("analysis: exported %d runs to %s", len(results), dbPath)
	return nil
}

// Busiest returns the entity of family with the highest mean in the stored
// run, or nil when the family is empty.
func Busiest(ctx context.Context, store *duckdb.Store, label, family string) (*duckdb.EntityMean, error) {
	means, err := store.FamilyMeans(ctx, label, family)
	if err != nil {
		return nil, err
	}
	var best *duckdb.EntityMean
	for i := range means {
		if best == nil || means[i].Mean > best.Mean {
			best = &means[i]
		}
	}
	return best, nil
}

// LoadStored rebuilds runs previously exported to dbPath. With no labels every
// stored run is loaded.
func LoadStored(ctx context.Context, dbPath string, labels []string) ([]*timeseries.RunResult, error) {
	store, err := duckdb.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize DuckDB: %w", err)
	}
	defer store.Close()

	if len(labels) == 0 {
		infos, err := store.Labels(ctx)
		if err != nil {
			return nil, err
		}
		for _, info := range infos {
			labels = append(labels, info.Label)
		}
	}

	runs := make([]*timeseries.RunResult, 0, len(labels))
	for _, label := range labels {
		run, err := store.LoadRun(ctx, label)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}
