// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litscout/internal/candidates"
	"github.com/pdiddy/litscout/internal/encoder"
	"github.com/pdiddy/litscout/internal/engine"
	"github.com/pdiddy/litscout/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Rank papers, authors, venues or concepts for a research query",
	Long: `Search encodes the query (free text, --file, or a precomputed
--embedding-file), fetches candidate papers from the store or a --candidates
snapshot, scores each paper as

  score = paper_weight * cos(query, paper) + concept_weight * concept_similarity

and prints the requested page. --kind authors and --kind venues sum paper
scores per author (divided by byline position) and per venue; --kind all
prints all three rankings. --kind concepts ranks the candidates' concepts by
cos(query, concept).`,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	req, err := requestFromFlags(cmd.Flags(), args)
	if err != nil {
		return err
	}

	eng, err := newEngine(cfg, nil)
	if err != nil {
		return err
	}
	defer eng.Release()
	req.Params, err = paramsFromFlags(cmd.Flags(), eng.DefaultParams())
	if err != nil {
		return err
	}

	candidatesPath, _ := cmd.Flags().GetString("candidates")
	src, closeSrc, err := openSource(cfg, candidatesPath)
	if err != nil {
		return err
	}
	defer closeSrc()

	opts := serviceOptions(cfg)
	if len(req.Embedding) == 0 {
		enc, err := encoder.New(cfg.Encoder, loadedSecrets)
		if err != nil {
			return err
		}
		opts = append(opts, engine.WithEncoder(enc))
	}
	svc, err := engine.NewService(eng, src, opts...)
	if err != nil {
		return err
	}

	res, err := svc.Search(context.Background(), req)
	if err != nil {
		return err
	}

	if out, _ := cmd.Flags().GetString("output"); out != "" {
		if err := engine.WriteResultFile(out, req, eng.ConfigOf(req.Params), res); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Result written to %s\n", out)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return engine.FormatJSON(res, os.Stdout)
	}
	engine.FormatTable(res, os.Stdout)
	return nil
}

// requestFromFlags builds the query and candidate filter. Text comes from
// --query, then --file, then the positional arguments.
func requestFromFlags(flags *pflag.FlagSet, args []string) (engine.Request, error) {
	var req engine.Request

	kindName, _ := flags.GetString("kind")
	kind, err := engine.ParseKind(kindName)
	if err != nil {
		return req, err
	}
	req.Kind = kind

	req.Text, _ = flags.GetString("query")
	if path, _ := flags.GetString("file"); path != "" && req.Text == "" {
		if req.Text, err = readQueryFile(path, encoder.MaxQueryBytes); err != nil {
			return req, err
		}
	}
	if req.Text == "" && len(args) > 0 {
		req.Text = strings.Join(args, " ")
	}
	if path, _ := flags.GetString("embedding-file"); path != "" {
		if req.Embedding, err = readEmbeddingFile(path); err != nil {
			return req, err
		}
	}

	req.Filter.Match, _ = flags.GetString("match")
	req.Filter.YearFrom, _ = flags.GetInt("year-from")
	req.Filter.YearTo, _ = flags.GetInt("year-to")
	return req, nil
}

// paramsFromFlags overrides defaults with the flags the user set. Setting
// only one weight makes the other its complement.
func paramsFromFlags(flags *pflag.FlagSet, defaults engine.Params) (engine.Params, error) {
	p := defaults
	pwSet, cwSet := flags.Changed("paper-weight"), flags.Changed("concept-weight")
	if pwSet || cwSet {
		pw, _ := flags.GetFloat64("paper-weight")
		cw, _ := flags.GetFloat64("concept-weight")
		switch {
		case !cwSet:
			cw = 1 - pw
		case !pwSet:
			pw = 1 - cw
		}
		b := types.Blend{Direct: pw, Concept: cw}
		if err := b.Validate(); err != nil {
			return p, err
		}
		p = p.WithBlend(b)
	}
	if flags.Changed("min-score") {
		v, _ := flags.GetFloat64("min-score")
		p = p.WithMinScore(v)
	}
	if flags.Changed("offset") {
		p.Offset, _ = flags.GetInt("offset")
	}
	if flags.Changed("limit") {
		p.Limit, _ = flags.GetInt("limit")
	}
	return p, nil
}

// readQueryFile returns the first max bytes of an uploaded paper.
func readQueryFile(path string, max int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening query file: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, int64(max)))
	if err != nil {
		return "", fmt.Errorf("reading query file: %w", err)
	}
	return string(data), nil
}

// readEmbeddingFile reads a query vector written as a YAML or JSON list.
func readEmbeddingFile(path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading embedding file: %w", err)
	}
	var vec []float32
	if err := yaml.Unmarshal(data, &vec); err != nil {
		return nil, fmt.Errorf("parsing embedding file %s: %w", path, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("embedding file %s holds no values", path)
	}
	return vec, nil
}

// newEngine builds the scoring engine from cfg.
func newEngine(cfg types.Config, metrics *engine.Metrics) (*engine.Engine, error) {
	return engine.New(cfg.Scoring,
		engine.WithPoolSize(cfg.Engine.PoolSize),
		engine.WithPageSize(cfg.Engine.PageSize),
		engine.WithMetrics(metrics),
		engine.WithLogger(slog.Default()),
	)
}

// openSource returns a snapshot-backed source when path is set and the
// SQLite store otherwise. The returned func releases it.
func openSource(cfg types.Config, path string) (candidates.Source, func(), error) {
	if path != "" {
		snap, err := candidates.LoadSnapshot(path)
		if err != nil {
			return nil, nil, err
		}
		return candidates.NewStaticSource(snap), func() {}, nil
	}
	store, err := candidates.NewStore(cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { store.Close() }, nil
}

func serviceOptions(cfg types.Config) []engine.ServiceOption {
	return []engine.ServiceOption{
		engine.WithFetchTimeout(cfg.Engine.FetchTimeout),
		engine.WithMaxCandidates(cfg.Engine.MaxCandidates),
		engine.WithServiceLogger(slog.Default()),
	}
}

// addSearchFlags registers the search flags on fs.
func addSearchFlags(fs *pflag.FlagSet) {
	fs.String("kind", "papers", "result kind: papers, authors, venues, all or concepts")
	fs.String("query", "", "free-text research query")
	fs.String("file", "", "text file used as the query (first 8000 bytes)")
	fs.String("embedding-file", "", "precomputed query embedding (YAML or JSON list); skips the encoder")
	fs.String("candidates", "", "snapshot file to rank instead of the store")
	fs.String("match", "", "full-text pre-filter over title and abstract")
	fs.Int("year-from", 0, "earliest publication year (0 = unbounded)")
	fs.Int("year-to", 0, "latest publication year (0 = unbounded)")
	fs.Float64("paper-weight", 0.8, "weight of direct embedding similarity")
	fs.Float64("concept-weight", 0.2, "weight of concept similarity")
	fs.Float64("min-score", 0, "drop papers scoring below this before aggregation")
	fs.Int("offset", 0, "number of ranked results to skip")
	fs.Int("limit", 10, "page size")
	fs.Bool("json", false, "output results as JSON")
	fs.String("output", "", "also write the query, configuration and results to this YAML file")
}

func init() {
	addSearchFlags(searchCmd.Flags())
	rootCmd.AddCommand(searchCmd)
}
