package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"pcgstreams/adapters/battery"
	"pcgstreams/adapters/excel"
	"pcgstreams/adapters/postgres"
	"pcgstreams/adapters/rng"
	"pcgstreams/internal/config"
	"pcgstreams/internal/seed"
	"pcgstreams/internal/streams"
	"pcgstreams/ports"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	var count int
	var seeds []string
	var streamIdx []int
	var label string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check that seed and stream vectors match the worker count",
		Long: `Validate seed and stream vectors and convert every seed.

Seeds are decimal or 0x-prefixed hexadecimal. Streams may be negative.

Example: pcgstreams check --count 2 --seeds 42,0x2a --streams 54,55 --label chains`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n := count
			if !cmd.Flags().Changed("count") {
				n = len(seeds)
			}
			plan, err := streams.NewPlan(label, n, textSeeds(seeds), streamIdx, nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "OK: %d %s\n", plan.Count(), plan.Label)
			for _, e := range plan.Entries {
				fmt.Fprintf(out, "%d\tseed=%d\tstream=%d\n", e.Worker, e.Seed, e.Stream)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "Expected number of workers (default: number of seeds)")
	cmd.Flags().StringSliceVar(&seeds, "seeds", nil, "Seed per worker")
	cmd.Flags().IntSliceVar(&streamIdx, "streams", nil, "Stream index per worker")
	cmd.Flags().StringVar(&label, "label", rng.DefaultLabel, "Name of the parallel entity in errors")

	return cmd
}

func newDrawCmd() *cobra.Command {
	var seedText string
	var stream int
	var n int
	var advance uint64
	var bound uint32

	cmd := &cobra.Command{
		Use:   "draw",
		Short: "Print outputs of one pcg32 stream",
		Long: `Print n 32-bit outputs of the generator for one seed and stream.

Example: pcgstreams draw --seed 42 --stream 54 --n 6`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if n < 0 {
				return fmt.Errorf("--n must not be negative")
			}
			gen, err := streams.CreateGenerator(nil, seed.Text(seedText), stream)
			if err != nil {
				return err
			}
			gen.Advance(advance)

			out := cmd.OutOrStdout()
			for i := 0; i < n; i++ {
				if bound > 0 {
					fmt.Fprintln(out, gen.Uint32n(bound))
				} else {
					fmt.Fprintf(out, "0x%08x\n", gen.Uint32())
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&seedText, "seed", "42", "Seed, decimal or 0x hex")
	cmd.Flags().IntVar(&stream, "stream", 0, "Stream index")
	cmd.Flags().IntVar(&n, "n", 5, "Number of outputs")
	cmd.Flags().Uint64Var(&advance, "advance", 0, "Skip this many outputs first")
	cmd.Flags().Uint32Var(&bound, "bound", 0, "Draw uniformly from [0, bound) instead of raw outputs")

	return cmd
}

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Import, store and list seed/stream plans",
	}
	cmd.AddCommand(newPlanImportCmd(), newPlanListCmd(), newPlanShowCmd())
	return cmd
}

func newPlanImportCmd() *cobra.Command {
	var label string
	var count int
	var sheet string
	var xlsxOut string
	var draws int
	var save bool

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Build a plan from the seed and stream columns of an xlsx or csv file",
		Long: `Read "seed" and "stream" columns, validate them against --count and print the plan.

With --xlsx-out the plan's draws are written to a workbook; with --save the
plan is stored in the ledger configured by DATABASE_DRIVER and DATABASE_URL.

Example: pcgstreams plan import plan.xlsx --label chains --count 4 --xlsx-out draws.xlsx --draws 100`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := excel.NewPlanReader(args[0])
			if sheet != "" {
				reader = reader.WithSheet(sheet)
			}
			vectors, err := reader.ReadPlanVectors()
			if err != nil {
				return err
			}

			n := count
			if !cmd.Flags().Changed("count") {
				n = len(vectors.Seeds)
			}
			plan, err := streams.NewPlan(label, n, vectors.Seeds, vectors.Streams, nil)
			if err != nil {
				return err
			}

			if xlsxOut != "" {
				if err := excel.WriteDraws(xlsxOut, plan, draws); err != nil {
					return err
				}
			}

			if save {
				if err := streams.CheckLabel(plan.Label); err != nil {
					return err
				}
				repo, closeDB, err := openRepository(cmd)
				if err != nil {
					return err
				}
				defer closeDB()
				if err := repo.Save(cmd.Context(), plan); err != nil {
					return err
				}
			}

			return printJSON(cmd.OutOrStdout(), plan)
		},
	}

	cmd.Flags().StringVar(&label, "label", rng.DefaultLabel, "Name of the parallel entity in errors")
	cmd.Flags().IntVar(&count, "count", 0, "Expected number of workers (default: number of seeds in the file)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet to read from xlsx files (default: Sheet1)")
	cmd.Flags().StringVar(&xlsxOut, "xlsx-out", "", "Write draws for the plan to this xlsx file")
	cmd.Flags().IntVar(&draws, "draws", 10, "Draws per worker written with --xlsx-out")
	cmd.Flags().BoolVar(&save, "save", false, "Store the plan in the configured database")

	return cmd
}

func newPlanListCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored plans, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeDB, err := openRepository(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			plans, err := repo.List(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range plans {
				fmt.Fprintf(out, "%s\t%s\t%s\t%d\t%s\n", p.ID, p.Label, p.Layout, p.Count(), p.CreatedAt.Format("2006-01-02T15:04:05Z"))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum plans to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "Plans to skip")

	return cmd
}

func newPlanShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [plan-id]",
		Short: "Print a stored plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid plan id: %w", err)
			}

			repo, closeDB, err := openRepository(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			plan, err := repo.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), plan)
		},
	}
}

func newPermuteCmd() *cobra.Command {
	var x, y []float64
	var workers int
	var masterText string
	var shuffles int

	cmd := &cobra.Command{
		Use:   "permute",
		Short: "Run a permutation test of the correlation between x and y",
		Long: `Shuffle x across parallel workers, each on its own stream of one master seed.

The result is reproducible for a given --seed, --workers and --shuffles.

Example: pcgstreams permute --x 1,2,3,4,5 --y 2,4,5,4,6 --workers 4 --seed 7 --shuffles 1000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if masterText == "" {
				master, err := seed.New()
				if err != nil {
					return err
				}
				masterText = strconv.FormatUint(master, 10)
			}

			req := ports.PermutationRequest{X: x, Y: y, Workers: workers}
			if workers > 0 {
				req.Seeds = make([]seed.Value, workers)
				req.Streams = make([]int, workers)
				for i := range req.Seeds {
					req.Seeds[i] = seed.Text(masterText)
					req.Streams[i] = i
				}
			}

			referee := battery.NewPermutationReferee(rng.NewPCGAdapter(nil))
			referee.SetNumShuffles(shuffles)

			result, err := referee.Run(cmd.Context(), req)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), struct {
				*ports.PermutationResult
				MasterSeed string `json:"master_seed"`
			}{result, masterText})
		},
	}

	cmd.Flags().Float64SliceVar(&x, "x", nil, "First variable")
	cmd.Flags().Float64SliceVar(&y, "y", nil, "Second variable")
	cmd.Flags().IntVar(&workers, "workers", 4, "Parallel workers, one stream each")
	cmd.Flags().StringVar(&masterText, "seed", "", "Master seed (default: random)")
	cmd.Flags().IntVar(&shuffles, "shuffles", 1000, "Number of shuffles")

	return cmd
}

func openRepository(cmd *cobra.Command) (ports.PlanRepository, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := postgres.Open(cmd.Context(), cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewPlanRepository(db), func() { db.Close() }, nil
}

func textSeeds(raw []string) []seed.Value {
	vals := make([]seed.Value, len(raw))
	for i, s := range raw {
		vals[i] = seed.Text(s)
	}
	return vals
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
