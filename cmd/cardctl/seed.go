package main

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/llocg/internal/core"
	"github.com/JonMunkholm/llocg/internal/seed"
)

var (
	seedTimeout time.Duration
	seedDryRun  bool
)

var seedCmd = &cobra.Command{
	Use:   "seed FILE",
	Short: "Load reference data and cards from a YAML file",
	Long: "Load sets, groups, units, rarities, variants and cards from a YAML seed file.\n" +
		"Reference entries that already exist are skipped. Cards are created all or nothing.",
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().DurationVar(&seedTimeout, "timeout", 5*time.Minute, "Give up after this long")
	seedCmd.Flags().BoolVar(&seedDryRun, "dry-run", false, "Parse and validate the file without writing")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	file, err := seed.LoadFile(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if seedDryRun {
		fmt.Fprintf(out, "%s: %d sets, %d groups, %d units, %d rarities, %d name variants, %d group variants, %d cards\n",
			args[0], len(file.Sets), len(file.Groups), len(file.Units), len(file.Rarities),
			len(file.NameVariants), len(file.GroupVariants), len(file.Cards))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	cfg, pool, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer pool.Close()

	bulkMax := cfg.Catalog.BulkMaxCards
	if len(file.Cards) > bulkMax {
		bulkMax = len(file.Cards)
	}
	service, err := core.NewService(ctx, pool, core.Options{
		ReadTimeout:  cfg.Catalog.ReadTimeout,
		BulkMaxCards: bulkMax,
	})
	if err != nil {
		return fmt.Errorf("start catalog: %w", err)
	}

	rep, err := seed.Apply(ctx, service, file)
	if err != nil {
		return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
	}

	for _, table := range slices.Sorted(maps.Keys(rep.Added)) {
		fmt.Fprintf(out, "%-15s added %d\n", table, rep.Added[table])
	}
	for _, table := range slices.Sorted(maps.Keys(rep.Skipped)) {
		fmt.Fprintf(out, "%-15s skipped %d\n", table, rep.Skipped[table])
	}
	fmt.Fprintf(out, "cards           created %d\n", rep.Cards)
	return nil
}
