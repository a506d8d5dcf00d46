package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/soaringjerry/psyscore/internal/catalog"
	"github.com/soaringjerry/psyscore/internal/db"
)

func newSeedCmd(a *app) *cobra.Command {
	var (
		patterns []string
		lenient  bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load instrument definitions from catalog files into the database",
		Long: `Reads YAML or TOML instrument definitions matched by --catalog globs
(** supported), validates them and upserts each instrument by code.
Band sets with gaps or overlaps are rejected unless --lenient is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(patterns) == 0 {
				patterns = a.cfg.Catalog.Paths
			}
			store, closeFn, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			return a.seed(cmd.Context(), store, patterns, a.cfg.Catalog.Strict && !lenient, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringSliceVar(&patterns, "catalog", nil, "Catalog file globs (default from catalog.paths)")
	cmd.Flags().BoolVar(&lenient, "lenient", false, "Warn instead of failing on band gaps and overlaps")
	return cmd
}

func (a *app) seed(ctx context.Context, store *db.SQLStore, patterns []string, strict bool, out io.Writer) error {
	loader := &catalog.Loader{Strict: strict, Logger: a.logger}
	defs, err := loader.Load(patterns)
	if err != nil {
		return err
	}
	insts, err := catalog.Seed(ctx, store, defs)
	if err != nil {
		return err
	}
	for _, inst := range insts {
		fmt.Fprintf(out, "seeded %s (%s, %d questions)\n", inst.Code, inst.CategoryCode, len(inst.Questions))
	}
	return nil
}
