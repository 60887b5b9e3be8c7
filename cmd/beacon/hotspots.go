package main

import (
	"github.com/spf13/cobra"

	"github.com/crimson-sun/beacon/internal/model"
	"github.com/crimson-sun/beacon/internal/pipeline"
	"github.com/crimson-sun/beacon/internal/source/memory"
	"github.com/crimson-sun/beacon/internal/store"
	storesqlite "github.com/crimson-sun/beacon/internal/store/sqlite"
)

var hotspotFlags struct {
	status string
	limit  int
}

var hotspotsCmd = &cobra.Command{
	Use:   "hotspots",
	Short: "List stored hotspots, best ranked first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := storesqlite.Open(cfg.DB)
		if err != nil {
			return err
		}
		defer st.Close()

		out, err := st.ListHotspots(cmd.Context(), store.Filter{
			Status: model.HotspotStatus(hotspotFlags.status),
			Limit:  hotspotFlags.limit,
		})
		if err != nil {
			return err
		}
		return printJSON(out)
	},
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Re-rank stored hotspots without running a batch",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := newProvider()
		if err != nil {
			return err
		}
		defer provider.Close()

		st, err := storesqlite.Open(cfg.DB)
		if err != nil {
			return err
		}
		defer st.Close()

		runner, err := pipeline.New(cfg, memory.New(), st, provider)
		if err != nil {
			return err
		}
		out, err := runner.Rerank(cmd.Context(), store.Filter{})
		if err != nil {
			return err
		}
		return printJSON(out)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <hotspot-id> <OPEN|APPROVED|RESOLVED|ARCHIVED>",
	Short: "Move a hotspot through its lifecycle",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := storesqlite.Open(cfg.DB)
		if err != nil {
			return err
		}
		defer st.Close()
		return st.SetStatus(cmd.Context(), args[0], model.HotspotStatus(args[1]))
	},
}

func init() {
	hotspotsCmd.Flags().StringVar(&hotspotFlags.status, "status", "", "filter by status (OPEN, APPROVED, RESOLVED, ARCHIVED)")
	hotspotsCmd.Flags().IntVar(&hotspotFlags.limit, "limit", 0, "cap the listing")
	rootCmd.AddCommand(hotspotsCmd, rankCmd, statusCmd)
}
