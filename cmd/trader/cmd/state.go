package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rustyeddy/ivtrader/store"
	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or reset the saved daily risk state",
	Long: `Read or clear the daily loss snapshot kept in the configured store.

The day defaults to today in the configured trading timezone.

Examples:
  trader state show --config trader.yaml
  trader state show 2025-03-03
  trader state show --all
  trader state reset 2025-03-03`,
}

var stateShowCmd = &cobra.Command{
	Use:   "show [YYYY-MM-DD]",
	Short: "Show the daily loss for a day",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStateShow,
}

var stateResetCmd = &cobra.Command{
	Use:   "reset [YYYY-MM-DD]",
	Short: "Delete the saved daily loss for a day",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStateReset,
}

var stateShowAll bool

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateResetCmd)

	stateShowCmd.Flags().BoolVar(&stateShowAll, "all", false, "list every saved day (sqlite store only)")
}

func stateDay(args []string, loc *time.Location) (string, error) {
	if len(args) == 0 {
		return store.Day(time.Now().In(loc)), nil
	}
	if _, err := time.Parse(store.DayLayout, args[0]); err != nil {
		return "", fmt.Errorf("invalid day %q, expected YYYY-MM-DD", args[0])
	}
	return args[0], nil
}

func runStateShow(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.StoreOptions())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	days := []string{}
	if stateShowAll {
		lister, ok := st.(interface {
			Days(context.Context) ([]string, error)
		})
		if !ok {
			return fmt.Errorf("--all is not supported by the %s store", cfg.Store.Type)
		}
		if days, err = lister.Days(ctx); err != nil {
			return err
		}
	} else {
		day, err := stateDay(args, loc)
		if err != nil {
			return err
		}
		days = append(days, day)
	}

	out := cmd.OutOrStdout()
	for _, day := range days {
		rs, err := store.LoadState(ctx, st, day, cfg.Trade.DailyLossLimit)
		if err != nil {
			return err
		}
		status := "open"
		if rs.LimitReached() {
			status = "LIMIT REACHED"
		}
		fmt.Fprintf(out, "%s  loss %.2f / %.2f  remaining %.2f  %s\n",
			day, rs.DailyLossAccumulated, rs.DailyLossLimit, rs.Remaining(), status)
	}
	return nil
}

func runStateReset(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	day, err := stateDay(args, loc)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.StoreOptions())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := st.Delete(context.Background(), day); err != nil {
		return fmt.Errorf("reset %s: %w", day, err)
	}
	log.Info("risk state reset", "day", day, "store", cfg.Store.Type)
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Reset daily loss for %s\n", day)
	return nil
}
