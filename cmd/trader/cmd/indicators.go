package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/rustyeddy/ivtrader/feed"
	"github.com/rustyeddy/ivtrader/market/indicators"
	"github.com/rustyeddy/ivtrader/strategies"
	"github.com/spf13/cobra"
)

var indicatorsCmd = &cobra.Command{
	Use:   "indicators",
	Short: "Print the indicator set for a CSV bar file",
	Long: `Compute every indicator over a CSV bar file and print the last rows,
followed by the entry decision for the final bar.

Example:
  trader indicators --bars data/nifty_1m.csv --tail 20 --ema 50`,
	RunE: runIndicators,
}

var (
	indBarsPath string
	indTail     int
	indEMA      int
)

func init() {
	rootCmd.AddCommand(indicatorsCmd)

	indicatorsCmd.Flags().StringVarP(&indBarsPath, "bars", "b", "", "path to CSV bar file (required)")
	indicatorsCmd.Flags().IntVarP(&indTail, "tail", "n", 10, "number of rows to print (0 for all)")
	indicatorsCmd.Flags().IntVar(&indEMA, "ema", 0, "also print a streaming EMA of this period")
	indicatorsCmd.MarkFlagRequired("bars")
}

func runIndicators(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	if indEMA < 0 {
		return fmt.Errorf("--ema must not be negative")
	}

	bars, err := feed.ReadFile(indBarsPath, loc)
	if err != nil {
		return fmt.Errorf("read bars: %w", err)
	}
	set, err := indicators.Compute(bars, cfg.IndicatorParams())
	if err != nil {
		return err
	}

	var extra []float64
	var extraName string
	if indEMA > 0 {
		ema := indicators.NewEMA(indEMA)
		extraName = ema.Name()
		extra = make([]float64, len(bars))
		for i, b := range bars {
			ema.Update(b)
			extra[i] = ema.Float64()
		}
	}

	names := set.Names()
	start := 0
	if indTail > 0 && len(bars) > indTail {
		start = len(bars) - indTail
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
	header := append([]string{"time"}, names...)
	if extraName != "" {
		header = append(header, extraName)
	}
	fmt.Fprintln(w, strings.Join(header, "\t")+"\t")

	for i := start; i < len(bars); i++ {
		row, _ := set.At(i)
		cols := []string{bars[i].Time.In(loc).Format("2006-01-02 15:04")}
		for _, n := range names {
			cols = append(cols, formatValue(row[n]))
		}
		if extra != nil {
			cols = append(cols, formatValue(extra[i]))
		}
		fmt.Fprintln(w, strings.Join(cols, "\t")+"\t")
	}
	if err := w.Flush(); err != nil {
		return err
	}

	ev, err := cfg.Evaluator()
	if err != nil {
		return err
	}
	d := strategies.EvaluateLatest(ev, set)
	fmt.Fprintf(cmd.OutOrStdout(), "\n%s: %s (%s)\n", ev.Name(), d.Signal, d.Reason)
	return nil
}

func formatValue(v float64) string {
	if indicators.IsNoVolume(v) {
		return "-"
	}
	return fmt.Sprintf("%.4f", v)
}
