package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skycruzer/roster-engine/roster"
)

type periodOutput struct {
	Code      string `json:"code"`
	Number    int    `json:"number"`
	Year      int    `json:"year"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func newPeriodsCmd(configPath *string) *cobra.Command {
	var (
		date string
		from string
		to   string
	)

	cmd := &cobra.Command{
		Use:   "periods",
		Short: "Resolve roster periods for a date or date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			calc, err := cfg.Calculator()
			if err != nil {
				return err
			}

			var periods []roster.Period
			switch {
			case date != "":
				d, err := roster.ParseDate(date)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
				periods = []roster.Period{calc.PeriodForDate(d)}
			case from != "" && to != "":
				f, err := roster.ParseDate(from)
				if err != nil {
					return fmt.Errorf("invalid --from: %w", err)
				}
				t, err := roster.ParseDate(to)
				if err != nil {
					return fmt.Errorf("invalid --to: %w", err)
				}
				periods, err = calc.PeriodsOverlapping(f, t)
				if err != nil {
					return err
				}
			default:
				periods = []roster.Period{calc.PeriodForDate(roster.Today())}
			}

			out := make([]periodOutput, 0, len(periods))
			for _, p := range periods {
				out = append(out, periodOutput{
					Code:      p.Code,
					Number:    p.Number,
					Year:      p.Year,
					StartDate: p.Start.String(),
					EndDate:   p.End.String(),
				})
			}
			return writeJSON(out)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Single date (YYYY-MM-DD); defaults to today")
	cmd.Flags().StringVar(&from, "from", "", "Range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Range end (YYYY-MM-DD)")
	return cmd
}
