package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skycruzer/roster-engine/leave"
	"github.com/skycruzer/roster-engine/roster"
)

type dayAvailabilityOutput struct {
	Date    string         `json:"date"`
	OnLeave map[string]int `json:"on_leave"`
	Total   int            `json:"total"`
}

func newAvailabilityCmd(configPath *string) *cobra.Command {
	var (
		from string
		to   string
	)

	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Show per-day on-leave counts by role",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			calc, err := cfg.Calculator()
			if err != nil {
				return err
			}

			f, err := roster.ParseDate(from)
			if err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
			t, err := roster.ParseDate(to)
			if err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}

			store, closeStore, err := openStore(cfg, calc)
			if err != nil {
				return err
			}
			defer closeStore()

			records, err := store.RecordsOverlapping(cmd.Context(), f, t)
			if err != nil {
				return err
			}
			seq, err := leave.CountOnLeaveRange(f, t, records)
			if err != nil {
				return err
			}

			var out []dayAvailabilityOutput
			for day, counts := range seq {
				onLeave := make(map[string]int, len(leave.Roles()))
				for _, role := range leave.Roles() {
					onLeave[string(role)] = counts[role]
				}
				out = append(out, dayAvailabilityOutput{
					Date:    day.String(),
					OnLeave: onLeave,
					Total:   counts.Total(),
				})
			}
			return writeJSON(out)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Range end (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
