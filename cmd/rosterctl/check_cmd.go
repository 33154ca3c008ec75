package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/skycruzer/roster-engine/config"
	"github.com/skycruzer/roster-engine/leave"
	"github.com/skycruzer/roster-engine/roster"
	"github.com/skycruzer/roster-engine/store/memory"
	"github.com/skycruzer/roster-engine/store/postgres"
	"github.com/skycruzer/roster-engine/store/sqlite"
)

type checkOutput struct {
	Decision         string                `json:"decision"`
	Eligible         bool                  `json:"eligible"`
	RequiresOverride bool                  `json:"requires_override"`
	Reasons          []string              `json:"reasons,omitempty"`
	Conflicts        *leave.ConflictReport `json:"conflict_report,omitempty"`
}

func newCheckCmd(configPath *string) *cobra.Command {
	var (
		pilotID     string
		role        string
		startDate   string
		endDate     string
		requestType string
		submittedAt string
		override    bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Dry-run an eligibility check against the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			calc, err := cfg.Calculator()
			if err != nil {
				return err
			}
			threshold, err := cfg.Threshold()
			if err != nil {
				return err
			}

			candidate, err := buildCandidate(pilotID, role, startDate, endDate, requestType, submittedAt)
			if err != nil {
				return err
			}

			store, closeStore, err := openStore(cfg, calc)
			if err != nil {
				return err
			}
			defer closeStore()

			existing, err := store.RecordsOverlapping(cmd.Context(), candidate.StartDate, candidate.EndDate)
			if err != nil {
				return err
			}

			evaluator := leave.NewEvaluator(calc)
			verdict, err := evaluator.Evaluate(candidate, existing, threshold, leave.EvaluationContext{
				HasOverrideAuthority: override,
				LateCutoffDays:       cfg.Rules.LateCutoffDays,
			})
			if err != nil {
				return err
			}

			return writeJSON(checkOutput{
				Decision:         string(verdict.Decision),
				Eligible:         verdict.Eligible,
				RequiresOverride: verdict.RequiresOverride,
				Reasons:          verdict.Reasons,
				Conflicts:        verdict.Conflicts,
			})
		},
	}

	cmd.Flags().StringVar(&pilotID, "pilot", "", "Pilot ID (required)")
	cmd.Flags().StringVar(&role, "role", "", "Crew role: Captain | First Officer (required)")
	cmd.Flags().StringVar(&startDate, "start", "", "Leave start date (YYYY-MM-DD, required)")
	cmd.Flags().StringVar(&endDate, "end", "", "Leave end date (YYYY-MM-DD, required)")
	cmd.Flags().StringVar(&requestType, "type", string(leave.TypeAnnual), "Request type (ANNUAL, RDO, SDO, SICK, ...)")
	cmd.Flags().StringVar(&submittedAt, "submitted", "", "Submission date (YYYY-MM-DD); defaults to today")
	cmd.Flags().BoolVar(&override, "override-authority", false, "Evaluate with override authority")
	_ = cmd.MarkFlagRequired("pilot")
	_ = cmd.MarkFlagRequired("role")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func buildCandidate(pilotID, role, start, end, requestType, submitted string) (leave.CandidateRequest, error) {
	r, err := leave.ParseRole(role)
	if err != nil {
		return leave.CandidateRequest{}, fmt.Errorf("invalid --role: %w", err)
	}
	t, err := leave.ParseRequestType(requestType)
	if err != nil {
		return leave.CandidateRequest{}, fmt.Errorf("invalid --type: %w", err)
	}
	startDate, err := roster.ParseDate(start)
	if err != nil {
		return leave.CandidateRequest{}, fmt.Errorf("invalid --start: %w", err)
	}
	endDate, err := roster.ParseDate(end)
	if err != nil {
		return leave.CandidateRequest{}, fmt.Errorf("invalid --end: %w", err)
	}
	submittedAt := roster.Today()
	if submitted != "" {
		submittedAt, err = roster.ParseDate(submitted)
		if err != nil {
			return leave.CandidateRequest{}, fmt.Errorf("invalid --submitted: %w", err)
		}
	}
	return leave.CandidateRequest{
		PilotID:     leave.PilotID(pilotID),
		Role:        r,
		StartDate:   startDate,
		EndDate:     endDate,
		Type:        t,
		SubmittedAt: submittedAt,
	}, nil
}

// openStore builds the configured AdmissionStore and its closer.
func openStore(cfg config.Config, calc *roster.Calculator) (leave.AdmissionStore, func(), error) {
	switch cfg.Database.Driver {
	case "memory":
		return memory.New(calc), func() {}, nil
	case "sqlite":
		s, err := sqlite.New(cfg.Database.Path, calc)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s, err := postgres.New(ctx, cfg.Database.DSN, calc)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}
