package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aerele/taskstream/internal/config"
	"github.com/aerele/taskstream/internal/recurrence"
	"github.com/aerele/taskstream/internal/schedule"
)

const dateLayout = "2006-01-02"

func newDescribeCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:          "describe <recurrence-file|->",
		Short:        "Print the plain-language description of a recurrence",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readRecurrence(cmd, args[0])
			if err != nil {
				return err
			}
			d := recurrence.Describe(cfg)
			if asJSON {
				return writeJSON(cmd, d)
			}
			fmt.Fprintln(cmd.OutOrStdout(), d.Text())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print every touched anchor as JSON")
	return cmd
}

func newRRuleCmd() *cobra.Command {
	var until string

	cmd := &cobra.Command{
		Use:          "rrule <recurrence-file|->",
		Short:        "Print the RFC 5545 RRULE for a recurrence",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readRecurrence(cmd, args[0])
			if err != nil {
				return err
			}
			if err := recurrence.ValidateConfig(cfg); err != nil {
				return err
			}
			var u time.Time
			if until != "" {
				if u, err = time.ParseInLocation(dateLayout, until, time.UTC); err != nil {
					return fmt.Errorf("--until: %w", err)
				}
				u = u.Add(24*time.Hour - time.Second)
			}
			rule, err := schedule.RRule(cfg, u)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "RRULE:"+rule)
			return nil
		},
	}
	cmd.Flags().StringVar(&until, "until", "", "Last date (YYYY-MM-DD) emitted as UNTIL")
	return cmd
}

func newRemindersCmd() *cobra.Command {
	var (
		from     string
		until    string
		timezone string
		limit    int
	)

	cmd := &cobra.Command{
		Use:          "reminders <recurrence-file|->",
		Short:        "List the reminder instants a recurrence produces",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readRecurrence(cmd, args[0])
			if err != nil {
				return err
			}
			if err := recurrence.ValidateConfig(cfg); err != nil {
				return err
			}

			loc, err := time.LoadLocation(timezone)
			if err != nil {
				return fmt.Errorf("--timezone: %w", err)
			}

			now := time.Now().In(loc)
			if from != "" {
				if now, err = time.ParseInLocation(dateLayout, from, loc); err != nil {
					return fmt.Errorf("--from: %w", err)
				}
			}
			if until == "" {
				return fmt.Errorf("--until is required")
			}
			end, err := time.ParseInLocation(dateLayout, until, loc)
			if err != nil {
				return fmt.Errorf("--until: %w", err)
			}

			res, err := schedule.Expand(cfg, schedule.ExpandConfig{
				Location:       loc,
				Now:            now,
				RepeatUntil:    end,
				MaxOccurrences: limit,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range res.Times {
				fmt.Fprintln(out, t.Format(time.RFC3339))
			}
			if res.Truncated {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: output truncated at %d reminders\n", len(res.Times))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Start date (YYYY-MM-DD); defaults to now")
	cmd.Flags().StringVar(&until, "until", "", "Last date (YYYY-MM-DD) that may carry a reminder")
	cmd.Flags().StringVar(&timezone, "timezone", config.DefaultConfig().Timezone, "IANA timezone the rule is evaluated in")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum reminders to list (0 for the default cap)")
	return cmd
}
