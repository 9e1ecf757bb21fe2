package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	appLog "github.com/aerele/taskstream/internal/log"
	"github.com/aerele/taskstream/internal/reminder"
	"github.com/aerele/taskstream/internal/store"
	"github.com/aerele/taskstream/internal/web"
	"github.com/aerele/taskstream/internal/workitem"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Run the HTTP API and the reminder dispatcher",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := loadConfig(flags)
			if err != nil {
				return err
			}
			// CLI --listen overrides config file listen if provided.
			if listen != "" {
				conf.Listen = listen
			}

			appLog.Info("taskstream starting", "version", Version)
			appLog.Info("effective config",
				"listen", conf.Listen,
				"timezone", conf.Timezone,
				"database", conf.Database,
				"reminder_cron", conf.ReminderCron,
				"horizon_days", conf.HorizonDays,
				"basic_auth", conf.BasicAuth != nil,
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, err := store.New(conf.Database)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			svc := workitem.New(st, workitem.Options{
				Location:       conf.Location(),
				HorizonDays:    conf.HorizonDays,
				MaxOccurrences: conf.MaxOccurrences,
			})
			// A failed refresh leaves the previous reminders in place.
			if err := svc.Refresh(ctx); err != nil {
				appLog.Warn("reminder refresh incomplete", "err", err.Error())
			}

			disp, err := reminder.New(st, reminder.LogNotifier{}, conf.ReminderCron, conf.Location())
			if err != nil {
				return err
			}
			if err := disp.Start(ctx); err != nil {
				return fmt.Errorf("start dispatcher: %w", err)
			}
			defer disp.Stop()

			if err := web.NewServer(conf, svc).Run(ctx); err != nil {
				return fmt.Errorf("http server: %w", err)
			}
			appLog.Info("taskstream exiting")
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}
