package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aerele/taskstream/internal/ics"
	appLog "github.com/aerele/taskstream/internal/log"
	"github.com/aerele/taskstream/internal/store"
	"github.com/aerele/taskstream/internal/workitem"
)

func newImportCmd(flags *rootFlags) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:          "import <ics-url|ics-file>",
		Short:        "Import recurring events from an iCalendar feed as work items",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig(flags)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			src := args[0]

			var body []byte
			if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
				res, err := ics.NewFetcher(conf.FeedCacheDir).Fetch(ctx, src)
				if err != nil {
					return fmt.Errorf("fetch feed: %w", err)
				}
				body = res.Body
			} else if body, err = os.ReadFile(src); err != nil {
				return fmt.Errorf("reading %s: %w", src, err)
			}

			items, err := ics.Import(body, conf.Location())
			if err != nil {
				return fmt.Errorf("import feed: %w", err)
			}

			out := cmd.OutOrStdout()
			if dryRun {
				for _, it := range items {
					fmt.Fprintf(out, "%s\t%s\n", it.UID, it.Summary)
				}
				return nil
			}

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

			imported := 0
			for _, it := range items {
				saved, err := svc.Save(ctx, it.WorkItem())
				if err != nil {
					appLog.Error("import: save failed", err, "uid", it.UID)
					continue
				}
				imported++
				fmt.Fprintf(out, "%s\t%s\t%s\n", saved.WorkItem.ID, saved.WorkItem.Title, saved.Description)
			}
			if imported < len(items) {
				return fmt.Errorf("imported %d of %d events", imported, len(items))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List importable events without saving them")
	return cmd
}
