package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aerele/taskstream/internal/config"
	appLog "github.com/aerele/taskstream/internal/log"
	"github.com/aerele/taskstream/internal/model"
)

const defaultConfigPath = "/etc/taskstream/config.yaml"

// rootFlags holds persistent flags shared by every subcommand.
type rootFlags struct {
	configPath string
	logLevel   string
}

// NewRootCmd creates the taskstream command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "taskstream",
		Short:         "taskstream - recurring work items with reminders",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if flags.logLevel != "" {
				appLog.SetLevel(appLog.ParseLevel(flags.logLevel))
			}
		},
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", defaultConfigPath, "Path to config file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (overrides config if set)")

	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newImportCmd(flags))
	root.AddCommand(newDescribeCmd())
	root.AddCommand(newRRuleCmd())
	root.AddCommand(newRemindersCmd())
	return root
}

// loadConfig loads the config file and applies its log level unless the
// --log-level flag already chose one.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	conf, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", flags.configPath, err)
	}
	if flags.logLevel == "" {
		appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	}
	return conf, nil
}

// readRecurrence decodes a recurrence configuration from path, or from
// stdin when path is "-". YAML and JSON are both accepted.
func readRecurrence(cmd *cobra.Command, path string) (model.RecurrenceConfig, error) {
	var cfg model.RecurrenceConfig

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
