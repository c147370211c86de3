package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	proxylist "github.com/goliatone/go-proxylist"
	"github.com/goliatone/go-proxylist/internal/config"
	"github.com/goliatone/go-proxylist/pkg/activity"
	"github.com/goliatone/go-proxylist/property"
)

func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app is what every subcommand needs once configuration is loaded.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	manager *property.Manager
}

func newRootCmd() *cobra.Command {
	var configPath string
	var audit bool
	a := &app{}

	cmd := &cobra.Command{
		Use:          "plistctl",
		Short:        "Inspect proxy-list domains declared in proxy definitions",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := config.NewLogger(cfg.Log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger

			plLogger := proxylist.NewSlogLogger(logger)
			domainOpts := []proxylist.Option{
				proxylist.WithEngine(cfg.Engine),
				proxylist.WithLinkFunctions(),
				proxylist.WithEvaluatorLogger(proxylist.NewEvaluatorLogger(plLogger)),
			}
			if audit {
				domainOpts = append(domainOpts, proxylist.WithActivityHooks(activity.Hooks{auditHook(logger)}))
			}
			a.manager = property.NewManager(
				property.WithLogger(plLogger),
				property.WithDomainOptions(domainOpts...),
			)
			if cfg.Definitions == "" {
				return nil
			}
			f, err := os.Open(cfg.Definitions)
			if err != nil {
				return fmt.Errorf("open definitions: %w", err)
			}
			defer f.Close()
			if err := a.manager.LoadDefinitions(f); err != nil {
				return fmt.Errorf("load definitions %s: %w", cfg.Definitions, err)
			}
			logger.Debug("definitions.loaded", "path", cfg.Definitions, "groups", a.manager.Groups())
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (toml); defaults to $HOME/.config/plistctl/config.toml")
	flags.String("definitions", "", "Proxy definitions XML file")
	flags.String("log-level", "info", "Log level: debug|info|warn|error")
	flags.String("log-format", "text", "Log format: text|json")
	flags.String("engine", "expr", "Link transform engine: expr|cel|js")
	flags.String("session", "default", "Session used for state snapshots")
	flags.BoolVar(&audit, "audit", false, "Log domain activity events")

	cmd.AddCommand(typesCmd(a), stateCmd(a), inspectCmd(a))
	return cmd
}

// auditHook logs every domain activity event.
func auditHook(logger *slog.Logger) activity.ActivityHook {
	return activity.HookFunc(func(ctx context.Context, event activity.Event) error {
		logger.InfoContext(ctx, "activity",
			"verb", event.Verb,
			"object_id", event.ObjectID,
			"channel", event.Channel,
			"metadata", event.Metadata,
		)
		return nil
	})
}
