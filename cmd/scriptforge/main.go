package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mbellec/scriptforge"
	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds minimal global/persistent flags for CLI commands
type GlobalFlags struct {
	ConfigPath string // Only config path for CLI commands
}

// buildRoot creates the root command with all subcommands attached
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	createFlags := &CreateFlags{}
	runFlags := &RunFlags{}
	stopFlags := &StopFlags{}
	listFlags := &ListFlags{}
	findFlags := &FindFlags{}
	pruneFlags := &PruneFlags{}
	templateSaveFlags := &TemplateSaveFlags{}
	templateShowFlags := &TemplateShowFlags{}
	serveFlags := &ServeFlags{}

	forgeCommand := command{global: globalFlags}

	root := createRootCommand(globalFlags)

	// Add subcommands
	root.AddCommand(
		createCreateCommand(forgeCommand, createFlags),
		createRunCommand(forgeCommand, runFlags),
		createStopCommand(forgeCommand, stopFlags),
		createListCommand(forgeCommand, listFlags),
		createFindCommand(forgeCommand, findFlags),
		createPruneCommand(forgeCommand, pruneFlags),
		createTemplateCommand(forgeCommand, templateSaveFlags, templateShowFlags),
		createServeCommand(globalFlags, serveFlags),
		createMenuCommand(forgeCommand),
	)

	return root
}

// createRootCommand creates the root command with minimal persistent flags
func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "scriptforge",
		Short: "Generate and supervise automation scripts from plain text",
		Long: `Scriptforge turns short text commands into AutoHotkey scripts,
keeps them in a persistent catalog, launches them, and tracks the
resulting OS processes.

Examples:
  scriptforge create "hotkey ctrl+alt+t: lance le terminal"
  scriptforge run "exécute lance le terminal"
  scriptforge list
  scriptforge serve                 # Start daemon
  scriptforge stop --name=lance_le_terminal_20260825120000`,
	}

	// Only essential flags for CLI commands
	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")

	return root
}

// createCreateCommand creates the create subcommand
func createCreateCommand(forgeCommand command, createFlags *CreateFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [command text]",
		Short: "Generate a script without launching it",
		Long: `Classify a free-text command, render the matching template, write
the script file, and register it in the catalog.

Examples:
  scriptforge create "hotkey ctrl+alt+t: lance le terminal"
  scriptforge create "text macro @@:: mon.email@example.com" --description="raccourci email"`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				createFlags.Command = strings.Join(args, " ")
			}
			return forgeCommand.Create(*createFlags)
		},
	}

	cmd.Flags().StringVar(&createFlags.Description, "description", "", "catalog description (defaults to the command text)")

	// Remote daemon connection
	cmd.Flags().StringVar(&createFlags.APIUrl, "api-url", "", "remote daemon URL (e.g. http://host:8080/api)")
	cmd.Flags().DurationVar(&createFlags.APITimeout, "api-timeout", 10*time.Second, "request timeout")

	return cmd
}

// createRunCommand creates the run subcommand
func createRunCommand(forgeCommand command, runFlags *RunFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [command text]",
		Short: "Process a command or execute a cataloged script",
		Long: `With command text, re-execute a matching cataloged script or
generate and launch a new one. With --name, execute that catalog entry.

Examples:
  scriptforge run "hotkey ctrl+alt+t: lance le terminal"
  scriptforge run "exécute lance le terminal"
  scriptforge run --name=lance_le_terminal_20260825120000`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				runFlags.Command = strings.Join(args, " ")
			}
			return forgeCommand.Run(*runFlags)
		},
	}

	cmd.Flags().StringVar(&runFlags.Name, "name", "", "catalog entry to execute instead of free text")
	cmd.Flags().StringVar(&runFlags.Description, "description", "", "catalog description for newly generated scripts")

	// Remote daemon connection
	cmd.Flags().StringVar(&runFlags.APIUrl, "api-url", "", "remote daemon URL (e.g. http://host:8080/api)")
	cmd.Flags().DurationVar(&runFlags.APITimeout, "api-timeout", 10*time.Second, "request timeout")

	return cmd
}

// createStopCommand creates the stop subcommand
func createStopCommand(forgeCommand command, stopFlags *StopFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop a running script",
		Long: `Force-stop a script tracked by the daemon.

Examples:
  scriptforge stop --name=lance_le_terminal_20260825120000
  scriptforge stop --name=web --api-url=http://remote:8080/api`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return forgeCommand.Stop(*stopFlags)
		},
	}

	cmd.Flags().StringVar(&stopFlags.Name, "name", "", "script name (required)")
	cmd.Flags().StringVar(&stopFlags.APIUrl, "api-url", "", "remote daemon URL (e.g. http://host:8080/api)")
	cmd.Flags().DurationVar(&stopFlags.APITimeout, "api-timeout", 10*time.Second, "request timeout")

	// Mark required flags
	if err := cmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}

	return cmd
}

// createListCommand creates the list subcommand
func createListCommand(forgeCommand command, listFlags *ListFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cataloged scripts",
		Long: `List catalog entries whose script file still exists.

Examples:
  scriptforge list
  scriptforge list --usage --api-url=http://127.0.0.1:8080/api`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return forgeCommand.List(*listFlags)
		},
	}

	cmd.Flags().BoolVar(&listFlags.Usage, "usage", false, "include cpu/memory usage of running scripts (requires --api-url)")
	cmd.Flags().StringVar(&listFlags.APIUrl, "api-url", "", "remote daemon URL (e.g. http://host:8080/api)")
	cmd.Flags().DurationVar(&listFlags.APITimeout, "api-timeout", 10*time.Second, "request timeout")

	return cmd
}

// createFindCommand creates the find subcommand
func createFindCommand(forgeCommand command, findFlags *FindFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find [query]",
		Short: "Find a script by name or description",
		Long: `Print the first catalog entry whose name or description contains
the query, case-insensitively.

Examples:
  scriptforge find terminal
  scriptforge find "raccourci email"`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				findFlags.Query = strings.Join(args, " ")
			}
			return forgeCommand.Find(*findFlags)
		},
	}

	cmd.Flags().StringVar(&findFlags.APIUrl, "api-url", "", "remote daemon URL (e.g. http://host:8080/api)")
	cmd.Flags().DurationVar(&findFlags.APITimeout, "api-timeout", 10*time.Second, "request timeout")

	return cmd
}

// createPruneCommand creates the prune subcommand
func createPruneCommand(forgeCommand command, pruneFlags *PruneFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Drop catalog entries whose file is gone",
		Long: `Remove catalog entries whose script file no longer exists on disk
and print the removed names.

Examples:
  scriptforge prune`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return forgeCommand.Prune(*pruneFlags)
		},
	}

	cmd.Flags().StringVar(&pruneFlags.APIUrl, "api-url", "", "remote daemon URL (e.g. http://host:8080/api)")
	cmd.Flags().DurationVar(&pruneFlags.APITimeout, "api-timeout", 10*time.Second, "request timeout")

	return cmd
}

// createTemplateCommand creates the template command with subcommands
func createTemplateCommand(forgeCommand command, saveFlags *TemplateSaveFlags, showFlags *TemplateShowFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage script templates",
		Long: `Show the built-in template for a script kind or override it with a
user template.

Examples:
  scriptforge template show --kind=hotkey
  scriptforge template save --name=hotkey --file=./my-hotkey.tmpl`,
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective template for a kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			return forgeCommand.TemplateShow(*showFlags)
		},
	}
	show.Flags().StringVar(&showFlags.Kind, "kind", "", "script kind: hotkey, text_macro, window_automation, translation_tool, custom (required)")
	if err := show.MarkFlagRequired("kind"); err != nil {
		panic(err)
	}

	save := &cobra.Command{
		Use:   "save",
		Short: "Save a user template",
		RunE: func(cmd *cobra.Command, args []string) error {
			return forgeCommand.TemplateSave(*saveFlags)
		},
	}
	save.Flags().StringVar(&saveFlags.Name, "name", "", "template name; a kind name overrides the built-in body (required)")
	save.Flags().StringVar(&saveFlags.File, "file", "", "path to the template body (required)")
	if err := save.MarkFlagRequired("name"); err != nil {
		panic(err)
	}
	if err := save.MarkFlagRequired("file"); err != nil {
		panic(err)
	}

	cmd.AddCommand(show, save)

	return cmd
}

// createServeCommand creates the serve subcommand
func createServeCommand(globalFlags *GlobalFlags, serveFlags *ServeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [config.toml]",
		Short: "Start the scriptforge daemon",
		Long: `Start the HTTP daemon serving the script API and keep supervising
launched scripts until interrupted.

Examples:
  scriptforge serve                     # Start daemon (uses --config)
  scriptforge serve config.toml         # Start with specific config file
  scriptforge serve --listen=0.0.0.0:9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServeCommand(globalFlags, serveFlags, args)
		},
	}

	cmd.Flags().StringVar(&serveFlags.Listen, "listen", "", "override the configured listen address")

	return cmd
}

// createMenuCommand creates the menu subcommand
func createMenuCommand(forgeCommand command) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Interactive script menu",
		Long: `Open the numbered interactive menu: create and launch a script,
list scripts, relaunch an existing one, or stop one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return forgeCommand.Menu()
		},
	}
}

func runServeCommand(globalFlags *GlobalFlags, serveFlags *ServeFlags, args []string) error {
	configPath := globalFlags.ConfigPath
	if len(args) > 0 {
		configPath = args[0]
	}

	cfg := scriptforge.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = scriptforge.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
	}
	if serveFlags.Listen != "" {
		cfg.Server.Listen = serveFlags.Listen
	}

	agent, err := scriptforge.New(cfg)
	if err != nil {
		return err
	}

	// Setup metrics from config
	if cfg.Metrics.Enabled {
		if err := scriptforge.RegisterMetricsDefault(); err != nil {
			fmt.Printf("Warning: failed to register metrics: %v\n", err)
		}
		if cfg.Metrics.Listen != "" {
			go func() {
				if err := scriptforge.ServeMetrics(cfg.Metrics.Listen); err != nil {
					fmt.Printf("Metrics server error: %v\n", err)
				}
			}()
		}
	}

	server, err := scriptforge.NewHTTPServer(cfg.Server.Listen, cfg.Server.BasePath, agent)
	if err != nil {
		_ = agent.Close()
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	fmt.Printf("Starting scriptforge server on %s%s\n", cfg.Server.Listen, cfg.Server.BasePath)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("Shutting down...")
	err = server.Close()
	if cerr := agent.Close(); err == nil {
		err = cerr
	}
	return err
}
