package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/amigodata/amigosas/internal/config"
	"github.com/amigodata/amigosas/internal/manager"
	"github.com/amigodata/amigosas/internal/sas"
	"github.com/amigodata/amigosas/internal/tui"
)

var (
	cfgPath     string
	profileName string
	noTUI       bool
	verbose     bool
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "amigosas",
		Short: "Browse and query SAS-style data libraries",
		Long: `amigosas connects an analytics session for a configured profile and
browses its libraries and tables, reconnecting the session automatically
when an operation fails.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
		RunE: runBrowse,
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "",
		fmt.Sprintf("Path to the profile config file (default %s)", config.DefaultPath()))
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "",
		"Profile to connect with (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")
	rootCmd.Flags().BoolVar(&noTUI, "no-tui", false,
		"List libraries and tables without the TUI")

	rootCmd.AddCommand(NewShowCommand())
	rootCmd.AddCommand(NewQueryCommand())
	rootCmd.AddCommand(NewChmodCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging() {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
	}).Level(level).With().Timestamp().Logger()
}

// connect resolves the profile and opens a session manager for it.
func connect() (*manager.SessionManager, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	name, prof, err := cfg.Resolve(profileName)
	if err != nil {
		return nil, err
	}

	mcfg := manager.Config{
		Profile:     name,
		Libraries:   prof.Libraries,
		Interactive: prof.InteractiveEnabled(),
	}

	var opts []manager.Option
	if mcfg.Interactive {
		opts = append(opts, manager.WithDisplay(tui.NewTerminalDisplay()))
	}

	return manager.New(mcfg, sas.NewEngineConnector(), opts...)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	mgr, err := connect()
	if err != nil {
		return err
	}
	defer mgr.Close()

	if noTUI {
		return runPlainListing(mgr)
	}

	return tui.ShowBrowser(mgr)
}

// runPlainListing prints libraries and their tables without the TUI.
func runPlainListing(mgr *manager.SessionManager) error {
	libs, err := mgr.ListLibraries()
	if err != nil {
		return fmt.Errorf("failed to list libraries: %w", err)
	}

	if len(libs) == 0 {
		fmt.Println("No libraries assigned")
		return nil
	}

	for i, lib := range libs {
		fmt.Printf("%d. %s\n", i+1, lib)

		tables, err := mgr.ListTables(lib)
		if err != nil {
			fmt.Printf("   Error listing tables: %v\n", err)
			continue
		}
		for _, table := range tables {
			fmt.Printf("   - %s (%s, %d bytes, %s)\n",
				table.Name,
				table.Format,
				table.SizeBytes,
				table.ModifiedAt.Format("2006-01-02 15:04"))
		}
	}

	return nil
}
