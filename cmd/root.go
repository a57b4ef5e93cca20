package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/agentic-research/routemap/api"
	"github.com/agentic-research/routemap/internal/builder"
	"github.com/agentic-research/routemap/internal/config"
	"github.com/agentic-research/routemap/internal/logging"
)

// ConfigEnv names the environment variable that overrides the default
// configuration file.
const ConfigEnv = "ROUTEMAP_CONFIG"

var (
	noColor  bool
	pagesDir string
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored log prefixes")
	rootCmd.Flags().StringVarP(&pagesDir, "pages", "p", "", "Override the routing directory")
}

var rootCmd = &cobra.Command{
	Use:   "routemap [config]",
	Short: "Generate a pages directory of forwarding modules from a route table",
	Args:  cobra.MaximumNArgs(1),

	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(args)
		if err != nil {
			return err
		}
		if pagesDir != "" {
			opts.PagesDir = pagesDir
		}
		b, err := builder.New(opts, newLogger(opts.Logger, cmd.ErrOrStderr()))
		if err != nil {
			return err
		}
		return b.Build()
	},
}

// configPath picks the configuration file: the argument, then ConfigEnv,
// then config.DefaultFile.
func configPath(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	if env := os.Getenv(ConfigEnv); env != "" {
		return env
	}
	return config.DefaultFile
}

func loadOptions(args []string) (api.Options, error) {
	path := configPath(args)
	opts, err := config.Load(path)
	if err != nil {
		return api.Options{}, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return opts, nil
}

func newLogger(name string, w io.Writer) logging.Logger {
	var opts []logging.Option
	if noColor {
		opts = append(opts, logging.WithColor(false))
	}
	return logging.Wrap(logging.Named(name, w), opts...)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
