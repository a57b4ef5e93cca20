package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentic-research/routemap/internal/devhook"
)

var (
	devMode     string
	devTarget   string
	devWatch    bool
	devDebounce time.Duration
)

func init() {
	devCmd.Flags().StringVar(&devMode, "mode", devhook.ModeDevelopment, "Pipeline mode")
	devCmd.Flags().StringVar(&devTarget, "name", devhook.TargetClient, "Pipeline target name")
	devCmd.Flags().BoolVarP(&devWatch, "watch", "w", false, "Rebuild when the config or a page module changes")
	devCmd.Flags().DurationVar(&devDebounce, "debounce", devhook.DefaultDebounce, "Quiet period before a rebuild")
	rootCmd.AddCommand(devCmd)
}

var devCmd = &cobra.Command{
	Use:   "dev [config] [-- command args...]",
	Short: "Build the route map on startup, optionally watch, and run a dev server",
	Long: `Builds the route map once when the session initializes, as a development
pipeline plugin would. With --watch, rebuilds after the configuration file or
any route target changes. Arguments after "--" are run as a child process that
shares this terminal; dev exits when it does.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var child []string
		if at := cmd.ArgsLenAtDash(); at >= 0 {
			child = args[at:]
			args = args[:at]
		}
		if len(args) > 1 {
			return fmt.Errorf("accepts at most 1 config argument, received %d", len(args))
		}

		opts := devhook.PluginOptions{ConfigPath: configPath(args)}
		plugin, err := devhook.NewPlugin(opts, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		session := devhook.NewSession(devMode, devTarget)
		plugin.Apply(session)
		session.Initialize()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := newLogger("console", cmd.ErrOrStderr())
		watching := devWatch && devMode == devhook.ModeDevelopment && devTarget == devhook.TargetClient
		if watching {
			w, err := devhook.NewWatcher(devDebounce, logger)
			if err != nil {
				return err
			}
			w.Set(plugin.WatchPaths())
			go func() {
				onChange := func(paths []string) {
					if err := plugin.Rebuild(paths...); err != nil {
						logger.Error("%v", err)
					}
					// a reloaded config may route to new files
					w.Set(plugin.WatchPaths())
				}
				if err := w.Run(ctx, onChange); err != nil {
					logger.Error("%v", err)
				}
			}()
		}

		if len(child) == 0 {
			if watching {
				<-ctx.Done()
			}
			return nil
		}
		return runChild(ctx, child)
	},
}

// runChild runs argv with inherited stdio until it exits or ctx is done.
func runChild(ctx context.Context, argv []string) error {
	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	c.Cancel = func() error { return c.Process.Signal(os.Interrupt) }
	c.WaitDelay = 5 * time.Second
	err := c.Run()
	var exitErr *exec.ExitError
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.As(err, &exitErr)) {
		// interrupted by us
		return nil
	}
	return err
}
