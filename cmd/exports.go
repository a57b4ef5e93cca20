package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentic-research/routemap/internal/extract"
)

var exportsAll bool

func init() {
	exportsCmd.Flags().BoolVarP(&exportsAll, "all", "a", false, "List every exported name, not only the forwarded ones")
	rootCmd.AddCommand(exportsCmd)
}

var exportsCmd = &cobra.Command{
	Use:   "exports <file>",
	Short: "Show the names a forwarding module would re-export from a page module",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		source, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		m, err := extract.Parse(source, path)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		names := m.Exports()
		if exportsAll {
			names = m.ExportedNames()
		}
		_, _ = fmt.Fprintf(out, "%s (%s): %s\n", path, m.Language, strings.Join(names, ", "))

		stderr := cmd.ErrOrStderr()
		for _, d := range m.Diagnostics() {
			_, _ = fmt.Fprintln(stderr, d.Error())
		}
		return nil
	},
}
