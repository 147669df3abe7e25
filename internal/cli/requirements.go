package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/reqcheck/pkg/checker"
	"github.com/matzehuels/reqcheck/pkg/errors"
	"github.com/matzehuels/reqcheck/pkg/modules"
)

// requirementsCommand creates the requirements command.
func (c *CLI) requirementsCommand() *cobra.Command {
	var (
		format  string
		setupPy bool
	)
	cmd := &cobra.Command{
		Use:   "requirements",
		Short: "Show the declared requirements and the modules they provide",
		Long: `Show the project root, the declaration source reqcheck selected, the
project's own modules and every declared requirement with the module names
it is matched against.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(checker.Formats, format) {
				return errors.New(errors.ErrCodeInvalidInput, "unsupported format %q (want one of %v)", format, checker.Formats)
			}
			engine, _, err := c.newEngine(cmd)
			if err != nil {
				return err
			}
			summary, err := engine.Summary(cmd.Context(), setupPy)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if format == checker.FormatText {
				printSummary(out, summary)
				return nil
			}
			return encode(out, format, summary)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", checker.FormatText, "output format: text, json or yaml")
	cmd.Flags().BoolVar(&setupPy, "setup-py", false, "include setup_requires, as seen when checking setup.py")
	return cmd
}

// modulesCommand creates the modules command.
func (c *CLI) modulesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "modules <project>...",
		Short: "Show the module names a project provides",
		Example: `  reqcheck modules PyYAML beautifulsoup4
  reqcheck modules --known-modules "my-lib:[mylib]" my-lib`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			known, err := cfg.KnownModuleTable()
			if err != nil {
				return err
			}
			var host map[string][]string
			if cfg.ScanHostSitePackages {
				if host, err = c.hostIndex(cmd.Context(), cfg); err != nil {
					return err
				}
			}
			printMappings(cmd, modules.NewMapper(known, host), args)
			return nil
		},
	}
}

func printMappings(cmd *cobra.Command, m *modules.Mapper, projects []string) {
	out := cmd.OutOrStdout()
	for _, p := range projects {
		fmt.Fprintln(out, StyleHighlight.Render(p)+" "+StyleDim.Render(iconArrow)+" "+
			StyleValue.Render(strings.Join(m.Map(p), ", "))+" "+StyleDim.Render("("+m.Source(p)+")"))
	}
}
