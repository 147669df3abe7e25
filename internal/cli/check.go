package cli

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/reqcheck/internal/pysrc"
	"github.com/matzehuels/reqcheck/pkg/checker"
	"github.com/matzehuels/reqcheck/pkg/errors"
)

// skipDirs are never descended into when collecting sources.
var skipDirs = []string{"venv", ".venv", "__pycache__", "node_modules"}

// checkOpts holds the command-line flags for the check command.
type checkOpts struct {
	format   string
	exitZero bool
	jobs     int
}

// checkCommand creates the check command.
func (c *CLI) checkCommand() *cobra.Command {
	opts := checkOpts{format: checker.FormatText}

	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Report imports not covered by the declared requirements",
		Long: `Check Python files for imports of modules that are neither part of the
standard library, nor of the project itself, nor provided by a declared
requirement. Directories are searched recursively for *.py files.

Exits with status 1 when undeclared imports were found or a file could not
be checked, unless --exit-zero is given.`,
		Example: `  reqcheck check
  reqcheck check src tests --format json
  reqcheck check --requirements-file requirements/dev.txt tests`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: text, json or yaml")
	cmd.Flags().BoolVar(&opts.exitZero, "exit-zero", false, "exit with status 0 even when imports are undeclared")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 0, "files parsed in parallel (default: number of CPUs)")

	return cmd
}

func (c *CLI) runCheck(cmd *cobra.Command, args []string, opts checkOpts) error {
	if !slices.Contains(checker.Formats, opts.format) {
		return errors.New(errors.ErrCodeInvalidInput, "unsupported format %q (want one of %v)", opts.format, checker.Formats)
	}
	if len(args) == 0 {
		args = []string{"."}
	}

	engine, _, err := c.newEngine(cmd)
	if err != nil {
		return err
	}
	files, err := collectSources(args)
	if err != nil {
		return err
	}
	c.Logger.Debug("collected sources", "files", len(files))

	report, err := checkFiles(cmd, engine, files, opts.jobs)
	if err != nil {
		return err
	}
	if s, err := engine.Summary(cmd.Context(), false); err == nil {
		report.Source = s.Source
	}

	out := cmd.OutOrStdout()
	if opts.format == checker.FormatText {
		printReport(out, report)
	} else if err := report.Encode(out, opts.format); err != nil {
		return err
	}

	if report.Failed() && !opts.exitZero {
		return ErrFindings
	}
	return nil
}

// checkFiles reads and parses files concurrently, classifies their imports
// with engine, and collects the outcome in a sorted report.
func checkFiles(cmd *cobra.Command, engine *checker.Engine, files []string, jobs int) (*checker.Report, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	report := checker.NewReport(engine.RootDir())
	logger := loggerFromContext(cmd.Context())

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(jobs)
	for _, file := range files {
		g.Go(func() error {
			findings, err := checkFile(ctx, engine, file)
			if err != nil && errors.GetCode(err) == "" {
				// Cancellation stops the run; coded errors are per file.
				return err
			}
			if err != nil {
				logger.Debug("file not checked", "file", file, "err", err)
			}
			mu.Lock()
			report.Add(file, findings, err)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	report.Sort()
	return report, nil
}

func checkFile(ctx context.Context, engine *checker.Engine, file string) ([]checker.Finding, error) {
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", file)
	}
	records, err := pysrc.Imports(src)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "parse %s", file)
	}
	return engine.CheckImports(ctx, file, records)
}

// collectSources expands paths into the Python files to check. Files named
// explicitly are kept whatever their extension.
func collectSources(paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "check %s", root)
		}
		if !info.IsDir() {
			add(filepath.Clean(root))
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(d.Name(), ".py") {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "walk %s", root)
		}
	}
	return files, nil
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || slices.Contains(skipDirs, name)
}
