package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/lunex/pkg/config"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/diag"
	"github.com/Sumatoshi-tech/lunex/pkg/observability"
	"github.com/Sumatoshi-tech/lunex/pkg/textutil"
)

// Sentinel errors for the compile command.
var (
	ErrCompileFailed   = errors.New("compile failed")
	ErrStaleOutput     = errors.New("outputs are out of date")
	ErrStdoutMultiple  = errors.New("stdout output needs exactly one input")
	ErrOutputIsInput   = errors.New("output path equals input path")
	ErrNoSourceFiles   = errors.New("no source files found")
	ErrConflictingMode = errors.New("--diff and --check are mutually exclusive")
)

const (
	stdinName  = "<stdin>"
	stdoutPath = "-"
	outputPerm = 0o644
	outDirPerm = 0o755
)

type compileFlags struct {
	output  string
	debug   bool
	indent  string
	diff    bool
	check   bool
	workers int
}

func compileCmd(root *rootOptions) *cobra.Command {
	flags := &compileFlags{}

	cmd := &cobra.Command{
		Use:   "compile [files or directories...]",
		Short: "Compile lunex sources to Lua",
		Long: `Compile lunex sources to plain Lua 5.4.

Each input file is written next to itself with the output extension, or
under --output. Directories are searched for files with the source extension.
Without inputs, or with "-", the source is read from stdin and the Lua text
is written to stdout.

Examples:
  lunex compile main.lx                 # writes main.lua
  lunex compile src -o build            # mirrors src/**/*.lx into build/
  lunex compile main.lx -o -            # prints the Lua text
  cat main.lx | lunex compile           # stdin to stdout
  lunex compile --debug main.lx         # report source ranges on runtime errors
  lunex compile -d src                  # show what would change
  lunex compile --check src             # fail when outputs are stale`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.settings()
			if err != nil {
				return err
			}

			applyCompileConfig(cmd, flags, cfg)

			providers, shutdown, err := initObservability(cfg, observability.ModeCLI, root.verbose)
			if err != nil {
				return err
			}
			defer shutdown()

			run := &compileRun{
				flags:    flags,
				opts:     lunex.Options{Debug: flags.debug, Indent: flags.indent},
				compiler: newCompiler(providers),
				cfg:      cfg,
				verbose:  root.verbose,
				stdout:   cmd.OutOrStdout(),
				stderr:   cmd.ErrOrStderr(),
			}

			if len(args) == 0 || (len(args) == 1 && args[0] == stdoutPath) {
				return run.compileStdin(cmd.Context(), cmd.InOrStdin())
			}

			return run.compileFiles(cmd.Context(), args)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", `output directory, or "-" for stdout`)
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "instrument output with source ranges for runtime errors")
	cmd.Flags().StringVar(&flags.indent, "indent", "", "output indent unit (default: detected from the source)")
	cmd.Flags().BoolVarP(&flags.diff, "diff", "d", false, "print a unified diff against existing outputs instead of writing")
	cmd.Flags().BoolVar(&flags.check, "check", false, "fail when an output is missing or out of date, without writing")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, "number of parallel workers (default: number of CPUs)")

	return cmd
}

// applyCompileConfig fills flags the user did not set from the config file.
func applyCompileConfig(cmd *cobra.Command, flags *compileFlags, cfg *config.Config) {
	if !cmd.Flags().Changed("debug") {
		flags.debug = cfg.Compile.Debug
	}

	if !cmd.Flags().Changed("indent") {
		flags.indent = cfg.Compile.Indent
	}

	if !cmd.Flags().Changed("output") {
		flags.output = cfg.Output.Dir
	}
}

type compileRun struct {
	flags    *compileFlags
	opts     lunex.Options
	compiler *lunex.Compiler
	cfg      *config.Config
	verbose  bool
	stdout   io.Writer
	stderr   io.Writer
}

// compileJob is one input file and where its output goes.
type compileJob struct {
	src string
	out string
}

type compileOutcome struct {
	src []byte
	res *lunex.Result
	err error
}

func (r *compileRun) compileStdin(ctx context.Context, in io.Reader) error {
	src, err := readSource(in, stdinName)
	if err != nil {
		return err
	}

	res, err := r.compiler.Compile(ctx, string(src), r.opts)
	if err != nil {
		if d, ok := diag.As(err); ok {
			printDiagnostic(r.stderr, stdinName, string(src), d)

			return fmt.Errorf("%w: %s", ErrCompileFailed, stdinName)
		}

		return err
	}

	_, err = fmt.Fprintln(r.stdout, res.Output)

	return err
}

func (r *compileRun) compileFiles(ctx context.Context, args []string) error {
	if r.flags.diff && r.flags.check {
		return ErrConflictingMode
	}

	jobs, err := collectJobs(args, r.cfg.Compile.SourceExt, r.cfg.Compile.OutputExt, r.flags.output)
	if err != nil {
		return err
	}

	if r.flags.output == stdoutPath && len(jobs) != 1 {
		return fmt.Errorf("%w: got %d", ErrStdoutMultiple, len(jobs))
	}

	start := time.Now()
	outcomes := r.compileAll(ctx, jobs)
	summary := compileSummary{files: len(jobs)}

	for i, job := range jobs {
		r.finish(job, outcomes[i], &summary)
	}

	summary.elapsed = time.Since(start)

	if r.verbose || summary.failed > 0 {
		summary.print(r.stderr)
	}

	switch {
	case summary.failed > 0:
		return fmt.Errorf("%w: %d of %d files", ErrCompileFailed, summary.failed, summary.files)
	case r.flags.check && summary.stale > 0:
		return fmt.Errorf("%w: %d of %d files", ErrStaleOutput, summary.stale, summary.files)
	default:
		return nil
	}
}

// compileAll compiles every job on a worker pool. Outcomes keep job order.
func (r *compileRun) compileAll(ctx context.Context, jobs []compileJob) []compileOutcome {
	workers := r.flags.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	workers = min(workers, len(jobs))

	outcomes := make([]compileOutcome, len(jobs))
	indexCh := make(chan int, workers)

	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range indexCh {
				outcomes[i] = r.compileOne(ctx, jobs[i])
			}
		}()
	}

	for i := range jobs {
		indexCh <- i
	}

	close(indexCh)
	wg.Wait()

	return outcomes
}

func (r *compileRun) compileOne(ctx context.Context, job compileJob) compileOutcome {
	src, _, err := safeReadFile(job.src)
	if err != nil {
		return compileOutcome{err: err}
	}

	res, err := r.compiler.Compile(ctx, string(src), r.opts)

	return compileOutcome{src: src, res: res, err: err}
}

// finish reports or writes one outcome and updates the summary.
func (r *compileRun) finish(job compileJob, oc compileOutcome, summary *compileSummary) {
	if oc.err != nil {
		summary.failed++

		if d, ok := diag.As(oc.err); ok {
			printDiagnostic(r.stderr, job.src, string(oc.src), d)
		} else {
			errorColor.Fprintf(r.stderr, "%s: %v\n", job.src, oc.err)
		}

		return
	}

	output := oc.res.Output + "\n"

	summary.inBytes += int64(len(oc.src))
	summary.outBytes += int64(len(output))
	summary.lines += textutil.CountLines(oc.src)

	var err error

	switch {
	case r.flags.output == stdoutPath:
		_, err = io.WriteString(r.stdout, output)
	case r.flags.diff:
		err = r.printDiff(job, output)
	case r.flags.check:
		if r.isStale(job, output) {
			summary.stale++

			staleColor.Fprintf(r.stderr, "stale: %s\n", job.out)
		}
	default:
		err = writeOutput(job.out, output)
	}

	if err != nil {
		summary.failed++

		errorColor.Fprintf(r.stderr, "%s: %v\n", job.src, err)
	}
}

func (r *compileRun) printDiff(job compileJob, output string) error {
	existing, err := readExisting(job.out)
	if err != nil {
		return err
	}

	_, err = io.WriteString(r.stdout, unifiedDiff(job.out, job.out, existing, output))

	return err
}

func (r *compileRun) isStale(job compileJob, output string) bool {
	existing, err := readExisting(job.out)

	return err != nil || existing != output
}

// readExisting returns the current output file, or "" when it is missing.
func readExisting(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from a resolved input path.
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	return string(data), nil
}

func writeOutput(path, output string) error {
	if err := os.MkdirAll(filepath.Dir(path), outDirPerm); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	//nolint:gosec // generated Lua is meant to be world-readable.
	if err := os.WriteFile(path, []byte(output), outputPerm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

// collectJobs expands args into compile jobs. Directories contribute every
// file with sourceExt below them; files are taken whatever their extension.
func collectJobs(args []string, sourceExt, outputExt, outDir string) ([]compileJob, error) {
	var jobs []compileJob

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}

		if !info.IsDir() {
			job, jobErr := newJob(arg, filepath.Base(arg), outputExt, outDir)
			if jobErr != nil {
				return nil, jobErr
			}

			jobs = append(jobs, job)

			continue
		}

		found, err := collectSourceFiles(arg, sourceExt)
		if err != nil {
			return nil, err
		}

		for _, path := range found {
			rel, relErr := filepath.Rel(arg, path)
			if relErr != nil {
				return nil, fmt.Errorf("relative path of %s: %w", path, relErr)
			}

			job, jobErr := newJob(path, rel, outputExt, outDir)
			if jobErr != nil {
				return nil, jobErr
			}

			jobs = append(jobs, job)
		}
	}

	if len(jobs) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoSourceFiles, strings.Join(args, ", "))
	}

	return jobs, nil
}

// newJob places the output of src next to it, or at rel under outDir.
func newJob(src, rel, outputExt, outDir string) (compileJob, error) {
	out := swapExt(src, outputExt)

	if outDir != "" && outDir != stdoutPath {
		out = filepath.Join(outDir, swapExt(rel, outputExt))
	}

	if filepath.Clean(out) == filepath.Clean(src) {
		return compileJob{}, fmt.Errorf("%w: %s", ErrOutputIsInput, src)
	}

	return compileJob{src: src, out: out}, nil
}

func swapExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// collectSourceFiles walks dir for files ending in sourceExt, skipping
// hidden directories.
func collectSourceFiles(dir, sourceExt string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() {
			if path != dir && isHiddenDir(entry.Name()) {
				return filepath.SkipDir
			}

			return nil
		}

		if filepath.Ext(path) == sourceExt {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	return files, nil
}

// isHiddenDir returns true for directories that start with a dot (e.g. .git),
// except for "." and ".." which are filesystem navigation entries.
func isHiddenDir(name string) bool {
	return len(name) > 1 && name[0] == '.' && name != ".."
}
