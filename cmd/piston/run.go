package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caffeineduck/piston/client"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [file...]",
		Short: "Run code (default command)",
		Long: `Execute code on the Piston service.

Code can be provided via:
  - File arguments: piston run main.rs utils.rs
  - Inline flag:    piston run -l python -c 'print(1+1)'
  - Stdin:          echo 'print(1+1)' | piston run -l python

The remote program's exit status becomes piston's exit status.`,
		Args:          cobra.ArbitraryArgs,
		RunE:          runRun,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addRunFlags(cmd)
	return cmd
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("code", "c", "", "Code to execute")
	cmd.Flags().String("lang-version", "", "Runtime version (default: resolved from the runtime list)")
	cmd.Flags().String("input", "", "Text passed to the program on stdin")
	cmd.Flags().StringSlice("arg", nil, "Program argument (repeatable)")
	cmd.Flags().Duration("run-timeout", 0, "Run stage time limit (service default if unset)")
	cmd.Flags().Duration("compile-timeout", 0, "Compile stage time limit (service default if unset)")
}

// loadSources reads files in order. Each file is sent under its base name.
func loadSources(fsys afero.Fs, paths []string) ([]client.File, error) {
	files := make([]client.File, 0, len(paths))
	for _, p := range paths {
		data, err := afero.ReadFile(fsys, p)
		if err != nil {
			return nil, err
		}
		files = append(files, client.File{Name: filepath.Base(p), Content: string(data)})
	}
	return files, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	code, _ := cmd.Flags().GetString("code")
	lang, _ := cmd.Flags().GetString("lang")
	version, _ := cmd.Flags().GetString("lang-version")
	input, _ := cmd.Flags().GetString("input")
	progArgs, _ := cmd.Flags().GetStringSlice("arg")
	runTimeout, _ := cmd.Flags().GetDuration("run-timeout")
	compileTimeout, _ := cmd.Flags().GetDuration("compile-timeout")

	var files []client.File
	var filename string

	switch {
	case code != "":
		files = []client.File{{Content: code}}
	case len(args) > 0:
		filename = args[0]
		var err error
		if files, err = loadSources(appFs, args); err != nil {
			return err
		}
	default:
		// Check if stdin has data (not a terminal)
		if f, ok := cmd.InOrStdin().(*os.File); ok {
			if stat, err := f.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) != 0 {
				return cmd.Help()
			}
		}
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return err
		}
		if len(data) == 0 {
			return cmd.Help()
		}
		files = []client.File{{Content: string(data)}}
	}

	language, err := getLanguage(lang, filename)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	job := client.NewJob().
		Language(language).
		Version(version).
		MainFile(files[0]).
		Add(files[1:]...).
		Stdin(input).
		Args(progArgs...).
		RunTimeout(runTimeout).
		CompileTimeout(compileTimeout)
	j, err := job.Build()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd, 0)
	defer cancel()

	// A one-shot run resolves at most once, so skip the eager fetch when
	// the version is pinned.
	var opts []client.Option
	if version != "" {
		opts = append(opts, client.WithCache(false))
	}
	c, err := newClient(ctx, cfg, opts...)
	if err != nil {
		return err
	}

	res, err := c.Submit(ctx, j)
	if err != nil {
		return err
	}
	return printResult(cmd, res)
}

func printResult(cmd *cobra.Command, res client.Result) error {
	out := cmd.OutOrStdout()

	if res.Compile != nil && !compileOK(res.Compile) {
		fmt.Fprint(cmd.ErrOrStderr(), res.Compile.Output)
		return &exitError{code: exitStatus(res.Compile.ExitCode)}
	}

	fmt.Fprint(out, res.Output)
	if res.Output != "" && !strings.HasSuffix(res.Output, "\n") {
		fmt.Fprintln(out)
	}

	if res.Signal != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "killed by %s\n", res.Signal)
		return &exitError{code: 137}
	}
	if res.ExitCode != 0 {
		return &exitError{code: int(res.ExitCode)}
	}
	return nil
}

func compileOK(s *client.Stage) bool {
	return s.ExitCode == 0 && s.Signal == ""
}

func exitStatus(code uint8) int {
	if code == 0 {
		return 1
	}
	return int(code)
}
