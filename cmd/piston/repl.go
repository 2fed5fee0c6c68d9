package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caffeineduck/piston/client"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

func newReplCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive prompt that runs each snippet remotely",
		Long: `Start an interactive session against the Piston service.

Every snippet is executed as a fresh program; no state carries over
between snippets.

Features:
  - Command history (up/down arrows)
  - Line editing (left/right, backspace, delete)
  - History search (Ctrl+R)
  - Multi-line input (end line with \)

Commands:
  :lang <name>   Switch language
  :refresh       Re-fetch the runtime list

Type 'exit' or 'quit' to end the session, or press Ctrl+D.`,
		Args:          cobra.NoArgs,
		RunE:          runRepl,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().String("history", "", "History file path (default: ~/.piston_history)")
	return cmd
}

func runRepl(cmd *cobra.Command, args []string) error {
	lang, _ := cmd.Flags().GetString("lang")
	historyFile, _ := cmd.Flags().GetString("history")

	if historyFile == "" {
		home, _ := os.UserHomeDir()
		historyFile = filepath.Join(home, ".piston_history")
	}

	language, err := getLanguage(lang, "")
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd, 0)
	defer cancel()

	c, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}
	version, err := c.ResolveVersion(ctx, language)
	if err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            ">>> ",
		HistoryFile:       historyFile,
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintf(cmd.ErrOrStderr(), "piston %s %s (type 'exit' to quit, Ctrl+D to exit)\n", language, version)

	r := &repl{
		client:   c,
		language: language,
		out:      cmd.OutOrStdout(),
		errOut:   cmd.ErrOrStderr(),
	}
	return r.loop(ctx, rl)
}

type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

type repl struct {
	client   *client.Client
	language string
	out      io.Writer
	errOut   io.Writer
}

func (r *repl) loop(ctx context.Context, rl lineReader) error {
	var multiLine strings.Builder
	inMultiLine := false

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if inMultiLine {
					multiLine.Reset()
					inMultiLine = false
					rl.SetPrompt(">>> ")
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		// Handle multi-line input
		if strings.HasSuffix(line, "\\") {
			multiLine.WriteString(strings.TrimSuffix(line, "\\"))
			multiLine.WriteString("\n")
			inMultiLine = true
			rl.SetPrompt("... ")
			continue
		}

		if inMultiLine {
			multiLine.WriteString(line)
			line = multiLine.String()
			multiLine.Reset()
			inMultiLine = false
			rl.SetPrompt(">>> ")
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		if strings.HasPrefix(line, ":") {
			r.command(ctx, line)
			continue
		}

		res, err := r.client.RunCode(ctx, r.language, line)
		if err != nil {
			fmt.Fprintf(r.errOut, "Error: %v\n", err)
			continue
		}
		r.print(res)
	}
}

func (r *repl) command(ctx context.Context, line string) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case ":refresh":
		if err := r.client.RefreshCache(ctx); err != nil {
			fmt.Fprintf(r.errOut, "Error: %v\n", err)
			return
		}
		fmt.Fprintln(r.errOut, "runtime list refreshed")
	case ":lang":
		version, err := r.client.ResolveVersion(ctx, arg)
		if err != nil {
			fmt.Fprintf(r.errOut, "Error: %v\n", err)
			return
		}
		r.language = arg
		fmt.Fprintf(r.errOut, "switched to %s %s\n", arg, version)
	default:
		fmt.Fprintf(r.errOut, "unknown command %s\n", name)
	}
}

func (r *repl) print(res client.Result) {
	output := res.Output
	if res.Compile != nil && !compileOK(res.Compile) {
		output = res.Compile.Output
	}
	if output != "" {
		fmt.Fprint(r.out, output)
		if !strings.HasSuffix(output, "\n") {
			fmt.Fprintln(r.out)
		}
	}
	if res.Signal != "" {
		fmt.Fprintf(r.errOut, "killed by %s\n", res.Signal)
	} else if res.ExitCode != 0 {
		fmt.Fprintf(r.errOut, "exit status %d\n", res.ExitCode)
	}
}
