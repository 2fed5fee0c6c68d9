package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caffeineduck/piston/client"
	"github.com/caffeineduck/piston/internal/config"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// appFs is where source and config files are read from.
var appFs afero.Fs = afero.NewOsFs()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "piston [file...]",
		Short: "Run code on a Piston execution service",
		Long: `piston - Run code remotely on a Piston code execution service.

Run code from files, inline strings, or stdin. The first file is the
program's entry point; the rest are sent alongside it in order. The
language is detected from the first file's extension unless --lang is set,
and its version is resolved from the service's runtime list.`,
		Args:          cobra.ArbitraryArgs,
		RunE:          runRun,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Flags shared by every command
	root.PersistentFlags().String("config", "", "Config file (YAML)")
	root.PersistentFlags().String("base-url", "", "Service base URL (default "+client.DefaultBaseURL+")")
	root.PersistentFlags().String("user-agent", "", "User-Agent header")
	root.PersistentFlags().Bool("no-cache", false, "Fetch the runtime list on every lookup")
	root.PersistentFlags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	root.PersistentFlags().String("log-format", "", "Log format: text, json")
	root.PersistentFlags().StringP("lang", "l", "", "Language name or alias (default: detect from extension)")

	// Run flags on root for the default command
	addRunFlags(root)

	root.AddCommand(
		newRunCmd(),
		newLangsCmd(),
		newReplCmd(),
		newServeCmd(),
		newPackagesCmd(),
	)
	return root
}

// exitError carries the exit status of a remote program.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("program exited with status %d", e.code)
}

func Execute() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	err := newRootCmd().Execute()
	if err == nil {
		return
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.code)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// loadConfig merges the config file, environment and flags, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")

	cfg, err := config.Load(appFs, path)
	if err != nil {
		return nil, err
	}

	if flags.Changed("base-url") {
		cfg.BaseURL, _ = flags.GetString("base-url")
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent, _ = flags.GetString("user-agent")
	}
	if flags.Changed("no-cache") {
		noCache, _ := flags.GetBool("no-cache")
		cfg.Cache = !noCache
	}
	if flags.Changed("timeout") {
		cfg.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("log-format") {
		cfg.LogFormat, _ = flags.GetString("log-format")
	}
	return cfg, nil
}

func newClient(ctx context.Context, cfg *config.Config, opts ...client.Option) (*client.Client, error) {
	return client.New(ctx, append(cfg.ClientOptions(), opts...)...)
}

func commandContext(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

var extLanguages = map[string]string{
	".py":    "python",
	".js":    "javascript",
	".mjs":   "javascript",
	".ts":    "typescript",
	".rs":    "rust",
	".go":    "go",
	".c":     "c",
	".cpp":   "c++",
	".cc":    "c++",
	".java":  "java",
	".kt":    "kotlin",
	".rb":    "ruby",
	".php":   "php",
	".sh":    "bash",
	".lua":   "lua",
	".cs":    "csharp",
	".swift": "swift",
	".hs":    "haskell",
}

func getLanguage(langFlag string, filename string) (string, error) {
	if langFlag != "" {
		return langFlag, nil
	}

	if filename != "" {
		if lang, ok := extLanguages[strings.ToLower(filepath.Ext(filename))]; ok {
			return lang, nil
		}
	}

	return "", fmt.Errorf("language required: use --lang (e.g. --lang python)")
}
