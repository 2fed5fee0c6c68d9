package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newLangsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "langs [name]",
		Short:         "List languages supported by the service",
		Long:          "List the service's languages, or resolve a single name or alias to its version.",
		Args:          cobra.MaximumNArgs(1),
		RunE:          runLangs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().Bool("json", false, "Print the runtime list as JSON")
	return cmd
}

func runLangs(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

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

	out := cmd.OutOrStdout()

	if len(args) == 1 {
		version, err := c.ResolveVersion(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, version)
		return nil
	}

	langs, err := c.Languages(ctx)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(langs)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tVERSION\tALIASES\tRUNTIME")
	for _, l := range langs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.Name, l.Version, strings.Join(l.Aliases, ","), l.Runtime)
	}
	return tw.Flush()
}
