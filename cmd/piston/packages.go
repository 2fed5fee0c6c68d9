package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/caffeineduck/piston/client"
	"github.com/spf13/cobra"
)

func newPackagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "packages",
		Aliases: []string{"pkg"},
		Short:   "Manage runtime packages on a self-hosted service",
		Long: `List, install and remove language runtimes on a self-hosted Piston
instance. The public service does not allow package changes.`,
	}

	list := &cobra.Command{
		Use:           "list",
		Short:         "List available packages",
		Args:          cobra.NoArgs,
		RunE:          runPackagesList,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	list.Flags().Bool("installed", false, "Only show installed packages")

	install := &cobra.Command{
		Use:           "install <language> <version>",
		Short:         "Install a package",
		Args:          cobra.ExactArgs(2),
		RunE:          runPackagesChange,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	remove := &cobra.Command{
		Use:           "remove <language> <version>",
		Short:         "Remove a package",
		Args:          cobra.ExactArgs(2),
		RunE:          runPackagesChange,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(list, install, remove)
	return cmd
}

// packagesClient builds a client without the eager runtime fetch, which
// package management never needs.
func packagesClient(ctx context.Context, cmd *cobra.Command) (*client.Client, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return newClient(ctx, cfg, client.WithCache(false))
}

func runPackagesList(cmd *cobra.Command, args []string) error {
	installedOnly, _ := cmd.Flags().GetBool("installed")

	ctx, cancel := commandContext(cmd, 0)
	defer cancel()

	c, err := packagesClient(ctx, cmd)
	if err != nil {
		return err
	}

	pkgs, err := c.Packages(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LANGUAGE\tVERSION\tINSTALLED")
	for _, p := range pkgs {
		if installedOnly && !p.Installed {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\n", p.Language, p.Version, p.Installed)
	}
	return tw.Flush()
}

func runPackagesChange(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd, 0)
	defer cancel()

	c, err := packagesClient(ctx, cmd)
	if err != nil {
		return err
	}

	language, version := args[0], args[1]

	var pkg client.Package
	switch cmd.Name() {
	case "install":
		pkg, err = c.InstallPackage(ctx, language, version)
	default:
		pkg, err = c.UninstallPackage(ctx, language, version)
	}
	if err != nil {
		return fmt.Errorf("%s %s-%s: %w", cmd.Name(), language, version, err)
	}

	if pkg.Installed {
		fmt.Fprintf(cmd.OutOrStdout(), "Installed %s-%s\n", pkg.Language, pkg.Version)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s-%s\n", pkg.Language, pkg.Version)
	}
	return nil
}
