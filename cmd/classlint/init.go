package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/c360studio/classlint/config"
)

func initCmd(opts *options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a " + config.ProjectConfigFile + " with the default settings",
		Long: `init writes ` + config.ProjectConfigFile + ` to the current directory. The
--prefix-type, --severity, --include and --exclude flags are recorded in
the file when given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}

func runInit(cmd *cobra.Command, opts *options, force bool) error {
	cfg := config.DefaultConfig()

	changed := cmd.Flags().Changed
	if changed("prefix-type") {
		cfg.Rules.ClassPrefix.PrefixType = opts.prefixType
	}
	if changed("severity") {
		cfg.Rules.ClassPrefix.Severity = opts.severity
	}
	if changed("include") {
		cfg.Lint.Include = opts.include
	}
	if changed("exclude") {
		cfg.Lint.Exclude = opts.exclude
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	path := config.ProjectConfigFile
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if err := cfg.SaveToFile(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
