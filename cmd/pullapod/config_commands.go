package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"pullapod/internal/config"
	"pullapod/internal/preflight"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand(ctx))
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigPathCommand(ctx))

	return configCmd
}

func newConfigInitCommand(ctx *commandContext) *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := configTarget(targetPath, ctx.flags.config)
			if err != nil {
				return err
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set api_key and api_secret (or export PODCASTINDEX_API_KEY and PODCASTINDEX_API_SECRET) before searching.")
			fmt.Fprintln(out, "Free credentials are available at https://api.podcastindex.org.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and check the environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			favoritesPath := ""
			if svc, err := ctx.favoritesService(cmd); err == nil {
				favoritesPath = svc.Path()
			}

			results := preflight.RunAll(cmd.Context(), cfg, favoritesPath)
			out := cmd.OutOrStdout()
			printer := newStatusPrinter(out)

			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			if !ctx.configExists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			printer.section("Checks")
			printer.preflight(results)

			if failed := preflight.Failed(results); len(failed) > 0 {
				names := make([]string, 0, len(failed))
				for _, r := range failed {
					names = append(names, r.Name)
				}
				return fmt.Errorf("configuration has problems: %s", strings.Join(names, ", "))
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigPathCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "path",
		Short:       "Print the configuration file location",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := configTarget("", ctx.flags.config)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), target)
			return nil
		},
	}
}

// configTarget picks the explicit path, then --config, then the default.
func configTarget(explicit, global string) (string, error) {
	for _, candidate := range []string{explicit, global} {
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			expanded, err := config.ExpandPath(candidate)
			if err != nil {
				return "", fmt.Errorf("resolve config path: %w", err)
			}
			return expanded, nil
		}
	}
	path, err := config.DefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("determine default config path: %w", err)
	}
	return path, nil
}
