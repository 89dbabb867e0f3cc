package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/vadiminshakov/papertrade/config"
	"github.com/vadiminshakov/papertrade/internal/setup"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  papertrade config init -o config.yaml
  papertrade config validate -c config.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file given with --config",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create a configuration file with an interactive wizard",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

var (
	configInitOutput string
	configInitForce  bool
)

func init() {
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(setupCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", defaultConfigPath, "output config file path")
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configInitOutput); err == nil && !configInitForce {
		return errors.Errorf("%s already exists, use --force to overwrite", configInitOutput)
	}
	if err := config.Default().Save(configInitOutput); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Default configuration written to %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration OK: %s %s mode, %d pairs, %d alert rules\n",
		cfg.Platform, cfg.Mode, len(cfg.Pairs), len(cfg.Alerts.Rules))
	return nil
}

func runSetup(cmd *cobra.Command, args []string) error {
	_, err := setup.RunTUI(cfgPath)
	return err
}
