package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/reintest/internal/config"
	"github.com/zjrosen/reintest/internal/decoration"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or edit the reintest config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default config file",
	Long: `Write a commented default config file to --config, or to
.reintest/config.yaml when --config is not given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := cfgFile
		if path == "" {
			path = config.LocalConfigPath
		}
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		cmd.Printf("Wrote %s\n", path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one config value, keeping the rest of the file intact",
	Long: `Set one dotted config key in the config file in use (or
.reintest/config.yaml when there is none). Comments are preserved.

Color keys may be given with or without the "reintest." prefix and are
checked before writing.

Examples:
  reintest config set testHighlightColor "rgba(123,169,255,0.3)"
  reintest config set reintest.blockHighlightColor "#64f06420"
  reintest config set ui.mode light`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configWritePath()
		if err := config.SaveSetting(path, args[0], args[1]); err != nil {
			return err
		}
		key := args[0]
		if s, ok := decoration.LookupSetting(key); ok {
			key = s.FullKey()
		}
		cmd.Printf("Set %s = %s in %s\n", key, args[1], path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func configWritePath() string {
	switch {
	case cfgFile != "":
		return cfgFile
	case store != nil && store.Path() != "":
		return store.Path()
	default:
		return config.LocalConfigPath
	}
}
