// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the tablemerge CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/tablemerge/internal/logging"
	"github.com/pdiddy/tablemerge/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the tablemerge CLI.
var rootCmd = &cobra.Command{
	Use:   "tablemerge",
	Short: "Merge delimited tables with differing columns into one table",
	Long: `tablemerge combines CSV files whose columns only partly overlap into a
single table over the union of their columns. Cells a source does not
have are left empty, and a conflict report lists which columns each
source was missing.

Sources can be local files, URLs fetched from a data portal, or a YAML
manifest naming both. Merged tables can also be loaded into SQLite for
GIS and statistics tools.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.New(os.Stderr, logging.Config{
			Level:   setting(cmd, "log-level", "log.level"),
			Format:  setting(cmd, "log-format", "log.format"),
			NoColor: os.Getenv("NO_COLOR") != "",
		})
		ctx := logging.WithLogger(cmd.Context(), &logger)
		cmd.SetContext(ctx)

		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug().Str("file", f).Msg("using config file")
		}

		s, err := secrets.Load(ctx, setting(cmd, "secrets-dir", "secrets_dir"))
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug().Strs("keys", keys).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./tablemerge.yaml or ~/.config/tablemerge/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: console or json (default: console on a terminal)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets", "directory holding credential files")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("tablemerge")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "tablemerge"))
		}
	}

	viper.SetEnvPrefix("TABLEMERGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			fmt.Fprintf(os.Stderr, "Reading config file %s: %v\n", cfgFile, err)
		}
	}
}

// setting returns the flag value when the flag was set on the command line,
// then the viper value for key (config file or TABLEMERGE_* env), then the
// flag default.
func setting(cmd *cobra.Command, flag, key string) string {
	f := cmd.Flags().Lookup(flag)
	if f != nil && f.Changed {
		return f.Value.String()
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	if f != nil {
		return f.DefValue
	}
	return ""
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
