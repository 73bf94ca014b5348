// Package cmd provides the facet command-line interface.
//
// Configuration is read, highest priority first, from:
//
//  1. Command-line flags (--config, --port, ...)
//  2. FACET_* environment variables (FACET_SERVER_PORT, FACET_CACHE_TTL, ...)
//  3. The file named by --config or FACET_CONFIG_FILE
//  4. .facet.yml in the current directory
//
// Environment variables follow the FACET_<SECTION>_<OPTION> pattern, with
// dots in the configuration key replaced by underscores.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "facet",
	Short: "Serve declaratively described, localized sites",
	Long: `facet renders a tree of declarative views into HTML and serves it with
per-language response caching and Accept-Language negotiation.

Quick Start:
  facet serve                     Start the server on localhost:8080
  facet sitemap                   Print the sitemap
  facet version                   Show version information

Configuration is read from .facet.yml and FACET_* environment variables.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .facet.yml, can also use FACET_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	_ = bindFlag(rootCmd.PersistentFlags(), "log.level", "log-level")
}

// initConfig points viper at the configuration file and environment.
// A missing file is not an error; defaults apply.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("FACET_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".facet")
	}

	viper.SetEnvPrefix("FACET")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// bindFlags binds a command's flags to configuration keys when the command
// runs. Several commands share keys such as server.base_url, and viper keeps
// one flag per key, so binding at init time would let the last command win.
func bindFlags(keys map[string]string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		for key, name := range keys {
			if err := bindFlag(flags, key, name); err != nil {
				return err
			}
		}
		return nil
	}
}

func bindFlag(flags *pflag.FlagSet, key, name string) error {
	flag := flags.Lookup(name)
	if flag == nil {
		return fmt.Errorf("no flag --%s for %s", name, key)
	}
	return viper.BindPFlag(key, flag)
}
