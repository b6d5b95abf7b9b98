package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	serverCmd "github.com/pitwall/f1-strategy-manager-go/pkg/cmd/server"
	trainCmd "github.com/pitwall/f1-strategy-manager-go/pkg/cmd/train"
	"github.com/pitwall/f1-strategy-manager-go/pkg/config"
	"github.com/pitwall/f1-strategy-manager-go/version"
)

const envPrefix = "F1SM"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "f1sm",
	Short:   "Strategy model backend for F1 session telemetry",
	Long:    ``,
	Version: version.FullVersion,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.f1sm.yml)")

	rootCmd.PersistentFlags().StringVar(&config.LogLevel, "log-level",
		"info",
		"log level (zap values)")
	rootCmd.PersistentFlags().StringVar(&config.LogFormat, "log-format",
		"text",
		"log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&config.LogFilter, "log-filter",
		"",
		"zapfilter rules for named loggers")
	rootCmd.PersistentFlags().StringVar(&config.OpenF1URL, "openf1-url",
		"https://api.openf1.org/v1",
		"Base URL of the OpenF1 API")
	rootCmd.PersistentFlags().StringVar(&config.FetchTimeout, "fetch-timeout",
		"30s",
		"Timeout for upstream telemetry requests")
	rootCmd.PersistentFlags().StringVar(&config.ModelsDir, "models-dir",
		"./models",
		"Directory for persisted model bundles")
	rootCmd.PersistentFlags().Float64Var(&config.RealDataWeight, "real-weight",
		0.7,
		"Sample weight for real telemetry rows")
	rootCmd.PersistentFlags().Float64Var(&config.SyntheticDataWeight, "synthetic-weight",
		0.3,
		"Sample weight for synthetic rows")
	rootCmd.PersistentFlags().IntVar(&config.MinRealSamples, "min-real-samples",
		100,
		"Minimum real rows before synthetic-only training kicks in")
	rootCmd.PersistentFlags().IntVar(&config.TargetTotalSamples, "target-samples",
		1000,
		"Target row count for hybrid datasets")

	// add commands here
	rootCmd.AddCommand(serverCmd.NewServerCmd())
	rootCmd.AddCommand(trainCmd.NewTrainCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".f1sm" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".f1sm")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	bindFlags(rootCmd, viper.GetViper())
	for _, cmd := range rootCmd.Commands() {
		bindFlags(cmd, viper.GetViper())
	}
}

// Bind each cobra flag to its associated viper configuration
// (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores, e.g. --log-level to F1SM_LOG_LEVEL
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name,
				fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v", f.Name, err)
			}
		}
		// Apply the viper config value to the flag when the flag is not set and viper
		// has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				fmt.Fprintf(os.Stderr, "Could set flag value for %s: %v", f.Name, err)
			}
		}
	})
}
