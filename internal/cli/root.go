// Package cli implements the arbiter command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	jsonOut bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "arbiter",
	Short: "Human decision broker for autonomous coding agents",
	Long: `arbiter brokers the decisions an autonomous coding agent cannot make
on its own: tool-call approvals and multiple-choice questions.

The agent blocks on a decision, a human answers over the REST API or
WebSocket UI, and the outcome flows back to the agent. Unanswered
decisions time out and deny safely.

Quick start:
  arbiter serve               Start the decision server
  arbiter decisions           List pending decisions
  arbiter approve <id>        Approve a pending tool call
  arbiter deny <id>           Deny a pending tool call`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is arbiter.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output as JSON")
	rootCmd.PersistentFlags().String("server", "http://127.0.0.1:8617", "address of a running arbiter server")

	// Add subcommands
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newDecisionsCmd())
	rootCmd.AddCommand(newApproveCmd())
	rootCmd.AddCommand(newDenyCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.arbiter")
		viper.SetConfigType("yaml")
		viper.SetConfigName("arbiter")
	}

	viper.SetEnvPrefix("ARBITER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
