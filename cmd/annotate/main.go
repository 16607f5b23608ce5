package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/agenthands/districtlinker/internal/config"
	"github.com/agenthands/districtlinker/internal/qanary"
)

var (
	cfgPath  string
	envFile  string
	endpoint string
	inGraph  string
	outGraph string
)

var rootCmd = &cobra.Command{
	Use:           "annotate",
	Short:         "Resolve German states and districts for a pipeline question",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if envFile != "" {
			if err := godotenv.Load(envFile); err != nil {
				color.Yellow("Could not load %s: %s\n", envFile, err)
			}
			return
		}
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.AddCommand(runCmd, sendCmd)
	rootCmd.PersistentFlags().StringVarP(&envFile, "env", "e", "", "Environment file")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "SPARQL endpoint of the annotation store")
	rootCmd.PersistentFlags().StringVar(&inGraph, "in-graph", "", "Graph holding the question and its annotations")
	rootCmd.PersistentFlags().StringVar(&outGraph, "out-graph", "", "Graph to write annotations to (defaults to the in-graph)")
}

func message() (qanary.Message, error) {
	msg := qanary.NewMessage(endpoint, inGraph, outGraph)
	return msg, msg.Validate()
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgPath != "" {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %s\n", err)
		os.Exit(1)
	}
}

func printf(format string, args ...interface{}) {
	fmt.Fprintf(color.Output, format, args...)
}
