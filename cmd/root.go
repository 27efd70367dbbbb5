package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flashware/flashcheck/internal/config"
)

var (
	cfgFile      string
	outputFormat string
	Cfg          *config.Config
	Version      string
)

var RootCmd = &cobra.Command{
	Use:   "flashcheck",
	Short: "Flashcheck - validates flashable installer archives and module manifests",
	Long: `Flashcheck inspects flashable installer archives (zip packages), verifies
that they are valid installer packages, whether they can be flashed in-app,
and evaluates the embedded module manifest against the device and installer.`,
}

func Execute(version string) error {
	Version = version
	return RootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./flashcheck.yaml)")
	RootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "", "report format: text, json or yaml (overrides config)")
}

func initConfig() {
	var err error

	Cfg, err = config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Printf("Fatal: Configuration could not be loaded: %v\n", err)
		os.Exit(1)
	}

	// Command line format flag wins over config file
	if outputFormat != "" {
		Cfg.Output.Format = outputFormat
	}
}
