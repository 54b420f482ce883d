// breath samples a breath sensor, publishes its features to paired receivers
// and serves them over HTTP.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	log "github.com/inconshreveable/log15"
	"github.com/spf13/cobra"
)

var version = "dev" // updated during release build

var (
	configPath string
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:   "breath",
		Short: "Breath sensing and guided breathing feedback",
		Long: `breath samples a breath sensor through an ADS1115 ADC and extracts the
depth, strength, direction and speed of each breath, along with a target
waveform to breathe along with.

Commands:
  run        Sample the sensor and publish its features
  receive    Follow the features of a remote sensor`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			lvl := log.LvlInfo
			if verbose {
				lvl = log.LvlDebug
			}
			log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StdoutHandler))
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print more verbose messages")

	root.AddCommand(
		runCmd(),
		receiveCmd(),
		versionCmd(),
	)

	if err := fang.Execute(context.Background(), root); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("breath - version %s\n", version)
		},
	}
}
