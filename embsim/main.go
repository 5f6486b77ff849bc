// Command embsim runs the simulated sensor-to-actuator pipeline and prints
// its status lines and bounded log.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "embsim",
	Short: "Simulated embedded controller: ADC sampling, filtering, duty mapping, framing and logging.",
	Long: `embsim simulates a microcontroller superloop on the host. Each cycle samples a ` +
		`noisy 12-bit sine, smooths it with a moving average, maps it to a PWM duty, ` +
		`frames the result with a CRC-8 and records a status line in a ring buffer.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Configuration file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
