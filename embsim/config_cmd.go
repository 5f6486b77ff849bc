package main

import (
	"fmt"
	"log"

	"github.com/itohio/embsim/pkg/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configOut string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration, or write it to a file",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.SilenceUsage = true

		cfg, err := config.Load(configPath)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		if configOut != "" {
			if err := cfg.Save(configOut); err != nil {
				log.Fatalf("Failed to save configuration: %v", err)
			}
			log.Printf("configuration written to %s", configOut)
			return
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			log.Fatalf("Failed to marshal configuration: %v", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
	},
}

func init() {
	configCmd.Flags().StringVarP(&configOut, "out", "o", "", "Write the configuration to this file instead of stdout")
	rootCmd.AddCommand(configCmd)
}
