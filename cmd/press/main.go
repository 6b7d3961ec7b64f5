package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/printdaily/press"
	"github.com/printdaily/press/internal/output"
)

const defaultConfigPath = "./config/config.yaml"

var (
	configPath   string
	cfg          *press.Config
	outputFormat string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "press",
		Short: "PRINT daily press - publish pending prints into tomorrow's editions",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "json", "output format: json, text, human (default: json)")

	rootCmd.AddCommand(publishCmd())
	rootCmd.AddCommand(daemonCmd())
	rootCmd.AddCommand(editionsCmd())
	rootCmd.AddCommand(editionCmd())
	rootCmd.AddCommand(seedWelcomeCmd())
	rootCmd.AddCommand(backfillWelcomeCmd())
	rootCmd.AddCommand(registerCmd())
	rootCmd.AddCommand(deleteAccountCmd())
	rootCmd.AddCommand(printCmd())
	rootCmd.AddCommand(followCmd())
	rootCmd.AddCommand(likeCmd())
	rootCmd.AddCommand(clipCmd())
	rootCmd.AddCommand(auditCmd())
	rootCmd.AddCommand(initConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() error {
	if configPath == "" {
		configPath = defaultConfigPath
	}
	c, err := press.LoadConfig(configPath)
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// openEngine opens the configured database. Callers must Close it.
func openEngine() (*press.Engine, error) {
	engine, err := press.NewEngine(press.EngineConfigFrom(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return engine, nil
}

func newFormatter() *output.Formatter {
	return output.NewFormatter(output.Format(outputFormat))
}

func initConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Create a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("config file already exists: %s", configPath)
			}
			if err := press.SaveConfig(press.DefaultConfig(), configPath); err != nil {
				return err
			}
			abs, err := filepath.Abs(configPath)
			if err != nil {
				abs = configPath
			}
			fmt.Printf("Created default config at %s\n", abs)
			return nil
		},
	}
}
