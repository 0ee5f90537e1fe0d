// Package main 命令行诊断工具：检查配置、连通性与各检索能力
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configDir string
	cmd := &cobra.Command{
		Use:           "doctor",
		Short:         "Diagnose the conference talk search setup",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configDir, "config-dir", "configs", "directory holding config.yaml")
	cmd.AddCommand(checkCmd(&configDir))
	cmd.AddCommand(searchCmd(&configDir))
	return cmd
}
