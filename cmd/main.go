package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const serviceName = "tilopay-connector"

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   serviceName,
		Short: "Tilopay payment connector",
	}
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
