// Package main provides the entry point for the CV Agent CLI and API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cvagent",
	Short: "CV tailoring pipeline",
	Long:  "CV Agent runs a guarded multi-stage pipeline that turns a resume and a job posting URL into a tailored CV and cover letter, as PDF documents.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
