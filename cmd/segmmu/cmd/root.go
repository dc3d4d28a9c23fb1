// Package cmd provides the command-line interface for segmmu.
package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "segmmu",
	Short: "segmmu simulates a segment and page MMU with a TLB.",
	Long: `segmmu simulates a two-level MMU. Virtual addresses are split into ` +
		`a segment, a page, and an offset. Page tables and pages are ` +
		`allocated on write. Defaults of the flags can be set with SEGMMU_* ` +
		`environment variables or a .env file.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	loadDotEnv(".env")
}

// loadDotEnv reads the environment file if it exists. Variables that are
// already set are not overwritten.
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}

	err := godotenv.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot load %s: %v\n", path, err)
	}
}

func envOr(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}

	return defaultValue
}

func envIntOr(key string, defaultValue int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		fmt.Fprintf(os.Stderr,
			"Ignoring %s=%q, not an integer.\n", key, v)
		return defaultValue
	}

	return n
}

func envBoolOr(key string, defaultValue bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		fmt.Fprintf(os.Stderr,
			"Ignoring %s=%q, not a boolean.\n", key, v)
		return defaultValue
	}

	return b
}
