// Package main provides the CLI for the erdgen schema transformation engine.
// Erdgen converts a designed entity-relationship model to a SQL DDL script
// and imports OpenAPI/Swagger documents back into model fragments.
//
// Usage:
//
//	erdgen generate [model-file]   # Generate DDL from a design file
//	erdgen import <document>       # Import an OpenAPI/Swagger document
//	erdgen check [model-file]      # Validate a design file
//	erdgen serve                   # Start the editor-facing HTTP API
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/joho/godotenv/autoload"
)

// version is set via ldflags during build: -ldflags="-X main.version=v1.0.0"
var version = "dev"

// Global flags
var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:     "erdgen",
		Short:   "Schema transformation engine for entity-relationship designs",
		Long:    `Erdgen turns a designed entity-relationship model into a SQL DDL script and imports OpenAPI/Swagger documents back into model fragments for the visual editor.`,
		Version: version,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "erdgen.yaml", "Path to config file")

	rootCmd.AddCommand(
		generateCmd(),
		importCmd(),
		checkCmd(),
		serveCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
