package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/erdlab/erdgen/internal/model"
	"github.com/erdlab/erdgen/internal/ui"
)

// checkCmd validates a design file against the model invariants.
func checkCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "check [model-file]",
		Short: "Validate a design file",
		Long: `Checks the model invariants: unique entity and field names, known field
types and rule kinds, resolvable relation endpoints, and join-table
configuration on many-to-many relations.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			modelFile := cfg.ModelFile
			if len(args) > 0 {
				modelFile = args[0]
			}

			data, err := os.ReadFile(modelFile)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", modelFile, err)
			}
			m, err := model.Decode(data)
			if err == nil {
				err = m.Validate()
			}

			if jsonOutput {
				out := map[string]any{"valid": err == nil}
				if err != nil {
					out["error"] = err.Error()
				} else {
					out["entities"] = len(m.Entities)
					out["relations"] = len(m.Relations)
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				enc.Encode(out)
				if err != nil {
					os.Exit(1)
				}
				return nil
			}

			if err != nil {
				fmt.Fprintln(os.Stderr, ui.FormatError(err))
				os.Exit(1)
			}
			fmt.Println(ui.Success(fmt.Sprintf("%s is valid (%d entities, %d relations)",
				modelFile, len(m.Entities), len(m.Relations))))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
