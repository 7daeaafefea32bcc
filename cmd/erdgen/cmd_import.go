package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/erdlab/erdgen/internal/model"
	"github.com/erdlab/erdgen/internal/openapi"
	"github.com/erdlab/erdgen/internal/ui"
	"github.com/erdlab/erdgen/internal/xerr"
)

// importCmd runs the OpenAPI importer on a document file.
func importCmd() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "import <document>",
		Short: "Import an OpenAPI/Swagger document into a model fragment",
		Long: `Parses an OpenAPI 3 or Swagger 2 document (JSON or YAML), extracts
entities from its named object schemas and relations from $ref properties,
and writes the resulting model fragment as JSON for the editor to merge.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return xerr.Wrap(xerr.ErrUnparsableDocument, err, "failed to read document").WithPath(path)
			}

			res := openapi.Import(data, filepath.Base(path))

			for _, w := range res.Warnings {
				fmt.Fprintln(os.Stderr, ui.Warning(w.String()))
			}
			for _, e := range res.Errors {
				fmt.Fprintln(os.Stderr, ui.Error(e.String()))
			}
			if len(res.Errors) > 0 {
				os.Exit(1)
			}

			fragment := &model.Model{Entities: res.Entities, Relations: res.Relations}
			encoded, err := model.Encode(fragment)
			if err != nil {
				return err
			}

			if outFile == "" {
				fmt.Println(string(encoded))
			} else {
				if err := os.WriteFile(outFile, encoded, 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", outFile, err)
				}
				fmt.Println(ui.Success("wrote " + ui.FilePath(outFile)))
			}

			fmt.Fprintln(os.Stderr, ui.Dim(fmt.Sprintf(
				"imported %d entities, %d relations (%d warnings)",
				len(res.Entities), len(res.Relations), len(res.Warnings))))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write the fragment to a file instead of stdout")

	return cmd
}
