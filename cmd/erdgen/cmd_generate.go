package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/erdlab/erdgen/internal/ddl"
	"github.com/erdlab/erdgen/internal/model"
	"github.com/erdlab/erdgen/internal/ui"
)

// generateCmd generates the DDL script from a design file.
func generateCmd() *cobra.Command {
	var (
		outFile  string
		toStdout bool
		project  string
		watch    bool
	)

	cmd := &cobra.Command{
		Use:   "generate [model-file]",
		Short: "Generate a SQL DDL script from a design file",
		Long: `Reads a model snapshot (JSON or YAML) saved by the visual editor and
writes the complete DDL script: CREATE TABLE statements in dependency
order, foreign key constraints and indexes, and many-to-many join tables.`,
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
			if outFile == "" {
				outFile = cfg.OutFile
			}
			if project == "" {
				project = cfg.ProjectName
			}

			if err := generateOnce(modelFile, outFile, project, toStdout); err != nil {
				return err
			}
			if watch {
				return watchAndRegenerate(modelFile, outFile, project, toStdout)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Output file (default schema.sql)")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "Write the script to stdout instead of a file")
	cmd.Flags().StringVarP(&project, "project", "p", "", "Project name for the script banner")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Regenerate whenever the model file changes")

	return cmd
}

// generateOnce loads the model, runs the generator, and writes the script.
func generateOnce(modelFile, outFile, project string, toStdout bool) error {
	m, err := loadModel(modelFile)
	if err != nil {
		return err
	}

	res, err := ddl.Generate(m, ddl.Options{Project: project, Now: time.Now()})
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		fmt.Fprintln(os.Stderr, ui.Warning(w.String()))
	}

	if toStdout {
		fmt.Print(res.SQL)
		return nil
	}
	if err := os.WriteFile(outFile, []byte(res.SQL), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outFile, err)
	}
	fmt.Println(ui.Success("wrote " + ui.FilePath(outFile)))
	return nil
}

// watchAndRegenerate reruns the generator whenever the model file changes.
// Editors replace files on save, so Create and Rename count as changes too.
func watchAndRegenerate(modelFile, outFile, project string, toStdout bool) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("file watcher failed: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(modelFile); err != nil {
		return fmt.Errorf("failed to watch %s: %w", modelFile, err)
	}
	fmt.Println(ui.Dim("watching " + modelFile + " (Ctrl+C to stop)"))

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := generateOnce(modelFile, outFile, project, toStdout); err != nil {
				fmt.Fprintln(os.Stderr, ui.FormatError(err))
			}
			// Re-add the path: a rename-on-save replaces the watched inode.
			watcher.Add(modelFile)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stderr, ui.FormatError(err))
		}
	}
}

// loadModel reads and decodes a design file. Entity and relation definitions
// are validated in isolation; dangling relation endpoints are left to the
// generator, which skips them with a warning.
func loadModel(path string) (*model.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	m, err := model.Decode(data)
	if err != nil {
		return nil, err
	}
	for _, e := range m.Entities {
		if err := e.Validate(); err != nil {
			return nil, err
		}
	}
	for _, r := range m.Relations {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	return m, nil
}
