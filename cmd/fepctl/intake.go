// cmd/fepctl/intake.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"fep-agent/internal/intake/classifier"
	"fep-agent/internal/intake/fieldmap"
)

func newSchemaCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Work with the application form schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a form schema file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			schema, err := fieldmap.ParseSchema(raw)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Schema valid: %d sections, %d fields.\n",
				len(schema.Sections), len(fieldmap.FieldNames(schema)))
			return nil
		},
	})
	return cmd
}

type classifyOutput struct {
	File        string `json:"file"`
	DisplayName string `json:"displayName"`
	classifier.Classification
}

func newClassifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <file>",
		Short: "Extract a file's text and report its evidence document type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extraction, err := a.extractor.Extract(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			schema, err := fieldmap.LoadSchema(a.cfg.Intake.SchemaPath)
			if err != nil {
				return err
			}
			c := classifier.New(fieldmap.NewMapper(schema),
				classifier.WithMinScore(a.cfg.Intake.ClassifierMinScore),
				classifier.WithLogger(a.log),
			)
			name := filepath.Base(args[0])
			res := c.Classify(extraction.Text, name)

			enc := json.NewEncoder(a.out)
			enc.SetIndent("", "  ")
			return enc.Encode(classifyOutput{
				File:           name,
				DisplayName:    classifier.TitleName(res.Type),
				Classification: res,
			})
		},
	}
}
