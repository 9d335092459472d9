// cmd/fepctl/registry.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fep-agent/pkg/registry"

	answerquery "fep-agent/internal/workers/ai-conversation/answer-query"
	enrichwebsearch "fep-agent/internal/workers/ai-conversation/enrich-web-search"
	llmsynthesis "fep-agent/internal/workers/ai-conversation/llm-synthesis"
	querypolicydocuments "fep-agent/internal/workers/ai-conversation/query-policy-documents"
	selectanswersource "fep-agent/internal/workers/ai-conversation/select-answer-source"
	classifydocument "fep-agent/internal/workers/document-intake/classify-document"
	extractformdata "fep-agent/internal/workers/document-intake/extract-form-data"
	mapextractedfields "fep-agent/internal/workers/document-intake/map-extracted-fields"
	normalizedates "fep-agent/internal/workers/document-intake/normalize-dates"
)

var implementedTaskTypes = []string{
	answerquery.TaskType,
	selectanswersource.TaskType,
	querypolicydocuments.TaskType,
	llmsynthesis.TaskType,
	enrichwebsearch.TaskType,
	extractformdata.TaskType,
	mapextractedfields.TaskType,
	classifydocument.TaskType,
	normalizedates.TaskType,
}

func newRegistryCmd(a *app) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect and edit the activity registry",
	}
	cmd.PersistentFlags().StringVar(&path, "path", "", "registry file (default: registry.path from config)")
	resolve := func() string {
		if path != "" {
			return path
		}
		return a.cfg.Registry.Path
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the registry against the implemented task types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(resolve())
			if err != nil {
				return err
			}
			problems := reg.Check(implementedTaskTypes)
			for _, p := range problems {
				fmt.Fprintf(a.out, "  - %v\n", p)
			}
			if len(problems) > 0 {
				return fmt.Errorf("registry validation failed: %d problem(s)", len(problems))
			}
			fmt.Fprintf(a.out, "Registry validation passed. Found %d activities.\n", len(reg.Activities))
			return nil
		},
	})

	var add registry.Activity
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if add.ID == "" || add.DisplayName == "" || add.Category == "" {
				return fmt.Errorf("--id, --display-name and --category are required")
			}
			if add.TaskType == "" {
				add.TaskType = add.ID
			}
			reg, err := registry.LoadRegistry(resolve())
			if err != nil {
				return err
			}
			if err := reg.Add(add); err != nil {
				return err
			}
			if err := reg.Save(resolve()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Added activity: %s\n", add.ID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&add.ID, "id", "", "activity ID, e.g. normalize-dates")
	addCmd.Flags().StringVar(&add.DisplayName, "display-name", "", "display name")
	addCmd.Flags().StringVar(&add.Description, "description", "", "description")
	addCmd.Flags().StringVar(&add.Category, "category", "", "category, e.g. document-intake")
	addCmd.Flags().StringVar(&add.TaskType, "task-type", "", "Zeebe task type (default: the ID)")
	addCmd.Flags().StringVar(&add.Version, "version", "1.0.0", "version")
	addCmd.Flags().StringVar(&add.ImplementationStatus, "status", "planned", "planned, in-progress, completed or verified")
	addCmd.Flags().StringVar(&add.Timeout, "timeout", "10s", "job timeout")
	cmd.AddCommand(addCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "set <id> <field> <value>",
		Short: "Update one field of an activity",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(resolve())
			if err != nil {
				return err
			}
			if err := reg.Set(args[0], args[1], args[2]); err != nil {
				return err
			}
			if err := reg.Save(resolve()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Updated activity %s, field %s to %s\n", args[0], args[1], args[2])
			return nil
		},
	})

	var output string
	scaffoldCmd := &cobra.Command{
		Use:   "scaffold <id>",
		Short: "Generate a worker package skeleton from an activity's schemas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(resolve())
			if err != nil {
				return err
			}
			files, err := reg.Scaffold(args[0], output)
			for _, f := range files {
				fmt.Fprintf(a.out, "generated %s\n", f)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Next: implement Execute, wire the handler in cmd/fep-agent/wire.go and add its task type to fepctl.\n")
			return nil
		},
	}
	scaffoldCmd.Flags().StringVar(&output, "output", "internal/workers", "root directory for generated workers")
	cmd.AddCommand(scaffoldCmd)
	return cmd
}
