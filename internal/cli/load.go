package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tablecontrols/internal/sqlite"
)

func (a *app) newLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <dataset> <file>",
		Short: "Replace a dataset with the records of a JSON or JSONL file",
		Long: `Load reads a JSON array of objects, or one object per line, and replaces
the contents of the dataset with it. Record order is kept.

Example:
  tablectl load apps apps.json`,
		Args: exactArgs(2),
		RunE: a.runLoad,
	}
}

func (a *app) runLoad(cmd *cobra.Command, args []string) error {
	name, path := args[0], args[1]

	records, err := sqlite.ReadRecords(path)
	if err != nil {
		return userError{err}
	}
	for i, rec := range records {
		var obj map[string]any
		if err := json.Unmarshal(rec, &obj); err != nil || obj == nil {
			return userErrorf("record %d of %s is not a JSON object", i, path)
		}
	}
	if _, err := a.dataset(name); err != nil {
		a.logger.Warn("loading a dataset without columns in config", "dataset", name)
	}

	backend, err := a.attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	if err := sqlite.NewDataset[record](backend, name).ReplaceRecords(cmd.Context(), records); err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "loaded %d records into %s\n", len(records), name)
	return nil
}

func (a *app) newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <dataset> <file>",
		Short: "Write a dataset to a JSONL file",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := args[0], args[1]
			backend, err := a.attachBackend()
			if err != nil {
				return err
			}
			defer backend.Detach()

			records, err := sqlite.NewDataset[record](backend, name).Records(cmd.Context())
			if err != nil {
				return err
			}
			if err := sqlite.WriteRecords(path, records); err != nil {
				return fmt.Errorf("export dataset: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d records to %s\n", len(records), path)
			return nil
		},
	}
}
