package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tablecontrols/internal/sqlite"
	"github.com/mesh-intelligence/tablecontrols/pkg/persist"
)

const (
	formatJSON = "json"
	formatTOML = "toml"
)

func (a *app) newStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or forget the persisted table state of a dataset",
	}

	var format string
	show := &cobra.Command{
		Use:   "show <dataset>",
		Short: "Print the persisted filters, sort and page of a dataset",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStateShow(cmd, args[0], format)
		},
	}
	show.Flags().StringVar(&format, "format", formatJSON, "output format: json or toml")

	reset := &cobra.Command{
		Use:   "reset <dataset>",
		Short: "Forget the persisted table state of a dataset",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := a.attachBackend()
			if err != nil {
				return err
			}
			defer backend.Detach()
			if err := clearState(backend.LocalStorage(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reset state of %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(show, reset)
	return cmd
}

func (a *app) runStateShow(cmd *cobra.Command, name, format string) error {
	if format != formatJSON && format != formatTOML {
		return userErrorf("unknown format %q (want json or toml)", format)
	}
	backend, err := a.attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	state, err := readState(backend.LocalStorage(), name)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if format == formatTOML {
		data, err := toml.Marshal(state)
		if err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
		_, err = w.Write(data)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(state)
}

// readState decodes every value persisted for the dataset, keyed without
// the dataset prefix. Null values, such as a cleared sort, are skipped.
func readState(local *sqlite.Storage, name string) (map[string]any, error) {
	prefix := persist.PrefixedKey(name, "")
	keys, err := local.Keys(prefix)
	if err != nil {
		return nil, fmt.Errorf("list state keys: %w", err)
	}
	state := make(map[string]any, len(keys))
	for _, key := range keys {
		raw, ok, err := local.GetItem(key)
		if err != nil {
			return nil, fmt.Errorf("read state %s: %w", key, err)
		}
		if !ok {
			continue
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("decode state %s: %w", key, err)
		}
		if value == nil {
			continue
		}
		state[strings.TrimPrefix(key, prefix)] = value
	}
	return state, nil
}
