package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func (a *app) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration file and the database",
		Long:  "Create the configuration directory with a default config.yaml, then create the data directory and database.",
		Args:  exactArgs(0),
		RunE:  a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, _ []string) error {
	dataDir, err := a.dataDirPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(a.resolvedConfigDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	configPath := filepath.Join(a.resolvedConfigDir, configFileExt)
	written, err := writeConfigIfMissing(configPath, defaultConfig(dataDir))
	if err != nil {
		return err
	}
	if written {
		// Pick up the file just written.
		if a.config, err = loadConfig(a.resolvedConfigDir); err != nil {
			return err
		}
	}

	backend, err := a.attachBackend()
	if err != nil {
		return err
	}
	if err := backend.Detach(); err != nil {
		return fmt.Errorf("finalize storage: %w", err)
	}

	out := cmd.OutOrStdout()
	if written {
		fmt.Fprintf(out, "wrote %s\n", configPath)
	}
	fmt.Fprintf(out, "tablectl initialized (data: %s)\n", dataDir)
	return nil
}
