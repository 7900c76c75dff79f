package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/tablecontrols/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend  = "backend"
	cfgKeyDataDir  = "data_dir"
	cfgKeyLogLevel = "log_level"
	cfgKeyDatasets = "datasets"

	defaultBackend  = types.BackendSQLite
	defaultLogLevel = "warn"
	defaultIDField  = "id"
)

// columnConfig declares one dataset column.
type columnConfig struct {
	Key   string `mapstructure:"key" yaml:"key"`
	Title string `mapstructure:"title" yaml:"title,omitempty"`
	// Filter is the filter kind: search, select or checkbox.
	Filter   string `mapstructure:"filter" yaml:"filter,omitempty"`
	Sortable bool   `mapstructure:"sortable" yaml:"sortable,omitempty"`
	// HubField is the server-side field name. Defaults to Key.
	HubField string `mapstructure:"hub_field" yaml:"hub_field,omitempty"`
	// Color renders the cell as a label: a literal "#rrggbb" or the name
	// of a record field holding one.
	Color string `mapstructure:"color" yaml:"color,omitempty"`
}

// datasetConfig declares how a dataset is listed.
type datasetConfig struct {
	IDField      string         `mapstructure:"id_field" yaml:"id_field,omitempty"`
	ItemsPerPage int            `mapstructure:"items_per_page" yaml:"items_per_page,omitempty"`
	Columns      []columnConfig `mapstructure:"columns" yaml:"columns"`
}

// configFile is the structure written to config.yaml by init.
type configFile struct {
	Backend  string                   `yaml:"backend"`
	DataDir  string                   `yaml:"data_dir,omitempty"`
	LogLevel string                   `yaml:"log_level,omitempty"`
	Datasets map[string]datasetConfig `yaml:"datasets,omitempty"`
}

// loadConfig reads config.yaml from configDir. A missing file is not an
// error; defaults apply.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, userErrorf("read config: %w", err)
	}
	return v, nil
}

// defaultConfig is written on first init. It carries one example dataset.
func defaultConfig(dataDir string) configFile {
	return configFile{
		Backend:  defaultBackend,
		DataDir:  dataDir,
		LogLevel: defaultLogLevel,
		Datasets: map[string]datasetConfig{
			"apps": {
				IDField:      defaultIDField,
				ItemsPerPage: types.DefaultItemsPerPage,
				Columns: []columnConfig{
					{Key: "name", Title: "Name", Filter: string(types.FilterSearch), Sortable: true},
					{Key: "env", Title: "Env", Filter: string(types.FilterSelect), Sortable: true, Color: "env_color"},
					{Key: "replicas", Title: "Replicas", Sortable: true},
				},
			},
		},
	}
}

// writeConfigIfMissing creates config.yaml unless it exists. It reports
// whether a file was written.
func writeConfigIfMissing(path string, cfg configFile) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

// dataset returns the declared dataset called name. Viper folds keys to
// lower case, so lookups are case-insensitive.
func (a *app) dataset(name string) (datasetConfig, error) {
	var datasets map[string]datasetConfig
	if err := a.config.UnmarshalKey(cfgKeyDatasets, &datasets); err != nil {
		return datasetConfig{}, userErrorf("decode datasets: %w", err)
	}
	ds, ok := datasets[strings.ToLower(name)]
	if !ok {
		return datasetConfig{}, userErrorf("dataset %q is not declared in %s", name, filepath.Join(a.resolvedConfigDir, configFileExt))
	}
	if err := ds.validate(); err != nil {
		return datasetConfig{}, userErrorf("dataset %q: %w", name, err)
	}
	if ds.IDField == "" {
		ds.IDField = defaultIDField
	}
	return ds, nil
}

func (ds datasetConfig) validate() error {
	if len(ds.Columns) == 0 {
		return errors.New("no columns declared")
	}
	seen := map[string]bool{}
	for _, c := range ds.Columns {
		if c.Key == "" {
			return errors.New("column key must not be empty")
		}
		if seen[c.Key] {
			return fmt.Errorf("duplicate column %q", c.Key)
		}
		seen[c.Key] = true
		if c.Filter != "" {
			if err := types.FilterKind(c.Filter).Validate(); err != nil {
				return fmt.Errorf("column %q: %w", c.Key, err)
			}
		}
	}
	return nil
}

func (c columnConfig) title() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Key
}

func (c columnConfig) hubField() string {
	if c.HubField != "" {
		return c.HubField
	}
	return c.Key
}
