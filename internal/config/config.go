package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"goatk/internal/errors"
	"goatk/internal/graph"
	"goatk/internal/grouper"
	"goatk/internal/semsim"
	"goatk/internal/slogutil"
)

const (
	// CurrentVersion is the config schema version written by Save.
	CurrentVersion = 1
	// Dir is the workspace directory holding config and database.
	Dir = ".goatk"
	// FileName is the file Save writes inside Dir.
	FileName = "config.toml"
	// EnvPrefix prefixes environment overrides, e.g. GOATK_GROUPING_TIEBREAK.
	EnvPrefix = "GOATK"
)

// Config is the complete goatk configuration.
type Config struct {
	Version int `json:"version" mapstructure:"version" toml:"version" yaml:"version"`

	Ontology OntologyConfig `json:"ontology" mapstructure:"ontology" toml:"ontology" yaml:"ontology"`
	Closure  ClosureConfig  `json:"closure" mapstructure:"closure" toml:"closure" yaml:"closure"`
	Grouping GroupingConfig `json:"grouping" mapstructure:"grouping" toml:"grouping" yaml:"grouping"`
	Semsim   SemsimConfig   `json:"semsim" mapstructure:"semsim" toml:"semsim" yaml:"semsim"`
	Storage  StorageConfig  `json:"storage" mapstructure:"storage" toml:"storage" yaml:"storage"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging" toml:"logging" yaml:"logging"`
}

// OntologyConfig says where the ontology and annotations come from.
type OntologyConfig struct {
	OBOPath         string `json:"oboPath" mapstructure:"oboPath" toml:"oboPath" yaml:"oboPath"`
	LoadRelations   bool   `json:"loadRelations" mapstructure:"loadRelations" toml:"loadRelations" yaml:"loadRelations"`
	LoadObsolete    bool   `json:"loadObsolete" mapstructure:"loadObsolete" toml:"loadObsolete" yaml:"loadObsolete"`
	AnnotationsPath string `json:"annotationsPath" mapstructure:"annotationsPath" toml:"annotationsPath" yaml:"annotationsPath"`
}

// ClosureConfig selects the relation subset used by default.
type ClosureConfig struct {
	Relations []string `json:"relations" mapstructure:"relations" toml:"relations" yaml:"relations"`
}

// GroupingConfig configures header assignment.
type GroupingConfig struct {
	TieBreak     string   `json:"tieBreak" mapstructure:"tieBreak" toml:"tieBreak" yaml:"tieBreak"`
	OmitDefaults bool     `json:"omitDefaults" mapstructure:"omitDefaults" toml:"omitDefaults" yaml:"omitDefaults"`
	Slims        []string `json:"slims" mapstructure:"slims" toml:"slims" yaml:"slims"`
	SectionsFile string   `json:"sectionsFile" mapstructure:"sectionsFile" toml:"sectionsFile" yaml:"sectionsFile"`
}

// SemsimConfig configures the similarity methods. BranchDistance joins
// namespaces for the distance method; -1 leaves them unrelated.
type SemsimConfig struct {
	Weights        semsim.Weights `json:"weights" mapstructure:"weights" toml:"weights" yaml:"weights"`
	Workers        int            `json:"workers" mapstructure:"workers" toml:"workers" yaml:"workers"`
	BranchDistance int            `json:"branchDistance" mapstructure:"branchDistance" toml:"branchDistance" yaml:"branchDistance"`
}

// StorageConfig locates the snapshot database.
type StorageConfig struct {
	Path string `json:"path" mapstructure:"path" toml:"path" yaml:"path"`
}

// LoggingConfig configures the CLI logger. An empty File logs to stderr.
type LoggingConfig struct {
	Format     string `json:"format" mapstructure:"format" toml:"format" yaml:"format"`
	Level      string `json:"level" mapstructure:"level" toml:"level" yaml:"level"`
	File       string `json:"file" mapstructure:"file" toml:"file" yaml:"file"`
	MaxSize    string `json:"maxSize" mapstructure:"maxSize" toml:"maxSize" yaml:"maxSize"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups" toml:"maxBackups" yaml:"maxBackups"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Ontology: OntologyConfig{
			OBOPath:       "go-basic.obo",
			LoadRelations: true,
		},
		Closure: ClosureConfig{
			Relations: []string{},
		},
		Grouping: GroupingConfig{
			TieBreak: "dcnt",
			Slims:    []string{},
		},
		Semsim: SemsimConfig{
			Weights:        semsim.DefaultWeights(),
			BranchDistance: semsim.NoBranchDistance,
		},
		Storage: StorageConfig{
			Path: filepath.Join(Dir, "goatk.db"),
		},
		Logging: LoggingConfig{
			Format:     "human",
			Level:      "warn",
			MaxBackups: 3,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("ontology.oboPath", d.Ontology.OBOPath)
	v.SetDefault("ontology.loadRelations", d.Ontology.LoadRelations)
	v.SetDefault("ontology.loadObsolete", d.Ontology.LoadObsolete)
	v.SetDefault("ontology.annotationsPath", d.Ontology.AnnotationsPath)
	v.SetDefault("closure.relations", d.Closure.Relations)
	v.SetDefault("grouping.tieBreak", d.Grouping.TieBreak)
	v.SetDefault("grouping.omitDefaults", d.Grouping.OmitDefaults)
	v.SetDefault("grouping.slims", d.Grouping.Slims)
	v.SetDefault("grouping.sectionsFile", d.Grouping.SectionsFile)
	v.SetDefault("semsim.weights.is_a", d.Semsim.Weights.IsA)
	v.SetDefault("semsim.weights.part_of", d.Semsim.Weights.PartOf)
	v.SetDefault("semsim.weights.regulates", d.Semsim.Weights.Regulates)
	v.SetDefault("semsim.weights.positively_regulates", d.Semsim.Weights.PositivelyRegulates)
	v.SetDefault("semsim.weights.negatively_regulates", d.Semsim.Weights.NegativelyRegulates)
	v.SetDefault("semsim.workers", d.Semsim.Workers)
	v.SetDefault("semsim.branchDistance", d.Semsim.BranchDistance)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.maxSize", d.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig loads <workspace>/.goatk/config.{toml,json,yaml}. A missing
// file yields the defaults, still subject to environment overrides.
func LoadConfig(workspace string) (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.AddConfigPath(filepath.Join(workspace, Dir))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.New(errors.InvalidConfig, "failed to read config", err)
		}
	}
	return unmarshal(v)
}

// LoadConfigFile loads an explicit config file; the extension picks the
// format.
func LoadConfigFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.New(errors.InvalidConfig, fmt.Sprintf("failed to read config %s", path), err)
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New(errors.InvalidConfig, "failed to decode config", err)
	}
	return &cfg, nil
}

// Path returns the file Save writes for workspace.
func Path(workspace string) string {
	return filepath.Join(workspace, Dir, FileName)
}

// Save writes the configuration as TOML to <workspace>/.goatk/config.toml.
func (c *Config) Save(workspace string) error {
	if err := os.MkdirAll(filepath.Join(workspace, Dir), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(Path(workspace))
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Resolve returns p relative to workspace unless p is empty or absolute.
func Resolve(workspace, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(workspace, p)
}

// Relations parses Closure.Relations.
func (c *Config) Relations() (graph.RelationSet, error) {
	return graph.ParseRelationSet(c.Closure.Relations)
}

// Validate checks every field that has a closed set of values. The error
// is INVALID_CONFIG with a *ConfigError cause naming the field.
func (c *Config) Validate() error {
	fail := func(field, format string, args ...interface{}) error {
		cerr := &ConfigError{Field: field, Message: fmt.Sprintf(format, args...)}
		return errors.New(errors.InvalidConfig, "invalid configuration", cerr)
	}

	if c.Version != CurrentVersion {
		return fail("version", "unsupported config version %d", c.Version)
	}
	if _, err := c.Relations(); err != nil {
		return fail("closure.relations", "%v", err)
	}
	if !c.Ontology.LoadRelations && len(c.Closure.Relations) > 0 {
		return fail("closure.relations", "relations %v need ontology.loadRelations", c.Closure.Relations)
	}
	if _, err := grouper.ParseTieBreak(c.Grouping.TieBreak); err != nil {
		return fail("grouping.tieBreak", "unknown tie break %q", c.Grouping.TieBreak)
	}
	if err := c.Semsim.Weights.Validate(); err != nil {
		return fail("semsim.weights", "%v", err)
	}
	if c.Semsim.Workers < 0 {
		return fail("semsim.workers", "must not be negative")
	}
	if c.Semsim.BranchDistance < semsim.NoBranchDistance {
		return fail("semsim.branchDistance", "must be -1 or more")
	}
	switch c.Logging.Format {
	case "", "human", "json":
	default:
		return fail("logging.format", "unknown format %q (valid: human, json)", c.Logging.Format)
	}
	if !slogutil.ValidLevel(c.Logging.Level) {
		return fail("logging.level", "unknown level %q", c.Logging.Level)
	}
	if c.Logging.MaxSize != "" && slogutil.ParseSize(c.Logging.MaxSize) <= 0 {
		return fail("logging.maxSize", "cannot parse size %q", c.Logging.MaxSize)
	}
	return nil
}

// ConfigError names the offending configuration field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
