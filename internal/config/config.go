// Package config loads and validates a project's pm-orchestrator.yaml: the
// resource limits every task runs under and the declarative task list a
// project may ship instead of (or alongside) tasks submitted at the CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/pmrun/pmrun/internal/model"
)

// FileName is the recognized configuration file name under a project root.
const FileName = "pm-orchestrator.yaml"

const (
	minMaxFiles, maxMaxFiles     = 1, 20
	minMaxTests, maxMaxTests     = 1, 50
	minMaxSeconds, maxMaxSeconds = 30, 900

	defaultMaxFiles   = 5
	defaultMaxTests   = 10
	defaultMaxSeconds = 300
)

// limitsConfig mirrors model.Limits with mapstructure tags for YAML
// decoding; kept distinct from model.Limits so this package owns its own
// wire shape independent of the runtime Task type.
type limitsConfig struct {
	MaxFiles   int `mapstructure:"max_files" yaml:"max_files"`
	MaxTests   int `mapstructure:"max_tests" yaml:"max_tests"`
	MaxSeconds int `mapstructure:"max_seconds" yaml:"max_seconds"`
}

// TaskSpec is one entry in pm-orchestrator.yaml's tasks list — a
// declarative seed for a model.Task before it is decomposed and run.
type TaskSpec struct {
	ID                     string   `mapstructure:"id" yaml:"id"`
	Description            string   `mapstructure:"description" yaml:"description,omitempty"`
	NaturalLanguageTask    string   `mapstructure:"naturalLanguageTask" yaml:"naturalLanguageTask,omitempty"`
	Dependencies           []string `mapstructure:"dependencies" yaml:"dependencies,omitempty"`
	TaskType               string   `mapstructure:"taskType" yaml:"taskType,omitempty"`
	ExpectedOutcome        string   `mapstructure:"expectedOutcome" yaml:"expectedOutcome,omitempty"`
	SideEffectVerification string   `mapstructure:"sideEffectVerification" yaml:"sideEffectVerification,omitempty"`
	WillFail               bool     `mapstructure:"willFail" yaml:"willFail,omitempty"`
}

// Config is the parsed contents of a project's pm-orchestrator.yaml.
type Config struct {
	Limits limitsConfig `mapstructure:"limits" yaml:"limits"`
	Tasks  []TaskSpec   `mapstructure:"tasks" yaml:"tasks"`
}

// Marshal renders cfg back to YAML, matching the field names Load parses —
// used to generate the scaffold pm-orchestrator.yaml that `pmrun init`
// writes, so the two never drift apart.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Load reads pm-orchestrator.yaml from projectRoot. A missing file is not
// an error — it yields DefaultConfig() so a project may opt out of every
// override.
func Load(projectRoot string) (*Config, error) {
	path := filepath.Join(projectRoot, FileName)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, model.NewKindError(model.KindConfiguration, fmt.Errorf("reading %s: %w", path, err))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, model.NewKindError(model.KindConfiguration, fmt.Errorf("parsing %s: %w", path, err))
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, model.NewKindError(model.KindConfiguration, err)
	}

	return &cfg, nil
}

// DefaultConfig returns a Config with every limit at its documented default
// and no tasks.
func DefaultConfig() *Config {
	return &Config{
		Limits: limitsConfig{
			MaxFiles:   defaultMaxFiles,
			MaxTests:   defaultMaxTests,
			MaxSeconds: defaultMaxSeconds,
		},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Limits.MaxFiles == 0 {
		cfg.Limits.MaxFiles = defaultMaxFiles
	}
	if cfg.Limits.MaxTests == 0 {
		cfg.Limits.MaxTests = defaultMaxTests
	}
	if cfg.Limits.MaxSeconds == 0 {
		cfg.Limits.MaxSeconds = defaultMaxSeconds
	}
}

// validate rejects limits outside their documented ranges and tasks
// missing an id, rather than silently clamping or skipping them — a
// malformed config is a configuration error, not a degraded-but-working
// one.
func validate(cfg *Config) error {
	if cfg.Limits.MaxFiles < minMaxFiles || cfg.Limits.MaxFiles > maxMaxFiles {
		return fmt.Errorf("limits.max_files %d out of range [%d, %d]", cfg.Limits.MaxFiles, minMaxFiles, maxMaxFiles)
	}
	if cfg.Limits.MaxTests < minMaxTests || cfg.Limits.MaxTests > maxMaxTests {
		return fmt.Errorf("limits.max_tests %d out of range [%d, %d]", cfg.Limits.MaxTests, minMaxTests, maxMaxTests)
	}
	if cfg.Limits.MaxSeconds < minMaxSeconds || cfg.Limits.MaxSeconds > maxMaxSeconds {
		return fmt.Errorf("limits.max_seconds %d out of range [%d, %d]", cfg.Limits.MaxSeconds, minMaxSeconds, maxMaxSeconds)
	}
	for i, t := range cfg.Tasks {
		if t.ID == "" {
			return fmt.Errorf("tasks[%d]: id is required", i)
		}
		if t.TaskType != "" && !model.TaskType(t.TaskType).IsValid() {
			return fmt.Errorf("tasks[%d]: taskType %q is not a recognized task type", i, t.TaskType)
		}
	}
	return nil
}

// ToModelLimits converts the parsed limits into model.Limits for use on a
// Task.
func (c *Config) ToModelLimits() model.Limits {
	return model.Limits{
		MaxFiles:   c.Limits.MaxFiles,
		MaxTests:   c.Limits.MaxTests,
		MaxSeconds: c.Limits.MaxSeconds,
	}
}

// ToTask renders a TaskSpec into a model.Task under sessionID, folding
// ExpectedOutcome and SideEffectVerification into the prompt as context
// the executor should treat as acceptance criteria rather than as
// separate out-of-band fields the executor never sees. The declared id
// is preserved verbatim (not regenerated) so dependency references
// elsewhere in the task list still resolve.
func (t TaskSpec) ToTask(sessionID string, limits model.Limits) *model.Task {
	prompt := t.NaturalLanguageTask
	if prompt == "" {
		prompt = t.Description
	}

	var parts []string
	parts = append(parts, prompt)
	if t.ExpectedOutcome != "" {
		parts = append(parts, "Expected outcome: "+t.ExpectedOutcome)
	}
	if t.SideEffectVerification != "" {
		parts = append(parts, "Verify via: "+t.SideEffectVerification)
	}

	taskType := model.TaskType(t.TaskType)
	if taskType == "" {
		taskType = model.TaskTypeImplementation
	}

	task := model.NewTask(sessionID, strings.Join(parts, "\n\n"), taskType)
	task.ID = t.ID
	task.Limits = limits
	task.DependencyIDs = t.Dependencies
	return task
}
