package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// TreeRoot is the root directory of the testing tree.
	TreeRoot string

	// CMakeOut and JSONOut are optional plan output files.
	CMakeOut string
	JSONOut  string

	// ModuleURL, ModuleBranch and AutoAddModule describe the tested
	// module; with AutoAddModule set it is folded into every build unit.
	ModuleURL     string
	ModuleBranch  string
	AutoAddModule bool

	// Run dispatches the plan to the backends after emitting it.
	Run          bool
	BuildCommand string
	TestCommand  string
	ArtifactDir  string

	WorkerCount int
	LogFormat   string
	LogLevel    string
}

// NewConfig validates a Config and applies defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.TreeRoot == "" {
		return nil, errors.New("TreeRoot is a required configuration field and cannot be empty")
	}
	if cfg.AutoAddModule && cfg.ModuleURL == "" {
		return nil, errors.New("auto-add-module requires a module URL")
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	return &cfg, nil
}
