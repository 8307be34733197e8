// Package config loads the YAML configuration for a simulator run:
// logging, the two overlays' structural parameters and the workload a
// demo binary drives against them.
package config

import (
	"fmt"
	"strings"

	"dhtsim/internal/configloader"
	"dhtsim/internal/logger"
)

// FileLoggerConfig configures lumberjack rotation when Logger.Mode is
// "file".
type FileLoggerConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"maxSize"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAge     int    `yaml:"maxAge"`
	Compress   bool   `yaml:"compress"`
}

// LoggerConfig selects the zap encoding, level and output sink.
type LoggerConfig struct {
	Active   bool             `yaml:"active"`
	Level    string           `yaml:"level"`
	Encoding string           `yaml:"encoding"`
	Mode     string           `yaml:"mode"`
	File     FileLoggerConfig `yaml:"file"`
}

// OverlayConfig holds the structural parameters shared by or specific
// to the two overlays: the identifier-space width, the Ring-DHT finger
// table size derivation and the Prefix-DHT leaf-set/routing-table
// shape.
type OverlayConfig struct {
	IDBits int `yaml:"idBits"` // bits in the shared identifier space; no default is applied, must be > 0

	RingSuccessorListSize int `yaml:"ringSuccessorListSize"` // reserved for future fault-tolerant successor lists

	PrefixLeafSetSize    int `yaml:"prefixLeafSetSize"`    // L (16 is conventional); no default is applied, must be > 0
	PrefixRoutingBase    int `yaml:"prefixRoutingBase"`    // routing table base, fixed at 16 (hex digits)
	PrefixHexDigits      int `yaml:"prefixHexDigits"`      // routing table rows, read as given (not derived from IDBits)
	PrefixNeighborhoodSz int `yaml:"prefixNeighborhoodSz"` // reserved for future neighborhood-set tracking
}

// WorkloadConfig is the CLI/YAML surface of an experiment run: dataset
// path and phase sizes, mirroring the original driver's argparse flags.
type WorkloadConfig struct {
	CSVPath   string `yaml:"csvPath"`
	N         int    `yaml:"n"`         // number of nodes to build
	Inserts   int    `yaml:"inserts"`   // insert-phase operation count
	Lookups   int    `yaml:"lookups"`   // lookup-phase operation count
	Updates   int    `yaml:"updates"`   // update-phase operation count
	Deletes   int    `yaml:"deletes"`   // delete-phase operation count
	JoinLeave int    `yaml:"joinLeave"` // number of join/leave cycles
	K         int    `yaml:"k"`         // concurrent k-query phase size
	Seed      int64  `yaml:"seed"`
}

// Config is the top-level simulator configuration document.
type Config struct {
	Logger   LoggerConfig   `yaml:"logger"`
	Overlay  OverlayConfig  `yaml:"overlay"`
	Workload WorkloadConfig `yaml:"workload"`
}

// LoadConfig reads and parses the YAML file at path. It performs only
// syntactic parsing; call ValidateConfig afterward to check for
// missing or invalid fields.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := configloader.LoadYAML(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnvOverrides applies the subset of fields commonly overridden at
// deployment time:
//
//	LOGGER_ENABLED   -> cfg.Logger.Active
//	LOGGER_LEVEL     -> cfg.Logger.Level
//	LOGGER_ENCODING  -> cfg.Logger.Encoding
//	LOGGER_MODE      -> cfg.Logger.Mode
//	LOGGER_FILE_PATH -> cfg.Logger.File.Path
//	WORKLOAD_CSV     -> cfg.Workload.CSVPath
//	WORKLOAD_N       -> cfg.Workload.N
//	WORKLOAD_SEED    -> cfg.Workload.Seed
func (cfg *Config) ApplyEnvOverrides() {
	configloader.OverrideBool(&cfg.Logger.Active, "LOGGER_ENABLED")
	configloader.OverrideString(&cfg.Logger.Level, "LOGGER_LEVEL")
	configloader.OverrideString(&cfg.Logger.Encoding, "LOGGER_ENCODING")
	configloader.OverrideString(&cfg.Logger.Mode, "LOGGER_MODE")
	configloader.OverrideString(&cfg.Logger.File.Path, "LOGGER_FILE_PATH")

	configloader.OverrideString(&cfg.Workload.CSVPath, "WORKLOAD_CSV")
	configloader.OverrideInt(&cfg.Workload.N, "WORKLOAD_N")
	configloader.OverrideInt64(&cfg.Workload.Seed, "WORKLOAD_SEED")
}

// ValidateConfig performs structural validation: required fields
// present, values within valid ranges, enum-like fields supported. It
// does not check workload semantics (e.g. whether K exceeds N).
func (cfg *Config) ValidateConfig() error {
	var errs []string

	switch cfg.Logger.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid logger.level: %s", cfg.Logger.Level))
	}
	switch cfg.Logger.Encoding {
	case "console", "json":
	default:
		errs = append(errs, fmt.Sprintf("invalid logger.encoding: %s", cfg.Logger.Encoding))
	}
	switch cfg.Logger.Mode {
	case "stdout":
	case "file":
		if cfg.Logger.File.Path == "" {
			errs = append(errs, "logger.file.path is required when mode=file")
		}
		if cfg.Logger.File.MaxSize < 0 || cfg.Logger.File.MaxBackups < 0 || cfg.Logger.File.MaxAge < 0 {
			errs = append(errs, "logger.file.* values must be non-negative")
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid logger.mode: %s", cfg.Logger.Mode))
	}

	if cfg.Overlay.IDBits <= 0 {
		errs = append(errs, "overlay.idBits must be > 0")
	}
	if cfg.Overlay.PrefixLeafSetSize <= 0 {
		errs = append(errs, "overlay.prefixLeafSetSize must be > 0")
	}
	if cfg.Overlay.PrefixRoutingBase != 16 {
		errs = append(errs, "overlay.prefixRoutingBase must be 16 (hex digits)")
	}
	if cfg.Overlay.PrefixHexDigits <= 0 {
		errs = append(errs, "overlay.prefixHexDigits must be > 0")
	}

	w := cfg.Workload
	if w.N <= 0 {
		errs = append(errs, "workload.n must be > 0")
	}
	if w.Inserts < 0 || w.Lookups < 0 || w.Updates < 0 || w.Deletes < 0 || w.JoinLeave < 0 {
		errs = append(errs, "workload phase counts must be non-negative")
	}
	if w.K < 0 {
		errs = append(errs, "workload.k must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// LogConfig prints the loaded configuration at DEBUG level, useful for
// confirming the YAML parsed as expected at startup.
func (cfg *Config) LogConfig(lgr logger.Logger) {
	lgr.Debug("loaded configuration",
		logger.F("logger.active", cfg.Logger.Active),
		logger.F("logger.level", cfg.Logger.Level),
		logger.F("logger.encoding", cfg.Logger.Encoding),
		logger.F("logger.mode", cfg.Logger.Mode),
		logger.F("logger.file.path", cfg.Logger.File.Path),

		logger.F("overlay.idBits", cfg.Overlay.IDBits),
		logger.F("overlay.prefixLeafSetSize", cfg.Overlay.PrefixLeafSetSize),
		logger.F("overlay.prefixRoutingBase", cfg.Overlay.PrefixRoutingBase),
		logger.F("overlay.prefixHexDigits", cfg.Overlay.PrefixHexDigits),

		logger.F("workload.csvPath", cfg.Workload.CSVPath),
		logger.F("workload.n", cfg.Workload.N),
		logger.F("workload.inserts", cfg.Workload.Inserts),
		logger.F("workload.lookups", cfg.Workload.Lookups),
		logger.F("workload.updates", cfg.Workload.Updates),
		logger.F("workload.deletes", cfg.Workload.Deletes),
		logger.F("workload.joinLeave", cfg.Workload.JoinLeave),
		logger.F("workload.k", cfg.Workload.K),
		logger.F("workload.seed", cfg.Workload.Seed),
	)
}
