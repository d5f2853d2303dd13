package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "loyaltycli/internal/errors"
)

// EnvPrefix namespaces every environment variable, e.g. LOYALTY_LOGGING_LEVEL.
const EnvPrefix = "LOYALTY"

// Config represents the complete application configuration
type Config struct {
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
	Loader     LoaderConfig     `yaml:"loader" envconfig:"LOADER"`
	Pipeline   PipelineConfig   `yaml:"pipeline" envconfig:"PIPELINE"`
	Performers PerformersConfig `yaml:"performers" envconfig:"PERFORMERS"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// PathsConfig contains file system paths. Relative paths are resolved
// against the executable directory.
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR"`
	InputDir   string `yaml:"input_dir" envconfig:"INPUT_DIR"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// TelemetryConfig selects the trace and metric exporters.
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
	// MetricsFile receives a Prometheus text dump when a batch run ends.
	// Empty disables the dump.
	MetricsFile string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// LoaderConfig holds the per-export encodings and the label policies.
type LoaderConfig struct {
	RosterEncodings   []string `yaml:"roster_encodings" envconfig:"ROSTER_ENCODINGS" validate:"min=1,dive,oneof=utf-8 latin-1 windows-1252"`
	GoalsEncodings    []string `yaml:"goals_encodings" envconfig:"GOALS_ENCODINGS" validate:"min=1,dive,oneof=utf-8 latin-1 windows-1252"`
	ShippingEncodings []string `yaml:"shipping_encodings" envconfig:"SHIPPING_ENCODINGS" validate:"min=1,dive,oneof=utf-8 latin-1 windows-1252"`
	ActivityPolicy    string   `yaml:"activity_policy" envconfig:"ACTIVITY_POLICY" validate:"oneof=by-value profile-override"`
	OverrideProfile   string   `yaml:"override_profile" envconfig:"OVERRIDE_PROFILE" validate:"required_if=ActivityPolicy profile-override"`
	AccessPolicy      string   `yaml:"access_policy" envconfig:"ACCESS_POLICY" validate:"oneof=null-means-no-access null-means-access"`
}

// PipelineConfig drives the batch pipeline.
type PipelineConfig struct {
	RosterFile     string   `yaml:"roster_file" envconfig:"ROSTER_FILE" validate:"required"`
	GoalsFile      string   `yaml:"goals_file" envconfig:"GOALS_FILE" validate:"required"`
	ShippingFile   string   `yaml:"shipping_file" envconfig:"SHIPPING_FILE" validate:"required"`
	Filter         bool     `yaml:"filter" envconfig:"FILTER"`
	Profiles       []string `yaml:"profiles" envconfig:"PROFILES" validate:"required_if=Filter true,dive,required"`
	CrossFilter    bool     `yaml:"cross_filter" envconfig:"CROSS_FILTER"`
	Persist        bool     `yaml:"persist" envconfig:"PERSIST"`
	OutputEncoding string   `yaml:"output_encoding" envconfig:"OUTPUT_ENCODING" validate:"oneof=utf-8 latin-1 windows-1252"`
	OutputBOM      bool     `yaml:"output_bom" envconfig:"OUTPUT_BOM"`
}

// PerformersConfig drives the top-performers report.
type PerformersConfig struct {
	Profile   string   `yaml:"profile" envconfig:"PROFILE" validate:"required"`
	TopN      int      `yaml:"top_n" envconfig:"TOP_N" validate:"min=1"`
	Pattern   string   `yaml:"pattern" envconfig:"PATTERN" validate:"required"`
	Encodings []string `yaml:"encodings" envconfig:"ENCODINGS" validate:"min=1,dive,oneof=utf-8 latin-1 windows-1252"`
}

// Load builds the configuration from defaults, then the YAML file at path
// (or the first config file found when path is empty), then LOYALTY_*
// environment variables. Later sources win.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("failed to load config from %s", path), err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg. Keys absent from the file
// keep their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report yaml names so messages match what users write in the file.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks every field constraint.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var msgs []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			msgs = append(msgs, err.Error())
		}
		return apperrors.NewConfigError("config validation failed: "+strings.Join(msgs, "; "), err)
	}
	return nil
}

// findConfigFile returns the first config file found in the usual locations.
func findConfigFile() string {
	locations := []string{
		"loyalty.yaml",
		"configs/loyalty.yaml",
		"../configs/loyalty.yaml",
	}
	for _, location := range locations {
		if FileExists(location) {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/loyalty.log",
		},
		Paths: PathsConfig{
			DataDir:    DefaultDataDir,
			InputDir:   DefaultInputDir,
			ReportsDir: DefaultReportsDir,
			LogsDir:    DefaultLogsDir,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
		Loader: LoaderConfig{
			RosterEncodings:   []string{"latin-1"},
			GoalsEncodings:    []string{"latin-1"},
			ShippingEncodings: []string{"utf-8"},
			ActivityPolicy:    "by-value",
			OverrideProfile:   "Mayorista",
			AccessPolicy:      "null-means-no-access",
		},
		Pipeline: PipelineConfig{
			RosterFile:     "reporte_general_de_usuarios.csv",
			GoalsFile:      "reporte_metas_y_resultados.csv",
			ShippingFile:   "shipping_list.csv",
			Filter:         true,
			Profiles:       []string{"Minorista", "Mayorista"},
			CrossFilter:    true,
			Persist:        true,
			OutputEncoding: "utf-8",
		},
		Performers: PerformersConfig{
			Profile:   "Minorista",
			TopN:      10,
			Pattern:   "*.csv",
			Encodings: []string{"utf-8", "latin-1"},
		},
	}
}
