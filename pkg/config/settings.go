// pkg/config/settings.go
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Settings holds the process-level options of the industrydb tooling. The
// connection definitions themselves live in the file named by ConnectionsFile.
type Settings struct {
	ConnectionsFile string          `mapstructure:"connections_file" validate:"required"`
	Logging         LoggingSettings `mapstructure:"logging"`
	Output          string          `mapstructure:"output" validate:"oneof=table json"`
}

// LoggingSettings configures the zap logger.
type LoggingSettings struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// DefaultSettings returns the settings used when nothing overrides them.
func DefaultSettings() Settings {
	return Settings{
		ConnectionsFile: "industrydb.toml",
		Logging: LoggingSettings{
			Level:  "info",
			Format: "console",
		},
		Output: "table",
	}
}

// LoadSettings loads settings from a file, INDUSTRYDB_* environment variables
// and defaults. Environment variables win over the file.
// If settingsPath is empty, searches for "industrydb.yaml" in standard locations.
func LoadSettings(settingsPath string) (Settings, error) {
	v := viper.New()
	s := DefaultSettings()

	// 1. Defaults
	v.SetDefault("connections_file", s.ConnectionsFile)
	v.SetDefault("logging.level", s.Logging.Level)
	v.SetDefault("logging.format", s.Logging.Format)
	v.SetDefault("output", s.Output)

	// 2. Environment variables
	v.SetEnvPrefix("INDUSTRYDB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Settings file
	if settingsPath != "" {
		v.SetConfigFile(settingsPath)
	} else {
		v.SetConfigName("industrydb")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.industrydb")
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing file only matters when the caller named one
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || settingsPath != "" {
			return s, fmt.Errorf("error reading settings file: %w", err)
		}
	}

	// 4. Unmarshal
	if err := v.Unmarshal(&s); err != nil {
		return s, fmt.Errorf("error unmarshaling settings: %w", err)
	}

	// 5. Validate
	if err := validator.New().Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return s, fmt.Errorf("invalid settings: %w", err)
		}
		var msgs []string
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("Field '%s' failed validation on '%s'", fe.Namespace(), fe.Tag()))
		}
		return s, fmt.Errorf("invalid settings: %s", strings.Join(msgs, "; "))
	}

	return s, nil
}
