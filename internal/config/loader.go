package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

const (
	configDir  = ".tdsql"
	configFile = "config"
	configType = "yaml"

	envPrefix = "TDSQL"

	// KeyringService is the OS keyring service holding profile passwords,
	// keyed by profile name.
	KeyringService = "tdsql"
)

// Load reads the configuration from ~/.tdsql/config.yaml.
// Returns a config holding only defaults if the file does not exist.
func Load() (*Config, error) {
	dir, err := configDirPath()
	if err != nil {
		return nil, fmt.Errorf("config dir: %w", err)
	}
	return LoadFrom(dir)
}

// LoadFrom reads config.yaml from dir. Preferences can be overridden with
// TDSQL_PREFERENCES_<KEY> environment variables.
func LoadFrom(dir string) (*Config, error) {
	v := newViper(dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

func newViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(configFile)
	v.SetConfigType(configType)
	v.AddConfigPath(dir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("preferences.log_level", "info")
	v.SetDefault("preferences.log_format", "text")
	v.SetDefault("preferences.delivery", "last")
	v.SetDefault("preferences.export_format", "csv")
	v.SetDefault("preferences.default_connection", "")

	return v
}

// Save writes the configuration to ~/.tdsql/config.yaml.
func Save(cfg *Config) error {
	dir, err := configDirPath()
	if err != nil {
		return fmt.Errorf("config dir: %w", err)
	}
	return SaveTo(dir, cfg)
}

// SaveTo writes config.yaml into dir, creating it if needed.
func SaveTo(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType(configType)
	v.Set("connections", cfg.Connections)
	v.Set("preferences", cfg.Preferences)

	path := filepath.Join(dir, configFile+"."+configType)
	return v.WriteConfigAs(path)
}

// SaveConnection adds conn to cfg and saves it. The password goes to the OS
// keyring; when the keyring is unavailable it is dropped rather than written
// to the file, and the keyring error is returned alongside any save error.
func SaveConnection(cfg *Config, conn Connection) error {
	var keyErr error
	if err := StorePassword(&conn); err != nil {
		keyErr = err
		conn.Password = ""
	}
	cfg.AddConnection(conn)
	return errors.Join(Save(cfg), keyErr)
}

// DefaultConnection returns the default connection from config, or the first one.
func DefaultConnection(cfg *Config) *Connection {
	if len(cfg.Connections) == 0 {
		return nil
	}

	if cfg.Preferences.DefaultConnection != "" {
		for i := range cfg.Connections {
			if cfg.Connections[i].Name == cfg.Preferences.DefaultConnection {
				return &cfg.Connections[i]
			}
		}
	}

	return &cfg.Connections[0]
}

// ResolvePassword fills in an empty profile password from the OS keyring.
// A profile with no keyring entry keeps its empty password.
func ResolvePassword(conn *Connection) error {
	if conn.Password != "" {
		return nil
	}
	secret, err := keyring.Get(KeyringService, conn.Name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("keyring lookup for %s: %w", conn.Name, err)
	}
	conn.Password = secret
	return nil
}

// StorePassword moves the profile password into the OS keyring so it is not
// written to the config file.
func StorePassword(conn *Connection) error {
	if conn.Password == "" {
		return nil
	}
	if err := keyring.Set(KeyringService, conn.Name, conn.Password); err != nil {
		return fmt.Errorf("keyring store for %s: %w", conn.Name, err)
	}
	conn.Password = ""
	return nil
}

func configDirPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDir), nil
}
