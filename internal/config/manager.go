package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/bryanchriswhite/soomer/internal/logger"
	"github.com/google/renameio/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Manager handles configuration
type Manager struct {
	configPath string
	v          *viper.Viper
	defaults   *viper.Viper
	config     *Config
	mu         sync.RWMutex
}

// DefaultPath returns ~/.config/soomer/config.yaml
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "soomer", "config.yaml"), nil
}

// NewManager loads the config file, creating it with defaults if missing
func NewManager(configFile string) (*Manager, error) {
	actualConfigPath := configFile
	if actualConfigPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		actualConfigPath = p
	}

	m := &Manager{
		configPath: actualConfigPath,
		v:          newViper(actualConfigPath),
		defaults:   viper.New(),
	}
	setDefaults(m.defaults)

	if _, err := os.Stat(m.configPath); os.IsNotExist(err) {
		logger.WithComponent("config").Info().
			Str("path", m.configPath).
			Msg("Config file not found, creating new config")
		m.config = Defaults()
		if err := m.Save(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat config: %w", err)
	}

	if err := m.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := m.reload(); err != nil {
		return nil, err
	}

	logger.WithComponent("config").Debug().
		Str("path", m.configPath).
		Str("backend", m.config.CaptureBackend).
		Int("monitor", m.config.Monitor).
		Msg("Config loaded")

	return m, nil
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext == "" {
		v.SetConfigType("yaml")
	}
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("bg.r", d.BG.R)
	v.SetDefault("bg.g", d.BG.G)
	v.SetDefault("bg.b", d.BG.B)
	v.SetDefault("bg.a", d.BG.A)
	v.SetDefault("scale.max", d.Scale.Max)
	v.SetDefault("scale.min", d.Scale.Min)
	v.SetDefault("scale.factor", d.Scale.Factor)
	v.SetDefault("smooth_factor", d.SmoothFactor)
	v.SetDefault("update_delay", d.UpdateDelay)
	v.SetDefault("monitor", d.Monitor)
	v.SetDefault("screenshot_save_path", d.ScreenshotSavePath)
	v.SetDefault("screenshot_save_name", d.ScreenshotSaveName)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_pretty", d.LogPretty)
	v.SetDefault("capture_backend", d.CaptureBackend)
	v.SetDefault("center_when_smaller", d.CenterWhenSmaller)
	for action, keys := range d.Bindings {
		v.SetDefault("bindings."+action, keys)
	}
}

// reload decodes viper's merged view into a validated Config
func (m *Manager) reload() error {
	cfg, err := m.decode()
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return nil
}

func (m *Manager) decode() (*Config, error) {
	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", m.configPath, err)
	}
	return &cfg, nil
}

// BindFlag lets a command-line flag override key when it is set
func (m *Manager) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag for %s", key)
	}
	if err := m.v.BindPFlag(key, flag); err != nil {
		return fmt.Errorf("failed to bind flag %s: %w", flag.Name, err)
	}
	return m.reload()
}

// Get returns a copy of the current configuration
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil {
		return Defaults()
	}
	cfg := *m.config
	cfg.Bindings = make(map[string][]string, len(m.config.Bindings))
	for k, v := range m.config.Bindings {
		cfg.Bindings[k] = append([]string(nil), v...)
	}
	return &cfg
}

// Keys lists every settable key
func (m *Manager) Keys() []string {
	keys := m.v.AllKeys()
	sort.Strings(keys)
	return keys
}

// Value returns the effective value of key
func (m *Manager) Value(key string) (interface{}, error) {
	key = strings.ToLower(key)
	if !m.v.IsSet(key) {
		return nil, fmt.Errorf("configuration key not found: %s", key)
	}
	return m.v.Get(key), nil
}

// Set parses value according to the type of key, validates the result
// and saves it. Invalid values leave the file untouched.
func (m *Manager) Set(key, value string) error {
	key = strings.ToLower(key)
	if !m.defaults.IsSet(key) {
		return fmt.Errorf("configuration key not found: %s", key)
	}

	// The file may hold 10 where the default is 10.0; parse by the default's type
	parsed, err := parseValue(key, m.defaults.Get(key), value)
	if err != nil {
		return err
	}

	prev := m.v.Get(key)
	m.v.Set(key, parsed)
	cfg, err := m.decode()
	if err != nil {
		m.v.Set(key, prev)
		return err
	}

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return m.Save()
}

func parseValue(key string, kind interface{}, value string) (interface{}, error) {
	switch kind.(type) {
	case int, int64, uint, uint8, uint64:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid number for %s: %s", key, value)
		}
		return n, nil
	case float64, float32:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number for %s: %s", key, value)
		}
		return f, nil
	case bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean for %s: %s (use: true or false)", key, value)
		}
		return b, nil
	case []string, []interface{}:
		if strings.TrimSpace(value) == "" {
			return []string{}, nil
		}
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	case string:
		return value, nil
	default:
		return nil, fmt.Errorf("%s is a section, set one of its keys instead", key)
	}
}

// Save writes the current configuration to disk atomically
func (m *Manager) Save() error {
	m.mu.RLock()
	cfg := m.config
	m.mu.RUnlock()

	if cfg == nil {
		cfg = Defaults()
	}

	log := logger.WithComponent("config")
	log.Debug().Str("path", m.configPath).Msg("Saving config")

	configDir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		log.Error().Err(err).Str("config_dir", configDir).Msg("Failed to create config directory")
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := m.marshal(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal config")
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := renameio.WriteFile(m.configPath, data, 0644); err != nil {
		log.Error().Err(err).Str("path", m.configPath).Msg("Failed to write config")
		return fmt.Errorf("failed to write config: %w", err)
	}

	log.Info().Str("path", m.configPath).Msg("Config saved")
	return nil
}

func (m *Manager) marshal(cfg *Config) ([]byte, error) {
	if strings.EqualFold(filepath.Ext(m.configPath), ".json") {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
	return yaml.Marshal(cfg)
}

// GetConfigPath returns the path to the config file
func (m *Manager) GetConfigPath() string {
	return m.configPath
}
