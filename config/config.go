package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/pairbot/internal/domain"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa de pairbot.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Engine  EngineConfig  `yaml:"engine"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// DataConfig indica dónde viven los CSV de precios.
type DataConfig struct {
	Dir     string   `yaml:"dir"`
	Symbols []string `yaml:"symbols"` // vacío = todos los CSV del directorio
}

// EngineConfig controla el escaneo y la generación de señales.
type EngineConfig struct {
	Lookback        int     `yaml:"lookback"`         // ventana del z-score; el escaneo exige 2× de historia
	PValueThreshold float64 `yaml:"pvalue_threshold"` // acepta pares con p-value < umbral
	EntryThreshold  float64 `yaml:"entry_threshold"`  // |z| de entrada
	ExitThreshold   float64 `yaml:"exit_threshold"`   // |z| de salida, < entry; 0 = sin señales de salida
	Workers         int     `yaml:"workers"`          // 0 = NumCPU, 1 = secuencial
	WatchSeconds    int     `yaml:"watch_seconds"`    // 0 = un solo ciclo
}

// FetchConfig controla la descarga de históricos.
type FetchConfig struct {
	Interval string `yaml:"interval"` // 1m | 5m | 15m | 1h | 1d
	BaseURL  string `yaml:"base_url"`
}

// StorageConfig controla dónde se persisten los escaneos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// MetricsConfig expone métricas Prometheus si Addr no está vacío.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // p.ej. ":9102"
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	cfg := newConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault es Load, pero si el archivo no existe arranca con Default().
// found indica si se leyó el archivo.
func LoadOrDefault(path string) (cfg *Config, found bool, err error) {
	cfg, err = Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Default()
		return cfg, false, cfg.Validate()
	}
	return cfg, err == nil, err
}

// Default devuelve la configuración por defecto, para arrancar sin YAML.
func Default() *Config {
	cfg := newConfig()
	applyEnvOverrides(&cfg)
	setDefaults(&cfg)
	return &cfg
}

// newConfig siembra los valores en los que 0 es una opción válida; el YAML
// solo los pisa si la key aparece.
func newConfig() Config {
	return Config{Engine: EngineConfig{ExitThreshold: 0.5}}
}

// WatchInterval devuelve el intervalo entre ciclos como time.Duration.
func (c *Config) WatchInterval() time.Duration {
	return time.Duration(c.Engine.WatchSeconds) * time.Second
}

// Validate comprueba los rangos que el engine no puede corregir solo.
func (c *Config) Validate() error {
	var errs []error
	if c.Engine.Lookback < 2 {
		errs = append(errs, fmt.Errorf("engine.lookback must be >= 2, got %d", c.Engine.Lookback))
	}
	if c.Engine.PValueThreshold <= 0 || c.Engine.PValueThreshold > 1 {
		errs = append(errs, fmt.Errorf("engine.pvalue_threshold must be in (0, 1], got %g", c.Engine.PValueThreshold))
	}
	if c.Engine.ExitThreshold < 0 || c.Engine.ExitThreshold >= c.Engine.EntryThreshold {
		errs = append(errs, fmt.Errorf("engine.exit_threshold %g must be in [0, entry_threshold %g): %w",
			c.Engine.ExitThreshold, c.Engine.EntryThreshold, domain.ErrInvalidThresholds))
	}
	if _, err := domain.ParseInterval(c.Fetch.Interval); err != nil {
		errs = append(errs, fmt.Errorf("fetch.interval: %w", err))
	}
	return errors.Join(errs...)
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("PAIRBOT_DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
	if v := os.Getenv("PAIRBOT_DB"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("PAIRBOT_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = "data"
	}
	if cfg.Engine.Lookback == 0 {
		cfg.Engine.Lookback = 60
	}
	if cfg.Engine.PValueThreshold == 0 {
		cfg.Engine.PValueThreshold = 0.05
	}
	if cfg.Engine.EntryThreshold == 0 {
		cfg.Engine.EntryThreshold = 2.0
	}
	if cfg.Fetch.Interval == "" {
		cfg.Fetch.Interval = string(domain.Interval1d)
	}
	cfg.Fetch.Interval = strings.ToLower(cfg.Fetch.Interval)
	if cfg.Fetch.BaseURL == "" {
		cfg.Fetch.BaseURL = "https://query1.finance.yahoo.com"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "pairbot.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
