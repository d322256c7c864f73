// Package config loads settings from a YAML file, CONCILIADOR_* environment
// variables, a .env file and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/yurifrl/conciliador/pkg/period"
	"github.com/yurifrl/conciliador/pkg/store"
)

const EnvPrefix = "CONCILIADOR"

type DataConfig struct {
	Backend        string `mapstructure:"backend"`
	Dir            string `mapstructure:"dir"`
	LedgerFile     string `mapstructure:"ledger_file"`
	CategoriesFile string `mapstructure:"categories_file"`
	BudgetFile     string `mapstructure:"budget_file"`
	SQLitePath     string `mapstructure:"sqlite_path"`
	PostgresURL    string `mapstructure:"postgres_url"`
}

type SheetsConfig struct {
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

type BackupConfig struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
	Bucket  string `mapstructure:"bucket"`
	Prefix  string `mapstructure:"prefix"`
}

type BudgetConfig struct {
	HorizonMonths int `mapstructure:"horizon_months"`
	// StartYear anchors the horizon at January of that year. Zero anchors it
	// at January of the current period's year.
	StartYear int `mapstructure:"start_year"`
}

type LedgerConfig struct {
	ShrinkRatio   float64 `mapstructure:"shrink_ratio"`
	ShrinkMinRows int     `mapstructure:"shrink_min_rows"`
}

type Config struct {
	Data    DataConfig   `mapstructure:"data"`
	Sheets  SheetsConfig `mapstructure:"sheets"`
	Backup  BackupConfig `mapstructure:"backup"`
	Formats struct {
		File string `mapstructure:"file"`
	} `mapstructure:"formats"`
	Budget BudgetConfig `mapstructure:"budget"`
	Ledger LedgerConfig `mapstructure:"ledger"`
	Log    struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.backend", "csv")
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.ledger_file", "base_cc_santander.csv")
	v.SetDefault("data.categories_file", "categorias.csv")
	v.SetDefault("data.budget_file", "presupuesto.csv")
	v.SetDefault("data.sqlite_path", "data/conciliador.db")
	v.SetDefault("backup.backend", "none")
	v.SetDefault("backup.prefix", "conciliador")
	v.SetDefault("budget.horizon_months", 12)
	v.SetDefault("ledger.shrink_ratio", 0.5)
	v.SetDefault("ledger.shrink_min_rows", 20)
	v.SetDefault("log.level", "info")
	v.SetDefault("server.addr", "0.0.0.0:3000")
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"data-dir":  "data.dir",
	"backend":   "data.backend",
	"formats":   "formats.file",
	"log-level": "log.level",
	"addr":      "server.addr",
	"backup":    "backup.backend",
}

// Build reads cfgFile (or config.yaml in the working directory when empty)
// and overlays the environment and any of the known flags present in flags.
// A missing default config file is not an error.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	_ = gotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.Data.Backend {
	case "csv":
		if c.Data.Dir == "" {
			errs = append(errs, errors.New("data.dir is required for the csv backend"))
		}
	case "sqlite":
		if c.Data.SQLitePath == "" {
			errs = append(errs, errors.New("data.sqlite_path is required for the sqlite backend"))
		}
	case "postgres":
		if c.Data.PostgresURL == "" {
			errs = append(errs, errors.New("data.postgres_url is required for the postgres backend"))
		}
	case "sheets":
		if c.Sheets.SpreadsheetID == "" {
			errs = append(errs, errors.New("sheets.spreadsheet_id is required for the sheets backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown data.backend %q", c.Data.Backend))
	}

	switch c.Backup.Backend {
	case "", "none":
	case "local":
		if c.Backup.Dir == "" {
			errs = append(errs, errors.New("backup.dir is required for local backups"))
		}
	case "gcs":
		if c.Backup.Bucket == "" {
			errs = append(errs, errors.New("backup.bucket is required for gcs backups"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backup.backend %q", c.Backup.Backend))
	}

	if c.Budget.HorizonMonths <= 0 {
		errs = append(errs, fmt.Errorf("budget.horizon_months must be positive, got %d", c.Budget.HorizonMonths))
	}
	if c.Ledger.ShrinkRatio < 0 || c.Ledger.ShrinkRatio > 1 {
		errs = append(errs, fmt.Errorf("ledger.shrink_ratio must be within [0, 1], got %v", c.Ledger.ShrinkRatio))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Formats.File != "" {
		if _, err := os.Stat(c.Formats.File); err != nil {
			errs = append(errs, fmt.Errorf("formats.file: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Horizon is the list of budget periods kept in the matrix. It starts in
// January of StartYear, or of the current period's year, so the window only
// moves when the year changes. The current period is always included, even
// when HorizonMonths is shorter than the months elapsed in the year.
func (c *Config) Horizon(now time.Time) []period.Period {
	current := period.Current(now)
	year := current.Year
	if c.Budget.StartYear > 0 {
		year = c.Budget.StartYear
	}
	start := period.Period{Year: year, Month: time.January}
	n := c.Budget.HorizonMonths
	if year == current.Year && int(current.Month) > n {
		n = int(current.Month)
	}
	return period.Horizon(start, n)
}

func (c *Config) Guard() store.Guard {
	return store.Guard{Ratio: c.Ledger.ShrinkRatio, MinRows: c.Ledger.ShrinkMinRows}
}

// LogLevel falls back to info on an invalid level.
func (c *Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
