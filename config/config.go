package config

import (
	"court-booking-bot/calendar"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
	"time"
)

const envPrefix = "COURTBOT"

type Config struct {
	Telegram struct {
		Token           string        `yaml:"token"`
		PollTimeout     time.Duration `yaml:"poll_timeout" split_words:"true"`
		IgnoreOlderThan time.Duration `yaml:"ignore_older_than" split_words:"true"`
	} `yaml:"telegram"`

	Database struct {
		Addr     string        `yaml:"addr"`
		User     string        `yaml:"user"`
		Password string        `yaml:"password"`
		Name     string        `yaml:"name"`
		Timeout  time.Duration `yaml:"timeout"`
		Debug    bool          `yaml:"debug"`
	} `yaml:"database"`

	// Redis enables the distributed thread lock. Leave Addr empty to run a
	// single instance with in-process locks.
	Redis struct {
		Addr       string        `yaml:"addr"`
		LockExpiry time.Duration `yaml:"lock_expiry" split_words:"true"`
	} `yaml:"redis"`

	AMQP struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"amqp"`

	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`

	Jobs struct {
		Timezone      string `yaml:"timezone"`
		OpenCron      string `yaml:"open_cron" split_words:"true"`
		CleanupCron   string `yaml:"cleanup_cron" split_words:"true"`
		DaysAhead     int    `yaml:"days_ahead" split_words:"true"`
		RetentionDays int    `yaml:"retention_days" split_words:"true"`
	} `yaml:"jobs"`

	Log struct {
		Debug  bool `yaml:"debug"`
		Pretty bool `yaml:"pretty"`
	} `yaml:"log"`
}

func Default() Config {
	var c Config
	c.Telegram.PollTimeout = 10 * time.Second
	c.Telegram.IgnoreOlderThan = 30 * time.Second
	c.Database.Addr = ":5432"
	c.Database.User = "bot"
	c.Database.Name = "bot"
	c.Database.Timeout = time.Minute
	c.Redis.LockExpiry = 30 * time.Second
	c.AMQP.Exchange = "court-booking"
	c.Jobs.Timezone = calendar.DefaultTimezone
	c.Jobs.OpenCron = "0 18 * * *"
	c.Jobs.CleanupCron = "0 19 * * *"
	c.Jobs.DaysAhead = 3
	c.Jobs.RetentionDays = 7
	return c
}

// Load reads the YAML file at path on top of the defaults, loads the .env
// file next to it when present and applies COURTBOT_* environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		envPath := filepath.Join(filepath.Dir(path), ".env")
		if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
			return Config{}, errors.Wrap(err, "error loading .env file")
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "error reading config file")
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return Config{}, errors.Wrap(err, "error parsing config file")
		}
	}
	if err := envconfig.Process(envPrefix, &c); err != nil {
		return Config{}, errors.Wrap(err, "error reading environment")
	}
	if err := c.Validate(); err != nil {
		return Config{}, errors.Wrap(err, "invalid configuration")
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.Telegram.Token == "" {
		return errors.New("telegram token is required")
	}
	if c.Database.Addr == "" {
		return errors.New("database address is required")
	}
	if c.Database.Name == "" {
		return errors.New("database name is required")
	}
	if c.Jobs.DaysAhead <= 0 {
		return errors.New("jobs days_ahead must be positive")
	}
	if c.Jobs.RetentionDays <= 0 {
		return errors.New("jobs retention_days must be positive")
	}
	if _, err := time.LoadLocation(c.Jobs.Timezone); err != nil {
		return errors.Wrapf(err, "unknown jobs timezone %v", c.Jobs.Timezone)
	}
	return nil
}
