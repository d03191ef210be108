package config

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"ipr-watch/model"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const DefaultURL = "https://ipr.esveikata.lt/"

type Config struct {
	URL               string         `mapstructure:"url"`
	LogLevel          string         `mapstructure:"log_level"`
	HeadlessBrowser   bool           `mapstructure:"headless_browser"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout"`
	StepTimeout       time.Duration  `mapstructure:"step_timeout"`
	ResultTimeout     time.Duration  `mapstructure:"result_timeout"`
	PollInterval      time.Duration  `mapstructure:"poll_interval"`
	TypeDelay         time.Duration  `mapstructure:"type_delay"`
	Schedule          string         `mapstructure:"schedule"`
	Heartbeat         Heartbeat      `mapstructure:"heartbeat"`
	Telegram          Telegram       `mapstructure:"telegram"`
	Searches          []model.Search `mapstructure:"searches"`
}

type Heartbeat struct {
	OkHours              []int `mapstructure:"ok_hours"`
	OkMinuteWindow       int   `mapstructure:"ok_minute_window"`
	NotFoundHours        []int `mapstructure:"not_found_hours"`
	NotFoundMinuteWindow int   `mapstructure:"not_found_minute_window"`
}

type Telegram struct {
	BotToken string        `mapstructure:"bot_token"`
	ChatID   string        `mapstructure:"chat_id"`
	APIURL   string        `mapstructure:"api_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("url", DefaultURL)
	v.SetDefault("log_level", "info")
	v.SetDefault("headless_browser", true)
	v.SetDefault("navigation_timeout", 60*time.Second)
	v.SetDefault("step_timeout", 15*time.Second)
	v.SetDefault("result_timeout", 8*time.Second)
	v.SetDefault("poll_interval", 250*time.Millisecond)
	v.SetDefault("type_delay", 35*time.Millisecond)
	v.SetDefault("schedule", "*/5 * * * *")
	// UTC hours, Vilnius is UTC+2/+3
	v.SetDefault("heartbeat.ok_hours", []int{4, 20})
	v.SetDefault("heartbeat.ok_minute_window", 2)
	v.SetDefault("heartbeat.not_found_hours", []int{11})
	v.SetDefault("heartbeat.not_found_minute_window", 2)
	v.SetDefault("telegram.api_url", "https://api.telegram.org")
	v.SetDefault("telegram.timeout", 30*time.Second)
}

// Load reads config.yaml from the working directory, or the file at
// configFile when it is set. A .env file in the working directory is loaded
// into the environment first and never overrides variables that are already set.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(path.Join("."))
		v.SetConfigName("config")
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("telegram.chat_id", "TELEGRAM_CHAT_ID")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("can't read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("can't unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if len(c.Searches) == 0 {
		errs = append(errs, errors.New("no searches configured"))
	}
	for i, s := range c.Searches {
		if s.Municipality.Text == "" {
			errs = append(errs, fmt.Errorf("searches[%d]: municipality.text is required", i))
		}
		if s.EarliestDate {
			if s.DaysAhead < 1 {
				errs = append(errs, fmt.Errorf("searches[%d]: days_ahead must be at least 1 in earliest date mode", i))
			}
		} else if s.TargetResultText == "" {
			errs = append(errs, fmt.Errorf("searches[%d]: target_result_text is required", i))
		}
	}
	for _, h := range append(append([]int{}, c.Heartbeat.OkHours...), c.Heartbeat.NotFoundHours...) {
		if h < 0 || h > 23 {
			errs = append(errs, fmt.Errorf("heartbeat hour %d out of range", h))
		}
	}
	if c.StepTimeout <= 0 || c.ResultTimeout <= 0 || c.PollInterval <= 0 {
		errs = append(errs, errors.New("timeouts and poll_interval must be positive"))
	}

	return errors.Join(errs...)
}
