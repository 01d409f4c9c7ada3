package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env           string `yaml:"env" env:"ENV" env-default:"local"`
	StoragePath   string `yaml:"storage_path" env:"STORAGE_PATH" env-required:"true"`
	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Timezone      string `yaml:"timezone" env:"TIMEZONE" env-default:"Asia/Bangkok"`
	HTTPServer    `yaml:"http_server"`
	Scheduler     `yaml:"scheduler"`
	Notifications `yaml:"notifications"`
	Line          `yaml:"line"`
	Auth          `yaml:"auth"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env-default:"localhost:8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

type Scheduler struct {
	Interval time.Duration `yaml:"interval" env:"SCHED_INTERVAL" env-default:"1m"`
	LockTTL  time.Duration `yaml:"lock_ttl" env:"SCHED_LOCK_TTL" env-default:"50s"`
}

type Notifications struct {
	// AbsenceThreshold is the number of absences in one subject that
	// triggers a parent notification. The reason text embeds this value,
	// keeping the filter and the message in sync.
	AbsenceThreshold int `yaml:"absence_threshold" env:"ABSENCE_THRESHOLD" env-default:"3"`
}

type Line struct {
	ChannelToken  string `yaml:"channel_token" env:"LINE_ACCESS_TOKEN"`
	ChannelSecret string `yaml:"channel_secret" env:"LINE_CHANNEL_SECRET"`
}

type Auth struct {
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"24h"`
}

func MustLoad() *Config {
	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("Config file does not exist: %s", configPath)
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	return &cfg
}
