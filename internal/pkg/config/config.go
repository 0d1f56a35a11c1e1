package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Server     Server     `yaml:"server"`
	Logger     Logger     `yaml:"logger"`
	PostgresDB PostgresDB `yaml:"db"`
	Auth       Auth       `yaml:"auth"`
	RedisCache RedisCache `yaml:"rdb"`
}

type Server struct {
	Addr         string        `env-default:"0.0.0.0:8080" yaml:"addr"`
	ReadTimeout  time.Duration `env-default:"5s"           yaml:"readTimeout"`
	IdleTimeout  time.Duration `env-default:"30s"          yaml:"idleTimeout"`
	WriteTimeout time.Duration `env-default:"10s"          yaml:"writeTimeout"`
}

type Logger struct {
	Level     string   `env-default:"info" yaml:"level"`
	Output    []string `yaml:"output"`
	ErrOutput []string `yaml:"errOutput"`
}

type PostgresDB struct {
	Addr     string `env:"POSTGRES_ADDR"     env-default:"localhost:5432" yaml:"addr"`
	Username string `env:"POSTGRES_USER"     env-required:"true"          yaml:"username"`
	Password string `env:"POSTGRES_PASSWORD" yaml:"password"`
	DB       string `env:"POSTGRES_DB"       env-required:"true"          yaml:"db"`
	SSLmode  string `env-default:"disable"   yaml:"sslmode"`
	MaxConns string `env-default:"10"        yaml:"maxConns"`
	Reload   bool   `yaml:"reload"`
	Version  int    `yaml:"version"`
}

// ConnString returns the pgx connection string including pool settings.
func (p PostgresDB) ConnString() string {
	return p.URL() + "?" + "sslmode=" + p.SSLmode + "&pool_max_conns=" + p.MaxConns
}

// URL is the bare postgres URL used by the migration tool.
func (p PostgresDB) URL() string {
	return "postgres://" + p.Username + ":" + p.Password + "@" + p.Addr + "/" + p.DB
}

type Auth struct {
	TTL    time.Duration `env-default:"24h" yaml:"ttl"`
	Secret string        `env:"SECRET"      env-required:"true" yaml:"secret"`
}

type RedisCache struct {
	Addr     string        `env:"REDIS_ADDR"     env-default:"localhost:6379" yaml:"addr"`
	Password string        `env:"REDIS_PASSWORD" yaml:"password"`
	DB       int           `yaml:"db"`
	ExpTime  time.Duration `env-default:"10m"    yaml:"exp"`
}

func New(configPath string) (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return Config{}, fmt.Errorf("read config error: %w", err)
	}

	return cfg, nil
}
