package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string `yaml:"env" env-default:"local"`
	Tokens     `yaml:"tokens"`
	Postgres   `yaml:"postgres"`
	Redis      `yaml:"redis"`
	RabbitMQ   `yaml:"rabbitmq"`
	OSS        `yaml:"oss"`
	Mail       `yaml:"mail"`
	HTTPServer `yaml:"http_server"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	ClientURL   string        `yaml:"client_url" env-default:"http://localhost:5173"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Postgres struct {
	Host     string `yaml:"host" env-default:"postgres"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-required:"true"`
	Password string `yaml:"password" env-required:"true"`
	DBName   string `yaml:"dbname" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

type Redis struct {
	Address  string `yaml:"address" env-default:"localhost:6379"`
	Password string `yaml:"password" env-default:""`
	DB       int    `yaml:"db" env-default:"0"`
}

type Tokens struct {
	Secret  string        `yaml:"secret" env:"JWT_SECRET" env-required:"true"`
	TTL     time.Duration `yaml:"ttl" env-default:"12h"`
	CodeTTL time.Duration `yaml:"code_ttl" env-default:"300s"`
}

type RabbitMQ struct {
	URL       string `yaml:"url" env-required:"true"`
	QueueName string `yaml:"queue_name" env-default:"verification_emails"`
}

type OSS struct {
	Endpoint  string `yaml:"endpoint" env-required:"true"`
	Region    string `yaml:"region" env-default:"us-east-1"`
	Bucket    string `yaml:"bucket" env-required:"true"`
	Dir       string `yaml:"dir" env-default:"notes"`
	AccessKey string `yaml:"access_key" env:"OSS_ACCESS_KEY" env-required:"true"`
	SecretKey string `yaml:"secret_key" env:"OSS_SECRET_KEY" env-required:"true"`
	PublicURL string `yaml:"public_url" env-required:"true"`
}

type Mail struct {
	Host     string `yaml:"host" env-default:"localhost"`
	Port     int    `yaml:"port" env-default:"465"`
	Username string `yaml:"username" env-default:""`
	Password string `yaml:"password" env:"MAIL_PASS" env-default:""`
}

func MustLoad(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("Config file does not exist" + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("Failed to read config" + err.Error())
	}

	return &cfg
}
