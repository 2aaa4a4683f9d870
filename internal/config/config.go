// Package config предоставляет структуры и функцию для загрузки конфига.
//
// Конфигурация читается один раз на старте процесса и передается по ссылке
// в компоненты, которым она нужна; бизнес-логика не обращается к окружению.
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек.
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	SMTP                    `yaml:"smtp"`
	S3                      `yaml:"s3"`
	RabbitMQ                `yaml:"rabbitmq"`
}

// HTTPServer структура для настройки сервера.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// JWTToken структура для выпуска jwt-токенов сессии.
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// SMTP настройки исходящей почты для отправки OTP и уведомлений.
type SMTP struct {
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort string `yaml:"smtp_port" env-default:"587"`
	SMTPUser string `yaml:"smtp_user" env:"SMTP_USER"`
	SMTPPass string `yaml:"smtp_pass" env:"SMTP_PASS"`
}

// S3 настройки блоб-хранилища изображений профиля.
type S3 struct {
	S3BaseEndpoint string `yaml:"s3_base_endpoint"`
	S3Region       string `yaml:"s3_region" env-default:"us-east-1"`
	S3Bucket       string `yaml:"s3_bucket" env-default:"healthlife-profiles"`
	S3AccessKey    string `yaml:"s3_access_key" env:"S3_ACCESS_KEY"`
	S3SecretKey    string `yaml:"s3_secret_key" env:"S3_SECRET_KEY"`
}

// RabbitMQ настройки брокера для асинхронных уведомлений о сообщениях чата.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"rabbitmq_url"`
	RabbitMQMaxRetries int           `yaml:"rabbitmq_max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"rabbitmq_retry_delay" env-default:"2s"`
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс,
// если файл отсутствует или не читается.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
