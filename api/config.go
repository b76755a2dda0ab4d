package api

import (
	"time"

	"github.com/spf13/viper"

	"github.com/tobiakoko/afromerica-voting-api/logging"
)

type Config struct {
	ServerConfig
	StorageConfig
	RedisConfig
	PaystackConfig
	OTPConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
}

type PaystackConfig struct {
	SecretKey   string
	BaseURL     string
	CallbackURL string
}

type OTPConfig struct {
	CodeLength     int
	CodeTTL        time.Duration
	MaxAttempts    int
	ResendCooldown time.Duration
	TokenSecret    string
	TokenTTL       time.Duration
}

func ReadConfig() *Config {
	return &Config{
		ServerConfig: ServerConfig{
			Port: getIntOrDefault("server.port", 8080),
		},
		StorageConfig: StorageConfig{
			DSN:          getString("storage.dsn"),
			MaxOpenConns: getIntOrDefault("storage.maxOpenConns", 20),
			MaxIdleConns: getIntOrDefault("storage.maxIdleConns", 5),
		},
		RedisConfig: RedisConfig{
			Enabled:  getBoolOrDefault("redis.enabled", false),
			Address:  getStringOrDefault("redis.address", "localhost:6379"),
			Password: getStringOrDefault("redis.password", ""),
			DB:       getIntOrDefault("redis.db", 0),
		},
		PaystackConfig: PaystackConfig{
			SecretKey:   getString("paystack.secretKey"),
			BaseURL:     getStringOrDefault("paystack.baseUrl", ""),
			CallbackURL: getStringOrDefault("paystack.callbackUrl", ""),
		},
		OTPConfig: OTPConfig{
			CodeLength:     getIntOrDefault("otp.codeLength", 6),
			CodeTTL:        time.Duration(getIntOrDefault("otp.ttlMinutes", 10)) * time.Minute,
			MaxAttempts:    getIntOrDefault("otp.maxAttempts", 3),
			ResendCooldown: time.Duration(getIntOrDefault("otp.resendCooldownSeconds", 60)) * time.Second,
			TokenSecret:    getString("otp.tokenSecret"),
			TokenTTL:       time.Duration(getIntOrDefault("otp.tokenTtlMinutes", 15)) * time.Minute,
		},
	}
}

func getString(name string) string {
	if viper.IsSet(name) {
		return viper.GetString(name)
	}
	logging.Log.Fatalf("required configuration value '%s' is missing", name)
	return ""
}

func getStringOrDefault(name string, def string) string {
	if viper.IsSet(name) {
		return viper.GetString(name)
	}
	return def
}

func getIntOrDefault(name string, def int) int {
	if viper.IsSet(name) {
		return viper.GetInt(name)
	}
	return def
}

func getBoolOrDefault(name string, def bool) bool {
	if viper.IsSet(name) {
		return viper.GetBool(name)
	}
	return def
}
