package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Rate     RateLimitConfig
	Images   ImagesConfig
	AI       AIConfig
	Payment  PaymentConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret       string
	ExpiryDays   int
	CookieName   string
	CookieSecure bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

type ImagesConfig struct {
	Dir     string
	BaseURL string
}

type AIConfig struct {
	Endpoint string
	APIKey   string
	Model    string
}

type PaymentConfig struct {
	GatewayKey    string
	GatewaySecret string
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_EXPIRY_DAYS", 30)
	viper.SetDefault("JWT_COOKIE_NAME", "jwt")
	viper.SetDefault("JWT_COOKIE_SECURE", false)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:5174"})
	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 60)
	viper.SetDefault("IMAGES_DIR", "uploads")
	viper.SetDefault("IMAGES_BASE_URL", "/uploads")
	viper.SetDefault("AI_MODEL", "gemini-1.5-flash")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
			Env:  viper.GetString("SERVER_ENV"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:       viper.GetString("JWT_SECRET"),
			ExpiryDays:   viper.GetInt("JWT_EXPIRY_DAYS"),
			CookieName:   viper.GetString("JWT_COOKIE_NAME"),
			CookieSecure: viper.GetBool("JWT_COOKIE_SECURE"),
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
		},
		Rate: RateLimitConfig{
			RequestsPerMinute: viper.GetInt("RATE_LIMIT_PER_MINUTE"),
		},
		Images: ImagesConfig{
			Dir:     viper.GetString("IMAGES_DIR"),
			BaseURL: viper.GetString("IMAGES_BASE_URL"),
		},
		AI: AIConfig{
			Endpoint: viper.GetString("AI_ENDPOINT"),
			APIKey:   viper.GetString("AI_API_KEY"),
			Model:    viper.GetString("AI_MODEL"),
		},
		Payment: PaymentConfig{
			GatewayKey:    viper.GetString("PAYMENT_GATEWAY_KEY"),
			GatewaySecret: viper.GetString("PAYMENT_GATEWAY_SECRET"),
		},
	}
}
