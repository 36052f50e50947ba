package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	Port        int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// External IPTV panel API. When PanelAPIKey is empty the provisioning
	// client runs in placeholder mode.
	PanelAPIURL string
	PanelAPIKey string

	// SMTP transport. When SMTPUsername/SMTPPassword are empty the mailer
	// runs in placeholder mode.
	SMTPServer   string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Port:          getInt("PORT", 8080),
		RedisAddr:     getString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),
		PanelAPIURL:   getString("PANEL_API_URL", "https://your-panel.example.com/api"),
		PanelAPIKey:   os.Getenv("PANEL_API_KEY"),
		SMTPServer:    getString("SMTP_SERVER", "smtp.gmail.com"),
		SMTPPort:      getInt("SMTP_PORT", 587),
		SMTPUsername:  os.Getenv("SMTP_USERNAME"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		SenderEmail:   os.Getenv("SENDER_EMAIL"),
	}

	if cfg.SenderEmail == "" {
		cfg.SenderEmail = cfg.SMTPUsername
	}

	return cfg
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
