package config

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/swickapp/swick-server/internal/models"
	"github.com/swickapp/swick-server/pkg/db"
)

type Config struct {
	PORT           string
	DB_HOST        string
	DB_PORT        string
	DB_USER        string
	DB_PASSWORD    string
	DB_NAME        string
	JWT_SECRET     string
	STRIPE_API_KEY string
	STRIPE_LIVE    string
	PUSHER_APP_ID  string
	PUSHER_KEY     string
	PUSHER_SECRET  string
	PUSHER_CLUSTER string
	KAFKA_ADDRESS  string
	KAFKA_TOPIC    string
	ES_URL         string
	ES_USER        string
	ES_PASSWORD    string
	ES_MEAL_INDEX  string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		PORT:           os.Getenv("PORT"),
		DB_HOST:        os.Getenv("DB_HOST"),
		DB_PORT:        os.Getenv("DB_PORT"),
		DB_USER:        os.Getenv("DB_USER"),
		DB_PASSWORD:    os.Getenv("DB_PASSWORD"),
		DB_NAME:        os.Getenv("DB_NAME"),
		JWT_SECRET:     os.Getenv("JWT_SECRET"),
		STRIPE_API_KEY: os.Getenv("STRIPE_API_KEY"),
		STRIPE_LIVE:    os.Getenv("STRIPE_LIVE_MODE"),
		PUSHER_APP_ID:  os.Getenv("PUSHER_APP_ID"),
		PUSHER_KEY:     os.Getenv("PUSHER_KEY"),
		PUSHER_SECRET:  os.Getenv("PUSHER_SECRET"),
		PUSHER_CLUSTER: os.Getenv("PUSHER_CLUSTER"),
		KAFKA_ADDRESS:  os.Getenv("KAFKA_ADDRESS"),
		KAFKA_TOPIC:    os.Getenv("KAFKA_TOPIC"),
		ES_URL:         os.Getenv("ES_URL"),
		ES_USER:        os.Getenv("ES_USER"),
		ES_PASSWORD:    os.Getenv("ES_PASSWORD"),
		ES_MEAL_INDEX:  os.Getenv("ES_MEAL_INDEX"),
	}
	if config.PORT == "" {
		config.PORT = "8080"
	}
	if config.KAFKA_TOPIC == "" {
		config.KAFKA_TOPIC = "order-events"
	}
	if config.ES_MEAL_INDEX == "" {
		config.ES_MEAL_INDEX = "meals"
	}

	return config, nil
}

func (c *Config) LiveMode() bool {
	return c.STRIPE_LIVE == "true" || c.STRIPE_LIVE == "1"
}

func InitDB(ctx context.Context, configuration *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		configuration.DB_USER, configuration.DB_PASSWORD,
		configuration.DB_HOST, configuration.DB_PORT, configuration.DB_NAME,
	)
	conn, err := db.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return conn, nil
}
