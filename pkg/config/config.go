package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort         string
	FirebaseProject    string
	CredentialsJSON    string
	CredentialsPath    string
	StorageBucket      string
	Environment        string
	ListingPageSize    int
	SimilarTarget      int
	SendRatePerMinute  int
	StartRatePerMinute int
	HTTPRatePerMinute  int
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		FirebaseProject:    getEnv("FIREBASE_PROJECT_ID", ""),
		CredentialsJSON:    getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		CredentialsPath:    getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		StorageBucket:      getEnv("STORAGE_BUCKET", ""),
		Environment:        getEnv("ENVIRONMENT", "development"),
		ListingPageSize:    getEnvAsInt("LISTING_PAGE_SIZE", 12),
		SimilarTarget:      getEnvAsInt("SIMILAR_LISTINGS_TARGET", 4),
		SendRatePerMinute:  getEnvAsInt("SEND_RATE_PER_MINUTE", 30),
		StartRatePerMinute: getEnvAsInt("START_CONVERSATION_RATE_PER_MINUTE", 5),
		HTTPRatePerMinute:  getEnvAsInt("HTTP_RATE_PER_MINUTE", 120),
	}

	if config.FirebaseProject == "" {
		return nil, fmt.Errorf("FIREBASE_PROJECT_ID is required")
	}
	if config.ListingPageSize <= 0 {
		return nil, fmt.Errorf("LISTING_PAGE_SIZE must be positive, got %d", config.ListingPageSize)
	}
	if config.SimilarTarget <= 0 {
		return nil, fmt.Errorf("SIMILAR_LISTINGS_TARGET must be positive, got %d", config.SimilarTarget)
	}

	return config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
