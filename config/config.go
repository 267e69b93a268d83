package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int
	PagesToScrape  int
	PropertyTypes  []string

	CSVOutputPath string
	ArtifactPath  string
	ChromeBin     string

	// Training hyperparameters.
	TrainSeed        int64
	SplitRatio       float64
	ForestTrees      int
	ForestMaxDepth   int
	NetworkEpochs    int
	NetworkLearnRate float64
	NetworkDropout   float64

	ListenAddr string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "property_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 2000),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		PagesToScrape:  getEnvInt("PAGES_TO_SCRAPE", 2),
		PropertyTypes:  propertyTypes(),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/raw_listings.csv"),
		ArtifactPath:  getEnv("ARTIFACT_PATH", "./output/price_model.gob"),
		ChromeBin:     getEnv("CHROME_BIN", ""),

		TrainSeed:        int64(getEnvInt("TRAIN_SEED", 42)),
		SplitRatio:       getEnvFloat("SPLIT_RATIO", 0.8),
		ForestTrees:      getEnvInt("FOREST_TREES", 100),
		ForestMaxDepth:   getEnvInt("FOREST_MAX_DEPTH", 10),
		NetworkEpochs:    getEnvInt("NETWORK_EPOCHS", 200),
		NetworkLearnRate: getEnvFloat("NETWORK_LEARN_RATE", 0.01),
		NetworkDropout:   getEnvFloat("NETWORK_DROPOUT", 0.2),

		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// propertyTypes returns the Zoopla search categories to scrape.
func propertyTypes() []string {
	return []string{
		"detached", "semi_detached", "terraced", "flats",
		"bungalow", "park_home", "farms_land",
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}
