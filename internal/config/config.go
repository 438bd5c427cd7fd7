package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Server ServerConfig
	LLM    LLMConfig
	Enrich EnrichConfig
	Policy Policy
	DB     DBConfig
	Seeder SeederConfig
}

// DBType represents database type
type DBType string

const (
	DBTypePostgreSQL DBType = "postgres"
	DBTypeMemory     DBType = "memory"
)

// DBConfig holds gazetteer database configuration
type DBConfig struct {
	Type     DBType
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// SeederConfig holds settings for the GeoNames import
type SeederConfig struct {
	DataDir       string
	BatchSize     int
	MinPopulation int
}

// DSN returns the database connection string
func (c DBConfig) DSN() string {
	if c.Type == DBTypeMemory {
		if c.Name != "" && c.Name != "gazetteer" {
			return fmt.Sprintf("file:%s?mode=memory&cache=shared", c.Name)
		}
		return "file::memory:?cache=shared"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// IsMemory returns true if using in-memory database
func (c DBConfig) IsMemory() bool {
	return c.Type == DBTypeMemory
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port      string
	Version   string
	Name      string
	LogFormat string
}

// Provider names a completion backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// LLMConfig holds the completion provider settings.
type LLMConfig struct {
	Provider         Provider
	OpenAIKey        string
	OpenAIBaseURL    string
	OpenAIModel      string
	AnthropicKey     string
	AnthropicBaseURL string
	AnthropicModel   string
	GeminiKey        string
	GeminiModel      string
	MaxTokens        int
	Timeout          time.Duration
}

// CredentialEnv returns the environment variable holding the active provider's key.
func (c LLMConfig) CredentialEnv() string {
	switch c.Provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

// APIKey returns the active provider's key, empty when unset.
func (c LLMConfig) APIKey() string {
	switch c.Provider {
	case ProviderAnthropic:
		return c.AnthropicKey
	case ProviderGemini:
		return c.GeminiKey
	default:
		return c.OpenAIKey
	}
}

// EnrichConfig holds the endpoints and timeouts of the enrichment lookups.
type EnrichConfig struct {
	UserAgent    string
	NewsFeedURL  string
	NewsTimeout  time.Duration
	Timeout      time.Duration
	WikipediaURL string
	WikidataURL  string
	NominatimURL string
	NominatimRPS float64
	StaticMapURL string
	TourismGuess bool
}

// Policy is the request policy handed to the HTTP layer and the news scorer.
type Policy struct {
	AllowedOrigins      []string
	NegativeKeywords    []string
	TravelDomainPattern *regexp.Regexp
}

// DefaultNegativeKeywords excludes crime, disaster, legal and financial coverage.
var DefaultNegativeKeywords = []string{
	"shooting", "shot", "stabbing", "murder", "killed", "homicide", "assault",
	"robbery", "arrest", "arrested", "police", "crime", "fire", "blaze", "crash",
	"flood", "earthquake", "hurricane", "storm", "explosion", "dead", "death",
	"lawsuit", "sued", "court", "trial", "indicted", "bankruptcy", "foreclosure",
	"layoffs", "scandal", "protest", "riot",
}

// DefaultTravelDomainPattern matches travel and hospitality publishers.
const DefaultTravelDomainPattern = `(?i)(cntraveler|travelandleisure|lonelyplanet|afar|fodors|frommers|timeout|thrillist|eater|nomadicmatt|roughguides|telegraph\.co\.uk/travel|nytimes\.com/.*travel|theguardian\.com/travel|hotels?|travel)`

// Load loads configuration from environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbType := DBType(getEnv("DB_TYPE", "memory"))
	if dbType != DBTypePostgreSQL && dbType != DBTypeMemory {
		dbType = DBTypeMemory
	}

	provider := Provider(strings.ToLower(getEnv("LLM_PROVIDER", string(ProviderOpenAI))))
	switch provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", provider)
	}

	pattern := getEnv("NEWS_TRAVEL_DOMAIN_PATTERN", DefaultTravelDomainPattern)
	travelRe, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid NEWS_TRAVEL_DOMAIN_PATTERN: %w", err)
	}

	negative := getEnvAsSlice("NEWS_NEGATIVE_KEYWORDS")
	if len(negative) == 0 {
		negative = append([]string(nil), DefaultNegativeKeywords...)
	}

	// A news lookup may run two fetches, so the enrichment budget covers both
	newsTimeout := getEnvAsDuration("NEWS_TIMEOUT", 6*time.Second)
	enrichTimeout := getEnvAsDuration("ENRICH_TIMEOUT", max(8*time.Second, 2*newsTimeout+time.Second))

	origins := getEnvAsSlice("CORS_ALLOWED_ORIGINS")
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	config := &Config{
		Server: ServerConfig{
			Port:      getEnv("APP_PORT", "8080"),
			Version:   getEnv("APP_VERSION", "2.0.0"),
			Name:      getEnv("SERVICE_NAME", "placematch-api"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
		LLM: LLMConfig{
			Provider:         provider,
			OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
			OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			AnthropicKey:     os.Getenv("ANTHROPIC_API_KEY"),
			AnthropicBaseURL: getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com/v1/messages"),
			AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
			GeminiKey:        os.Getenv("GEMINI_API_KEY"),
			GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			MaxTokens:        getEnvAsInt("LLM_MAX_TOKENS", 1200),
			Timeout:          getEnvAsDuration("LLM_TIMEOUT", 45*time.Second),
		},
		Enrich: EnrichConfig{
			UserAgent:    getEnv("HTTP_USER_AGENT", "placematch-api/2.0 (+https://github.com/alexivanou/placematch-api)"),
			NewsFeedURL:  getEnv("NEWS_FEED_URL", "https://news.google.com/rss/search"),
			NewsTimeout:  newsTimeout,
			Timeout:      enrichTimeout,
			WikipediaURL: getEnv("WIKIPEDIA_URL", "https://en.wikipedia.org"),
			WikidataURL:  getEnv("WIKIDATA_URL", "https://www.wikidata.org"),
			NominatimURL: getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
			NominatimRPS: getEnvAsFloat("NOMINATIM_RPS", 1),
			StaticMapURL: getEnv("STATIC_MAP_URL", "https://staticmap.openstreetmap.de/staticmap.php"),
			TourismGuess: getEnvAsBool("TOURISM_GUESS_ENABLED", false),
		},
		Policy: Policy{
			AllowedOrigins:      origins,
			NegativeKeywords:    negative,
			TravelDomainPattern: travelRe,
		},
		DB: DBConfig{
			Type:     dbType,
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "gazetteer"),
			Password: getEnv("DB_PASSWORD", "gazetteer_password"),
			Name:     getEnv("DB_NAME", "gazetteer"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Seeder: SeederConfig{
			DataDir:       getEnv("GAZETTEER_DATA_DIR", "data"),
			BatchSize:     getEnvAsInt("SEEDER_BATCH_SIZE", 1000),
			MinPopulation: getEnvAsInt("SEEDER_MIN_POPULATION", 15000),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
