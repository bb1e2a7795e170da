package config

import (
	"os"
	"strconv"
	"strings"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Facebook struct {
	PageID          string
	PageAccessToken string
	APIVersion      string
	GraphURL        string
}

type OpenAI struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
}

type Business struct {
	Name     string
	Type     string
	Location string
	URL      string
}

type Posting struct {
	Days       string
	Time       string
	Timezone   string
	WindowDays int
}

type Config struct {
	Environment      string
	Port             string
	CronSecret       string
	SecretKey        string
	CookieName       string
	PostgresURI      string
	RedisURI         string
	DispatchCron     string
	ScheduleWeekCron string
	PublicDir        string
	Facebook         Facebook
	OpenAI           OpenAI
	Business         Business
	Posting          Posting
	R2               R2
}

// Provider returns the configuration in effect at the moment of the call.
type Provider func() *Config

func LoadConfig() *Config {
	return &Config{
		Environment:      getEnv("ENVIRONMENT", "development"),
		Port:             getEnv("PORT", "3000"),
		CronSecret:       getEnv("CRON_SECRET", ""),
		SecretKey:        getEnv("SECRET_KEY", ""),
		CookieName:       getEnv("COOKIE_NAME", "postpilot_session"),
		PostgresURI:      getEnv("POSTGRES_URI", ""),
		RedisURI:         getEnv("REDIS_URI", "localhost:6379"),
		DispatchCron:     getEnv("DISPATCH_CRON", "@every 5m"),
		ScheduleWeekCron: getEnv("SCHEDULE_WEEK_CRON", "@weekly"),
		PublicDir:        getEnv("PUBLIC_DIR", "public"),
		Facebook: Facebook{
			PageID:          getEnv("FACEBOOK_PAGE_ID", ""),
			PageAccessToken: getEnv("FACEBOOK_PAGE_ACCESS_TOKEN", ""),
			APIVersion:      getEnv("FACEBOOK_API_VERSION", "v18.0"),
			GraphURL:        getEnv("FACEBOOK_GRAPH_URL", "https://graph.facebook.com"),
		},
		OpenAI: OpenAI{
			APIKey:     getEnv("OPENAI_API_KEY", ""),
			BaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			TextModel:  getEnv("OPENAI_TEXT_MODEL", "gpt-4o"),
			ImageModel: getEnv("OPENAI_IMAGE_MODEL", "dall-e-3"),
		},
		Business: Business{
			Name:     getEnv("BUSINESS_NAME", ""),
			Type:     getEnv("BUSINESS_TYPE", ""),
			Location: getEnv("BUSINESS_LOCATION", ""),
			URL:      getEnv("BUSINESS_URL", ""),
		},
		Posting: Posting{
			Days:       getEnv("POSTING_DAYS", "1,3,5,6"),
			Time:       getEnv("POSTING_TIME", "10:00"),
			Timezone:   getEnv("POSTING_TIMEZONE", "Local"),
			WindowDays: getEnvInt("SCHEDULE_WINDOW_DAYS", 7),
		},
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  strings.TrimSuffix(getEnv("R2_PUBLIC_URL", ""), "/"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func (f Facebook) Configured() bool {
	return f.PageID != "" && f.PageAccessToken != ""
}

func (r R2) Configured() bool {
	return r.AccountID != "" && r.AccessKey != "" && r.SecretKey != "" && r.BucketName != "" && r.PublicURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
