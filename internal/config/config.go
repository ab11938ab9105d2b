package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Qdrant    QdrantConfig    `mapstructure:"qdrant"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Index     IndexConfig     `mapstructure:"index"`
	Google    GoogleConfig    `mapstructure:"google"`
	Models    ModelsConfig    `mapstructure:"models"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Studio    StudioConfig    `mapstructure:"studio"`
	Trending  TrendingConfig  `mapstructure:"trending"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Creators  []CreatorConfig `mapstructure:"creators"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the driver-specific connection string.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
	}
	return c.Path
}

type StorageConfig struct {
	Type      string `mapstructure:"type"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

type QdrantConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Collection string `mapstructure:"collection"`
	APIKey     string `mapstructure:"api_key"`
	UseTLS     bool   `mapstructure:"use_tls"`
}

type IndexConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// GoogleConfig holds credentials for the Gemini, Vertex AI, and TTS endpoints.
type GoogleConfig struct {
	ProjectID   string `mapstructure:"project_id"`
	Region      string `mapstructure:"region"`
	APIKey      string `mapstructure:"api_key"`
	AccessToken string `mapstructure:"access_token"`
	MetadataURL string `mapstructure:"metadata_url"`
	// VideoOutputBucket is where the video model writes finished clips.
	VideoOutputBucket string `mapstructure:"video_output_bucket"`
}

type ModelsConfig struct {
	Research  string `mapstructure:"research"`
	Writer    string `mapstructure:"writer"`
	Image     string `mapstructure:"image"`
	ImageEdit string `mapstructure:"image_edit"`
	Video     string `mapstructure:"video"`
	Voice     string `mapstructure:"voice"`
	Pipeline  string `mapstructure:"pipeline"`
}

// PipelineConfig holds the orchestrator's policy knobs.
type PipelineConfig struct {
	VideoPollInterval    time.Duration `mapstructure:"video_poll_interval"`
	VideoMaxPolls        int           `mapstructure:"video_max_polls"`
	VideoDurationSeconds int           `mapstructure:"video_duration_seconds"`
	MinVoiceoverChars    int           `mapstructure:"min_voiceover_chars"`
	PrimaryVariant       string        `mapstructure:"primary_variant"`
	MinConfidence        float64       `mapstructure:"min_confidence"`
	DefaultConfidence    float64       `mapstructure:"default_confidence"`
	DefaultMinInterval   time.Duration `mapstructure:"default_min_interval"`
	RequestTimeout       time.Duration `mapstructure:"request_timeout"`
}

// StudioConfig bounds the on-demand media actions.
type StudioConfig struct {
	VideoBudget   time.Duration `mapstructure:"video_budget"`
	MaxImageBytes int64         `mapstructure:"max_image_bytes"`
}

type TrendingConfig struct {
	Categories []string `mapstructure:"categories"`
	Limit      int      `mapstructure:"limit"`
}

type SchedulerConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Timezone       string        `mapstructure:"timezone"`
	CycleCron      string        `mapstructure:"cycle_cron"`
	EngagementCron string        `mapstructure:"engagement_cron"`
	TrendingCron   string        `mapstructure:"trending_cron"`
	JobTimeout     time.Duration `mapstructure:"job_timeout"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets and deployment-specific values come from the environment
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	v.BindEnv("storage.bucket", "STORAGE_BUCKET")
	v.BindEnv("storage.public_url", "STORAGE_PUBLIC_URL")
	v.BindEnv("qdrant.host", "QDRANT_HOST")
	v.BindEnv("qdrant.api_key", "QDRANT_API_KEY")
	v.BindEnv("embedding.api_key", "JINA_API_KEY")
	v.BindEnv("google.project_id", "GCLOUD_PROJECT", "GCP_PROJECT")
	v.BindEnv("google.api_key", "GEMINI_API_KEY", "GOOGLE_AI_KEY")
	v.BindEnv("google.access_token", "GOOGLE_ACCESS_TOKEN")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(cfg.Creators) == 0 {
		creators, err := defaultCreators()
		if err != nil {
			return nil, err
		}
		cfg.Creators = creators
	}

	cfg.Embedding.ResolveEnvVars()

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/agentfeed.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("storage.endpoint", "storage.googleapis.com")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.bucket", "agentfeed-media")
	v.SetDefault("storage.region", "auto")

	v.SetDefault("qdrant.host", "localhost")
	v.SetDefault("qdrant.port", 6334)
	v.SetDefault("qdrant.collection", "posts")
	v.SetDefault("embedding.provider", "jina")
	v.SetDefault("embedding.model", "jina-embeddings-v3")
	v.SetDefault("embedding.dimensions", 1024)
	v.SetDefault("index.enabled", false)

	v.SetDefault("google.region", "us-central1")
	v.SetDefault("google.metadata_url", "http://metadata.google.internal")

	v.SetDefault("models.research", "gemini-2.0-flash")
	v.SetDefault("models.writer", "gemini-2.5-pro")
	v.SetDefault("models.image", "imagen-3.0-generate-002")
	v.SetDefault("models.image_edit", "imagen-3.0-capability-001")
	v.SetDefault("models.video", "veo-2.0-generate-exp")
	v.SetDefault("models.voice", "cloud-tts-neural2")
	v.SetDefault("models.pipeline", "vertex-ai-all-google")

	v.SetDefault("pipeline.video_poll_interval", "10s")
	v.SetDefault("pipeline.video_max_polls", 30)
	v.SetDefault("pipeline.video_duration_seconds", 6)
	v.SetDefault("pipeline.min_voiceover_chars", 10)
	v.SetDefault("pipeline.primary_variant", "portrait")
	v.SetDefault("pipeline.min_confidence", 0.0)
	v.SetDefault("pipeline.default_confidence", 0.8)
	v.SetDefault("pipeline.default_min_interval", "4h")
	v.SetDefault("pipeline.request_timeout", "120s")

	v.SetDefault("studio.video_budget", "5m")
	v.SetDefault("studio.max_image_bytes", 20<<20)

	v.SetDefault("trending.categories", []string{"food", "commerce", "travel", "health", "news", "utility"})
	v.SetDefault("trending.limit", 20)

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("scheduler.cycle_cron", "0 */2 * * *")
	v.SetDefault("scheduler.engagement_cron", "15 * * * *")
	v.SetDefault("scheduler.trending_cron", "30 3 * * *")
	v.SetDefault("scheduler.job_timeout", "30m")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "agentfeed")
}
