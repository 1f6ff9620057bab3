package config

import (
    "errors"
    "fmt"
    "io/fs"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/joho/godotenv"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
    Level        string
    Pretty       bool
    File         string
    MaxSizeMB    int
    MaxBackups   int
    MaxAgeDays   int
    Compress     bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
    Send          bool
    APIKey        string
    OrgID         string
    Dataset       string
    FlushInterval time.Duration
}

// GeminiConfig holds the generative-language API credentials and model choices.
type GeminiConfig struct {
    APIKey      string
    VisionModel string
    AudioModel  string
    MediaModel  string
    ModelsURL   string
}

// LimitsConfig bounds uploads, image downscaling and upstream concurrency.
type LimitsConfig struct {
    RequestTimeout      time.Duration
    MaxUploadBytes      int64
    ImageMaxDimension   int
    ImageMaxPixels      int64
    JPEGQuality         int
    MaxInflightPerModel int
    CooldownBaseBackoff time.Duration
    CooldownMaxBackoff  time.Duration
}

// RedisConfig enables shared cooldowns and the request journal. Empty URL disables both.
type RedisConfig struct {
    URL         string
    JournalSize int
}

// StorageConfig selects where generated media is kept.
type StorageConfig struct {
    S3Bucket    string
    S3Prefix    string
    S3Region    string
    S3Endpoint  string
    S3AccessKey string
    S3SecretKey string
    LocalDir    string
    Password    string
}

// Config is the top-level configuration.
type Config struct {
    Port    string
    Logging LoggingConfig
    Axiom   AxiomConfig
    Gemini  GeminiConfig
    Limits  LimitsConfig
    Redis   RedisConfig
    Storage StorageConfig
}

// Load reads an optional .env file and then the environment.
func Load(files ...string) Config {
    if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
        fmt.Fprintf(os.Stderr, "ignoring env file: %v\n", err)
    }
    return FromEnv()
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
    cfg := Config{}

    // Logging defaults
    cfg.Logging = LoggingConfig{
        Level:      getEnv("LOG_LEVEL", "info"),
        Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
        File:       getEnv("LOG_FILE", "logs/mediainsight.log"),
        MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
        MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
        MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
        Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
    }

    // Axiom defaults
    baseDataset := getEnv("AXIOM_DATASET", "dev")
    cfg.Axiom = AxiomConfig{
        Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
        APIKey:        getEnv("AXIOM_API_KEY", ""),
        OrgID:         getEnv("AXIOM_ORG_ID", ""),
        Dataset:       baseDataset + "_mediainsight",
        FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
    }

    cfg.Gemini = GeminiConfig{
        APIKey:      getEnv("GEMINI_API_KEY", getEnv("GOOGLE_API_KEY", "")),
        VisionModel: getEnv("VISION_MODEL", "gemini-2.0-flash"),
        AudioModel:  getEnv("AUDIO_MODEL", "gemini-2.0-flash"),
        MediaModel:  getEnv("MEDIA_MODEL", "gemini-2.0-flash-exp-image-generation"),
        ModelsURL:   getEnv("MODELS_URL", "https://generativelanguage.googleapis.com/v1beta/models"),
    }

    cfg.Limits = LimitsConfig{
        RequestTimeout:      parseDuration(getEnv("REQUEST_TIMEOUT", "60s"), 60*time.Second),
        MaxUploadBytes:      int64(parseInt(getEnv("MAX_UPLOAD_MB", "20"), 20)) << 20,
        ImageMaxDimension:   parseInt(getEnv("IMAGE_MAX_DIMENSION", "1024"), 1024),
        ImageMaxPixels:      int64(parseInt(getEnv("IMAGE_MAX_PIXELS", "64000000"), 64000000)),
        JPEGQuality:         parseInt(getEnv("JPEG_QUALITY", "85"), 85),
        MaxInflightPerModel: parseInt(getEnv("MAX_INFLIGHT_PER_MODEL", "4"), 4),
        CooldownBaseBackoff: parseDuration(getEnv("COOLDOWN_BASE_BACKOFF", "30s"), 30*time.Second),
        CooldownMaxBackoff:  parseDuration(getEnv("COOLDOWN_MAX_BACKOFF", "5m"), 5*time.Minute),
    }
    if cfg.Limits.JPEGQuality < 1 || cfg.Limits.JPEGQuality > 100 { cfg.Limits.JPEGQuality = 85 }

    cfg.Redis = RedisConfig{
        URL:         getEnv("REDIS_URL", ""),
        JournalSize: parseInt(getEnv("JOURNAL_SIZE", "200"), 200),
    }

    cfg.Storage = StorageConfig{
        S3Bucket:    getEnv("AWS_S3_BUCKET", ""),
        S3Prefix:    getEnv("AWS_S3_PREFIX", "media/"),
        S3Region:    getEnv("AWS_REGION", ""),
        S3Endpoint:  getEnv("S3_ENDPOINT", ""),
        S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
        S3SecretKey: getEnv("S3_SECRET_KEY", ""),
        LocalDir:    getEnv("MEDIA_DIR", "uploads/media"),
        Password:    getEnv("MEDIA_PASSWORD", ""),
    }

    cfg.Port = getEnv("PORT", "8080")

    return cfg
}

// Helpers
func getEnv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func parseInt(s string, def int) int {
    if s == "" { return def }
    if n, err := strconv.Atoi(s); err == nil { return n }
    return def
}

func parseBool(s string) bool {
    v := strings.ToLower(strings.TrimSpace(s))
    return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
    if s == "" { return def }
    if d, err := time.ParseDuration(s); err == nil { return d }
    return def
}

func devDefaultPretty() string {
    env := strings.ToLower(os.Getenv("ENVIRONMENT"))
    if env == "dev" || env == "development" || env == "local" { return "true" }
    return "false"
}
