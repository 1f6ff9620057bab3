package config

import (
    "os"
    "path/filepath"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
    for _, k := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "VISION_MODEL", "REDIS_URL", "MAX_UPLOAD_MB", "AWS_S3_BUCKET", "PORT", "JPEG_QUALITY"} {
        t.Setenv(k, "")
    }
    cfg := FromEnv()

    assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.VisionModel)
    assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.AudioModel)
    assert.Equal(t, "gemini-2.0-flash-exp-image-generation", cfg.Gemini.MediaModel)
    assert.Equal(t, int64(20<<20), cfg.Limits.MaxUploadBytes)
    assert.Equal(t, 1024, cfg.Limits.ImageMaxDimension)
    assert.Equal(t, 85, cfg.Limits.JPEGQuality)
    assert.Equal(t, int64(64000000), cfg.Limits.ImageMaxPixels)
    assert.Equal(t, 4, cfg.Limits.MaxInflightPerModel)
    assert.Equal(t, 30*time.Second, cfg.Limits.CooldownBaseBackoff)
    assert.Equal(t, "", cfg.Redis.URL)
    assert.Equal(t, 200, cfg.Redis.JournalSize)
    assert.Equal(t, "uploads/media", cfg.Storage.LocalDir)
    assert.Equal(t, "8080", cfg.Port)
}

func TestFromEnv_Overrides(t *testing.T) {
    t.Setenv("GEMINI_API_KEY", "k1")
    t.Setenv("VISION_MODEL", "gemini-1.5-pro")
    t.Setenv("REQUEST_TIMEOUT", "15s")
    t.Setenv("MAX_UPLOAD_MB", "5")
    t.Setenv("JPEG_QUALITY", "250")
    t.Setenv("COOLDOWN_MAX_BACKOFF", "bogus")
    t.Setenv("SEND_LOGS_TO_AXIOM", "yes")
    t.Setenv("AXIOM_DATASET", "prod")

    cfg := FromEnv()
    assert.Equal(t, "k1", cfg.Gemini.APIKey)
    assert.Equal(t, "gemini-1.5-pro", cfg.Gemini.VisionModel)
    assert.Equal(t, 15*time.Second, cfg.Limits.RequestTimeout)
    assert.Equal(t, int64(5<<20), cfg.Limits.MaxUploadBytes)
    assert.Equal(t, 85, cfg.Limits.JPEGQuality)
    assert.Equal(t, 5*time.Minute, cfg.Limits.CooldownMaxBackoff)
    assert.True(t, cfg.Axiom.Send)
    assert.Equal(t, "prod_mediainsight", cfg.Axiom.Dataset)
}

func TestFromEnv_GoogleKeyFallback(t *testing.T) {
    t.Setenv("GEMINI_API_KEY", "")
    t.Setenv("GOOGLE_API_KEY", "g1")
    assert.Equal(t, "g1", FromEnv().Gemini.APIKey)
}

func TestLoad_EnvFile(t *testing.T) {
    t.Setenv("AUDIO_MODEL", "")
    os.Unsetenv("AUDIO_MODEL")
    p := filepath.Join(t.TempDir(), "test.env")
    assert.NoError(t, os.WriteFile(p, []byte("AUDIO_MODEL=gemini-audio-x\n"), 0o600))

    cfg := Load(p)
    assert.Equal(t, "gemini-audio-x", cfg.Gemini.AudioModel)
    os.Unsetenv("AUDIO_MODEL")

    cfg = Load(filepath.Join(t.TempDir(), "missing.env"))
    assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.AudioModel)
}
