// Package config loads process-wide settings from the environment, read
// once at startup; changes require a restart.
package config

import (
	"os"
	"strconv"
	"time"

	"kotoba-engine/internal/asr"
	"kotoba-engine/internal/audio"
	"kotoba-engine/internal/cte"
	"kotoba-engine/internal/registry"
)

// Config is the fully-resolved process configuration.
type Config struct {
	ListenAddr string

	ASRBaseURL       string
	HiraganaBaseURL  string
	TranslateBaseURL string

	Session  cte.Config
	Registry registry.Config
	ASR      asr.Params

	WorkerPoolSize int

	AuthEnabled bool

	MinioEnabled bool
	StatsEnabled bool
}

// FromEnv resolves Config from the environment, applying defaults suited
// to a single-process local deployment.
func FromEnv() Config {
	session := cte.Config{
		Audio: audio.Config{
			SampleRate:                  getEnvInt("AUDIO_SAMPLE_RATE", 16000),
			Channels:                    getEnvInt("AUDIO_CHANNELS", 1),
			SampleWidth:                 getEnvInt("AUDIO_SAMPLE_WIDTH", 2),
			MaxAudioDurationSeconds:     getEnvFloat("MAX_AUDIO_DURATION_SECONDS", 25.0),
			TranscriptionIntervalChunks: getEnvInt("TRANSCRIPTION_INTERVAL_CHUNKS", 3),
			MaxChunksPerSession:         getEnvInt("MAX_CHUNKS_PER_SESSION", 2000),
		},
		StableThreshold: getEnvInt("STABLE_TEXT_THRESHOLD", 2),
	}

	return Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8005"),

		ASRBaseURL:       getEnv("ASR_BASE_URL", "http://127.0.0.1:8003"),
		HiraganaBaseURL:  getEnv("HIRAGANA_BASE_URL", "http://127.0.0.1:8006"),
		TranslateBaseURL: getEnv("TRANSLATE_BASE_URL", "http://127.0.0.1:8004"),

		Session: session,

		Registry: registry.Config{
			SessionTimeout: getEnvDuration("SESSION_TIMEOUT_MINUTES", 30*time.Minute),
			Session:        session,
		},

		ASR: asr.Params{
			Beam:         getEnvInt("ASR_BEAM_SIZE", 5),
			Temperature:  getEnvFloat("ASR_TEMPERATURE", 0.0),
			VADThreshold: getEnvFloat("ASR_VAD_THRESHOLD", 0.5),
		},

		WorkerPoolSize: getEnvInt("WORKER_POOL_SIZE", 2),

		AuthEnabled:  getEnvBool("AUTH_ENABLED", false),
		MinioEnabled: getEnvBool("MINIO_ENABLED", false),
		StatsEnabled: getEnvBool("STATS_ENABLED", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	minutes, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return time.Duration(minutes) * time.Minute
}
