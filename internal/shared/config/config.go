package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"documind-backend/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	DatabaseURL     string
	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	S3Endpoint      string
	S3AccessKeyID   string
	S3SecretKey     string
	S3UsePathStyle  bool
	S3PresignTTL    time.Duration

	ClassifierURL    string
	SummarizerURL    string
	NERURL           string
	InferenceTimeout time.Duration
	LabelMap         map[string]string

	TesseractBin  string
	TesseractLang string
	TessdataDir   string
	OCRPageSeg    int
	PdftoppmBin   string
	PDFDPI        int
	PDFMaxPages   int
	WorkDir       string

	SummaryMaxInputTokens int
	SummaryMinLength      int
	SummaryMaxLength      int
	PipelineParallel      bool

	UploadRatePerSec float64
	UploadBurst      int
	MaxUploadBytes   int64
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")
	if env == "production" && dbURL == "" {
		telemetry.Warn("config.database_url_missing", map[string]any{"env": env})
	}

	inferenceURL := strings.TrimRight(getEnv("INFERENCE_URL", ""), "/")
	labels, err := LoadLabelMap(os.Getenv("LABEL_MAP_FILE"), os.Getenv("LABEL_MAP"))
	if err != nil {
		telemetry.Warn("config.label_map_invalid", map[string]any{"error": err.Error()})
		labels = DefaultLabelMap()
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DatabaseURL:     dbURL,
		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data/archive"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		S3AccessKeyID:   getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretKey:     getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3UsePathStyle:  getBool("S3_USE_PATH_STYLE", false),
		S3PresignTTL:    getDuration("S3_PRESIGN_TTL", 0),

		ClassifierURL:    getEnv("CLASSIFIER_URL", inferenceURL),
		SummarizerURL:    getEnv("SUMMARIZER_URL", inferenceURL),
		NERURL:           getEnv("NER_URL", inferenceURL),
		InferenceTimeout: getDuration("INFERENCE_TIMEOUT", 60*time.Second),
		LabelMap:         labels,

		TesseractBin:  getEnv("TESSERACT_BIN", "tesseract"),
		TesseractLang: getEnv("TESSERACT_LANG", "eng"),
		TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
		OCRPageSeg:    getInt("OCR_PSM", 0),
		PdftoppmBin:   getEnv("PDFTOPPM_BIN", "pdftoppm"),
		PDFDPI:        getInt("PDF_DPI", 300),
		PDFMaxPages:   getInt("PDF_MAX_PAGES", 10),
		WorkDir:       getEnv("WORK_DIR", os.TempDir()),

		SummaryMaxInputTokens: getInt("SUMMARY_MAX_INPUT_TOKENS", 1000),
		SummaryMinLength:      getInt("SUMMARY_MIN_LENGTH", 30),
		SummaryMaxLength:      getInt("SUMMARY_MAX_LENGTH", 130),
		PipelineParallel:      getBool("PIPELINE_PARALLEL", false),

		UploadRatePerSec: getFloat("UPLOAD_RATE_PER_SEC", 1),
		UploadBurst:      getInt("UPLOAD_BURST", 5),
		MaxUploadBytes:   int64(getInt("MAX_UPLOAD_MB", 20)) << 20,
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		telemetry.Warn("config.invalid_int", map[string]any{"key": key, "value": raw})
		return def
	}
	return val
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		telemetry.Warn("config.invalid_float", map[string]any{"key": key, "value": raw})
		return def
	}
	return val
}

func getBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		telemetry.Warn("config.invalid_bool", map[string]any{"key": key, "value": raw})
		return def
	}
	return val
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		// bare numbers are seconds
		secs, convErr := strconv.Atoi(raw)
		if convErr != nil || secs <= 0 {
			telemetry.Warn("config.invalid_duration", map[string]any{"key": key, "value": raw})
			return def
		}
		return time.Duration(secs) * time.Second
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
