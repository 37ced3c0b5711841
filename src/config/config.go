package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

const (
	DefaultAPIKeyPath     = "/run/secrets/api_keys/google"
	APIKeyPathEnvVar      = "GOOGLE_API_KEY_FILE"
	APIKeyEnvVar          = "GOOGLE_API_KEY"
	TargetLanguageEnvVar  = "TARGET_LANGUAGE"
	DefaultTargetLanguage = "it"
	DefaultHotkey         = "Ctrl+Alt+T"
	DefaultTimeoutSec     = 20
	DefaultFontMaxSize    = 16
	DefaultFontMinSize    = 1
	stateFileName         = "screen_translator_state.env"
)

// LoadOptions carries command-line overrides; they take precedence over the
// environment and .env values.
type LoadOptions struct {
	APIKeyPathOverride     string
	TargetLanguageOverride string
}

type Config struct {
	APIKey              string
	APIKeyPath          string
	TargetLanguage      string
	EnableFileLogging   bool
	Hotkey              string
	RecognizeTimeoutSec int
	TranslateTimeoutSec int
	VisionEndpoint      string
	TranslateEndpoint   string
	StateFile           string
	RenderEmpty         bool
	FontMaxSize         int
	FontMinSize         int
	// OCRProvider selects the recognizer: "google" (default) or "tesseract".
	OCRProvider string
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Sources in priority order:
	// 1) .env in the executable directory
	// 2) if not found, SCREEN_TRANSLATOR env var as a path to a config file
	envPath := resolveEnvPath()
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	apiKeyPath := resolveAPIKeyPath(opts, dotenvValues)

	fontMax := positiveIntEnv("FONT_MAX_SIZE", DefaultFontMaxSize)
	fontMin := positiveIntEnv("FONT_MIN_SIZE", DefaultFontMinSize)
	if fontMin > fontMax {
		fontMin = fontMax
	}

	cfg := &Config{
		APIKey:              resolveAPIKey(apiKeyPath),
		APIKeyPath:          apiKeyPath,
		TargetLanguage:      resolveTargetLanguage(opts),
		EnableFileLogging:   strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
		Hotkey:              getEnvWithDefault("HOTKEY", DefaultHotkey),
		RecognizeTimeoutSec: positiveIntEnv("RECOGNIZE_TIMEOUT_SEC", DefaultTimeoutSec),
		TranslateTimeoutSec: positiveIntEnv("TRANSLATE_TIMEOUT_SEC", DefaultTimeoutSec),
		VisionEndpoint:      strings.TrimSpace(os.Getenv("VISION_ENDPOINT")),
		TranslateEndpoint:   strings.TrimSpace(os.Getenv("TRANSLATE_ENDPOINT")),
		StateFile:           resolveStateFile(),
		RenderEmpty:         strings.ToLower(strings.TrimSpace(os.Getenv("RENDER_EMPTY"))) != "false",
		FontMaxSize:         fontMax,
		FontMinSize:         fontMin,
		OCRProvider:         strings.ToLower(getEnvWithDefault("OCR_PROVIDER", "google")),
	}

	return cfg, nil
}

// NormalizeLanguage validates code as a BCP 47 tag and returns its canonical
// form, or "" when code is not a usable language.
func NormalizeLanguage(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil || tag == language.Und {
		return ""
	}
	return tag.String()
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}

	exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv("SCREEN_TRANSLATOR"); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

func resolveAPIKeyPath(opts LoadOptions, dotenvValues map[string]string) string {
	keyPath := DefaultAPIKeyPath

	if envPath := strings.TrimSpace(os.Getenv(APIKeyPathEnvVar)); envPath != "" {
		keyPath = envPath
	}

	if dotenvPath := strings.TrimSpace(dotenvValues[APIKeyPathEnvVar]); dotenvPath != "" {
		keyPath = dotenvPath
	}

	if overridePath := strings.TrimSpace(opts.APIKeyPathOverride); overridePath != "" {
		keyPath = overridePath
	}

	return keyPath
}

func resolveAPIKey(keyPath string) string {
	if data, err := os.ReadFile(keyPath); err == nil {
		if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
			return fileKey
		}
	}

	return os.Getenv(APIKeyEnvVar)
}

func resolveTargetLanguage(opts LoadOptions) string {
	if lang := NormalizeLanguage(opts.TargetLanguageOverride); lang != "" {
		return lang
	}
	if lang := NormalizeLanguage(os.Getenv(TargetLanguageEnvVar)); lang != "" {
		return lang
	}
	return DefaultTargetLanguage
}

func resolveStateFile() string {
	if p := strings.TrimSpace(os.Getenv("STATE_FILE")); p != "" {
		return p
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "screen-translator", stateFileName)
	}
	return stateFileName
}

func positiveIntEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
