package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "AHA_CONFIG"
	dataDirEnv        = "AHA_DATA_DIR"
	outputEnv         = "AHA_OUTPUT"
	logLevelEnv       = "LOG_LEVEL"
	logFormatEnv      = "LOG_FORMAT"
	oracleProviderEnv = "ORACLE_PROVIDER"
	oracleModelEnv    = "ORACLE_MODEL"
	oracleAPIKeyEnv   = "ORACLE_API_KEY"
	anthropicKeyEnv   = "ANTHROPIC_API_KEY"
	openAIKeyEnv      = "OPENAI_API_KEY"
	geminiKeyEnv      = "GEMINI_API_KEY"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	minConfidenceEnv  = "AHA_MIN_CONFIDENCE"
	minScoreEnv       = "AHA_MIN_SCORE"
)

// Scanner modes understood by the collector.
const (
	ModeSearch  = "search"
	ModeListing = "listing"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Data          DataConfig         `yaml:"data"`
	Vocabulary    VocabularyConfig   `yaml:"vocabulary"`
	Sites         []SiteConfig       `yaml:"sites"`
	Classifier    ClassifierConfig   `yaml:"classifier"`
	Oracle        OracleConfig       `yaml:"oracle"`
	Render        RenderConfig       `yaml:"render"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// LoggingConfig selects slog level and handler format (text, json or auto).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DataConfig locates the three append-only logs.
type DataConfig struct {
	Dir           string `yaml:"dir"`
	RawLog        string `yaml:"rawLog"`
	ClassifiedLog string `yaml:"classifiedLog"`
	AcceptedLog   string `yaml:"acceptedLog"`
	LockFile      string `yaml:"lockFile"`
}

// RawPath resolves the raw log inside Dir.
func (d DataConfig) RawPath() string { return d.resolve(d.RawLog) }

// ClassifiedPath resolves the classified log inside Dir.
func (d DataConfig) ClassifiedPath() string { return d.resolve(d.ClassifiedLog) }

// AcceptedPath resolves the accepted log inside Dir.
func (d DataConfig) AcceptedPath() string { return d.resolve(d.AcceptedLog) }

// LockPath resolves the run lock inside Dir.
func (d DataConfig) LockPath() string { return d.resolve(d.LockFile) }

func (d DataConfig) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.Dir, name)
}

// VocabularyConfig carries the keyword lists used by the collector filters.
type VocabularyConfig struct {
	AhaPhrases   []string            `yaml:"ahaPhrases"`
	AITools      []string            `yaml:"aiTools"`
	ToolMappings []ToolMappingConfig `yaml:"toolMappings"`
	DefaultTool  string              `yaml:"defaultTool"`
}

// ToolMappingConfig maps keywords to a canonical tool label.
type ToolMappingConfig struct {
	Keywords []string `yaml:"keywords"`
	Label    string   `yaml:"label"`
}

// SiteConfig describes one source with its scanner strategy.
type SiteConfig struct {
	Name    string            `yaml:"name"`
	Scanner string            `yaml:"scanner"`
	Mode    string            `yaml:"mode"`
	Terms   []string          `yaml:"terms"`
	Limit   int               `yaml:"limit"`
	Delay   time.Duration     `yaml:"delay"`
	BaseURL string            `yaml:"baseUrl"`
	Options map[string]string `yaml:"options"`
}

// ClassifierConfig sets acceptance thresholds and pacing.
type ClassifierConfig struct {
	MinConfidence int           `yaml:"minConfidence"`
	MinScore      int           `yaml:"minScore"`
	Delay         time.Duration `yaml:"delay"`
	ExcerptLimit  int           `yaml:"excerptLimit"`
}

// OracleConfig defines how to contact the language-model provider.
type OracleConfig struct {
	Provider  string        `yaml:"provider"`
	Endpoint  string        `yaml:"endpoint"`
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"apiKey"`
	MaxTokens int           `yaml:"maxTokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// RenderConfig controls the generated document.
type RenderConfig struct {
	Output string `yaml:"output"`
	Title  string `yaml:"title"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Enabled reports whether both credentials are present.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// Load reads .env files, YAML configuration (if present) and applies
// environment overrides. An explicit path wins over AHA_CONFIG.
func Load(path string) Config {
	loadDotEnv()

	cfg := Default()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.Sites = normalizeSites(cfg.Sites)
	return cfg
}

// normalizeSites gives every site without a positive delay the default
// pause of its scanner.
func normalizeSites(sites []SiteConfig) []SiteConfig {
	out := make([]SiteConfig, len(sites))
	for i, site := range sites {
		if site.Delay <= 0 {
			site.Delay = DefaultSiteDelay(site.Scanner)
		}
		out[i] = site
	}
	return out
}

func loadDotEnv() {
	for _, file := range []string{".env", ".env.local"} {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			log.Printf("config: cannot load %s: %v", file, err)
		}
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(dataDirEnv); v != "" {
		c.Data.Dir = v
	}
	if v := os.Getenv(outputEnv); v != "" {
		c.Render.Output = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(logFormatEnv); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(oracleProviderEnv); v != "" && v != c.Oracle.Provider {
		c.Oracle.Provider = v
		c.Oracle.Endpoint = ""
		c.Oracle.Model = ""
	}
	if v := os.Getenv(oracleModelEnv); v != "" {
		c.Oracle.Model = v
	}

	if c.Oracle.APIKey == "" {
		c.Oracle.APIKey = providerKey(c.Oracle.Provider)
	}
	if v := os.Getenv(oracleAPIKeyEnv); v != "" {
		c.Oracle.APIKey = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v, ok := envInt(minConfidenceEnv); ok {
		c.Classifier.MinConfidence = v
	}
	if v, ok := envInt(minScoreEnv); ok {
		c.Classifier.MinScore = v
	}
}

func providerKey(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv(openAIKeyEnv)
	case "gemini":
		return os.Getenv(geminiKeyEnv)
	default:
		return os.Getenv(anthropicKeyEnv)
	}
}

func envInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: ignoring %s=%q: %v", key, raw, err)
		return 0, false
	}
	return v, true
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Data.Dir != "" {
		base.Data.Dir = override.Data.Dir
	}
	if override.Data.RawLog != "" {
		base.Data.RawLog = override.Data.RawLog
	}
	if override.Data.ClassifiedLog != "" {
		base.Data.ClassifiedLog = override.Data.ClassifiedLog
	}
	if override.Data.AcceptedLog != "" {
		base.Data.AcceptedLog = override.Data.AcceptedLog
	}
	if override.Data.LockFile != "" {
		base.Data.LockFile = override.Data.LockFile
	}

	if len(override.Vocabulary.AhaPhrases) > 0 {
		base.Vocabulary.AhaPhrases = override.Vocabulary.AhaPhrases
	}
	if len(override.Vocabulary.AITools) > 0 {
		base.Vocabulary.AITools = override.Vocabulary.AITools
	}
	if len(override.Vocabulary.ToolMappings) > 0 {
		base.Vocabulary.ToolMappings = override.Vocabulary.ToolMappings
	}
	if override.Vocabulary.DefaultTool != "" {
		base.Vocabulary.DefaultTool = override.Vocabulary.DefaultTool
	}

	if len(override.Sites) > 0 {
		base.Sites = override.Sites
	}

	if override.Classifier.MinConfidence != 0 {
		base.Classifier.MinConfidence = override.Classifier.MinConfidence
	}
	if override.Classifier.MinScore != 0 {
		base.Classifier.MinScore = override.Classifier.MinScore
	}
	if override.Classifier.Delay != 0 {
		base.Classifier.Delay = override.Classifier.Delay
	}
	if override.Classifier.ExcerptLimit != 0 {
		base.Classifier.ExcerptLimit = override.Classifier.ExcerptLimit
	}

	if override.Oracle.Provider != "" && override.Oracle.Provider != base.Oracle.Provider {
		base.Oracle.Provider = override.Oracle.Provider
		base.Oracle.Endpoint = ""
		base.Oracle.Model = ""
	}
	if override.Oracle.Endpoint != "" {
		base.Oracle.Endpoint = override.Oracle.Endpoint
	}
	if override.Oracle.Model != "" {
		base.Oracle.Model = override.Oracle.Model
	}
	if override.Oracle.APIKey != "" {
		base.Oracle.APIKey = override.Oracle.APIKey
	}
	if override.Oracle.MaxTokens != 0 {
		base.Oracle.MaxTokens = override.Oracle.MaxTokens
	}
	if override.Oracle.Timeout != 0 {
		base.Oracle.Timeout = override.Oracle.Timeout
	}

	if override.Render.Output != "" {
		base.Render.Output = override.Render.Output
	}
	if override.Render.Title != "" {
		base.Render.Title = override.Render.Title
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	return base
}
