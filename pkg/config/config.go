package config

import (
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Crawl     CrawlConfig     `yaml:"crawl"`
	Clean     CleanConfig     `yaml:"clean"`
	Inference InferenceConfig `yaml:"inference"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// StoreConfig locates the corpus database. Writers hold an exclusive lock on
// Path+".lock" for at most LockTimeout while waiting.
type StoreConfig struct {
	Path        string        `yaml:"path"         env:"ETYMO_STORE_PATH"         env-default:"etymoagent.db"`
	LockTimeout time.Duration `yaml:"lock_timeout" env:"ETYMO_STORE_LOCK_TIMEOUT" env-default:"30s"`
}

// CrawlConfig holds ingestion settings. ListingURL may contain the {lang}
// and {letter} placeholders; a ListingURL without a scheme is relative to
// BaseURL.
type CrawlConfig struct {
	BaseURL      string        `yaml:"base_url"       env:"ETYMO_CRAWL_BASE_URL"       env-default:"https://en.wiktionary.org"`
	ListingURL   string        `yaml:"listing_url"    env:"ETYMO_CRAWL_LISTING_URL"    env-default:"/w/index.php?title=Category:English_terms_derived_from_{lang}&from={letter}"`
	Languages    []string      `yaml:"languages"      env:"ETYMO_CRAWL_LANGUAGES"      env-default:"French,German,Latin,Greek,Turkish" env-separator:","`
	Letters      string        `yaml:"letters"        env:"ETYMO_CRAWL_LETTERS"        env-default:"A-Z"`
	Workers      int           `yaml:"workers"        env:"ETYMO_CRAWL_WORKERS"        env-default:"10"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"  env:"ETYMO_CRAWL_FETCH_TIMEOUT"  env-default:"30s"`
	UserAgent    string        `yaml:"user_agent"     env:"ETYMO_CRAWL_USER_AGENT"     env-default:"EtymoAgent/1.0 (+https://github.com/japaniel/etymoagent)"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" env:"ETYMO_CRAWL_MAX_BODY_BYTES" env-default:"10485760"`
}

// ListingTemplate returns the absolute listing URL template.
func (c CrawlConfig) ListingTemplate() string {
	if strings.Contains(c.ListingURL, "://") || c.BaseURL == "" {
		return c.ListingURL
	}
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(c.ListingURL, "/")
}

// CleanConfig holds corpus cleaning settings.
type CleanConfig struct {
	MaxMeaningLength int `yaml:"max_meaning_length" env:"ETYMO_CLEAN_MAX_MEANING_LENGTH" env-default:"200"`
}

// InferenceConfig selects and parameterizes the origin inference strategy.
type InferenceConfig struct {
	Strategy        string  `yaml:"strategy"         env:"ETYMO_INFERENCE_STRATEGY"         env-default:"edit"`
	SimilarityFloor float64 `yaml:"similarity_floor" env:"ETYMO_INFERENCE_SIMILARITY_FLOOR" env-default:"0"`
	ModelPath       string  `yaml:"model_path"       env:"ETYMO_INFERENCE_MODEL_PATH"       env-default:"etymoagent-model.json"`
	EmbeddingsPath  string  `yaml:"embeddings_path"  env:"ETYMO_INFERENCE_EMBEDDINGS_PATH"`
	EmbeddingsURL   string  `yaml:"embeddings_url"   env:"ETYMO_INFERENCE_EMBEDDINGS_URL"`
	Match           string  `yaml:"match"            env:"ETYMO_INFERENCE_MATCH"            env-default:"edit"`
	Epochs          int     `yaml:"epochs"           env:"ETYMO_INFERENCE_EPOCHS"           env-default:"300"`
	LearningRate    float64 `yaml:"learning_rate"    env:"ETYMO_INFERENCE_LEARNING_RATE"    env-default:"0.5"`
	L2              float64 `yaml:"l2"               env:"ETYMO_INFERENCE_L2"               env-default:"0.001"`
	TestFraction    float64 `yaml:"test_fraction"    env:"ETYMO_INFERENCE_TEST_FRACTION"    env-default:"0.2"`
	Seed            int64   `yaml:"seed"             env:"ETYMO_INFERENCE_SEED"             env-default:"42"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"             env:"ETYMO_SERVER_ADDR"             env-default:":8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"ETYMO_SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	WordListPath    string        `yaml:"word_list_path"   env:"ETYMO_SERVER_WORD_LIST_PATH"`
	// StaticSnapshot disables reloading the corpus when the database changes.
	StaticSnapshot bool          `yaml:"static_snapshot" env:"ETYMO_SERVER_STATIC_SNAPSHOT"`
	ReloadDebounce time.Duration `yaml:"reload_debounce" env:"ETYMO_SERVER_RELOAD_DEBOUNCE" env-default:"500ms"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"ETYMO_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"ETYMO_LOG_FORMAT" env-default:"text"`
}
