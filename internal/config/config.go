package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Port string

	// Auth (server only; empty disables auth)
	APIKey string

	LogLevel slog.Level

	// Worker pool
	WorkerCount int
	DocTimeout  time.Duration
	JobTTL      time.Duration

	// Upload limits
	MaxUploadBytes int64

	// Extraction
	PDFFallbackPdftotext bool
	UseBookmarks         bool

	// Relevance ranking
	SegmentMode    string // "patterns" or "outline"
	VocabularyFile string
	TopPassages    int
	PassageWordCap int

	OutlineCacheSize int

	Heuristics Heuristics
}

// Heuristics holds the empirically calibrated constants used by the
// classifier, builder, segmenter and scorer.
type Heuristics struct {
	H1Size            float64  `toml:"h1_size"`
	H2Size            float64  `toml:"h2_size"`
	H3Size            float64  `toml:"h3_size"`
	BoldMinSize       float64  `toml:"bold_min_size"`
	RelativeJumpRatio float64  `toml:"relative_jump_ratio"`
	MaxHeadingWords   int      `toml:"max_heading_words"`
	KeywordMaxWords   int      `toml:"keyword_max_words"`
	HeadingKeywords   []string `toml:"heading_keywords"`

	MinHeadingLength int     `toml:"min_heading_length"`
	MergeGapRatio    float64 `toml:"merge_gap_ratio"`

	UpperMinLetters   int `toml:"upper_min_letters"`
	TitleCaseMinWords int `toml:"title_case_min_words"`
	TitleCaseMaxWords int `toml:"title_case_max_words"`
	ColonMaxWords     int `toml:"colon_max_words"`
	MaxHeaderChars    int `toml:"max_header_chars"`

	TitleMultiplier    float64 `toml:"title_multiplier"`
	MinBodyWords       int     `toml:"min_body_words"`
	WordsPerBonusPoint float64 `toml:"words_per_bonus_point"`
	MaxLengthBonus     float64 `toml:"max_length_bonus"`
}

// DefaultHeadingKeywords are always considered headings when they appear on their own.
var DefaultHeadingKeywords = []string{
	"Abstract", "Introduction", "Conclusion", "Conclusions",
	"Revision History", "Table of Contents", "Acknowledgements", "Acknowledgments",
	"References", "Bibliography", "Appendix", "Summary", "Background", "Milestones",
	"Evaluation", "Business Plan", "Proposal", "Terms of Reference", "Membership",
	"Chair", "Meetings", "Financial and Administrative Policies",
}

// DefaultHeuristics returns the calibrated defaults.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		H1Size:            16,
		H2Size:            14,
		H3Size:            12,
		BoldMinSize:       10,
		RelativeJumpRatio: 1.25,
		MaxHeadingWords:   25,
		KeywordMaxWords:   6,
		HeadingKeywords:   append([]string(nil), DefaultHeadingKeywords...),

		MinHeadingLength: 4,
		MergeGapRatio:    2.0,

		UpperMinLetters:   3,
		TitleCaseMinWords: 2,
		TitleCaseMaxWords: 10,
		ColonMaxWords:     12,
		MaxHeaderChars:    250,

		TitleMultiplier:    5,
		MinBodyWords:       20,
		WordsPerBonusPoint: 50,
		MaxLengthBonus:     3,
	}
}

func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("DOCSTRUCT_API_KEY"),

		LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),

		WorkerCount: envInt("WORKER_COUNT", 4),
		DocTimeout:  envDuration("DOC_TIMEOUT", 10*time.Second),
		JobTTL:      envDuration("JOB_TTL", time.Hour),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
		UseBookmarks:         envBool("USE_BOOKMARKS", true),

		SegmentMode:    envOr("SEGMENT_MODE", "patterns"),
		VocabularyFile: os.Getenv("VOCABULARY_FILE"),
		TopPassages:    envInt("TOP_PASSAGES", 5),
		PassageWordCap: envInt("PASSAGE_WORD_CAP", 200),

		OutlineCacheSize: envInt("OUTLINE_CACHE_SIZE", 256),

		Heuristics: DefaultHeuristics(),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.DocTimeout <= 0 {
		cfg.DocTimeout = 10 * time.Second
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.TopPassages <= 0 {
		cfg.TopPassages = 5
	}
	if cfg.PassageWordCap <= 0 {
		cfg.PassageWordCap = 200
	}
	if cfg.OutlineCacheSize <= 0 {
		cfg.OutlineCacheSize = 256
	}

	return cfg
}

// LoadHeuristicsFile overlays values from a TOML file onto h.
// Keys absent from the file keep their current values.
func LoadHeuristicsFile(path string, h *Heuristics) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read heuristics file: %w", err)
	}
	if err := toml.Unmarshal(data, h); err != nil {
		return fmt.Errorf("parse heuristics file %s: %w", path, err)
	}
	return nil
}

// LoadWithHeuristics is Load plus the optional HEURISTICS_FILE overlay.
func LoadWithHeuristics() (Config, error) {
	cfg := Load()
	if path := os.Getenv("HEURISTICS_FILE"); path != "" {
		if err := LoadHeuristicsFile(path, &cfg.Heuristics); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.SegmentMode != "patterns" && c.SegmentMode != "outline" {
		return fmt.Errorf("SEGMENT_MODE must be \"patterns\" or \"outline\", got %q", c.SegmentMode)
	}
	return c.Heuristics.Validate()
}

// Validate rejects threshold combinations the classifier cannot honor.
func (h Heuristics) Validate() error {
	if h.H3Size <= 0 || h.H2Size < h.H3Size || h.H1Size < h.H2Size {
		return fmt.Errorf("font thresholds must satisfy 0 < h3 <= h2 <= h1 (got %.1f/%.1f/%.1f)", h.H1Size, h.H2Size, h.H3Size)
	}
	if h.BoldMinSize > h.H3Size {
		return fmt.Errorf("bold_min_size %.1f exceeds h3_size %.1f", h.BoldMinSize, h.H3Size)
	}
	if h.TitleMultiplier <= 1 {
		return fmt.Errorf("title_multiplier must be > 1, got %.2f", h.TitleMultiplier)
	}
	if h.MaxLengthBonus < 0 {
		return fmt.Errorf("max_length_bonus must be >= 0")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	switch strings.ToLower(os.Getenv(key)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return fallback
}
