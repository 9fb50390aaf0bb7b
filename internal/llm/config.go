package llm

import (
	"os"
	"strconv"
)

// TaskType identifies the kind of LLM task being performed.
type TaskType string

const (
	TaskStory    TaskType = "story"
	TaskFunFacts TaskType = "fun_facts"
)

// Provider selects the backend that serves Generate calls.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOllama Provider = "ollama"
)

// DefaultGeminiModel is the hosted model used for stories.
const DefaultGeminiModel = "gemini-2.5-flash"

// TaskConfig holds per-task LLM parameters.
type TaskConfig struct {
	Temperature float64
	MaxTokens   int
	TimeoutMs   int // overrides global if > 0
}

// LLMConfig holds all configuration for the LLM subsystem.
type LLMConfig struct {
	Enabled    bool
	LogCalls   bool
	Provider   Provider
	Endpoint   string // ollama only
	Model      string
	APIKey     string // gemini only
	TimeoutMs  int
	MaxRetries int
	Tasks      map[TaskType]TaskConfig
}

// DefaultConfig returns an LLMConfig targeting Gemini. It stays disabled
// until an API key is supplied.
func DefaultConfig() LLMConfig {
	return LLMConfig{
		Enabled:    true,
		LogCalls:   false,
		Provider:   ProviderGemini,
		Endpoint:   "http://localhost:11434",
		Model:      DefaultGeminiModel,
		TimeoutMs:  30000,
		MaxRetries: 1,
		Tasks: map[TaskType]TaskConfig{
			TaskStory:    {Temperature: 0.9, MaxTokens: 2048, TimeoutMs: 45000},
			TaskFunFacts: {Temperature: 0.4, MaxTokens: 512, TimeoutMs: 15000},
		},
	}
}

// LoadConfig reads LLM configuration from environment variables,
// falling back to defaults for any unset values.
func LoadConfig() LLMConfig {
	cfg := DefaultConfig()
	ApplyEnv(&cfg)
	return cfg
}

// ApplyEnv overlays ZENSTORY_LLM_* and GEMINI_API_KEY onto cfg.
func ApplyEnv(cfg *LLMConfig) {
	if v := os.Getenv("ZENSTORY_LLM_ENABLED"); v != "" {
		cfg.Enabled, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("ZENSTORY_LLM_LOG_CALLS"); v != "" {
		cfg.LogCalls, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("ZENSTORY_LLM_PROVIDER"); v != "" {
		cfg.Provider = Provider(v)
	}
	if v := os.Getenv("ZENSTORY_LLM_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("ZENSTORY_LLM_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("ZENSTORY_LLM_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}
	if v := os.Getenv("ZENSTORY_LLM_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxRetries = n
		}
	}

	applyTaskTimeoutEnv(cfg, TaskStory, "ZENSTORY_LLM_STORY_TIMEOUT_MS")
	applyTaskTimeoutEnv(cfg, TaskFunFacts, "ZENSTORY_LLM_FUN_FACTS_TIMEOUT_MS")
}

// Valid reports whether p names a supported backend.
func (p Provider) Valid() bool {
	return p == ProviderGemini || p == ProviderOllama
}

// Usable reports whether the configured provider can be called at all.
// Gemini needs an API key; Ollama only needs an endpoint.
func (c LLMConfig) Usable() bool {
	if !c.Enabled {
		return false
	}
	switch c.Provider {
	case ProviderGemini:
		return c.APIKey != ""
	case ProviderOllama:
		return c.Endpoint != ""
	}
	return false
}

// TaskTimeout returns the effective timeout for a given task type.
// Uses the task-specific timeout if set, otherwise the global timeout.
func (c LLMConfig) TaskTimeout(task TaskType) int {
	if tc, ok := c.Tasks[task]; ok && tc.TimeoutMs > 0 {
		return tc.TimeoutMs
	}
	return c.TimeoutMs
}

func applyTaskTimeoutEnv(cfg *LLMConfig, task TaskType, envName string) {
	v := os.Getenv(envName)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return
	}
	tc := cfg.Tasks[task]
	tc.TimeoutMs = n
	cfg.Tasks[task] = tc
}
