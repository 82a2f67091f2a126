package model

// ================ Config ================

type ConversationConfig struct {
	TTL     string `envconfig:"CONVERSATION_TTL" default:"30m"`
	History struct {
		MaxTurns int `envconfig:"CONVERSATION_HISTORY_MAX_TURNS" default:"6"`
	}
}

type ClassifierModelConfig struct {
	Model       string  `envconfig:"CLASSIFIER_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"CLASSIFIER_MAX_TOKENS" default:"1024"`
	Temperature float32 `envconfig:"CLASSIFIER_TEMPERATURE" default:"0.1"`
}

type WriterModelConfig struct {
	Model       string  `envconfig:"WRITER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"WRITER_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"WRITER_TEMPERATURE" default:"0.4"`
}

type CascadeConfig struct {
	LocalMinConfidence float64 `envconfig:"CASCADE_LOCAL_MIN_CONFIDENCE" default:"0.65"`
	LLMMinConfidence   float64 `envconfig:"CASCADE_LLM_MIN_CONFIDENCE" default:"0.6"`
	LLMTimeout         string  `envconfig:"CASCADE_LLM_TIMEOUT" default:"8s"`
	CacheSize          int     `envconfig:"CASCADE_CACHE_SIZE" default:"256"`
	CacheTTL           string  `envconfig:"CASCADE_CACHE_TTL" default:"5m"`
}

type ConsentConfig struct {
	AskTemplate string `envconfig:"CONSENT_ASK_TEMPLATE" default:"I can run a live web search for that. Want me to go ahead and look up %q?"`
}

type ComposerConfig struct {
	AssistantName string `envconfig:"COMPOSER_ASSISTANT_NAME" default:"TripDesk"`
}

type VerifierConfig struct {
	Auto         bool   `envconfig:"VERIFIER_AUTO" default:"true"`
	PollAttempts int    `envconfig:"VERIFIER_POLL_ATTEMPTS" default:"3"`
	PollDelay    string `envconfig:"VERIFIER_POLL_DELAY" default:"150ms"`
}

type ResilienceConfig struct {
	FailureThreshold int    `envconfig:"RESILIENCE_FAILURE_THRESHOLD" default:"5"`
	SuccessThreshold int    `envconfig:"RESILIENCE_SUCCESS_THRESHOLD" default:"2"`
	ResetTimeout     string `envconfig:"RESILIENCE_RESET_TIMEOUT" default:"30s"`
	MaxConcurrent    int    `envconfig:"RESILIENCE_MAX_CONCURRENT" default:"4"`
	MinInterval      string `envconfig:"RESILIENCE_MIN_INTERVAL" default:"0s"`
	Timeout          string `envconfig:"RESILIENCE_TIMEOUT" default:"5s"`
	MaxRetries       int    `envconfig:"RESILIENCE_MAX_RETRIES" default:"3"`
	InitialBackoff   string `envconfig:"RESILIENCE_INITIAL_BACKOFF" default:"200ms"`
	MaxBackoff       string `envconfig:"RESILIENCE_MAX_BACKOFF" default:"2s"`
}
