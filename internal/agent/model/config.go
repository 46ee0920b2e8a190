package model

// ================ Config ================

// ConversationConfig bounds the per-user session history. A pair is one
// (user, assistant) exchange, so the stored message cap is twice this.
type ConversationConfig struct {
	HistoryPairs int `envconfig:"HISTORY_PAIRS_TO_KEEP" default:"12"`
}

// ResponseModelConfig bounds the primary empathetic completion.
type ResponseModelConfig struct {
	MaxTokens   int     `envconfig:"RESPONSE_MAX_TOKENS" default:"220"`
	Temperature float32 `envconfig:"RESPONSE_TEMPERATURE" default:"0.7"`
}

// TriageModelConfig bounds the stress rating completion. The reply is a
// single digit, so the token budget stays tiny and the temperature zero.
type TriageModelConfig struct {
	MaxTokens   int     `envconfig:"TRIAGE_MAX_TOKENS" default:"3"`
	Temperature float32 `envconfig:"TRIAGE_TEMPERATURE" default:"0.0"`
}

// CompanionPromptConfig feeds the empathetic system prompt template.
type CompanionPromptConfig struct {
	MaxReplyWords int `envconfig:"PROMPT_MAX_REPLY_WORDS" default:"150"`
}

// SafetyConfig wires the crisis gate and the breathing-exercise suggestion.
// An empty rules path keeps the embedded defaults.
type SafetyConfig struct {
	RulesPath        string `envconfig:"CRISIS_RULES_PATH"`
	BreathingPageURL string `envconfig:"BREATHING_PAGE_URL" default:"https://yourusername.github.io/breathe"`
}
