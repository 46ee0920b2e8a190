package router

import "net/http"

const defaultBaseURL = "https://openrouter.ai/api/v1"

// Config carries the OpenRouter connection settings and the failover tuning
// knobs, sourced from environment variables.
type Config struct {
	APIKey  string `envconfig:"OPENROUTER_API_KEY" required:"true"`
	BaseURL string `envconfig:"OPENROUTER_BASE_URL" default:"https://openrouter.ai/api/v1"`
	SiteURL string `envconfig:"OPENROUTER_SITE_URL"`
	AppName string `envconfig:"OPENROUTER_APP_NAME" default:"Brainhealer-bot"`

	FailureThreshold int    `envconfig:"MODEL_FAILURE_THRESHOLD" default:"2"`
	CooldownSeconds  int    `envconfig:"MODEL_COOLDOWN_SECONDS" default:"60"`
	RequestTimeout   int    `envconfig:"MODEL_REQUEST_TIMEOUT_SECONDS" default:"20"`
	CatalogTimeout   int    `envconfig:"MODEL_CATALOG_TIMEOUT_SECONDS" default:"10"`
	RefreshInterval  string `envconfig:"MODEL_REFRESH_INTERVAL" default:"30m"`
}

// setHeaders applies the OpenRouter auth and attribution headers. The
// referer and title headers are optional and feed the provider's app
// rankings.
func (c Config) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.SiteURL != "" {
		req.Header.Set("HTTP-Referer", c.SiteURL)
	}
	if c.AppName != "" {
		req.Header.Set("X-Title", c.AppName)
	}
}
