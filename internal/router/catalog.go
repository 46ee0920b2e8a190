package router

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	errx "github.com/xsharmas/Brainhealer-bot/internal/core/error"
	logx "github.com/xsharmas/Brainhealer-bot/pkg/logger"
)

// autoRouterID is OpenRouter's free auto-router. It is pinned to the front
// of every catalog so a walk always has a candidate that can pick a live
// upstream on its own.
const autoRouterID = "openrouter/free"

// fallbackCatalog keeps dispatch possible when the very first listing fetch
// fails and there is no previous catalog to retain.
var fallbackCatalog = []ModelInfo{
	{ID: autoRouterID, Name: "OpenRouter: Free Auto Router"},
	{ID: "liquid/lfm-2.5-1.2b-instruct:free", Name: "Liquid: LFM 2.5 1.2B Instruct"},
	{ID: "google/gemma-3-27b-it:free", Name: "Google: Gemma 3 27B"},
}

// ModelInfo is one entry of the model listing.
type ModelInfo struct {
	ID            string
	Name          string
	ContextLength int
}

// modelListing mirrors the provider's GET /models payload.
type modelListing struct {
	Data []struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		ContextLength int    `json:"context_length"`
		Pricing       struct {
			Prompt     string `json:"prompt"`
			Completion string `json:"completion"`
		} `json:"pricing"`
	} `json:"data"`
}

// CatalogClient fetches the live free-model listing from OpenRouter.
type CatalogClient struct {
	cfg  Config
	http *http.Client
}

// NewCatalogClient creates a listing client with its own bounded timeout;
// the listing call never rides on a user-facing deadline.
func NewCatalogClient(cfg Config) *CatalogClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	timeout := time.Duration(cfg.CatalogTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CatalogClient{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

// FetchModels returns the currently listed models whose prompt and
// completion prices are both zero, with the auto-router forced to the front.
func (c *CatalogClient) FetchModels(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/models", nil)
	if err != nil {
		return nil, errx.WrapCatalog(err)
	}
	c.cfg.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errx.WrapCatalog(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errx.WrapCatalog(fmt.Errorf("listing returned HTTP %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errx.WrapCatalog(err)
	}

	var listing modelListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, errx.WrapCatalog(err)
	}

	// Prices arrive as decimal strings; free models carry exactly "0".
	var auto *ModelInfo
	free := make([]ModelInfo, 0, len(listing.Data))
	for _, m := range listing.Data {
		if m.Pricing.Prompt != "0" || m.Pricing.Completion != "0" {
			continue
		}
		info := ModelInfo{ID: m.ID, Name: m.Name, ContextLength: m.ContextLength}
		if m.ID == autoRouterID {
			auto = &info
			continue
		}
		free = append(free, info)
	}

	models := make([]ModelInfo, 0, len(free)+1)
	if auto != nil {
		models = append(models, *auto)
	} else {
		models = append(models, fallbackCatalog[0])
	}
	models = append(models, free...)

	logx.Debug().Int("models", len(models)).Msg("Fetched free model listing")
	return models, nil
}

// FallbackCatalog returns a copy of the static bootstrap catalog.
func FallbackCatalog() []ModelInfo {
	out := make([]ModelInfo, len(fallbackCatalog))
	copy(out, fallbackCatalog)
	return out
}
