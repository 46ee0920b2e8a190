package safety

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	errx "github.com/xsharmas/Brainhealer-bot/internal/core/error"
	logx "github.com/xsharmas/Brainhealer-bot/pkg/logger"
)

// Gate screens inbound text against the crisis phrase set before any model
// is involved. The scan is deterministic and must have zero false negatives
// for the configured phrases; matching is case-folded substring containment,
// biased towards over-triggering rather than missing a phrase inside a
// longer sentence.
type Gate struct {
	phrases  []string
	response string
}

// RulesFile is the YAML schema for an external crisis rules file.
type RulesFile struct {
	Crisis struct {
		Keywords []string `yaml:"keywords"`
		Response string   `yaml:"response"`
	} `yaml:"crisis"`
}

// NewGate loads crisis rules from disk, or the embedded defaults when the
// path is empty or unreadable. A present but malformed file is an error:
// silently dropping a curated keyword list would weaken the gate.
func NewGate(path string) (*Gate, error) {
	rules, err := loadRules(path)
	if err != nil {
		return nil, err
	}

	phrases := make([]string, 0, len(rules.Crisis.Keywords))
	for _, kw := range rules.Crisis.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		phrases = append(phrases, kw)
	}

	return &Gate{phrases: phrases, response: rules.Crisis.Response}, nil
}

// Scan reports whether text contains any crisis phrase.
func (g *Gate) Scan(text string) bool {
	folded := strings.ToLower(strings.TrimSpace(text))
	if folded == "" {
		return false
	}
	for _, phrase := range g.phrases {
		if strings.Contains(folded, phrase) {
			return true
		}
	}
	return false
}

// Response returns the fixed helpline reply for a triggered scan. The text
// is Markdown.
func (g *Gate) Response() string {
	return g.response
}

// Phrases returns a copy of the active phrase set.
func (g *Gate) Phrases() []string {
	out := make([]string, len(g.phrases))
	copy(out, g.phrases)
	return out
}

func loadRules(path string) (RulesFile, error) {
	var rules RulesFile
	if path == "" {
		rules.Crisis.Keywords = defaultKeywords()
		rules.Crisis.Response = defaultResponse
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logx.Warn().Err(err).Str("path", path).Msg("Crisis rules file unreadable; using embedded defaults")
		rules.Crisis.Keywords = defaultKeywords()
		rules.Crisis.Response = defaultResponse
		return rules, nil
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return RulesFile{}, errx.WrapRules(err)
	}
	if len(rules.Crisis.Keywords) == 0 {
		rules.Crisis.Keywords = defaultKeywords()
	}
	if strings.TrimSpace(rules.Crisis.Response) == "" {
		rules.Crisis.Response = defaultResponse
	}
	return rules, nil
}

// defaultResponse is the fixed helpline reply. It is never AI-generated.
const defaultResponse = "💚 I hear you, and I'm really glad you reached out.\n\n" +
	"What you're feeling right now is serious, and you deserve real support. " +
	"Please reach out to a crisis helpline immediately:\n\n" +
	"🇮🇳 *iCall (India):* 9152987821\n" +
	"🌍 *Crisis Text Line:* Text HOME to 741741\n\n" +
	"You are not alone. 💚"

func defaultKeywords() []string {
	return []string{
		"wanna die", "want to die", "kill myself", "end my life",
		"suicide", "suicidal", "self harm", "self-harm", "no reason to live",
		"can't go on", "cant go on", "better off dead", "end it all",
		"don't want to live", "dont want to live", "harm myself",
	}
}
