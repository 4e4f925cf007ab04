// Package advice attaches remediation hints to security alerts from a YAML rule pack.
package advice

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/miradorstack/mirador-clusterview/internal/models"
)

// RuleEngine matches alerts against rules and collects their recommendations.
type RuleEngine struct {
	rules  []Rule
	logger *slog.Logger
}

// Rule represents a single recommendation rule.
type Rule struct {
	ID              string    `yaml:"id"`
	Match           RuleMatch `yaml:"match"`
	Recommendations []string  `yaml:"recommendations"`
}

// RuleMatch defines optional attributes for rule matching. Empty attributes match everything.
type RuleMatch struct {
	Severity        string   `yaml:"severity"`
	MessageContains []string `yaml:"message_contains"`
	MinAnomalyScore float64  `yaml:"min_anomaly_score"`
}

// RuleConfigFile is the YAML root structure.
type RuleConfigFile struct {
	Rules []Rule `yaml:"rules"`
}

// NewRuleEngine loads rules from the provided path. An empty or missing path returns a nil engine.
func NewRuleEngine(path string, logger *slog.Logger) (*RuleEngine, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return Parse(data, logger)
}

// Parse builds a RuleEngine from a YAML rule pack.
func Parse(data []byte, logger *slog.Logger) (*RuleEngine, error) {
	var cfg RuleConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("advice rules loaded", slog.Int("rules", len(cfg.Rules)))
	return &RuleEngine{rules: cfg.Rules, logger: logger}, nil
}

// Rules returns the number of loaded rules.
func (e *RuleEngine) Rules() int {
	if e == nil {
		return 0
	}
	return len(e.rules)
}

// Recommend returns the de-duplicated recommendations of every rule matching the alert,
// in rule order.
func (e *RuleEngine) Recommend(alert models.SecurityAlert) []string {
	if e == nil {
		return nil
	}

	var matched []string
	for _, rule := range e.rules {
		if rule.Match.Severity != "" && !strings.EqualFold(rule.Match.Severity, string(alert.Severity)) {
			continue
		}
		if alert.AnomalyScore < rule.Match.MinAnomalyScore {
			continue
		}
		if !messageContains(alert.Message, rule.Match.MessageContains) {
			continue
		}
		matched = appendUnique(matched, rule.Recommendations...)
	}
	return matched
}

func messageContains(message string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	lower := strings.ToLower(message)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func appendUnique(existing []string, additions ...string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, rec := range existing {
		seen[rec] = struct{}{}
	}
	for _, item := range additions {
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		existing = append(existing, item)
		seen[item] = struct{}{}
	}
	return existing
}
