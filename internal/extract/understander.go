package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Understanding is what a language model reports about a request.
type Understanding struct {
	DayOfWeek    string `json:"day_of_week"`
	IsUrgent     bool   `json:"is_urgent"`
	DurationMins int    `json:"duration_mins"`
}

// Understander extracts scheduling fields from free text with a language model.
type Understander interface {
	Understand(ctx context.Context, content string) (Understanding, error)
}

func prompt(content string) string {
	return fmt.Sprintf(`Extract day, urgency and duration from email. Return JSON only.
Email: %q
Format: {"day_of_week": "Monday/Tuesday/etc or null", "is_urgent": true/false, "duration_mins": number or 0}`, content)
}

// decodeUnderstanding parses a model reply, repairing the loose JSON models
// tend to produce (code fences, single quotes, trailing commas).
func decodeUnderstanding(raw string) (Understanding, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Understanding{}, fmt.Errorf("empty reply")
	}

	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return Understanding{}, fmt.Errorf("unrepairable reply: %w", err)
	}

	var u Understanding
	if err := json.Unmarshal([]byte(repaired), &u); err != nil {
		return Understanding{}, fmt.Errorf("decode reply: %w", err)
	}
	return u, nil
}
