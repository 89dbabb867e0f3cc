package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// AlertCondition comparison applied to the last traded price.
type AlertCondition string

const (
	AlertAbove AlertCondition = "above"
	AlertBelow AlertCondition = "below"
	// AlertChangePercent is accepted but never triggers.
	AlertChangePercent AlertCondition = "change_percent"
)

// ParseAlertCondition validates a condition name.
func ParseAlertCondition(s string) (AlertCondition, error) {
	switch c := AlertCondition(strings.ToLower(strings.TrimSpace(s))); c {
	case AlertAbove, AlertBelow, AlertChangePercent:
		return c, nil
	default:
		return "", errors.Errorf("unknown alert condition %q", s)
	}
}

// AlertRule price alert. Rules are one-shot: Active flips to false on trigger.
type AlertRule struct {
	ID        int              `json:"id"`
	Pair      Pair             `json:"pair"`
	Condition AlertCondition   `json:"condition"`
	Threshold decimal.Decimal  `json:"threshold"`
	Message   string           `json:"message"`
	Active    bool             `json:"active"`
	LastValue *decimal.Decimal `json:"last_value,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// Triggered evaluates the rule against price.
func (r AlertRule) Triggered(price decimal.Decimal) bool {
	switch r.Condition {
	case AlertAbove:
		return price.GreaterThan(r.Threshold)
	case AlertBelow:
		return price.LessThan(r.Threshold)
	default:
		return false
	}
}

// Describe renders the rule for listings and notifications.
func (r AlertRule) Describe() string {
	return fmt.Sprintf("%s %s %s", r.Pair.String(), r.Condition, r.Threshold.String())
}
