package flowengine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BTreeMap/IntentPipe/internal/models"
)

// Slot validation types.
const (
	SlotTypeEmail   = "email"
	SlotTypePhone   = "phone"
	SlotTypeName    = "name"
	SlotTypeDate    = "date"
	SlotTypeTime    = "time"
	SlotTypeYesNo   = "yes_no"
	SlotTypeNumeric = "numeric"
	SlotTypeText    = "text"
)

// Default parse layouts for date and time slots.
const (
	DefaultDateLayout = "2006-01-02"
	DefaultTimeLayout = "15:04"
)

// slotTypeRules is the ordered inference table mapping slot-name substrings
// to validation types. The order is part of the configuration contract:
// earlier entries win.
var slotTypeRules = []struct {
	substring string
	slotType  string
}{
	{"email", SlotTypeEmail},
	{"phone", SlotTypePhone},
	{"name", SlotTypeName},
	{"date", SlotTypeDate},
	{"time", SlotTypeTime},
}

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneSeparators = regexp.MustCompile(`[\s\-\(\)\+]`)
	phoneDigits     = regexp.MustCompile(`^[\d]{10,15}$`)
	namePattern     = regexp.MustCompile(`^[a-zA-Z\s\-']+$`)
	yesVariations   = map[string]bool{"yes": true, "y": true, "sure": true, "ok": true, "okay": true, "agree": true, "affirmative": true, "confirmed": true}
	noVariations    = map[string]bool{"no": true, "n": true, "nope": true, "deny": true, "negative": true, "declined": true}
)

// ValidationResult carries the outcome of validating one slot value. Invalid
// input is an expected condition, returned as a value rather than an error;
// Message holds the human-readable reprompt text.
type ValidationResult struct {
	Valid      bool
	Normalized string
	Message    string
}

func invalid(message string) ValidationResult {
	return ValidationResult{Valid: false, Message: message}
}

func valid(normalized string) ValidationResult {
	return ValidationResult{Valid: true, Normalized: normalized}
}

// InferSlotType resolves the validation type for a slot: an explicit config
// type wins, otherwise the name is matched against the inference table.
func InferSlotType(slotName string, cfg models.ValidationConfig) string {
	if cfg.Type != "" {
		return cfg.Type
	}
	lower := strings.ToLower(slotName)
	for _, rule := range slotTypeRules {
		if strings.Contains(lower, rule.substring) {
			return rule.slotType
		}
	}
	return SlotTypeText
}

// ValidateSlot validates a raw user value against the slot's resolved type.
func ValidateSlot(slotName, raw string, cfg models.ValidationConfig) ValidationResult {
	switch InferSlotType(slotName, cfg) {
	case SlotTypeEmail:
		return validateEmail(raw)
	case SlotTypePhone:
		return validatePhone(raw)
	case SlotTypeName:
		return validateName(raw)
	case SlotTypeDate:
		return validateTimestamp(raw, layoutOr(cfg.Format, DefaultDateLayout), "date", "YYYY-MM-DD")
	case SlotTypeTime:
		return validateTimestamp(raw, layoutOr(cfg.Format, DefaultTimeLayout), "time", "HH:MM")
	case SlotTypeYesNo:
		return validateYesNo(raw)
	case SlotTypeNumeric:
		return validateNumeric(raw, cfg.Min, cfg.Max)
	default:
		if strings.TrimSpace(raw) == "" {
			return invalid("This field cannot be empty.")
		}
		return valid(strings.TrimSpace(raw))
	}
}

func validateEmail(raw string) ValidationResult {
	trimmed := strings.TrimSpace(raw)
	if !emailPattern.MatchString(trimmed) {
		return invalid("Invalid email format. Please enter a valid email address.")
	}
	return valid(trimmed)
}

func validatePhone(raw string) ValidationResult {
	cleaned := phoneSeparators.ReplaceAllString(raw, "")
	if !phoneDigits.MatchString(cleaned) {
		return invalid("Invalid phone number. Please enter a valid phone (10-15 digits).")
	}
	return valid(cleaned)
}

func validateName(raw string) ValidationResult {
	name := strings.TrimSpace(raw)
	if len(name) < 2 {
		return invalid("Name must be at least 2 characters long.")
	}
	if len(name) > 100 {
		return invalid("Name must not exceed 100 characters.")
	}
	if !namePattern.MatchString(name) {
		return invalid("Name contains invalid characters. Please use only letters, spaces, hyphens, and apostrophes.")
	}
	return valid(name)
}

func validateTimestamp(raw, layout, kind, humanFormat string) ValidationResult {
	trimmed := strings.TrimSpace(raw)
	if _, err := time.Parse(layout, trimmed); err != nil {
		return invalid(fmt.Sprintf("Invalid %s format. Please use %s.", kind, humanFormat))
	}
	return valid(trimmed)
}

// validateYesNo normalizes a closed vocabulary of affirmative and negative
// tokens. Anything outside the vocabulary is invalid with no normalized
// value.
func validateYesNo(raw string) ValidationResult {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if yesVariations[lower] {
		return valid("yes")
	}
	if noVariations[lower] {
		return valid("no")
	}
	return invalid("Please answer yes or no.")
}

func validateNumeric(raw string, min, max *float64) ValidationResult {
	num, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return invalid("Please enter a valid number.")
	}
	if min != nil && num < *min {
		return invalid(fmt.Sprintf("Value must be at least %g.", *min))
	}
	if max != nil && num > *max {
		return invalid(fmt.Sprintf("Value must not exceed %g.", *max))
	}
	return valid(strings.TrimSpace(raw))
}

// IsAffirmative reports whether the utterance is in the closed affirmative
// vocabulary. Used by the consent gate.
func IsAffirmative(text string) bool {
	return yesVariations[strings.ToLower(strings.TrimSpace(text))]
}

// IsNegative reports whether the utterance is in the closed negative
// vocabulary.
func IsNegative(text string) bool {
	return noVariations[strings.ToLower(strings.TrimSpace(text))]
}

func layoutOr(layout, fallback string) string {
	if layout != "" {
		return layout
	}
	return fallback
}
