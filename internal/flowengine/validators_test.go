package flowengine

import (
	"testing"

	"github.com/BTreeMap/IntentPipe/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestInferSlotType(t *testing.T) {
	cases := []struct {
		slot string
		want string
	}{
		{"email", SlotTypeEmail},
		{"work_email", SlotTypeEmail},
		{"phone_number", SlotTypePhone},
		{"full_name", SlotTypeName},
		{"preferred_date", SlotTypeDate},
		{"preferred_time", SlotTypeTime},
		{"company", SlotTypeText},
	}
	for _, c := range cases {
		if got := InferSlotType(c.slot, models.ValidationConfig{}); got != c.want {
			t.Errorf("InferSlotType(%q) = %q, want %q", c.slot, got, c.want)
		}
	}

	// An explicit config type always wins over name inference.
	if got := InferSlotType("email", models.ValidationConfig{Type: SlotTypeText}); got != SlotTypeText {
		t.Errorf("explicit type should win, got %q", got)
	}
}

func TestValidateEmail(t *testing.T) {
	result := ValidateSlot("email", "user@example.com", models.ValidationConfig{})
	if !result.Valid {
		t.Errorf("valid email rejected: %q", result.Message)
	}
	if result.Normalized != "user@example.com" {
		t.Errorf("expected trimmed email, got %q", result.Normalized)
	}

	result = ValidateSlot("email", "not-an-email", models.ValidationConfig{})
	if result.Valid {
		t.Error("invalid email accepted")
	}
	if result.Message != "Invalid email format. Please enter a valid email address." {
		t.Errorf("unexpected message: %q", result.Message)
	}

	// Validation is idempotent: the same bad value fails the same way.
	again := ValidateSlot("email", "not-an-email", models.ValidationConfig{})
	if again.Valid || again.Message != result.Message {
		t.Error("repeated validation of the same value should yield the same result")
	}
}

func TestValidatePhone(t *testing.T) {
	result := ValidateSlot("phone", "+1 (555) 123-4567", models.ValidationConfig{})
	if !result.Valid {
		t.Fatalf("valid phone rejected: %q", result.Message)
	}
	if result.Normalized != "15551234567" {
		t.Errorf("expected separators stripped, got %q", result.Normalized)
	}

	if ValidateSlot("phone", "12345", models.ValidationConfig{}).Valid {
		t.Error("too-short phone accepted")
	}
	if ValidateSlot("phone", "abc-def-ghij", models.ValidationConfig{}).Valid {
		t.Error("alphabetic phone accepted")
	}
}

func TestValidateName(t *testing.T) {
	result := ValidateSlot("full_name", "Mary-Jane O'Brien", models.ValidationConfig{})
	if !result.Valid {
		t.Errorf("valid name rejected: %q", result.Message)
	}

	if ValidateSlot("full_name", "X", models.ValidationConfig{}).Valid {
		t.Error("1-character name accepted")
	}
	if ValidateSlot("full_name", "R2D2", models.ValidationConfig{}).Valid {
		t.Error("name with digits accepted")
	}
}

func TestValidateDateAndTime(t *testing.T) {
	if !ValidateSlot("preferred_date", "2026-03-15", models.ValidationConfig{}).Valid {
		t.Error("valid date rejected")
	}
	result := ValidateSlot("preferred_date", "15/03/2026", models.ValidationConfig{})
	if result.Valid {
		t.Error("wrong date format accepted")
	}
	if result.Message != "Invalid date format. Please use YYYY-MM-DD." {
		t.Errorf("unexpected date message: %q", result.Message)
	}

	if !ValidateSlot("preferred_time", "14:30", models.ValidationConfig{}).Valid {
		t.Error("valid time rejected")
	}
	if ValidateSlot("preferred_time", "2pm", models.ValidationConfig{}).Valid {
		t.Error("wrong time format accepted")
	}

	// A config-level layout overrides the default.
	cfg := models.ValidationConfig{Type: SlotTypeDate, Format: "02/01/2006"}
	if !ValidateSlot("when", "15/03/2026", cfg).Valid {
		t.Error("custom date layout not honored")
	}
}

func TestValidateYesNo(t *testing.T) {
	cfg := models.ValidationConfig{Type: SlotTypeYesNo}

	for _, v := range []string{"yes", "Y", " Sure ", "OKAY"} {
		result := ValidateSlot("consent", v, cfg)
		if !result.Valid || result.Normalized != "yes" {
			t.Errorf("affirmative %q: got %+v", v, result)
		}
	}
	for _, v := range []string{"no", "N", "nope"} {
		result := ValidateSlot("consent", v, cfg)
		if !result.Valid || result.Normalized != "no" {
			t.Errorf("negative %q: got %+v", v, result)
		}
	}
	if ValidateSlot("consent", "maybe", cfg).Valid {
		t.Error("out-of-vocabulary answer accepted")
	}
}

func TestValidateNumeric(t *testing.T) {
	cfg := models.ValidationConfig{Type: SlotTypeNumeric, Min: floatPtr(1), Max: floatPtr(100)}

	if !ValidateSlot("team_size", "42", cfg).Valid {
		t.Error("in-range number rejected")
	}
	if ValidateSlot("team_size", "0", cfg).Valid {
		t.Error("below-min number accepted")
	}
	if ValidateSlot("team_size", "250", cfg).Valid {
		t.Error("above-max number accepted")
	}
	if ValidateSlot("team_size", "lots", cfg).Valid {
		t.Error("non-numeric input accepted")
	}
}

func TestValidateText(t *testing.T) {
	result := ValidateSlot("company", "  Acme Corp  ", models.ValidationConfig{})
	if !result.Valid || result.Normalized != "Acme Corp" {
		t.Errorf("expected trimmed text, got %+v", result)
	}
	if ValidateSlot("company", "   ", models.ValidationConfig{}).Valid {
		t.Error("blank text accepted")
	}
}

func TestConsentVocabulary(t *testing.T) {
	if !IsAffirmative("  Yes ") || !IsAffirmative("ok") {
		t.Error("affirmative vocabulary not recognized")
	}
	if !IsNegative("NOPE") {
		t.Error("negative vocabulary not recognized")
	}
	if IsAffirmative("maybe") || IsNegative("maybe") {
		t.Error("out-of-vocabulary input classified as consent")
	}
}
