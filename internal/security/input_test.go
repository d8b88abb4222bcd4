package security

import (
	"errors"
	"strings"
	"testing"
)

func TestInputValidator_ValidInput(t *testing.T) {
	validInputs := []string{
		"Lisinopril",
		"Metformin 500mg",
		"Vitamin D3 (cholecalciferol)",
		"Ibuprofène",
		strings.Repeat("ab", 50),
	}

	for _, input := range validInputs {
		if err := NameValidator.Validate(input); err != nil {
			t.Errorf("Valid input rejected: %q (error: %v)", input, err)
		}
	}
}

func TestInputValidator_TooLarge(t *testing.T) {
	validator := NewInputValidator(100)

	err := validator.Validate(strings.Repeat("ab", 100))
	if err != ErrInputTooLarge {
		t.Errorf("Large input not rejected, got: %v", err)
	}
}

func TestInputValidator_NullByte(t *testing.T) {
	inputsWithNull := []string{
		"hello\x00world",
		"\x00",
		"test\x00",
	}

	for _, input := range inputsWithNull {
		if err := NotesValidator.Validate(input); err != ErrNullByteDetected {
			t.Errorf("Null byte not detected in: %q", input)
		}
	}
}

func TestInputValidator_ControlCharacters(t *testing.T) {
	tests := []struct {
		name      string
		validator *InputValidator
		input     string
		wantErr   error
	}{
		{"newline in name", NameValidator, "Aspirin\nrm", ErrControlCharacter},
		{"escape in dosage", DosageValidator, "10mg\x1b[31m", ErrControlCharacter},
		{"newline in notes", NotesValidator, "Take with food.\nAvoid alcohol.", nil},
		{"tab in plan", PlanValidator, "medications:\n\t- name: x\n", nil},
		{"invalid utf8", NameValidator, "Asp\xffirin", ErrInvalidEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.validator.Validate(tt.input)
			if err != tt.wantErr {
				t.Errorf("Validate(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestInputValidator_Repetition(t *testing.T) {
	validator := NewInputValidator(1000)
	validator.MaxRepetition = 10

	if err := validator.Validate("a" + strings.Repeat("b", 11)); err != ErrRepetitiveContent {
		t.Errorf("Repetition not detected, got: %v", err)
	}
	if err := validator.Validate(strings.Repeat("ab", 20)); err != nil {
		t.Errorf("Alternating input rejected: %v", err)
	}

	validator.MaxRepetition = 0
	if err := validator.Validate(strings.Repeat("z", 500)); err != nil {
		t.Errorf("Repetition check should be disabled: %v", err)
	}
}

func TestValidateField(t *testing.T) {
	err := ValidateField(NameValidator, "name", strings.Repeat("x", 300))
	if !errors.Is(err, ErrInputTooLarge) {
		t.Fatalf("expected ErrInputTooLarge, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "name: ") {
		t.Errorf("field not named in %q", err.Error())
	}

	if err := ValidateField(NameValidator, "name", "Aspirin"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
