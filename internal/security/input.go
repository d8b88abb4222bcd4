// Package security checks user supplied text before it is stored
package security

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"
)

var (
	ErrInputTooLarge     = errors.New("input exceeds maximum size")
	ErrNullByteDetected  = errors.New("null byte detected in input")
	ErrControlCharacter  = errors.New("control character in input")
	ErrInvalidEncoding   = errors.New("input is not valid UTF-8")
	ErrRepetitiveContent = errors.New("excessive repetition detected")
)

type InputValidator struct {
	MaxSize       int // bytes
	MaxRepetition int // longest run of one rune, 0 disables the check
	Multiline     bool
}

// Limits for the free-text fields of a medication and for plan files
var (
	NameValidator   = &InputValidator{MaxSize: 200, MaxRepetition: 20}
	DosageValidator = &InputValidator{MaxSize: 100, MaxRepetition: 20}
	NotesValidator  = &InputValidator{MaxSize: 2000, MaxRepetition: 50, Multiline: true}
	PlanValidator   = &InputValidator{MaxSize: 1 << 20, Multiline: true}
)

func NewInputValidator(maxSize int) *InputValidator {
	return &InputValidator{
		MaxSize:       maxSize,
		MaxRepetition: 100,
	}
}

func (v *InputValidator) Validate(input string) error {
	if v.MaxSize > 0 && len(input) > v.MaxSize {
		return ErrInputTooLarge
	}
	if !utf8.ValidString(input) {
		return ErrInvalidEncoding
	}

	for _, r := range input {
		if r == 0 {
			return ErrNullByteDetected
		}
		if unicode.IsControl(r) && !(v.Multiline && (r == '\n' || r == '\r' || r == '\t')) {
			return ErrControlCharacter
		}
	}

	if v.MaxRepetition > 0 && hasExcessiveRepetition(input, v.MaxRepetition) {
		return ErrRepetitiveContent
	}

	return nil
}

func hasExcessiveRepetition(input string, maxLen int) bool {
	if len(input) <= maxLen {
		return false
	}

	var prev rune
	run := 0
	for _, r := range input {
		if run > 0 && r == prev {
			run++
			if run > maxLen {
				return true
			}
			continue
		}
		prev, run = r, 1
	}

	return false
}

// ValidateField checks value with v and names the field in the error
func ValidateField(v *InputValidator, field, value string) error {
	if err := v.Validate(value); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}
