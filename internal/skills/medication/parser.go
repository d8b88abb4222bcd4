package medication

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gmsas95/medtrack/internal/adherence"
)

// ParsedMedication represents a parsed free-text medication description
type ParsedMedication struct {
	Name      string
	Dosage    string
	Frequency string
	Times     []string
	WithFood  bool
}

type keyword struct {
	phrase string
	value  string
}

var (
	nameDosageRe  = regexp.MustCompile(`(?i)^\s*([a-z][a-z\s\-]*?)\s+(\d+(?:\.\d+)?\s*(?:mg|mcg|g|ml|iu|units?|tablets?|capsules?|pills?|drops?|puffs?))\b`)
	leadingNameRe = regexp.MustCompile(`(?i)^\s*([a-z][a-z\-]*)`)
	clockRe       = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
)

// Parser handles natural language parsing of medication schedules
type Parser struct {
	// checked in order, longer phrases first
	frequencyKeywords []keyword
	timeKeywords      []keyword
}

// NewParser creates a new medication parser
func NewParser() *Parser {
	return &Parser{
		frequencyKeywords: []keyword{
			{"four times", adherence.FrequencyFourTimes},
			{"4 times", adherence.FrequencyFourTimes},
			{"qid", adherence.FrequencyFourTimes},
			{"three times", adherence.FrequencyThreeTimes},
			{"3 times", adherence.FrequencyThreeTimes},
			{"tid", adherence.FrequencyThreeTimes},
			{"twice", adherence.FrequencyTwice},
			{"two times", adherence.FrequencyTwice},
			{"2 times", adherence.FrequencyTwice},
			{"bid", adherence.FrequencyTwice},
			{"once a day", adherence.FrequencyOnce},
			{"once daily", adherence.FrequencyOnce},
			{"once", adherence.FrequencyOnce},
			{"every day", adherence.FrequencyDaily},
			{"daily", adherence.FrequencyDaily},
		},
		timeKeywords: []keyword{
			{"morning", "08:00"},
			{"breakfast", "08:00"},
			{"noon", "12:00"},
			{"lunch", "12:00"},
			{"afternoon", "14:00"},
			{"evening", "18:00"},
			{"dinner", "18:00"},
			{"bedtime", "22:00"},
			{"before bed", "22:00"},
			{"night", "22:00"},
		},
	}
}

// ParseMedication parses input like "Metformin 500mg twice daily with meals"
func (p *Parser) ParseMedication(text string) *ParsedMedication {
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)

	result := &ParsedMedication{}
	result.Name, result.Dosage = p.extractNameAndDosage(text)
	result.Frequency = p.ParseFrequency(lower)
	result.Times = p.ParseTimes(lower)
	result.WithFood = strings.Contains(lower, "with food") ||
		strings.Contains(lower, "with meals") ||
		strings.Contains(lower, "after meal")

	return result
}

func (p *Parser) extractNameAndDosage(text string) (name, dosage string) {
	if m := nameDosageRe.FindStringSubmatch(text); len(m) >= 3 {
		return strings.TrimSpace(m[1]), strings.Join(strings.Fields(m[2]), " ")
	}
	if m := leadingNameRe.FindStringSubmatch(text); len(m) >= 2 {
		return m[1], ""
	}
	return text, ""
}

// ParseFrequency returns the frequency preset named in text, or "" when none is
func (p *Parser) ParseFrequency(text string) string {
	text = strings.ToLower(text)
	for _, kw := range p.frequencyKeywords {
		if containsWord(text, kw.phrase) {
			return kw.value
		}
	}
	return ""
}

// ParseTimes extracts clock times ("8am", "2:30 pm", "20:00") and meal or
// day-part keywords from text, returned as sorted unique HH:MM strings.
// Bare numbers without a colon or am/pm are ignored.
func (p *Parser) ParseTimes(text string) []string {
	text = strings.ToLower(text)
	seen := make(map[string]bool)
	var times []string

	add := func(t string) {
		if !seen[t] {
			seen[t] = true
			times = append(times, t)
		}
	}

	for _, m := range clockRe.FindAllStringSubmatch(text, -1) {
		minuteStr, ampm := m[2], m[3]
		if minuteStr == "" && ampm == "" {
			continue
		}
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if minuteStr != "" {
			minute, _ = strconv.Atoi(minuteStr)
		}
		if ampm != "" {
			if hour < 1 || hour > 12 {
				continue
			}
			if ampm == "pm" && hour != 12 {
				hour += 12
			}
			if ampm == "am" && hour == 12 {
				hour = 0
			}
		}
		t, err := adherence.ParseTimeOfDay(fmt.Sprintf("%d:%02d", hour, minute))
		if err != nil {
			continue
		}
		add(t.String())
	}

	for _, kw := range p.timeKeywords {
		if containsWord(text, kw.phrase) {
			add(kw.value)
		}
	}

	sort.Strings(times)
	return times
}

// containsWord reports whether phrase occurs in text on word boundaries
func containsWord(text, phrase string) bool {
	for start := 0; ; {
		i := strings.Index(text[start:], phrase)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(phrase)
		if (i == 0 || !isWordByte(text[i-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		start = i + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}
