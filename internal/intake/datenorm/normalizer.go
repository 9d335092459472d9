package datenorm

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fep-agent/internal/models"
)

const outputLayout = "02/01/2006"

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

// Normalizer rewrites free-form dates as DD/MM/YYYY. It is stateless apart
// from its logger and safe for concurrent use.
type Normalizer struct {
	log Logger
}

func New(log Logger) *Normalizer {
	return &Normalizer{log: log}
}

// Normalize returns s as DD/MM/YYYY, or s unchanged when no rule applies.
func (n *Normalizer) Normalize(s string) string {
	if s == "" {
		return ""
	}
	clean := strings.ToLower(strings.TrimSpace(s))

	for _, layout := range exactLayouts {
		if t, err := time.Parse(layout, clean); err == nil {
			return t.Format(outputLayout)
		}
	}
	if out, ok := parseWritten(clean); ok {
		return out
	}
	if out, ok := parseNumeric(clean); ok {
		return out
	}
	if out, ok := parseScattered(clean); ok {
		return out
	}

	if n.log != nil {
		n.log.Warn("could not normalise date", map[string]interface{}{"value": s})
	}
	return s
}

func parseWritten(s string) (string, bool) {
	m := writtenPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	year, _ := strconv.Atoi(m[3])
	return format(dayNumbers[m[1]], monthNumbers[m[2]], year)
}

func parseNumeric(s string) (string, bool) {
	if m := dmyPattern.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if out, ok := format(day, month, expandYear(year)); ok {
			return out, true
		}
	}
	if m := ymdPattern.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return format(day, month, year)
	}
	return "", false
}

// parseScattered finds a day, a month name and a year anywhere in s.
func parseScattered(s string) (string, bool) {
	dm := dayPattern.FindStringSubmatch(s)
	mm := monthPattern.FindStringSubmatch(s)
	ym := yearPattern.FindString(s)
	if dm == nil || mm == nil || ym == "" {
		return "", false
	}
	day, _ := strconv.Atoi(dm[1])
	year, _ := strconv.Atoi(ym)
	return format(day, monthNumbers[mm[1]], year)
}

func expandYear(year int) int {
	if year >= 100 {
		return year
	}
	if year > 50 {
		return 1900 + year
	}
	return 2000 + year
}

func format(day, month, year int) (string, bool) {
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return "", false
	}
	return fmt.Sprintf("%02d/%02d/%04d", day, month, year), true
}

// IsDateField reports whether a field name should be normalised.
func IsDateField(name string) bool {
	lower := strings.ToLower(name)
	for _, hint := range dateNameHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	for _, known := range DateFieldNames {
		if strings.Contains(name, known) {
			return true
		}
	}
	return false
}

// ProcessData normalises every date-like field entry and returns the new
// data plus the number of values changed. The input is not modified.
func (n *Normalizer) ProcessData(data models.ExtractedData) (models.ExtractedData, int) {
	out := data.Clone()
	changed := 0
	for _, key := range out.Keys() {
		entry := out[key]
		if entry.Kind != models.KindField || !IsDateField(key) {
			continue
		}
		original := entry.Field.Value
		normalized := n.Normalize(original)
		if normalized == original {
			continue
		}
		entry.Field.Value = normalized
		entry.Field.OriginalValue = original
		entry.Field.Reasoning += fmt.Sprintf(" (Normalized from: %s)", original)
		out[key] = entry
		changed++
		if n.log != nil {
			n.log.Debug("normalised date field", map[string]interface{}{
				"field": key, "from": original, "to": normalized,
			})
		}
	}
	return out, changed
}
