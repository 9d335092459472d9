package fieldmap

import (
	"strings"

	"fep-agent/internal/models"
)

// DefaultThreshold is the lowest confidence at which a key is renamed.
const DefaultThreshold = 0.5

const (
	firstNameSuffix = "FirstName"
	lastNameSuffix  = "LastName"
	splitReasoning  = "Split from full name"
)

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
}

// Decision records what happened to one extracted key.
type Decision struct {
	Key        string   `json:"key"`
	Targets    []string `json:"targets,omitempty"`
	Confidence float64  `json:"confidence"`
	Mapped     bool     `json:"mapped"`
}

type Result struct {
	Data      models.ExtractedData `json:"mappedData"`
	Unmapped  []string             `json:"unmappedFields"`
	Decisions []Decision           `json:"decisions,omitempty"`
}

type Mapper struct {
	matcher   *Matcher
	threshold float64
	log       Logger
}

type Option func(*Mapper)

func WithThreshold(t float64) Option {
	return func(m *Mapper) {
		if t > 0 && t <= 1 {
			m.threshold = t
		}
	}
}

func WithLogger(log Logger) Option {
	return func(m *Mapper) { m.log = log }
}

func NewMapper(schema *models.FormSchema, opts ...Option) *Mapper {
	m := &Mapper{matcher: NewMatcher(schema), threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Mapper) Matcher() *Matcher { return m.matcher }

// slot tracks who wrote each output key so collisions resolve the same way
// regardless of input order. Pass-through writes rank below any mapping.
type slot struct {
	confidence float64
	mapped     bool
}

// Map renames extracted keys onto form fields. Metadata passes through,
// a winning FirstName field holding several words is split into first and
// last name, and keys below the threshold keep their original name.
func (m *Mapper) Map(data models.ExtractedData, docType string, ctx models.ContextData) Result {
	res := Result{Data: make(models.ExtractedData, len(data))}
	slots := make(map[string]slot, len(data))

	put := func(key string, e models.Entry, s slot) bool {
		if prev, taken := slots[key]; taken {
			if prev.mapped && !s.mapped {
				return false
			}
			if prev.mapped == s.mapped && prev.confidence >= s.confidence {
				return false
			}
		}
		slots[key] = s
		res.Data[key] = e
		return true
	}

	for _, key := range data.Keys() {
		entry := data[key]
		if entry.Kind == models.KindMetadata || models.IsMetadataKey(key) {
			res.Data[key] = entry
			continue
		}

		matches := m.matcher.Rank(key, entry, docType, ctx)
		if len(matches) == 0 || matches[0].Confidence < m.threshold {
			best := 0.0
			if len(matches) > 0 {
				best = matches[0].Confidence
			}
			m.debug("no mapping above threshold, keeping original key", map[string]interface{}{
				"key": key, "bestConfidence": best,
			})
			if put(key, entry, slot{confidence: best}) {
				res.Unmapped = append(res.Unmapped, key)
			}
			res.Decisions = append(res.Decisions, Decision{Key: key, Confidence: best})
			continue
		}

		best := matches[0]
		s := slot{confidence: best.Confidence, mapped: true}
		d := Decision{Key: key, Confidence: best.Confidence, Mapped: true}

		if first, last, ok := splitName(best.Field, entry); ok {
			base := strings.TrimSuffix(best.Field, firstNameSuffix)
			put(base+firstNameSuffix, first, s)
			put(base+lastNameSuffix, last, s)
			d.Targets = []string{base + firstNameSuffix, base + lastNameSuffix}
		} else {
			put(best.Field, entry, s)
			d.Targets = []string{best.Field}
		}
		m.info("mapped extracted field", map[string]interface{}{
			"key": key, "targets": d.Targets, "confidence": best.Confidence,
		})
		res.Decisions = append(res.Decisions, d)
	}

	// A pass-through key can be displaced by a later mapping into the same name.
	res.Unmapped = filterUnmapped(res.Unmapped, slots)
	return res
}

func filterUnmapped(keys []string, slots map[string]slot) []string {
	out := keys[:0]
	for _, k := range keys {
		if !slots[k].mapped {
			out = append(out, k)
		}
	}
	return out
}

// splitName divides a multi-word full name. Only field entries are split;
// opaque values are renamed as they are.
func splitName(target string, entry models.Entry) (models.Entry, models.Entry, bool) {
	if !strings.HasSuffix(target, firstNameSuffix) || entry.Kind != models.KindField {
		return models.Entry{}, models.Entry{}, false
	}
	words := strings.Fields(entry.Field.Value)
	if len(words) < 2 {
		return models.Entry{}, models.Entry{}, false
	}
	reasoning := entry.Field.Reasoning
	if reasoning == "" {
		reasoning = splitReasoning
	}
	first := models.FieldEntry(strings.Join(words[:len(words)-1], " "), reasoning+" (first name)")
	last := models.FieldEntry(words[len(words)-1], reasoning+" (last name)")
	return first, last, true
}

func (m *Mapper) info(msg string, fields map[string]interface{}) {
	if m.log != nil {
		m.log.Info(msg, fields)
	}
}

func (m *Mapper) debug(msg string, fields map[string]interface{}) {
	if m.log != nil {
		m.log.Debug(msg, fields)
	}
}
