package fieldmap

import (
	"sort"
	"strings"

	"fep-agent/internal/models"
)

// Match is one candidate form field for an extracted key.
type Match struct {
	Field      string  `json:"field"`
	Section    string  `json:"section"`
	Confidence float64 `json:"confidence"`
}

// sectionsByDocType lists sections a document type always reaches even when
// no section context phrase overlaps the type name.
var sectionsByDocType = []struct {
	docType  string
	sections []string
}{
	{"death_certificate", []string{"about-deceased"}},
	{"funeral_invoice", []string{"funeral-details"}},
	{"benefit_letter", []string{"benefits-information"}},
	{"relationship_proof", []string{"about-deceased"}},
}

// docTypeKeywords boosts fields whose names carry a keyword associated
// with the document type.
var docTypeKeywords = []struct {
	docType  string
	keywords []string
}{
	{"death_certificate", []string{"deceased", "death", "birth"}},
	{"funeral_invoice", []string{"funeral", "cost", "director", "service"}},
	{"benefit_letter", []string{"benefit", "payment", "eligibility"}},
	{"relationship_proof", []string{"relationship", "connection", "family"}},
}

type preparedField struct {
	field   models.FormField
	name    string
	label   string
	context []string
}

type preparedSection struct {
	section models.FormSection
	context []string
	title   string
	fields  []preparedField
}

// Matcher scores extracted keys against a form schema. It holds no mutable
// state and is safe for concurrent use.
type Matcher struct {
	sections []preparedSection
}

func NewMatcher(schema *models.FormSchema) *Matcher {
	if schema == nil {
		schema = DefaultSchema()
	}
	m := &Matcher{}
	for _, s := range schema.Sections {
		ps := preparedSection{section: s, title: normalizeText(s.Title)}
		ps.context = normalizeAll(s.Context)
		for _, f := range s.Fields {
			ps.fields = append(ps.fields, preparedField{
				field:   f,
				name:    normalizeText(f.Name),
				label:   normalizeText(f.Label),
				context: normalizeAll(f.Context),
			})
		}
		m.sections = append(m.sections, ps)
	}
	return m
}

func normalizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, normalizeText(s))
	}
	return out
}

// Rank returns every field with a positive score, best first. Ties keep
// schema order.
func (m *Matcher) Rank(key string, entry models.Entry, docType string, ctx models.ContextData) []Match {
	normKey := normalizeText(key)
	docLower := strings.ToLower(docType)
	valueType := inferValueType(entry.Text())

	var matches []Match
	for _, s := range m.sections {
		if docLower != "" && !sectionMatchesDocType(s, docLower) {
			continue
		}
		relevance := sectionRelevance(normKey, s)
		for _, f := range s.fields {
			c := scoreField(normKey, entry, valueType, f, relevance, docLower, ctx)
			if c > 0 {
				matches = append(matches, Match{Field: f.field.Name, Section: s.section.ID, Confidence: c})
			}
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches
}

func sectionMatchesDocType(s preparedSection, docLower string) bool {
	for _, c := range s.section.Context {
		c = strings.ToLower(c)
		if strings.Contains(docLower, c) || strings.Contains(c, docLower) {
			return true
		}
	}
	for _, m := range sectionsByDocType {
		if !strings.Contains(docLower, m.docType) {
			continue
		}
		for _, id := range m.sections {
			if id == s.section.ID {
				return true
			}
		}
	}
	return false
}

func scoreField(normKey string, entry models.Entry, vt valueType, f preparedField, relevance float64, docLower string, ctx models.ContextData) float64 {
	if normKey == f.name {
		return 1.0
	}

	score := 0.0
	if f.label != "" && strings.Contains(normKey, f.label) {
		score = 0.8
	}
	if normKey != "" {
		for _, c := range f.context {
			if strings.Contains(normKey, c) || strings.Contains(c, normKey) {
				score = max(score, 0.7)
			}
		}
	}
	if compatible(vt, f.field.Type) {
		score += 0.1
	}

	score = applyContextBoost(score, normKey, entry, f.field.Name, ctx)
	if docLower != "" {
		score = applyDocTypeBoost(score, f.field.Name, docLower)
	}

	score *= 0.7 + 0.3*relevance
	return min(1.0, score)
}

func applyContextBoost(score float64, normKey string, entry models.Entry, fieldName string, ctx models.ContextData) float64 {
	if strings.Contains(fieldName, "deceased") && ctx.DeceasedName != "" && entry.Kind == models.KindField {
		if strings.Contains(normalizeText(entry.Field.Value), normalizeText(ctx.DeceasedName)) {
			return min(1.0, score+0.2)
		}
	}
	if strings.Contains(fieldName, "relationship") && ctx.RelationshipToDeceased != "" {
		rel := normalizeText(ctx.RelationshipToDeceased)
		if strings.Contains(normKey, "relationship") || strings.Contains(normKey, rel) {
			return min(1.0, score+0.3)
		}
	}
	return score
}

func applyDocTypeBoost(score float64, fieldName, docLower string) float64 {
	nameLower := strings.ToLower(fieldName)
	for _, a := range docTypeKeywords {
		if !strings.Contains(docLower, a.docType) {
			continue
		}
		if containsAny(nameLower, a.keywords) {
			return min(1.0, score+0.15)
		}
	}
	return score
}

// sectionRelevance rates how well a key fits a section, in [0.1, 0.8].
func sectionRelevance(normKey string, s preparedSection) float64 {
	if len(s.context) == 0 {
		return 0.5
	}
	best := 0.0
	for _, c := range s.context {
		if strings.Contains(normKey, c) {
			best = max(best, 0.8)
		} else if strings.Contains(c, normKey) {
			best = max(best, 0.6)
		}
	}
	if best == 0 && s.title != "" {
		keyWords := wordSet(normKey)
		titleWords := wordSet(s.title)
		common := 0
		for w := range keyWords {
			if titleWords[w] {
				common++
			}
		}
		if common > 0 {
			best = 0.3 * float64(common) / float64(min(len(keyWords), len(titleWords)))
		}
	}
	return max(0.1, best)
}

func wordSet(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		out[w] = true
	}
	return out
}
