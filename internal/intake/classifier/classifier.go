package classifier

import (
	"strings"

	"fep-agent/internal/intake/fieldmap"
	"fep-agent/internal/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MinScore is the lowest content score accepted without the filename
// fallback.
const MinScore = 2

const (
	typeReasoning    = "Detected document type based on content and patterns"
	contextReasoning = "Obtained from provided context data"
)

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
}

// Classification is the outcome of one Classify call.
type Classification struct {
	Type       models.DocumentType         `json:"documentType"`
	Score      int                         `json:"score"`
	Scores     map[models.DocumentType]int `json:"scores"`
	ByFilename bool                        `json:"byFilename"`
}

type Classifier struct {
	signatures []Signature
	mapper     *fieldmap.Mapper
	minScore   int
	log        Logger
}

type Option func(*Classifier)

func WithSignatures(sigs []Signature) Option {
	return func(c *Classifier) { c.signatures = sigs }
}

// WithMinScore overrides MinScore. Values below 1 are ignored.
func WithMinScore(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.minScore = n
		}
	}
}

func WithLogger(log Logger) Option {
	return func(c *Classifier) { c.log = log }
}

// New builds a classifier. mapper renames fields in NormalizeFields; a nil
// mapper uses the default form schema.
func New(mapper *fieldmap.Mapper, opts ...Option) *Classifier {
	if mapper == nil {
		mapper = fieldmap.NewMapper(fieldmap.DefaultSchema())
	}
	c := &Classifier{
		signatures: DefaultSignatures(),
		mapper:     mapper,
		minScore:   MinScore,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DetectType returns the single best document type for text and filename.
func (c *Classifier) DetectType(text, filename string) models.DocumentType {
	return c.Classify(text, filename).Type
}

func (c *Classifier) Classify(text, filename string) Classification {
	res := Classification{Type: models.UnknownDocument, Scores: make(map[models.DocumentType]int, len(c.signatures))}
	if text == "" && filename == "" {
		return res
	}

	fileLower := strings.ToLower(filename)
	combined := strings.ToLower(text) + " " + fileLower

	var best models.DocumentType
	for _, sig := range c.signatures {
		score := 0
		for _, r := range sig.Rules {
			score += len(r.Pattern.FindAllStringIndex(combined, -1)) * r.Weight
		}
		res.Scores[sig.Type] = score
		if score > res.Score {
			res.Score = score
			best = sig.Type
		}
	}

	if best == "" || res.Score < c.minScore {
		res.Type = fromFilename(fileLower)
		res.ByFilename = true
	} else {
		res.Type = best
	}
	c.debug("document classified", map[string]interface{}{
		"documentType": string(res.Type), "score": res.Score, "byFilename": res.ByFilename,
	})
	return res
}

func fromFilename(fileLower string) models.DocumentType {
	for _, h := range filenameHints {
		for _, term := range h.terms {
			if strings.Contains(fileLower, term) {
				return h.docType
			}
		}
	}
	return models.UnknownDocument
}

// GuessDisplayType maps a filename to the label shown to users before any
// content is available.
func GuessDisplayType(filename string) string {
	lower := strings.ToLower(filename)
	for _, h := range displayHints {
		for _, term := range h.terms {
			if strings.Contains(lower, term) {
				return h.label
			}
		}
	}
	return "Unknown Document"
}

var warningTypeHints = []struct {
	terms  []string
	label  string
	reason string
}{
	{[]string{"death", "certificate"}, "Death Certificate", "Inferred from filename containing 'death' or 'certificate'"},
	{[]string{"letter", "work", "pension"}, "Benefit Letter", "Inferred from filename containing 'letter', 'work', or 'pension'"},
	{[]string{"invoice", "funeral", "bill"}, "Funeral Invoice", "Inferred from filename containing 'invoice', 'funeral', or 'bill'"},
}

// GuessWarningType labels a file that yielded no text. Only structured
// names like "death_cert.png" with an underscore qualify.
func GuessWarningType(filename string) (label, reason string, ok bool) {
	if !strings.Contains(filename, "_") {
		return "", "", false
	}
	lower := strings.ToLower(filename)
	for _, h := range warningTypeHints {
		for _, term := range h.terms {
			if strings.Contains(lower, term) {
				return h.label, h.reason, true
			}
		}
	}
	return "", "", false
}

func (c *Classifier) signature(t models.DocumentType) (Signature, bool) {
	for _, s := range c.signatures {
		if s.Type == t {
			return s, true
		}
	}
	return Signature{}, false
}

// DisplayName is the lower-case human form, "death certificate".
func DisplayName(t models.DocumentType) string {
	return strings.ReplaceAll(string(t), "_", " ")
}

// TitleName is the title-cased form, "Death Certificate". Casers hold
// state, so each call builds its own.
func TitleName(t models.DocumentType) string {
	return cases.Title(language.BritishEnglish).String(DisplayName(t))
}

// Normalized is the output of NormalizeFields.
type Normalized struct {
	Data     models.ExtractedData
	Unmapped []string
}

// NormalizeFields tags data with the document type, maps keys onto the form
// schema and then applies the type's legacy renames to keys the mapper left
// alone. A legacy rename never replaces a key that already exists.
func (c *Classifier) NormalizeFields(data models.ExtractedData, docType models.DocumentType, ctx models.ContextData) Normalized {
	mapperType := string(docType)
	if docType == models.UnknownDocument {
		mapperType = ""
	}
	mapped := c.mapper.Map(data, mapperType, ctx)
	out := mapped.Data

	var unmapped []string
	sig, known := c.signature(docType)
	for _, key := range mapped.Unmapped {
		entry, ok := out[key]
		if !known || !ok || entry.Kind != models.KindField {
			unmapped = append(unmapped, key)
			continue
		}
		target, ok := lookupRename(sig.Renames, key)
		if !ok || target == key {
			unmapped = append(unmapped, key)
			continue
		}
		if _, taken := out[target]; taken {
			unmapped = append(unmapped, key)
			continue
		}
		delete(out, key)
		out[target] = entry
		c.debug("applied legacy rename", map[string]interface{}{"from": key, "to": target})
	}

	out.SetMetadata("_fileType", models.ExtractedField{Value: DisplayName(docType), Reasoning: typeReasoning})
	out.SetMetadata("_documentType", models.ExtractedField{Value: TitleName(docType), Reasoning: typeReasoning})

	return Normalized{Data: out, Unmapped: unmapped}
}

func lookupRename(renames map[string]string, key string) (string, bool) {
	if target, ok := renames[key]; ok {
		return target, true
	}
	for src, target := range renames {
		if strings.EqualFold(src, key) {
			return target, true
		}
	}
	return "", false
}

// EnhanceWithContext fills gaps from caller-supplied facts. Fields already
// present are never overwritten.
func EnhanceWithContext(data models.ExtractedData, ctx models.ContextData) models.ExtractedData {
	out := data.Clone()
	if name := strings.TrimSpace(ctx.DeceasedName); name != "" {
		setIfAbsent(out, "deceasedName", name)
		_, hasFirst := out["deceasedFirstName"]
		_, hasLast := out["deceasedLastName"]
		if !hasFirst && !hasLast {
			words := strings.Fields(name)
			if len(words) == 1 {
				setIfAbsent(out, "deceasedFirstName", words[0])
			} else {
				setIfAbsent(out, "deceasedFirstName", strings.Join(words[:len(words)-1], " "))
				setIfAbsent(out, "deceasedLastName", words[len(words)-1])
			}
		}
	}
	if strings.TrimSpace(ctx.RelationshipToDeceased) != "" {
		setIfAbsent(out, "relationshipToDeceased", ctx.RelationshipToDeceased)
	}
	return out
}

func setIfAbsent(d models.ExtractedData, key, value string) {
	if _, ok := d[key]; !ok {
		d[key] = models.FieldEntry(value, contextReasoning)
	}
}

func (c *Classifier) debug(msg string, fields map[string]interface{}) {
	if c.log != nil {
		c.log.Debug(msg, fields)
	}
}
