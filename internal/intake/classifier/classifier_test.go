package classifier

import (
	"strings"
	"testing"

	"fep-agent/internal/common/logger"
	"fep-agent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestClassifier(t *testing.T) *Classifier {
	return New(nil, WithLogger(logger.NewTestLogger(t)))
}

// ==========================
// Classification
// ==========================

func TestClassify_ScoresByPatternCount(t *testing.T) {
	c := newTestClassifier(t)
	text := "Death certificate. Copy of death certificate. Cause of death: natural causes."

	res := c.Classify(text, "")

	assert.Equal(t, models.DeathCertificate, res.Type)
	assert.Equal(t, 6, res.Score)
	assert.False(t, res.ByFilename)
	assert.Equal(t, 0, res.Scores[models.BenefitLetter])
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		filename string
		want     models.DocumentType
		byName   bool
	}{
		{"death certificate heading", "DEATH CERTIFICATE\nDate of Death: Seventeenth June 2025", "death_cert.pdf", models.DeathCertificate, false},
		{"birth certificate", "Certificate of birth. Date of birth 1 May 1950", "", models.BirthCertificate, false},
		{"funeral invoice", "Smith & Sons Funeral Directors\nFuneral service and cremation", "", models.FuneralInvoice, false},
		{"benefit letter", "Department for Work and Pensions\nUniversal Credit award", "", models.BenefitLetter, false},
		{"filename only death", "", "scan_death.jpg", models.DeathCertificate, true},
		{"filename only invoice", "illegible", "bill-2024.png", models.FuneralInvoice, true},
		{"filename only benefit", "", "benefits_letter.pdf", models.BenefitLetter, true},
		{"dwp in filename scores", "", "DWP_letter.pdf", models.BenefitLetter, false},
		{"nothing matches", "Dear customer", "photo.png", models.UnknownDocument, true},
		{"empty input", "", "", models.UnknownDocument, false},
	}

	c := newTestClassifier(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.Classify(tt.text, tt.filename)
			assert.Equal(t, tt.want, res.Type)
			assert.Equal(t, tt.byName, res.ByFilename)
		})
	}
}

func TestClassify_FilenameCountsTowardsScore(t *testing.T) {
	res := newTestClassifier(t).Classify("", "funeral invoice march.pdf")
	assert.Equal(t, models.FuneralInvoice, res.Type)
	assert.Equal(t, 2, res.Score)
	assert.False(t, res.ByFilename)
}

func TestClassify_TieGoesToFirstRegistered(t *testing.T) {
	res := newTestClassifier(t).Classify("date of death and date of birth", "")
	assert.Equal(t, 2, res.Scores[models.DeathCertificate])
	assert.Equal(t, 2, res.Scores[models.BirthCertificate])
	assert.Equal(t, models.DeathCertificate, res.Type)
}

func TestClassify_WithMinScore(t *testing.T) {
	c := New(nil, WithMinScore(3), WithLogger(logger.NewTestLogger(t)))
	res := c.Classify("date of death and date of birth", "scan.pdf")
	assert.Equal(t, 2, res.Score)
	assert.True(t, res.ByFilename)

	res = New(nil, WithMinScore(0)).Classify("date of death and date of birth", "")
	assert.Equal(t, models.DeathCertificate, res.Type)
}

func TestGuessDisplayType(t *testing.T) {
	tests := map[string]string{
		"Deceased_scan.pdf":   "Death Certificate",
		"burial-receipt.jpg":  "Funeral Bill",
		"allowance.pdf":       "Proof of Benefits",
		"family-tree.png":     "Proof of Relationship",
		"responsibility.docx": "Proof of Responsibility",
		"gas-bill.pdf":        "Bill or Invoice",
		"passport.jpg":        "Identification Document",
		"scan.png":            "Unknown Document",
	}
	for name, want := range tests {
		assert.Equal(t, want, GuessDisplayType(name), name)
	}
}

func TestGuessWarningType(t *testing.T) {
	tests := []struct {
		filename string
		want     string
		ok       bool
	}{
		{"death_cert.png", "Death Certificate", true},
		{"Pension_Letter.jpg", "Benefit Letter", true},
		{"funeral_bill.pdf", "Funeral Invoice", true},
		{"certificate_work.pdf", "Death Certificate", true},
		{"funeral-invoice.pdf", "", false},
		{"my_scan.png", "", false},
	}
	for _, tt := range tests {
		label, reason, ok := GuessWarningType(tt.filename)
		assert.Equal(t, tt.ok, ok, tt.filename)
		assert.Equal(t, tt.want, label, tt.filename)
		if ok {
			assert.Contains(t, reason, "Inferred from filename")
		}
	}
}

func TestTitleName(t *testing.T) {
	assert.Equal(t, "Death Certificate", TitleName(models.DeathCertificate))
	assert.Equal(t, "Unknown", TitleName(models.UnknownDocument))
	assert.Equal(t, "funeral invoice", DisplayName(models.FuneralInvoice))
}

// ==========================
// Field normalisation
// ==========================

func TestNormalizeFields_DeathCertificate(t *testing.T) {
	c := newTestClassifier(t)
	data := models.ExtractedData{
		"name":        models.FieldEntry("Brian Hughes", "r"),
		"dateOfDeath": models.FieldEntry("Seventeenth June 2025", "printed"),
		"Colour":      models.FieldEntry("blue", ""),
	}

	res := c.NormalizeFields(data, models.DeathCertificate, models.ContextData{})

	assert.Equal(t, "Brian", res.Data["deceasedFirstName"].Field.Value)
	assert.Equal(t, "Hughes", res.Data["deceasedLastName"].Field.Value)
	assert.Equal(t, data["dateOfDeath"], res.Data["deceasedDateOfDeath"])
	assert.NotContains(t, res.Data, "dateOfDeath")
	assert.Equal(t, []string{"Colour"}, res.Unmapped)

	fileType, ok := res.Data.MetadataText("_fileType")
	require.True(t, ok)
	assert.Equal(t, "death certificate", fileType)
	docType, ok := res.Data.MetadataText("_documentType")
	require.True(t, ok)
	assert.Equal(t, "Death Certificate", docType)
}

func TestNormalizeFields_RenameIsCaseInsensitive(t *testing.T) {
	data := models.ExtractedData{"PLACEOFDEATH": models.FieldEntry("Leeds", "")}

	res := newTestClassifier(t).NormalizeFields(data, models.DeathCertificate, models.ContextData{})

	assert.Equal(t, "Leeds", res.Data["deceasedPlaceOfDeath"].Field.Value)
	assert.Empty(t, res.Unmapped)
}

func TestNormalizeFields_RenameNeverOverwrites(t *testing.T) {
	data := models.ExtractedData{
		"dateOfDeath":         models.FieldEntry("1 June 2025", "legacy"),
		"deceasedDateOfDeath": models.FieldEntry("17/06/2025", "canonical"),
	}

	res := newTestClassifier(t).NormalizeFields(data, models.DeathCertificate, models.ContextData{})

	assert.Equal(t, "17/06/2025", res.Data["deceasedDateOfDeath"].Field.Value)
	assert.Equal(t, "1 June 2025", res.Data["dateOfDeath"].Field.Value)
	assert.Contains(t, res.Unmapped, "dateOfDeath")
}

func TestNormalizeFields_UnknownTypeStillTagged(t *testing.T) {
	data := models.ExtractedData{"colour": models.FieldEntry("blue", "")}
	data.SetMetadata("_fileType", "from model")

	res := newTestClassifier(t).NormalizeFields(data, models.UnknownDocument, models.ContextData{})

	fileType, _ := res.Data.MetadataText("_fileType")
	assert.Equal(t, "unknown", fileType)
	docType, _ := res.Data.MetadataText("_documentType")
	assert.Equal(t, "Unknown", docType)
	assert.Equal(t, []string{"colour"}, res.Unmapped)
}

// ==========================
// Context enhancement
// ==========================

func TestEnhanceWithContext(t *testing.T) {
	ctx := models.ContextData{DeceasedName: "Mary Anne Smith", RelationshipToDeceased: "daughter"}

	out := EnhanceWithContext(models.ExtractedData{}, ctx)

	assert.Equal(t, "Mary Anne Smith", out["deceasedName"].Field.Value)
	assert.Equal(t, "Mary Anne", out["deceasedFirstName"].Field.Value)
	assert.Equal(t, "Smith", out["deceasedLastName"].Field.Value)
	assert.Equal(t, "daughter", out["relationshipToDeceased"].Field.Value)
	assert.True(t, strings.Contains(out["deceasedName"].Field.Reasoning, "context"))
}

func TestEnhanceWithContext_NeverOverwrites(t *testing.T) {
	data := models.ExtractedData{
		"deceasedLastName":       models.FieldEntry("Hughes", "certificate"),
		"relationshipToDeceased": models.FieldEntry("son", "certificate"),
	}

	out := EnhanceWithContext(data, models.ContextData{DeceasedName: "Brian Hughes", RelationshipToDeceased: "partner"})

	assert.Equal(t, "Brian Hughes", out["deceasedName"].Field.Value)
	assert.NotContains(t, out, "deceasedFirstName")
	assert.Equal(t, data["deceasedLastName"], out["deceasedLastName"])
	assert.Equal(t, "son", out["relationshipToDeceased"].Field.Value)
	assert.Len(t, data, 2, "input must not be mutated")
}

func TestEnhanceWithContext_SingleWordAndEmpty(t *testing.T) {
	out := EnhanceWithContext(models.ExtractedData{}, models.ContextData{DeceasedName: "Cher"})
	assert.Equal(t, "Cher", out["deceasedFirstName"].Field.Value)
	assert.NotContains(t, out, "deceasedLastName")

	out = EnhanceWithContext(models.ExtractedData{}, models.ContextData{DeceasedName: "  "})
	assert.Empty(t, out)
}

// ==========================
// Benchmarks
// ==========================

func BenchmarkClassify(b *testing.B) {
	c := New(nil)
	text := strings.Repeat("Funeral invoice for funeral service and cremation. ", 40)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Classify(text, "invoice.pdf")
	}
}
