package fieldmap

import (
	"encoding/json"
	"testing"

	"fep-agent/internal/common/logger"
	"fep-agent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMapper(t *testing.T, opts ...Option) *Mapper {
	opts = append([]Option{WithLogger(logger.NewTestLogger(t))}, opts...)
	return NewMapper(DefaultSchema(), opts...)
}

func TestMapper_DeathCertificate(t *testing.T) {
	data := models.ExtractedData{
		"name":        models.FieldEntry("Brian Hughes", "r"),
		"dateOfDeath": models.FieldEntry("12/03/2024", "printed"),
		"Total Cost":  models.FieldEntry("£3,450.00", "footer"),
	}
	data.SetMetadata("_fileType", "Death Certificate")

	res := newTestMapper(t).Map(data, "death_certificate", models.ContextData{})

	first, ok := res.Data.Field("deceasedFirstName")
	require.True(t, ok)
	assert.Equal(t, "Brian", first.Value)
	assert.Equal(t, "r (first name)", first.Reasoning)

	last, ok := res.Data.Field("deceasedLastName")
	require.True(t, ok)
	assert.Equal(t, "Hughes", last.Value)
	assert.Equal(t, "r (last name)", last.Reasoning)

	assert.Equal(t, data["dateOfDeath"], res.Data["dateOfDeath"])
	assert.Equal(t, data["Total Cost"], res.Data["Total Cost"])
	fileType, ok := res.Data.MetadataString("_fileType")
	require.True(t, ok)
	assert.Equal(t, "Death Certificate", fileType)

	assert.NotContains(t, res.Data, "name")
	assert.ElementsMatch(t, []string{"Total Cost", "dateOfDeath"}, res.Unmapped)
	assert.Len(t, res.Decisions, 3)
}

func TestMapper_InvoiceFields(t *testing.T) {
	data := models.ExtractedData{
		"Total Cost":   models.FieldEntry("£3,450.00", ""),
		"funeral home": models.FieldEntry("Co-op Funeralcare", ""),
	}

	res := newTestMapper(t).Map(data, "funeral_invoice", models.ContextData{})

	assert.Equal(t, "£3,450.00", res.Data["funeralCost"].Field.Value)
	assert.Equal(t, "Co-op Funeralcare", res.Data["funeralDirector"].Field.Value)
	assert.Empty(t, res.Unmapped)
}

func TestMapper_SplitUsesDefaultReasoning(t *testing.T) {
	data := models.ExtractedData{"name": models.FieldEntry("Mary Anne Smith", "")}

	res := newTestMapper(t).Map(data, "death_certificate", models.ContextData{})

	assert.Equal(t, models.FieldEntry("Mary Anne", "Split from full name (first name)"), res.Data["deceasedFirstName"])
	assert.Equal(t, models.FieldEntry("Smith", "Split from full name (last name)"), res.Data["deceasedLastName"])
}

func TestMapper_SingleWordNameIsNotSplit(t *testing.T) {
	data := models.ExtractedData{"name": models.FieldEntry("Brian", "r")}

	res := newTestMapper(t).Map(data, "death_certificate", models.ContextData{})

	assert.Equal(t, data["name"], res.Data["deceasedFirstName"])
	assert.NotContains(t, res.Data, "deceasedLastName")
}

func TestMapper_OpaqueValuesAreRenamedNotSplit(t *testing.T) {
	data := models.ExtractedData{"name": models.OpaqueEntry("Brian Hughes")}

	res := newTestMapper(t).Map(data, "death_certificate", models.ContextData{})

	assert.Equal(t, data["name"], res.Data["deceasedFirstName"])
	assert.NotContains(t, res.Data, "deceasedLastName")
}

func TestMapper_CollisionKeepsHigherConfidence(t *testing.T) {
	data := models.ExtractedData{
		"Total Cost":   models.FieldEntry("£100.00", "subtotal"),
		"funeral cost": models.FieldEntry("£3,450.00", "grand total"),
	}

	res := newTestMapper(t).Map(data, "funeral_invoice", models.ContextData{})

	assert.Equal(t, "£3,450.00", res.Data["funeralCost"].Field.Value)
	assert.NotContains(t, res.Data, "Total Cost")
}

func TestMapper_Threshold(t *testing.T) {
	data := models.ExtractedData{"deceased name": models.FieldEntry("Brian Hughes", "")}
	ctx := models.ContextData{DeceasedName: "Brian Hughes"}

	res := newTestMapper(t).Map(data, "death_certificate", ctx)
	assert.Equal(t, []string{"deceased name"}, res.Unmapped)

	res = newTestMapper(t, WithThreshold(0.4)).Map(data, "death_certificate", ctx)
	assert.Empty(t, res.Unmapped)
	assert.Equal(t, "Brian", res.Data["deceasedFirstName"].Field.Value)
}

func TestMapper_EmptyInput(t *testing.T) {
	res := newTestMapper(t).Map(models.ExtractedData{}, "", models.ContextData{})
	assert.Empty(t, res.Data)
	assert.Empty(t, res.Unmapped)
}

func TestMapper_JSONRoundTripKeepsShape(t *testing.T) {
	var data models.ExtractedData
	require.NoError(t, json.Unmarshal([]byte(`{
		"name": {"value": "Brian Hughes", "reasoning": "r"},
		"_confidence": 0.8,
		"pages": [1, 2]
	}`), &data))

	res := newTestMapper(t).Map(data, "death_certificate", models.ContextData{})

	out, err := json.Marshal(res.Data)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"deceasedFirstName": {"value": "Brian", "reasoning": "r (first name)"},
		"deceasedLastName": {"value": "Hughes", "reasoning": "r (last name)"},
		"_confidence": 0.8,
		"pages": [1, 2]
	}`, string(out))
}

func BenchmarkMapper_Map(b *testing.B) {
	m := NewMapper(DefaultSchema())
	data := models.ExtractedData{
		"name":         models.FieldEntry("Brian Hughes", "r"),
		"dateOfDeath":  models.FieldEntry("12/03/2024", ""),
		"Total Cost":   models.FieldEntry("£3,450.00", ""),
		"funeral home": models.FieldEntry("Co-op Funeralcare", ""),
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Map(data, "", models.ContextData{})
	}
}
