package datenorm

import (
	"fmt"
	"strings"
	"testing"

	"fep-agent/internal/common/logger"
	"fep-agent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNormalizer(t *testing.T) *Normalizer {
	return New(logger.NewTestLogger(t))
}

// ==========================
// Normalize
// ==========================

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"17/06/2025", "17/06/2025"},
		{"7/6/2025", "07/06/2025"},
		{"17-06-2025", "17/06/2025"},
		{"2025-06-17", "17/06/2025"},
		{"17 June 2025", "17/06/2025"},
		{"17 Jun 2025", "17/06/2025"},
		{"June 17, 2025", "17/06/2025"},
		{"Jun 17, 2025", "17/06/2025"},
		{"Seventeenth June 2025", "17/06/2025"},
		{"twenty-first September 1950", "21/09/1950"},
		{"17th June 2025", "17/06/2025"},
		{"Died on the 3rd of March 2024", "03/03/2024"},
		{"2025/06/17", "17/06/2025"},
		{"2025/6/7", "07/06/2025"},
		{"Sept 5, 2025", "05/09/2025"},
		{"  17/06/2025  ", "17/06/2025"},
		{"17/06/23", "17/06/2023"},
		{"17/06/85", "17/06/1985"},
		{"17-06-50", "17/06/2050"},
		{"17-06-51", "17/06/1951"},
	}
	n := newTestNormalizer(t)
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.in))
		})
	}
}

func TestNormalize_ReturnsOriginalOnFailure(t *testing.T) {
	n := newTestNormalizer(t)
	for _, in := range []string{"Unknown", "  ", "99/99/2025", "sometime in summer", "45th June 2025", "17/06/202", "1/2/345"} {
		assert.Equal(t, in, n.Normalize(in), "input %q", in)
	}
	assert.Equal(t, "", n.Normalize(""))
}

func TestNormalize_Idempotent(t *testing.T) {
	n := New(nil)
	inputs := []string{"17/06/2025", "Seventeenth June 2025", "2025-06-17", "17/06/85", "garbage"}
	for _, in := range inputs {
		once := n.Normalize(in)
		assert.Equal(t, once, n.Normalize(once), "input %q", in)
	}
}

func TestNormalize_EveryWrittenDay(t *testing.T) {
	n := New(nil)
	for word, day := range dayNumbers {
		input := strings.ToUpper(word[:1]) + word[1:] + " June 2025"
		assert.Equal(t, fmt.Sprintf("%02d/06/2025", day), n.Normalize(input), "input %q", input)
	}
}

func TestNormalize_EveryMonthName(t *testing.T) {
	n := New(nil)
	for name, month := range monthNumbers {
		input := "the 9th of " + name + " 1999"
		assert.Equal(t, fmt.Sprintf("09/%02d/1999", month), n.Normalize(input), "input %q", input)
	}
}

// ==========================
// ProcessData
// ==========================

func TestIsDateField(t *testing.T) {
	for _, name := range []string{"dateOfDeath", "Date Issued", "BIRTHDAY", "placeOfDeath", "deceasedCertificateIssued", "registrationDate"} {
		assert.True(t, IsDateField(name), name)
	}
	for _, name := range []string{"deceasedFirstName", "funeralCost", "relationshipToDeceased"} {
		assert.False(t, IsDateField(name), name)
	}
}

func TestProcessData(t *testing.T) {
	data := models.ExtractedData{
		"deceasedDateOfDeath": models.FieldEntry("Seventeenth June 2025", "printed"),
		"deceasedDateOfBirth": models.FieldEntry("01/02/1950", "printed"),
		"funeralDateIssued":   models.FieldEntry("not legible", "footer"),
		"deceasedFirstName":   models.FieldEntry("3 June 2025", "odd"),
		"dateList":            models.OpaqueEntry([]string{"1 June 2025"}),
	}
	data.SetMetadata("_dateExtracted", "1 June 2025")

	out, changed := newTestNormalizer(t).ProcessData(data)

	assert.Equal(t, 1, changed)
	got := out["deceasedDateOfDeath"].Field
	assert.Equal(t, "17/06/2025", got.Value)
	assert.Equal(t, "Seventeenth June 2025", got.OriginalValue)
	assert.Equal(t, "printed (Normalized from: Seventeenth June 2025)", got.Reasoning)

	assert.Equal(t, data["deceasedDateOfBirth"], out["deceasedDateOfBirth"])
	assert.Equal(t, data["funeralDateIssued"], out["funeralDateIssued"])
	assert.Equal(t, data["deceasedFirstName"], out["deceasedFirstName"])
	assert.Equal(t, data["dateList"], out["dateList"])
	assert.Equal(t, data["_dateExtracted"], out["_dateExtracted"])

	require.Equal(t, "Seventeenth June 2025", data["deceasedDateOfDeath"].Field.Value, "input must not be mutated")
}

// ==========================
// Benchmarks
// ==========================

func BenchmarkNormalize(b *testing.B) {
	n := New(nil)
	inputs := []string{"17/06/2025", "Seventeenth June 2025", "2025/06/17", "the 3rd of march 2024", "garbage"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n.Normalize(inputs[i%len(inputs)])
	}
}
