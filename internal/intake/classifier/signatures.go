package classifier

import (
	"regexp"

	"fep-agent/internal/models"
)

// TableVersion identifies the signature table below. Bump it whenever a
// pattern, weight or rename changes so audit rows can be correlated.
const TableVersion = "2025.1"

// Rule is one weighted detection pattern.
type Rule struct {
	Type    models.DocumentType
	Pattern *regexp.Regexp
	Weight  int
}

// Signature groups the rules and legacy field renames for one type.
type Signature struct {
	Type    models.DocumentType
	Rules   []Rule
	Renames map[string]string
}

func rules(t models.DocumentType, patterns ...string) []Rule {
	out := make([]Rule, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, Rule{Type: t, Pattern: regexp.MustCompile(`(?i)` + p), Weight: 2})
	}
	return out
}

// DefaultSignatures returns the known document types in registration
// order. Classification ties resolve to the earlier entry.
func DefaultSignatures() []Signature {
	return []Signature{
		{
			Type: models.DeathCertificate,
			Rules: rules(models.DeathCertificate,
				`death\s+certificate`,
				`certificate\s+of\s+death`,
				`cause\s+of\s+death`,
				`date\s+of\s+death`,
				`registration\s+of\s+death`,
			),
			Renames: map[string]string{
				"dateOfDeath":  "deceasedDateOfDeath",
				"dateOfBirth":  "deceasedDateOfBirth",
				"firstName":    "deceasedFirstName",
				"lastName":     "deceasedLastName",
				"name":         "deceasedFirstName",
				"surname":      "deceasedLastName",
				"placeOfDeath": "deceasedPlaceOfDeath",
			},
		},
		{
			Type: models.BirthCertificate,
			Rules: rules(models.BirthCertificate,
				`birth\s+certificate`,
				`certificate\s+of\s+birth`,
				`date\s+of\s+birth`,
				`registration\s+of\s+birth`,
			),
			Renames: map[string]string{
				"dateOfBirth":  "dateOfBirth",
				"firstName":    "firstName",
				"lastName":     "lastName",
				"name":         "firstName",
				"surname":      "lastName",
				"placeOfBirth": "placeOfBirth",
			},
		},
		{
			Type: models.FuneralInvoice,
			Rules: rules(models.FuneralInvoice,
				`funeral\s+invoice`,
				`funeral\s+director`,
				`funeral\s+bill`,
				`funeral\s+service`,
				`cremation`,
				`burial`,
			),
			Renames: map[string]string{
				"invoiceNumber": "funeralEstimateNumber",
				"date":          "funeralDateIssued",
				"dateIssued":    "funeralDateIssued",
				"total":         "funeralTotalEstimatedCost",
				"amount":        "funeralTotalEstimatedCost",
				"cost":          "funeralTotalEstimatedCost",
				"description":   "funeralDescription",
				"services":      "funeralDescription",
			},
		},
		{
			Type: models.BenefitLetter,
			Rules: rules(models.BenefitLetter,
				`benefit\s+letter`,
				`department\s+for\s+work\s+and\s+pensions`,
				`dwp`,
				`universal\s+credit`,
				`pension\s+credit`,
				`income\s+support`,
			),
			Renames: map[string]string{
				"benefitType": "benefitType",
				"startDate":   "benefitStartDate",
				"endDate":     "benefitEndDate",
				"amount":      "benefitAmount",
				"reference":   "benefitReference",
			},
		},
	}
}

// filenameHints is the fallback used when content scoring is inconclusive.
var filenameHints = []struct {
	docType models.DocumentType
	terms   []string
}{
	{models.DeathCertificate, []string{"death"}},
	{models.BirthCertificate, []string{"birth"}},
	{models.FuneralInvoice, []string{"invoice", "bill", "funeral", "director"}},
	{models.BenefitLetter, []string{"benefit", "letter", "dwp", "pension"}},
}

// displayHints drives GuessDisplayType, checked in order.
var displayHints = []struct {
	label string
	terms []string
}{
	{"Death Certificate", []string{"death", "deceased"}},
	{"Funeral Bill", []string{"funeral", "burial"}},
	{"Proof of Benefits", []string{"benefit", "payment", "allowance"}},
	{"Proof of Relationship", []string{"relation", "family"}},
	{"Proof of Responsibility", []string{"responsibility", "respons"}},
	{"Bill or Invoice", []string{"bill", "invoice"}},
	{"Identification Document", []string{"id", "passport", "license"}},
}
