// internal/workers/document-intake/extract-form-data/config.go
package extractformdata

import (
	"time"

	"fep-agent/internal/common/camunda"
)

// PromptField is one application field the extraction prompt asks for.
type PromptField struct {
	Name        string
	Description string
}

type Config struct {
	Timeout      time.Duration
	EvidenceDir  string
	RawTextLimit int
	// Concurrency bounds how many files are processed at once.
	Concurrency int
	Model       string
	MaxTokens   int
	// PromptFields lists the application fields offered to the model. Empty
	// means DefaultPromptFields. Form schema fields not listed are appended.
	PromptFields []PromptField

	// Validator checks job variables before they are decoded. Optional.
	Validator camunda.VariablesValidator
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      3 * time.Minute,
		EvidenceDir:  "uploads/evidence",
		RawTextLimit: 1000,
		Concurrency:  4,
	}
}

// DefaultPromptFields is the full funeral expenses application.
func DefaultPromptFields() []PromptField {
	return []PromptField{
		{"firstName", "Applicant's first name"},
		{"lastName", "Applicant's last name"},
		{"dateOfBirth", "Applicant's date of birth"},
		{"nationalInsuranceNumber", "Applicant's National Insurance number"},
		{"addressLine1", "Address line 1"},
		{"addressLine2", "Address line 2"},
		{"town", "Town or city"},
		{"county", "County"},
		{"postcode", "Postcode"},
		{"phoneNumber", "Phone number"},
		{"email", "Email address"},
		{"partnerFirstName", "Partner's first name"},
		{"partnerLastName", "Partner's last name"},
		{"partnerDateOfBirth", "Partner's date of birth"},
		{"partnerNationalInsuranceNumber", "Partner's National Insurance number"},
		{"partnerBenefitsReceived", "Benefits the partner receives"},
		{"partnerSavings", "Partner's savings"},
		{"deceasedFirstName", "Deceased's first name"},
		{"deceasedLastName", "Deceased's last name"},
		{"deceasedDateOfBirth", "Deceased's date of birth"},
		{"deceasedDateOfDeath", "Deceased's date of death"},
		{"deceasedPlaceOfDeath", "Place of death"},
		{"deceasedCauseOfDeath", "Cause of death"},
		{"deceasedCertifyingDoctor", "Certifying doctor"},
		{"deceasedCertificateIssued", "Certificate issued"},
		{"relationshipToDeceased", "Relationship to deceased"},
		{"supportingEvidence", "Supporting evidence"},
		{"responsibilityStatement", "Responsibility statement"},
		{"responsibilityDate", "Responsibility date"},
		{"benefitType", "Type of benefit"},
		{"benefitReferenceNumber", "Benefit reference number"},
		{"benefitLetterDate", "Date on benefit letter"},
		{"householdBenefits", "Household benefits (array)"},
		{"incomeSupportDetails", "Details about Income Support"},
		{"disabilityBenefits", "Disability benefits (array)"},
		{"carersAllowance", "Carer's Allowance"},
		{"carersAllowanceDetails", "Carer's Allowance details"},
		{"funeralDirector", "Funeral director"},
		{"funeralEstimateNumber", "Funeral estimate number"},
		{"funeralDateIssued", "Date funeral estimate issued"},
		{"funeralTotalEstimatedCost", "Total estimated funeral cost"},
		{"funeralDescription", "Funeral description"},
		{"funeralContact", "Funeral contact"},
		{"evidence", "Evidence documents (array)"},
	}
}
