package fieldmap

import (
	"regexp"
	"strings"

	"fep-agent/internal/models"
)

type valueType string

const (
	valueDate         valueType = "date"
	valueMonetary     valueType = "monetary"
	valueAddress      valueType = "address"
	valueRelationship valueType = "relationship"
	valueText         valueType = "text"
)

var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4}`),
		regexp.MustCompile(`\d{1,2}-\d{1,2}-\d{2,4}`),
		regexp.MustCompile(`\d{1,2}\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+\d{2,4}`),
	}
	moneyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`£\s*\d+(?:\.\d{2})?`),
		regexp.MustCompile(`\$\s*\d+(?:\.\d{2})?`),
		regexp.MustCompile(`€\s*\d+(?:\.\d{2})?`),
		regexp.MustCompile(`\d+(?:\.\d{2})?\s*(?:pounds|gbp|usd|eur)`),
	}
	addressTerms      = []string{"street", "road", "avenue", "lane", "drive", "way", "boulevard", "court"}
	relationshipTerms = []string{"husband", "wife", "spouse", "partner", "child", "son", "daughter", "parent", "father", "mother", "brother", "sister", "sibling"}
)

// typeCompatibility lists the field types each inferred value type may fill.
var typeCompatibility = map[valueType][]models.FieldType{
	valueDate:         {models.FieldDate},
	valueMonetary:     {models.FieldNumber, models.FieldText},
	valueAddress:      {models.FieldText, models.FieldTextarea},
	valueRelationship: {models.FieldText, models.FieldRadio, models.FieldSelect},
	valueText:         {models.FieldText, models.FieldTextarea, models.FieldRadio, models.FieldSelect, models.FieldCheckbox},
}

// inferValueType checks date, money, address and relationship patterns in
// that order; the first hit wins.
func inferValueType(value string) valueType {
	v := strings.ToLower(value)
	for _, p := range datePatterns {
		if p.MatchString(v) {
			return valueDate
		}
	}
	for _, p := range moneyPatterns {
		if p.MatchString(v) {
			return valueMonetary
		}
	}
	if containsAny(v, addressTerms) {
		return valueAddress
	}
	if containsAny(v, relationshipTerms) {
		return valueRelationship
	}
	return valueText
}

func compatible(t valueType, ft models.FieldType) bool {
	if ft == "" {
		ft = models.FieldText
	}
	for _, allowed := range typeCompatibility[t] {
		if allowed == ft {
			return true
		}
	}
	return false
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
