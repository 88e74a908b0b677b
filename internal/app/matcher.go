package app

import (
	"strings"

	"gridpool-service/internal/domain"
)

// IsCorrect reports whether a predicted answer matches the official one
// for the given question type. It is pure and stateless.
//
// Roster picks, multiple choice, numeric and head-to-head answers compare
// by case-sensitive exact equality: roster labels and official answers are
// drawn from the same canonical label set, and numeric answers are bucket
// labels ("16", "<16", "6+"), not numbers. Boolean answers are normalized
// to one of two canonical tokens before comparing.
func IsCorrect(questionType domain.QuestionType, predicted, official string) bool {
	if predicted == "" || official == "" {
		return false
	}
	switch questionType {
	case domain.QuestionBoolean:
		p, pok := normalizeBoolean(predicted)
		o, ook := normalizeBoolean(official)
		return pok && ook && p == o
	default:
		return predicted == official
	}
}

// normalizeBoolean maps the fixed tokens the UI writes onto "yes"/"no".
func normalizeBoolean(answer string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "true", "1":
		return "yes", true
	case "no", "false", "0":
		return "no", true
	default:
		return "", false
	}
}
