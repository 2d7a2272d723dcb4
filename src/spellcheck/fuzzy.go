package spellcheck

import (
	"strings"

	"github.com/sajari/fuzzy"
)

// FuzzyChecker answers from a sajari/fuzzy model trained on a dictionary.
type FuzzyChecker struct {
	model *fuzzy.Model
	limit int
}

// NewFuzzyChecker trains a model on the default dictionary.
func NewFuzzyChecker() *FuzzyChecker {
	return NewFuzzyCheckerWithWords(defaultDictionary)
}

// NewFuzzyCheckerWithWords trains a model on words.
func NewFuzzyCheckerWithWords(words []string) *FuzzyChecker {
	model := fuzzy.NewModel()
	model.SetThreshold(1)
	model.SetDepth(2)
	lowered := make([]string, len(words))
	for i, w := range words {
		lowered[i] = strings.ToLower(w)
	}
	model.Train(lowered)
	return &FuzzyChecker{model: model, limit: 3}
}

// Check validates a word and returns up to three suggestions.
func (c *FuzzyChecker) Check(word string) (bool, []string) {
	if c == nil || c.model == nil {
		return true, nil
	}
	w := strings.ToLower(word)
	if c.model.SpellCheck(w) == w {
		return true, nil
	}
	return false, c.model.SpellCheckSuggestions(w, c.limit)
}

// NewChecker builds the checker named by kind: "simple", "fuzzy" or "languagetool".
func NewChecker(kind string) (Checker, bool) {
	switch strings.ToLower(kind) {
	case "", "simple":
		return NewSimpleChecker(), true
	case "fuzzy":
		return NewFuzzyChecker(), true
	case "languagetool":
		return NewLanguageToolAdapter(), true
	default:
		return nil, false
	}
}
