package spellcheck

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Checker validates words and returns suggestions for corrections.
type Checker interface {
	Check(word string) (bool, []string)
}

// Service runs a Checker over document text.
type Service struct {
	checker Checker
}

// NewService constructs a spell check service.
func NewService(checker Checker) *Service {
	return &Service{checker: checker}
}

// TextIssue represents a misspelling at a 1-based line and column of the document text.
type TextIssue struct {
	Line        int
	Column      int
	Word        string
	Suggestions []string
}

// CheckLines evaluates each line of a text document.
func (s *Service) CheckLines(lines []string) []TextIssue {
	if s == nil || s.checker == nil {
		return nil
	}
	var issues []TextIssue
	for i, line := range lines {
		for _, pos := range extractWordPositions(line) {
			ok, suggestions := s.checker.Check(pos.word)
			if ok {
				continue
			}
			issues = append(issues, TextIssue{
				Line:        i + 1,
				Column:      pos.column,
				Word:        pos.word,
				Suggestions: suggestions,
			})
		}
	}
	return issues
}

// CheckText evaluates the plain-text projection of a document line by line.
func (s *Service) CheckText(plain string) []TextIssue {
	plain = strings.ReplaceAll(plain, "\r\n", "\n")
	return s.CheckLines(strings.Split(plain, "\n"))
}

// SimpleChecker is a small dictionary-backed checker suitable for offline use.
type SimpleChecker struct {
	words map[string]struct{}
}

// NewSimpleChecker builds the default simple checker.
func NewSimpleChecker() *SimpleChecker {
	checker := &SimpleChecker{words: map[string]struct{}{}}
	for _, w := range defaultDictionary {
		checker.words[w] = struct{}{}
	}
	return checker
}

// Check validates a word against the dictionary, returning candidate suggestions.
func (c *SimpleChecker) Check(word string) (bool, []string) {
	if c == nil {
		return true, nil
	}
	w := strings.ToLower(word)
	if _, ok := c.words[w]; ok {
		return true, nil
	}
	candidates := collectSuggestions(w, c.words)
	return false, candidates
}

var defaultDictionary = []string{
	"a", "about", "after", "all", "an", "and", "are", "as", "at", "be", "bold", "but", "by",
	"cat", "content", "data", "delete", "document", "dog", "editor", "export", "file", "find",
	"for", "from", "has", "have", "hello", "highlight", "image", "import", "in", "is", "it",
	"italic", "link", "list", "mat", "not", "of", "on", "or", "page", "paragraph", "please",
	"price", "receive", "redo", "replace", "sale", "sat", "save", "search", "source", "spell",
	"table", "text", "that", "the", "this", "title", "to", "undo", "updates", "was", "with",
	"word", "world",
}

type wordPosition struct {
	word   string
	column int
}

func extractWordPositions(line string) []wordPosition {
	var result []wordPosition
	var builder strings.Builder
	column := 1
	startColumn := 1
	for _, r := range line {
		if unicode.IsLetter(r) {
			if builder.Len() == 0 {
				startColumn = column
			}
			builder.WriteRune(r)
		} else {
			if builder.Len() > 0 {
				result = append(result, wordPosition{word: builder.String(), column: startColumn})
				builder.Reset()
			}
		}
		column++
	}
	if builder.Len() > 0 {
		result = append(result, wordPosition{word: builder.String(), column: startColumn})
	}
	return result
}

func collectSuggestions(word string, dictionary map[string]struct{}) []string {
	type candidate struct {
		word string
		dist int
	}
	var candidates []candidate
	for dictWord := range dictionary {
		dist := levenshtein.ComputeDistance(word, dictWord)
		if dist <= 2 {
			candidates = append(candidates, candidate{word: dictWord, dist: dist})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist == candidates[j].dist {
			return candidates[i].word < candidates[j].word
		}
		return candidates[i].dist < candidates[j].dist
	})
	limit := 3
	if len(candidates) < limit {
		limit = len(candidates)
	}
	result := make([]string, 0, limit)
	for i := 0; i < limit; i++ {
		result = append(result, candidates[i].word)
	}
	return result
}
