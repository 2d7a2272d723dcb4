package statistics

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Counts holds the footer statistics of a document.
type Counts struct {
	Words      int
	Characters int
}

// Count measures plain text. Words are whitespace separated runs; characters are runes
// excluding line breaks.
func Count(plain string) Counts {
	chars := utf8.RuneCountInString(plain) - strings.Count(plain, "\n") - strings.Count(plain, "\r")
	return Counts{
		Words:      len(strings.Fields(plain)),
		Characters: chars,
	}
}

// String renders the counts the way the status footer shows them.
func (c Counts) String() string {
	return fmt.Sprintf("Words: %d  Characters: %d", c.Words, c.Characters)
}
