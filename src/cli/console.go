package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Console wraps standard IO for prompting.
type Console struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewConsole constructs a console facade.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{
		reader: bufio.NewReader(in),
		writer: out,
	}
}

// ReadLine reads a line without newline characters.
func (c *Console) ReadLine() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil && len(line) == 0 {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Print writes raw text.
func (c *Console) Print(text string) {
	fmt.Fprint(c.writer, text)
}

// Println writes a line with newline.
func (c *Console) Println(text string) {
	fmt.Fprintln(c.writer, text)
}

// ConfirmSave prompts user for saving decision.
func (c *Console) ConfirmSave(path string) (bool, error) {
	for {
		c.Print(fmt.Sprintf("%s has unsaved changes, save? (y/n): ", path))
		answer, err := c.ReadLine()
		if err != nil {
			return false, err
		}
		switch strings.TrimSpace(strings.ToLower(answer)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			c.Println("please answer y or n")
		}
	}
}
