package gcode

import (
	"errors"
	"strings"

	tokenizer "github.com/256dpi/gcode"
)

// ErrSyntax indicates a line the tokenizer can't split into words.
var ErrSyntax = errors.New("invalid syntax")

// Parse tokenizes a line of text.
// Letters are case-insensitive and comments are ignored.
func Parse(s string) (Line, error) {
	var line Line
	s = strings.TrimSpace(s)
	if s == "" {
		return line, nil
	}
	s = strings.ReplaceAll(s, "\t", " ")
	parsed, err := tokenizer.ParseLine(strings.ToUpper(s))
	if err != nil {
		return line, ErrSyntax
	}
	if len(parsed.Codes) > MaxWords {
		return line, ErrTooManyWords
	}
	for _, code := range parsed.Codes {
		// comments come as codes without a letter.
		if code.Letter == "" {
			continue
		}
		if len(code.Letter) != 1 || code.Letter[0] < 'A' || code.Letter[0] > 'Z' {
			return line, ErrSyntax
		}
		val, err := ValueFromFloat(code.Value)
		if err != nil {
			return line, err
		}
		w := Word{Letter: code.Letter[0], Value: val}
		if line.Command == nil && len(line.Arguments) == 0 && isCommandLetter(w.Letter) {
			line.Command = &w
			continue
		}
		line.Arguments = append(line.Arguments, w)
	}
	return line, nil
}
