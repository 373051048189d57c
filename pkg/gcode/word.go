package gcode

import (
	"errors"
	"strings"
)

// MaxWords is the maximum number of words accepted on a line.
const MaxWords = 16

// ErrTooManyWords indicates a line carries more than MaxWords words.
var ErrTooManyWords = errors.New("too many words")

// Word is a letter with its value, e.g. M620 or A107.5.
type Word struct {
	Letter byte
	Value  Value
}

// String renders the word the way it is written on the wire.
func (w Word) String() string {
	return string(w.Letter) + w.Value.String()
}

// Is checks the word against a letter and an integer code.
func (w Word) Is(letter byte, code int64) bool {
	return w.Letter == letter && w.Value.Equal(NewValue(code))
}

// Line is one parsed command line.
type Line struct {
	// Command is nil if the line carries no G, M or T word first.
	Command   *Word
	Arguments []Word
}

// Argument finds the first argument with the letter.
func (l Line) Argument(letter byte) (Value, bool) {
	for _, w := range l.Arguments {
		if w.Letter == letter {
			return w.Value, true
		}
	}
	return Value{}, false
}

// String renders the line with single spaces between words.
func (l Line) String() string {
	words := make([]string, 0, len(l.Arguments)+1)
	if l.Command != nil {
		words = append(words, l.Command.String())
	}
	for _, w := range l.Arguments {
		words = append(words, w.String())
	}
	return strings.Join(words, " ")
}

func isCommandLetter(letter byte) bool {
	switch letter {
	case 'G', 'M', 'T':
		return true
	}
	return false
}
