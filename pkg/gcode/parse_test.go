package gcode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name    string
		in      string
		command string
		args    []string
	}{
		{
			name:    "config line",
			in:      "M620 N1 A1 B2 C3 F4 U5 V6 W7 X1 Y0",
			command: "M620",
			args:    []string{"N1", "A1", "B2", "C3", "F4", "U5", "V6", "W7", "X1", "Y0"},
		},
		{
			name:    "lower case",
			in:      "m600 n1 f4",
			command: "M600",
			args:    []string{"N1", "F4"},
		},
		{
			name:    "fraction",
			in:      "G0 N0 A107.5",
			command: "G0",
			args:    []string{"N0", "A107.5"},
		},
		{
			name: "no command",
			in:   "N1 A5",
			args: []string{"N1", "A5"},
		},
		{
			name: "blank",
			in:   "   ",
		},
		{
			name:    "tabs",
			in:      "M600\tN1\tF4",
			command: "M600",
			args:    []string{"N1", "F4"},
		},
		{
			name:    "empty comment",
			in:      "M600 N1 ()",
			command: "M600",
			args:    []string{"N1"},
		},
		{
			name:    "comment",
			in:      "M621 N0 (report)",
			command: "M621",
			args:    []string{"N0"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			line, err := Parse(tc.in)
			require.NoError(t, err)
			if tc.command == "" {
				require.Nil(t, line.Command)
			} else {
				require.NotNil(t, line.Command)
				require.Equal(t, tc.command, line.Command.String())
			}
			var args []string
			for _, w := range line.Arguments {
				args = append(args, w.String())
			}
			require.Equal(t, tc.args, args)
		})
	}
}

func TestParseSyntaxError(t *testing.T) {
	_, err := Parse("M600 N1.2.3")
	require.ErrorIs(t, err, ErrSyntax)
	require.Equal(t, "invalid syntax", err.Error())
}

func TestParseTooManyWords(t *testing.T) {
	_, err := Parse("M620 N1 A1 B2 C3 F4 U5 V6 W7 X1 Y0 A1 B2 C3 F4 U5 V6")
	require.ErrorIs(t, err, ErrTooManyWords)
}

func TestLineHelpers(t *testing.T) {
	line, err := Parse("M600 N2 F4")
	require.NoError(t, err)
	require.True(t, line.Command.Is('M', 600))
	require.False(t, line.Command.Is('G', 600))
	v, ok := line.Argument('F')
	require.True(t, ok)
	require.Equal(t, "4", v.String())
	_, ok = line.Argument('X')
	require.False(t, ok)
	require.Equal(t, "M600 N2 F4", line.String())
}
