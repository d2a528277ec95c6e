package output

import (
	"strings"

	"github.com/fatih/color"
)

// SeparatorWidth is the width of separator lines in error output.
const SeparatorWidth = 60

// Separator returns a separator line of the default width.
func Separator() string {
	return strings.Repeat("─", SeparatorWidth)
}

// RedSeparator returns a red separator line for errors.
func RedSeparator() string {
	return color.New(color.FgRed).Sprint(Separator())
}
