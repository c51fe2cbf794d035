// Package format renders classified frames for the live/offline capture
// report: a compact one-line-per-frame view, a verbose debug dump, and a
// machine-readable JSON line, selected by --debugging / --format.
package format

import (
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"centrifuge/internal/centrifuge"
)

// Formatter renders one classified frame as a string: a single line for
// Compact and JSON, several lines for Debug.
type Formatter interface {
	Format(ts time.Time, tree *centrifuge.PacketTree) string
}

// isTTY reports whether stdout is an interactive terminal, gating ANSI
// color in the compact formatter. Piping output to a file or another
// process disables color automatically, the same convention most CLI
// tools in this space follow.
func isTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
