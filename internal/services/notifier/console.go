package notifier

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var consoleStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("201")).
	Bold(true)

// Console prints notifications to a terminal.
type Console struct {
	w io.Writer
}

// NewConsole writes to w, stdout when nil.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w}
}

func (c *Console) Send(_ context.Context, message string) error {
	_, err := fmt.Fprintln(c.w, "\n"+consoleStyle.Render("NOTIFICATION: "+message))
	return err
}
