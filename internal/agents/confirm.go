package agents

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// SafetyWarning is shown before generated code is built and run.
const SafetyWarning = "WARNING: You are about to run code written entirely by AI. " +
	"Review your code and confirm you wish to continue."

// Confirmer gates the execution of generated code.
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// AutoConfirmer approves every request. Used with --yes.
type AutoConfirmer struct{}

func (AutoConfirmer) Confirm(context.Context, string) (bool, error) { return true, nil }

var warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

// TerminalConfirmer asks the operator on a terminal. Without a terminal it
// denies, since nobody can review the code.
//
// In is read by a single goroutine for the lifetime of the confirmer, so a
// line typed while no prompt is waiting goes to the next Confirm.
type TerminalConfirmer struct {
	In          io.Reader
	Out         io.Writer
	Interactive bool

	once    sync.Once
	lines   chan string
	readErr error // set before lines is closed
}

// NewTerminalConfirmer reads from stdin and writes to stdout.
func NewTerminalConfirmer() *TerminalConfirmer {
	fd := os.Stdin.Fd()
	return &TerminalConfirmer{
		In:          os.Stdin,
		Out:         os.Stdout,
		Interactive: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
}

func (c *TerminalConfirmer) startReader() {
	c.lines = make(chan string)
	go func() {
		scanner := bufio.NewScanner(c.In)
		for scanner.Scan() {
			c.lines <- strings.TrimSpace(scanner.Text())
		}
		c.readErr = scanner.Err()
		if c.readErr == nil {
			c.readErr = io.EOF
		}
		close(c.lines)
	}()
}

// Confirm implements Confirmer. Any answer other than 1 or 2 asks again.
func (c *TerminalConfirmer) Confirm(ctx context.Context, message string) (bool, error) {
	if !c.Interactive {
		fmt.Fprintln(c.Out, "stdin is not a terminal; refusing to run generated code without --yes")
		return false, nil
	}
	c.once.Do(c.startReader)

	fmt.Fprintln(c.Out, warningStyle.Render(message))
	for {
		fmt.Fprintln(c.Out, "[1] All good")
		fmt.Fprintln(c.Out, "[2] Stop this project")

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case answer, ok := <-c.lines:
			if !ok {
				if errors.Is(c.readErr, io.EOF) {
					return false, fmt.Errorf("confirmation: input closed")
				}
				return false, fmt.Errorf("confirmation: %w", c.readErr)
			}
			switch answer {
			case "1":
				return true, nil
			case "2":
				return false, nil
			default:
				fmt.Fprintln(c.Out, "Invalid input. Please select '1' or '2'")
			}
		}
	}
}
