package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Console message kinds, one color each.
var (
	agentPrefixStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	aiCallStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	unitTestStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("201"))
	issueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// ConsoleHook prints a human-readable trace of the run: one colored line per
// oracle call, verification step and issue.
type ConsoleHook struct {
	Writer io.Writer // Defaults to os.Stdout
}

// NewConsoleHook creates a console hook that prints to stdout.
func NewConsoleHook() *ConsoleHook {
	return &ConsoleHook{Writer: os.Stdout}
}

func (h *ConsoleHook) print(position string, style lipgloss.Style, msg string) {
	w := h.Writer
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintf(w, "%s %s\n", agentPrefixStyle.Render("Agent: "+position+":"), style.Render(msg))
}

func (h *ConsoleHook) OnAgentStart(_ context.Context, position, objective string) {
	h.print(position, aiCallStyle, "starting: "+objective)
}
func (h *ConsoleHook) OnStateChange(context.Context, string, AgentState, AgentState) {}
func (h *ConsoleHook) OnOracleCall(_ context.Context, position, operation string) {
	h.print(position, aiCallStyle, operation)
}
func (h *ConsoleHook) OnRetryAttempt(_ context.Context, position, operation string, attempt int, delay time.Duration, err error) {
	h.print(position, issueStyle, fmt.Sprintf("%s failed (%v), retrying in %s", operation, err, delay.Round(time.Millisecond)))
}
func (h *ConsoleHook) OnRetryExhausted(context.Context, string, string, error) {}
func (h *ConsoleHook) OnBuild(_ context.Context, position string, r BuildReport) {
	if r.Success {
		h.print(position, unitTestStyle, "Backend code unit testing: build successful")
		return
	}
	h.print(position, issueStyle, fmt.Sprintf("Backend code unit testing: build failed (bug count %d)", r.BugCount))
}
func (h *ConsoleHook) OnProbe(_ context.Context, position string, r ProbeReport) {
	switch {
	case r.Err != nil:
		h.print(position, issueStyle, fmt.Sprintf("Error checking %s: %v", r.Target, r.Err))
	case !r.OK():
		h.print(position, issueStyle, fmt.Sprintf("Status code %d for %s", r.Status, r.Target))
	}
}
func (h *ConsoleHook) OnNotice(_ context.Context, position, message string) {
	h.print(position, unitTestStyle, message)
}
func (h *ConsoleHook) OnIssue(_ context.Context, position, message string) {
	h.print(position, issueStyle, message)
}
func (h *ConsoleHook) OnAgentDone(_ context.Context, position string, err error) {
	if err != nil {
		h.print(position, issueStyle, "stopped: "+err.Error())
	}
}
