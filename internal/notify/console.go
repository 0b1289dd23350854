package notify

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/lmoreno/microhunt/internal/cli"
	"github.com/lmoreno/microhunt/internal/model"
	"github.com/lmoreno/microhunt/internal/service"
)

// ConsoleNotifier renders outcomes to a terminal. It is the default
// sink when no email delivery is configured.
type ConsoleNotifier struct {
	out io.Writer
}

// NewConsoleNotifier creates a notifier writing styled output to out.
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{out: out}
}

// Notify prints the outcome report in a styled box.
func (n *ConsoleNotifier) Notify(_ context.Context, outcome service.Outcome) error {
	title := Subject(outcome)
	switch outcome.Status {
	case model.StatusPass:
		title = cli.FormatSuccess(title)
	case model.StatusChat:
		title = cli.FormatInfo(title)
	default:
		title = cli.FormatWarning(title)
	}

	var body strings.Builder
	if m := outcome.Metrics; m != nil {
		fmt.Fprintf(&body, "Sector:           %s\n", m.Sector)
		fmt.Fprintf(&body, "Price:            $%.2f\n", m.Price)
		fmt.Fprintf(&body, "Market Cap:       $%.0f\n", m.MarketCap)
		fmt.Fprintf(&body, "Intrinsic Value:  $%.2f\n", m.IntrinsicValue)
		fmt.Fprintf(&body, "Margin of Safety: %s\n\n", m.MarginOfSafety)
	}
	body.WriteString(outcome.Report)

	if _, err := fmt.Fprintln(n.out, cli.RenderBox(title, body.String())); err != nil {
		return fmt.Errorf("writing console report: %w", err)
	}
	return nil
}
