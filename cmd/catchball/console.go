package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/ttacon/chalk"

	"github.com/ayusman/catchball/internal/ball"
	"github.com/ayusman/catchball/internal/gameplay"
)

// console prints game notifications as colored lines.
type console struct {
	out io.Writer
}

func newConsole(out io.Writer) *console {
	return &console{out: out}
}

func (c *console) print(color chalk.Color, format string, args ...any) {
	fmt.Fprint(c.out, color, fmt.Sprintf(format, args...), chalk.Reset, "\n")
}

func (c *console) StateChanged(state gameplay.State) {
	if state == gameplay.Running {
		c.print(chalk.Green, "Session started")
		return
	}
	c.print(chalk.White, "Waiting for both hands up")
}

func (c *console) ProgressUpdated(selected bool, fraction float64) {
	if selected {
		c.print(chalk.Cyan, "Starting in... %.0f%%", fraction*100)
	}
}

func (c *console) ScoreChanged(text string) {
	c.print(chalk.White, "%s", strings.ReplaceAll(text, "\n", " | "))
}

func (c *console) SessionSummary(summary gameplay.Summary) {
	color := chalk.Yellow
	switch summary.Verdict {
	case gameplay.VerdictGreat:
		color = chalk.Green
	case gameplay.VerdictPoor:
		color = chalk.Red
	}
	c.print(color, "%s", strings.ReplaceAll(summary.Text, "\n", " | "))
}

func (c *console) BallOutcome(outcome ball.Outcome, contact ball.Contact) {
	switch outcome {
	case ball.OutcomeCatch:
		other, _ := contact.Other()
		c.print(chalk.Green, "Caught! (marker %d)", other.Index)
	case ball.OutcomeMiss:
		c.print(chalk.Magenta, "Missed")
	case ball.OutcomeLaunch:
		c.print(chalk.Blue, "Ball launched")
	}
}
