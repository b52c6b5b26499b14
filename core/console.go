package orchestration

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/koscakluka/ema-clips/core/llms"
	"github.com/muesli/reflow/wordwrap"
)

const bannerWidth = 80

// Messages are the user facing strings of the console.
type Messages struct {
	Prompt       string
	EmptyInput   string
	Farewell     string
	ErrorPrefix  string
	ResponseTime string
	Usage        string
	Clips        string
}

func DefaultMessages() Messages {
	return Messages{
		Prompt:       "Siz: ",
		EmptyInput:   "Iltimos, xabar kiriting!",
		Farewell:     "Suhbat tugadi!",
		ErrorPrefix:  "Xatolik yuz berdi: ",
		ResponseTime: "Javob vaqti: ",
		Usage:        "Tokenlar: ",
		Clips:        "Mavjud audiolar: ",
	}
}

// Console writes the conversation to out and timing/usage diagnostics to diag.
// Model text is written as is, everything else may be styled.
type Console struct {
	out  io.Writer
	diag io.Writer

	messages Messages

	promptStyle lipgloss.Style
	noticeStyle lipgloss.Style
	errorStyle  lipgloss.Style
	diagStyle   lipgloss.Style

	// midLine is set while model text was written without a line break
	midLine bool
}

func NewConsole(out, diag io.Writer, messages Messages) *Console {
	if out == nil {
		out = os.Stdout
	}
	if diag == nil {
		diag = os.Stderr
	}

	outRenderer := lipgloss.NewRenderer(out)
	diagRenderer := lipgloss.NewRenderer(diag)
	return &Console{
		out:         out,
		diag:        diag,
		messages:    withDefaultMessages(messages),
		promptStyle: outRenderer.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		noticeStyle: outRenderer.NewStyle().Foreground(lipgloss.Color("11")),
		errorStyle:  outRenderer.NewStyle().Foreground(lipgloss.Color("9")),
		diagStyle:   diagRenderer.NewStyle().Faint(true),
	}
}

func withDefaultMessages(messages Messages) Messages {
	defaults := DefaultMessages()
	for _, field := range []struct {
		value    *string
		fallback string
	}{
		{&messages.Prompt, defaults.Prompt},
		{&messages.EmptyInput, defaults.EmptyInput},
		{&messages.Farewell, defaults.Farewell},
		{&messages.ErrorPrefix, defaults.ErrorPrefix},
		{&messages.ResponseTime, defaults.ResponseTime},
		{&messages.Usage, defaults.Usage},
		{&messages.Clips, defaults.Clips},
	} {
		if *field.value == "" {
			*field.value = field.fallback
		}
	}
	return messages
}

func (c *Console) Prompt() {
	c.breakLine()
	label := strings.TrimRight(c.messages.Prompt, " ")
	fmt.Fprint(c.out, c.promptStyle.Render(label)+c.messages.Prompt[len(label):])
}

func (c *Console) EmptyInput() {
	c.line(c.noticeStyle.Render(c.messages.EmptyInput))
}

func (c *Console) Farewell() {
	c.line(c.noticeStyle.Render(c.messages.Farewell))
}

// Text writes a fragment of the model response without a line break.
func (c *Console) Text(text string) {
	if text == "" {
		return
	}
	fmt.Fprint(c.out, text)
	c.midLine = !strings.HasSuffix(text, "\n")
}

// EndResponse terminates a text response with a single line break.
func (c *Console) EndResponse() {
	fmt.Fprintln(c.out)
	c.midLine = false
}

func (c *Console) Error(err error) {
	c.line(c.errorStyle.Render(c.messages.ErrorPrefix + err.Error()))
}

func (c *Console) ResponseTime(elapsed time.Duration) {
	fmt.Fprintln(c.diag, c.diagStyle.Render(c.messages.ResponseTime+elapsed.String()))
}

func (c *Console) Usage(usage llms.Usage) {
	fmt.Fprintln(c.diag, c.diagStyle.Render(fmt.Sprintf("%sprompt=%d javob=%d jami=%d",
		c.messages.Usage, usage.InputTokens, usage.OutputTokens, usage.TotalTokens)))
}

// Clips lists the available clips, wrapped to a readable width.
func (c *Console) Clips(names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintln(c.diag, wordwrap.String(c.messages.Clips+strings.Join(names, ", "), bannerWidth))
}

// line writes a full line, first breaking any model text left mid-line.
func (c *Console) line(text string) {
	c.breakLine()
	fmt.Fprintln(c.out, text)
}

func (c *Console) breakLine() {
	if c.midLine {
		fmt.Fprintln(c.out)
		c.midLine = false
	}
}
