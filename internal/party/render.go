package party

import (
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"

	"github.com/Tyrowin/lanchat/internal/history"
	"github.com/Tyrowin/lanchat/internal/server"
)

var (
	ownStyle    = color.New(color.FgGreen)
	originStyle = color.New(color.FgDarkGray)
	noticeStyle = color.New(color.BgBlack, color.FgYellow)
)

// Renderer prints envelopes as terminal lines. Records whose text starts with
// the local nickname prefix are shown as own messages.
type Renderer struct {
	out      io.Writer
	nickname string
	colours  bool
}

// NewRenderer writes to out. Colours toggles ANSI styling.
func NewRenderer(out io.Writer, nickname string, colours bool) *Renderer {
	return &Renderer{out: out, nickname: strings.TrimSpace(nickname), colours: colours}
}

// Render writes one envelope. Unknown envelope types are ignored.
func (r *Renderer) Render(envelope server.Envelope) error {
	switch envelope.Type {
	case server.EventInit:
		if len(envelope.Messages) == 0 {
			return r.notice("no earlier messages")
		}
		if err := r.notice(fmt.Sprintf("%d earlier messages", len(envelope.Messages))); err != nil {
			return err
		}
		for _, record := range envelope.Messages {
			if err := r.line(r.FormatRecord(record)); err != nil {
				return err
			}
		}
	case server.EventNewMessage:
		if envelope.Message != nil {
			return r.line(r.FormatRecord(*envelope.Message))
		}
	case server.EventClear:
		return r.notice("history cleared")
	}
	return nil
}

// FormatRecord renders a record without a trailing newline.
func (r *Renderer) FormatRecord(record history.Record) string {
	if body, ok := r.ownBody(record.Text); ok {
		return r.style(ownStyle, fmt.Sprintf("[%s] you: %s", record.Time, body))
	}
	return fmt.Sprintf("[%s] %s %s", record.Time, record.Text, r.style(originStyle, "("+record.Origin+")"))
}

func (r *Renderer) ownBody(text string) (string, bool) {
	if r.nickname == "" {
		return "", false
	}
	body, ok := strings.CutPrefix(text, r.nickname+":")
	return strings.TrimSpace(body), ok
}

func (r *Renderer) notice(text string) error {
	return r.line(r.style(noticeStyle, "  ====== "+text+" ======"))
}

func (r *Renderer) line(text string) error {
	_, err := fmt.Fprintln(r.out, text)
	return err
}

func (r *Renderer) style(s color.Style, text string) string {
	if !r.colours {
		return text
	}
	return s.Render(text)
}
