// Package mail delivers outbound email through Resend, SMTP or the log.
package mail

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	gomail "github.com/emersion/go-message/mail"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"

	"github.com/taskmaster/assistant/internal/ports"
)

// RenderHTML returns body as HTML. Bodies that already start with a tag are
// used as-is; anything else is treated as markdown.
func RenderHTML(body string) (string, error) {
	trimmed := strings.TrimSpace(body)
	if strings.HasPrefix(trimmed, "<") && strings.Contains(trimmed, ">") {
		return trimmed, nil
	}

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// PlainText flattens an HTML fragment to readable text. Block elements end
// a line.
func PlainText(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder

	for {
		switch z.Next() {
		case html.ErrorToken:
			return tidy(b.String())
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "p", "br", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6", "tr", "pre", "blockquote":
				b.WriteByte('\n')
			}
		}
	}
}

func tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.Join(strings.Fields(l), " ")
		if l == "" {
			continue
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}

// Compose builds an RFC 5322 message with text/plain and text/html
// alternatives.
func Compose(msg ports.EmailMessage, now time.Time) ([]byte, error) {
	htmlBody, err := RenderHTML(msg.Body)
	if err != nil {
		return nil, err
	}

	var h gomail.Header
	h.SetDate(now)
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generate message-id: %w", err)
	}
	h.SetSubject(msg.Subject)

	from, err := gomail.ParseAddress(msg.From)
	if err != nil {
		return nil, fmt.Errorf("parse from address %q: %w", msg.From, err)
	}
	h.SetAddressList("From", []*gomail.Address{from})

	to, err := gomail.ParseAddress(msg.To)
	if err != nil {
		return nil, fmt.Errorf("parse to address %q: %w", msg.To, err)
	}
	h.SetAddressList("To", []*gomail.Address{to})

	var buf bytes.Buffer
	mw, err := gomail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create mail writer: %w", err)
	}
	tw, err := mw.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("create inline writer: %w", err)
	}

	if err := writePart(tw, "text/plain; charset=utf-8", PlainText(htmlBody)); err != nil {
		return nil, err
	}
	if err := writePart(tw, "text/html; charset=utf-8", htmlBody); err != nil {
		return nil, err
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("close inline writer: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close mail writer: %w", err)
	}
	return buf.Bytes(), nil
}

func writePart(tw *gomail.InlineWriter, contentType, body string) error {
	var ph gomail.InlineHeader
	ph.Set("Content-Type", contentType)
	w, err := tw.CreatePart(ph)
	if err != nil {
		return fmt.Errorf("create %s part: %w", contentType, err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		return fmt.Errorf("write %s part: %w", contentType, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s part: %w", contentType, err)
	}
	return nil
}

// bareAddress returns just the addr-spec of "Name <addr>" or "addr"
func bareAddress(s string) string {
	if a, err := gomail.ParseAddress(s); err == nil {
		return a.Address
	}
	return strings.TrimSpace(s)
}
