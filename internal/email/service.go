package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
)

// Service composes messages from templates and hands them to a Sender.
type Service struct {
	sender      Sender
	fromAddress string
	fromName    string
	templates   *template.Template
}

// NewService builds a Service. An empty fromAddress leaves the From header
// to the sender's own configuration.
func NewService(sender Sender, fromAddress, fromName string) *Service {
	return &Service{
		sender:      sender,
		fromAddress: fromAddress,
		fromName:    fromName,
		templates:   parseTemplates(),
	}
}

// SendOrderConfirmation renders and sends the paid-order confirmation.
func (s *Service) SendOrderConfirmation(ctx context.Context, data OrderConfirmationEmail) error {
	if data.To == "" {
		return ErrNoRecipient
	}

	htmlBody, textBody, err := s.renderTemplate(data.TemplateName(), data)
	if err != nil {
		return err
	}

	msg := &Email{
		To:       []string{data.To},
		From:     s.from(),
		Subject:  data.Subject(),
		HTMLBody: htmlBody,
		TextBody: textBody,
		Headers:  map[string]string{"X-Order-ID": data.OrderID},
	}

	if _, err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send order confirmation email: %w", err)
	}
	return nil
}

func (s *Service) from() string {
	if s.fromAddress == "" {
		return ""
	}
	if s.fromName == "" {
		return s.fromAddress
	}
	return fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)
}

func (s *Service) renderTemplate(name string, data any) (string, string, error) {
	var htmlBuf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&htmlBuf, name, data); err != nil {
		return "", "", wrap(ErrRender, err)
	}

	htmlBody := htmlBuf.String()
	return htmlBody, generatePlainText(htmlBody), nil
}

// generatePlainText creates a simple plain text version from HTML
func generatePlainText(html string) string {
	text := html

	for _, tag := range []string{"<br>", "<br/>", "<br />", "</tr>", "</div>"} {
		text = strings.ReplaceAll(text, tag, "\n")
	}
	for _, tag := range []string{"</p>", "</h1>", "</h2>", "</h3>", "</table>"} {
		text = strings.ReplaceAll(text, tag, "\n\n")
	}
	text = strings.ReplaceAll(text, "</td>", " ")

	for {
		start := strings.Index(text, "<")
		if start < 0 {
			break
		}
		end := strings.Index(text[start:], ">")
		if end < 0 {
			break
		}
		text = text[:start] + text[start+end+1:]
	}

	text = strings.NewReplacer(
		"&nbsp;", " ",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", "\"",
		"&#34;", "\"",
		"&#39;", "'",
		"&amp;", "&",
	).Replace(text)

	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}

	return strings.Join(cleaned, "\n")
}
