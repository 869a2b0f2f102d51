package email

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []*Email
	err  error
}

func (f *fakeSender) Send(_ context.Context, e *Email) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, e)
	return "fake-1", nil
}

func confirmation() OrderConfirmationEmail {
	return OrderConfirmationEmail{
		To:            "buyer@example.com",
		OrderID:       "5f0c1c8e-3d55-4f40-9a4e-1f1e1a9b7c11",
		InvoiceNumber: "DYN-2025-000042",
		PaidAt:        time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
		Items: []OrderItem{
			{ProductName: "Dynamite Tee", VariantLabel: "M", Quantity: 2, UnitPrice: 1500, LineTotal: 3000},
			{ProductName: "Sticker <3", Quantity: 1, UnitPrice: 250, LineTotal: 250},
		},
		Total: 3250,
	}
}

func TestSendOrderConfirmation(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, "shop@example.com", "Dynamite")

	require.NoError(t, svc.SendOrderConfirmation(context.Background(), confirmation()))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, []string{"buyer@example.com"}, msg.To)
	assert.Equal(t, "Dynamite <shop@example.com>", msg.From)
	assert.Equal(t, "Order Confirmation - DYN-2025-000042", msg.Subject)
	assert.Equal(t, "5f0c1c8e-3d55-4f40-9a4e-1f1e1a9b7c11", msg.Headers["X-Order-ID"])

	assert.Contains(t, msg.HTMLBody, "Dynamite Tee (M)")
	assert.Contains(t, msg.HTMLBody, "<strong>3250</strong>")
	assert.Contains(t, msg.HTMLBody, "Sticker &lt;3")

	assert.Contains(t, msg.TextBody, "DYN-2025-000042")
	assert.Contains(t, msg.TextBody, "2 x 1500")
	assert.Contains(t, msg.TextBody, "Total: 3250")
	assert.NotContains(t, msg.TextBody, "32.50")
	assert.Contains(t, msg.TextBody, "Sticker <3")
	assert.NotContains(t, msg.TextBody, "<td>")
}

func TestSendOrderConfirmation_WithoutInvoiceNumber(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, "", "")

	data := confirmation()
	data.InvoiceNumber = ""
	require.NoError(t, svc.SendOrderConfirmation(context.Background(), data))

	assert.Equal(t, "Order Confirmation - 5f0c1c8e", sender.sent[0].Subject)
	assert.Empty(t, sender.sent[0].From)
}

func TestSendOrderConfirmation_Errors(t *testing.T) {
	t.Run("no recipient", func(t *testing.T) {
		sender := &fakeSender{}
		data := confirmation()
		data.To = ""
		err := NewService(sender, "", "").SendOrderConfirmation(context.Background(), data)
		assert.ErrorIs(t, err, ErrNoRecipient)
		assert.Empty(t, sender.sent)
	})

	t.Run("sender failure", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := NewService(&fakeSender{err: cause}, "", "").SendOrderConfirmation(context.Background(), confirmation())
		assert.ErrorIs(t, err, cause)
	})
}

func TestFormatAmount(t *testing.T) {
	tests := map[int64]string{
		0:      "0",
		5:      "5",
		1500:   "1500",
		123456: "123456",
		-250:   "-250",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatAmount(in), "FormatAmount(%d)", in)
	}
}

func TestSMTPSender_BuildMessage(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewSMTPSender(SMTPConfig{Host: "localhost", Port: 1025, From: "shop@example.com", FromName: "Dynamite"}, logger)

	t.Run("valid", func(t *testing.T) {
		msg, err := s.buildMessage(&Email{To: []string{"buyer@example.com"}, Subject: "Hi", TextBody: "body"})
		require.NoError(t, err)
		to := msg.GetToString()
		require.Len(t, to, 1)
		assert.Contains(t, to[0], "buyer@example.com")
		from := msg.GetFromString()
		require.Len(t, from, 1)
		assert.Contains(t, from[0], "shop@example.com")
		assert.Contains(t, from[0], "Dynamite")
	})

	t.Run("no recipient", func(t *testing.T) {
		_, err := s.buildMessage(&Email{Subject: "Hi"})
		assert.ErrorIs(t, err, ErrNoRecipient)
	})

	t.Run("invalid recipient", func(t *testing.T) {
		_, err := s.buildMessage(&Email{To: []string{"not an address"}})
		assert.ErrorIs(t, err, ErrInvalidToAddress)
	})

	t.Run("invalid from", func(t *testing.T) {
		_, err := s.buildMessage(&Email{To: []string{"buyer@example.com"}, From: "@@"})
		assert.ErrorIs(t, err, ErrInvalidFromAddress)
	})
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := s.Send(context.Background(), &Email{To: []string{"a@example.com"}})
	assert.NoError(t, err)
	_, err = s.Send(context.Background(), &Email{})
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestGeneratePlainText(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		contains []string
		excludes []string
	}{
		{
			name:     "simple paragraph",
			html:     "<p>Hello, World!</p>",
			contains: []string{"Hello, World!"},
			excludes: []string{"<p>", "</p>"},
		},
		{
			name:     "line breaks",
			html:     "Line 1<br>Line 2<br/>Line 3<br />Line 4",
			contains: []string{"Line 1", "Line 2", "Line 3", "Line 4"},
			excludes: []string{"<br>", "<br/>", "<br />"},
		},
		{
			name:     "headings",
			html:     "<h1>Title</h1><h2>Subtitle</h2><h3>Section</h3>",
			contains: []string{"Title", "Subtitle", "Section"},
			excludes: []string{"<h1>", "</h1>", "<h2>", "</h2>", "<h3>", "</h3>"},
		},
		{
			name:     "nested tags",
			html:     "<div><p><strong>Bold text</strong> and <em>italic</em></p></div>",
			contains: []string{"Bold text", "and", "italic"},
			excludes: []string{"<div>", "<p>", "<strong>", "<em>"},
		},
		{
			name:     "HTML entities",
			html:     "Price: $10 &amp; shipping &nbsp; included &lt;$5&gt; &quot;free&quot;",
			contains: []string{"Price: $10 & shipping", "included <$5>", "\"free\""},
			excludes: []string{"&amp;", "&nbsp;", "&lt;", "&gt;", "&quot;"},
		},
		{
			name:     "links stripped",
			html:     `<a href="https://example.com">Click here</a>`,
			contains: []string{"Click here"},
			excludes: []string{"<a", "href", "</a>"},
		},
		{
			name:     "empty content",
			html:     "",
			contains: []string{},
			excludes: []string{},
		},
		{
			name:     "table rows",
			html:     "<table><tr><td>Tee</td><td>2 x 15.00</td></tr><tr><td>Cap</td><td>1 x 9.00</td></tr></table>",
			contains: []string{"Tee 2 x 15.00", "Cap 1 x 9.00"},
			excludes: []string{"<td>", "<tr>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := generatePlainText(tt.html)

			for _, want := range tt.contains {
				if !strings.Contains(result, want) {
					t.Errorf("generatePlainText() result should contain %q, got: %q", want, result)
				}
			}

			for _, exclude := range tt.excludes {
				if strings.Contains(result, exclude) {
					t.Errorf("generatePlainText() result should not contain %q, got: %q", exclude, result)
				}
			}
		})
	}
}

func TestGeneratePlainText_WhitespaceHandling(t *testing.T) {
	html := `
		<p>   Line with spaces   </p>
		<p></p>
		<p>Another line</p>
	`

	result := generatePlainText(html)

	// Should not have empty lines (they get filtered)
	lines := strings.Split(result, "\n")
	for _, line := range lines {
		if strings.TrimSpace(line) == "" && line != "" {
			t.Error("generatePlainText() should not have blank lines with only whitespace")
		}
	}

	// Should contain the actual content
	if !strings.Contains(result, "Line with spaces") {
		t.Error("generatePlainText() should contain trimmed content")
	}
	if !strings.Contains(result, "Another line") {
		t.Error("generatePlainText() should contain 'Another line'")
	}
}
