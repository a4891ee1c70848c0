package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"testing"
	"time"

	"github.com/shopcore/ecommerce-backend/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessageWithAttachment(t *testing.T) {
	email, err := NewReceiptEmail("mona@example.com", ReceiptData{
		SiteName: "Shopcore",
		UserName: "Mona",
		OrderRef: "12",
		Total:    "720.00",
		Currency: "EGP",
	}, []byte("%PDF-1.4"))
	require.NoError(t, err)

	raw, err := buildMessage("Shopcore <noreply@example.com>", email)
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "mona@example.com", msg.Header.Get("To"))

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	reader := multipart.NewReader(msg.Body, params["boundary"])

	htmlPart, err := reader.NextPart()
	require.NoError(t, err)
	htmlBody, err := io.ReadAll(base64.NewDecoder(base64.StdEncoding, htmlPart))
	require.NoError(t, err)
	assert.Contains(t, string(htmlBody), "720.00 EGP")

	pdfPart, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "receipt-12.pdf", pdfPart.FileName())
	pdfBody, err := io.ReadAll(base64.NewDecoder(base64.StdEncoding, pdfPart))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(pdfBody))
}

func TestNewOTPEmail(t *testing.T) {
	email, err := NewOTPEmail("u@example.com", EmailTypePasswordReset, OTPData{
		SiteName:  "Shopcore",
		UserName:  "U",
		Code:      "a1b2c3",
		ExpiresIn: "10m0s",
	})
	require.NoError(t, err)

	assert.Equal(t, "Shopcore - Reset your password", email.Subject)
	assert.Contains(t, email.HTMLContent, "a1b2c3")
	assert.Contains(t, email.HTMLContent, "reset your password")
}

func TestLogProviderRecordsMessage(t *testing.T) {
	logger, hook := test.NewNullLogger()
	svc := NewService(config.EmailConfig{Provider: "log"}, time.Second, logger)

	err := svc.Send(context.Background(), &Email{To: []string{"u@example.com"}, Subject: "hi"})
	require.NoError(t, err)

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, "hi", hook.LastEntry().Data["subject"])
}

func TestSendRejectsEmptyRecipients(t *testing.T) {
	logger, _ := test.NewNullLogger()
	svc := NewService(config.EmailConfig{Provider: "log"}, time.Second, logger)

	assert.Error(t, svc.Send(context.Background(), &Email{}))
}
