// internal/pkg/email/types.go
package email

// EmailType represents the type of email being sent
type EmailType string

const (
	EmailTypeEmailVerification EmailType = "email_verification"
	EmailTypePasswordReset     EmailType = "password_reset"
	EmailTypeOrderReceipt      EmailType = "order_receipt"
)

// Email represents an email message
type Email struct {
	To          []string     `json:"to"`
	Subject     string       `json:"subject"`
	HTMLContent string       `json:"html_content"`
	Type        EmailType    `json:"type"`
	Attachments []Attachment `json:"-"`
}

// Attachment is a file sent along with the message
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// OTPData fills the verification and password reset templates
type OTPData struct {
	SiteName  string
	UserName  string
	Code      string
	ExpiresIn string
	Purpose   string
}

// ReceiptData fills the order receipt template
type ReceiptData struct {
	SiteName   string
	UserName   string
	OrderRef   string
	Total      string
	Currency   string
	ReceiptURL string
}
