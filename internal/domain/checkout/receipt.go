// internal/domain/checkout/receipt.go
package checkout

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/shopcore/ecommerce-backend/internal/domain/order"
	"github.com/shopcore/ecommerce-backend/internal/pkg/email"
	"github.com/shopcore/ecommerce-backend/internal/pkg/money"
	"github.com/shopcore/ecommerce-backend/internal/pkg/pdf"
	"github.com/shopcore/ecommerce-backend/internal/pkg/storage"
	"go.uber.org/multierr"
)

// afterCommit renders, stores and mails the receipt. The order is already
// committed, so failures here become warnings and never undo it.
func (s *Service) afterCommit(ctx context.Context, o *order.Order, customer *Customer) *Result {
	ctx = context.WithoutCancel(ctx)
	result := &Result{Order: o}

	var errs error
	fail := func(step string, err error) {
		s.deps.Metrics.SideEffectFailed(step)
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", step, err))
	}

	invoice, err := s.deps.Invoices.RenderInvoice(s.invoiceFor(o, customer))
	if err != nil {
		fail("invoice", err)
	}

	if len(invoice) > 0 {
		url, err := s.storeReceipt(ctx, o, invoice)
		if err != nil {
			fail("receipt", err)
		}
		result.ReceiptURL = url
	}

	if err := s.mailReceipt(ctx, o, customer, invoice, result.ReceiptURL); err != nil {
		fail("email", err)
	}

	for _, err := range multierr.Errors(errs) {
		result.Warnings = append(result.Warnings, err.Error())
	}
	if errs != nil {
		s.deps.Logger.WithError(errs).WithField("order_id", o.ID).Warn("Order placed with failed side effects")
	}
	return result
}

func (s *Service) invoiceFor(o *order.Order, customer *Customer) pdf.Invoice {
	lines := make([]pdf.Line, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, pdf.Line{Title: item.Title, Quantity: item.Quantity, UnitPrice: item.Price})
	}
	return pdf.Invoice{
		Number:        o.OrderNumber,
		IssuedAt:      o.CreatedAt,
		CustomerName:  customer.Name,
		CustomerEmail: customer.Email,
		ShipTo:        o.Address.Lines(),
		PaymentMethod: string(o.PaymentMethod),
		Paid:          o.IsPaid,
		Currency:      s.config.External.Stripe.Currency,
		Lines:         lines,
		Subtotal:      o.TotalPrice,
		DiscountPct:   o.Discount,
		Total:         o.TotalPriceAfterDiscount,
	}
}

// storeReceipt uploads the PDF and records the receipt row
func (s *Service) storeReceipt(ctx context.Context, o *order.Order, invoice []byte) (string, error) {
	putCtx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Storage)
	defer cancel()

	key := fmt.Sprintf("receipts/%s.pdf", strings.ToLower(o.OrderNumber))
	obj, err := s.deps.Storage.Put(putCtx, key, storage.Upload{
		Filename:    key,
		ContentType: "application/pdf",
		Size:        int64(len(invoice)),
		Body:        bytes.NewReader(invoice),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload receipt: %w", err)
	}

	dbCtx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	receipt := &order.Receipt{
		OrderID:       o.ID,
		ReceiptURL:    obj.URL,
		StorageKey:    obj.Key,
		IsPaid:        o.IsPaid,
		IsDelivered:   o.IsDelivered,
		PaymentMethod: o.PaymentMethod,
		GeneratedAt:   s.now().UTC(),
	}
	if err := s.db.WithContext(dbCtx).Create(receipt).Error; err != nil {
		return obj.URL, fmt.Errorf("failed to save receipt: %w", err)
	}
	return obj.URL, nil
}

func (s *Service) mailReceipt(ctx context.Context, o *order.Order, customer *Customer, invoice []byte, receiptURL string) error {
	msg, err := email.NewReceiptEmail(customer.Email, email.ReceiptData{
		SiteName:   s.config.Company.Name,
		UserName:   customer.Name,
		OrderRef:   o.OrderNumber,
		Total:      money.Format(o.TotalPriceAfterDiscount),
		Currency:   strings.ToUpper(s.config.External.Stripe.Currency),
		ReceiptURL: receiptURL,
	}, invoice)
	if err != nil {
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Email)
	defer cancel()
	return s.deps.Mailer.Send(sendCtx, msg)
}
