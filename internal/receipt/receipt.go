// AngelaMos | 2026
// receipt.go

// Package receipt renders the fixed-layout PDF receipt of an approved
// subscription.
package receipt

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
	"github.com/carterperez-dev/templates/wifi-portal/internal/pricing"
	"github.com/carterperez-dev/templates/wifi-portal/internal/subscription"
)

const (
	ContentType = "application/pdf"

	dateLayout  = "02/01/2006 15:04 MST"
	labelWidth  = 60.0
	valueWidth  = 120.0
	lineHeight  = 9.0
	titleHeight = 14.0
)

// Filename is the download name offered to the browser.
func Filename(sub *subscription.Subscription) string {
	return fmt.Sprintf("receipt-%s.pdf", sub.ID)
}

// Render is a pure function of its inputs: the same record and pricing
// snapshot always lay out the same document.
func Render(
	sub *subscription.Subscription,
	snapshot pricing.Pricing,
	portalName string,
) ([]byte, error) {
	if sub.StartAt == nil || sub.EndAt == nil {
		return nil, fmt.Errorf("render receipt: %w",
			core.NewInputError("subscription", "only approved subscriptions have a receipt"))
	}

	cred, err := snapshot.CredentialFor(sub.Band)
	if err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	// object catalog order otherwise follows map iteration
	pdf.SetCatalogSort(true)
	pdf.SetTitle(portalName+" receipt", true)
	pdf.SetCreationDate(*sub.StartAt)
	pdf.SetModificationDate(*sub.StartAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, titleHeight, tr(portalName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, lineHeight, tr("Payment receipt"), "", 1, "C", false, 0, "")
	pdf.Ln(lineHeight)

	rows := [][2]string{
		{"Receipt number", sub.ID},
		{"Customer", sub.FullName},
		{"Phone", sub.Phone},
		{"Band", sub.Band},
		{"Network", cred.SSID},
		{"Payment method", sub.PaymentMethod},
		{"Transaction reference", sub.TransactionRef},
		{"Amount", fmt.Sprintf("%d CFA", sub.Price)},
		{"Valid from", formatTime(*sub.StartAt)},
		{"Valid until", formatTime(*sub.EndAt)},
	}
	if sub.MACAddress != nil {
		rows = append(rows, [2]string{"Device MAC", *sub.MACAddress})
	}

	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(labelWidth, lineHeight, tr(row[0]), "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(valueWidth, lineHeight, tr(row[1]), "1", 1, "L", false, 0, "")
	}

	pdf.Ln(lineHeight)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, tr(
		"This receipt confirms the approval of the payment referenced above. "+
			"Keep it until the access period ends."), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}

	return buf.Bytes(), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(dateLayout)
}
