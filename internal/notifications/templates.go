package notifications

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"
	"time"

	"venivici/pkg/model"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	subjectPrefix      = "Venivici Health Club & Urban Spa: "
	defaultGreeting    = "Customer"
	bookingDateLayout  = "Monday, January 2, 2006"
	transactionLayout  = "Mon, Jan 2, 2006, 03:04:05 PM"
	currencySymbolNGN  = "₦"
	layoutTemplateName = "layout"
)

// Lagos does not observe daylight saving, a fixed zone avoids depending on tzdata.
var spaLocation = time.FixedZone("WAT", 60*60)

var subjects = map[Kind]string{
	KindBookingConfirmation: subjectPrefix + "Your Booking is Confirmed!",
	KindPaymentReceipt:      subjectPrefix + "Your Payment Receipt",
	KindPendingPayment:      subjectPrefix + "Your Booking Request (Payment Pending)",
}

var templates = map[Kind]*template.Template{
	KindBookingConfirmation: mustParse("booking_confirmation.html"),
	KindPaymentReceipt:      mustParse("payment_receipt.html"),
	KindPendingPayment:      mustParse("pending_payment.html"),
}

func mustParse(name string) *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

type emailData struct {
	FirstName   string
	ServiceName string
	Date        string
	TimeSlot    string
	Total       string
	BookingID   string
	Message     string
	AmountPaid  string
	Reference   string
	PaidAt      string
}

func newEmailData(booking *model.Booking, receipt *model.Receipt) emailData {
	data := emailData{
		FirstName:   booking.FirstName,
		ServiceName: booking.ServiceName,
		Date:        booking.SelectedDate.UTC().Format(bookingDateLayout),
		TimeSlot:    booking.SelectedTimeSlot,
		Total:       FormatNaira(booking.TotalAmount),
		BookingID:   booking.ID,
		Message:     booking.Message,
	}
	if data.FirstName == "" {
		data.FirstName = defaultGreeting
	}
	if receipt != nil {
		data.AmountPaid = FormatNaira(receipt.AmountPaid)
		data.Reference = receipt.Reference
		data.PaidAt = receipt.PaidAt.In(spaLocation).Format(transactionLayout)
	}
	return data
}

// render returns the subject and HTML body for a notification.
func render(kind Kind, booking *model.Booking, receipt *model.Receipt) (string, string, error) {
	tmpl, ok := templates[kind]
	if !ok {
		return "", "", fmt.Errorf("no template for notification kind %q", kind)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layoutTemplateName, newEmailData(booking, receipt)); err != nil {
		return "", "", fmt.Errorf("failed to render %s email: %w", kind, err)
	}
	return subjects[kind], buf.String(), nil
}

// FormatNaira renders an amount as ₦50,000 or ₦1,250.50 with thousands separators.
func FormatNaira(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	kobo := int64(math.Round(amount * 100))
	whole, frac := kobo/100, kobo%100

	digits := strconv.FormatInt(whole, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := sign + currencySymbolNGN + b.String()
	if frac != 0 {
		out += fmt.Sprintf(".%02d", frac)
	}
	return out
}
