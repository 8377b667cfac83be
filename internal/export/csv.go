// Package export serialises the inbox for download.
package export

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/augmentum/backend/internal/model"
)

// ContentType is the MIME type of WriteCSV output.
const ContentType = "text/csv; charset=utf-8"

// Header is the first row of every export.
var Header = []string{"Name", "Email", "Company", "Message", "Status", "Created At", "Updated At"}

// Record returns the export columns for one message. Timestamps are RFC 3339
// in UTC; Updated At falls back to Created At for never-updated messages.
func Record(m *model.ContactMessage) []string {
	updated := m.CreatedAt
	if m.UpdatedAt != nil {
		updated = *m.UpdatedAt
	}
	return []string{
		m.Name,
		m.Email,
		m.CompanyName(),
		m.Message,
		string(m.Status),
		m.CreatedAt.UTC().Format(time.RFC3339),
		updated.UTC().Format(time.RFC3339),
	}
}

// WriteCSV writes Header followed by one row per message, in the given order.
// Every field is quoted and embedded quotes are doubled; rows end with "\n".
//
// encoding/csv only quotes fields that need it, so rows are written by hand.
func WriteCSV(w io.Writer, messages []*model.ContactMessage) error {
	bw := bufio.NewWriter(w)
	writeRow(bw, Header)
	for _, m := range messages {
		bw.WriteByte('\n')
		writeRow(bw, Record(m))
	}
	bw.WriteByte('\n')
	return bw.Flush()
}

func writeRow(w *bufio.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(f, `"`, `""`))
		w.WriteByte('"')
	}
}

// Filename returns "<brand>-messages-YYYY-MM-DD.csv" for the UTC date of now.
func Filename(brand string, now time.Time) string {
	return brand + "-messages-" + now.UTC().Format(time.DateOnly) + ".csv"
}
