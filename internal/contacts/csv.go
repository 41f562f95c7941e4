package contacts

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrMissingColumns  = errors.New(`contacts: CSV must include "name" and "phone" columns`)
	ErrNoValidContacts = errors.New("contacts: no valid contacts found in CSV")
)

// TemplateFilename is the download name of Template.
const TemplateFilename = "contact-template.csv"

var exportHeader = []string{"name", "phone", "email", "context", "priority", "status"}

// ParseCSV reads a header row (case-insensitive, trimmed names) followed by
// contact rows. name and phone columns are required. Blank lines are skipped
// and rows without a name or phone are dropped. Quoted fields may contain commas.
func ParseCSV(r io.Reader) ([]Contact, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrMissingColumns
	}
	if err != nil {
		return nil, fmt.Errorf("contacts: reading CSV header: %w", err)
	}

	cols := map[string]int{}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	if _, ok := cols["name"]; !ok {
		return nil, ErrMissingColumns
	}
	if _, ok := cols["phone"]; !ok {
		return nil, ErrMissingColumns
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	out := make([]Contact, 0)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("contacts: reading CSV: %w", err)
		}
		c := Contact{
			ID:       uuid.NewString(),
			Name:     field(rec, "name"),
			Phone:    field(rec, "phone"),
			Email:    field(rec, "email"),
			Context:  field(rec, "context"),
			Priority: ParsePriority(field(rec, "priority")),
			Status:   StatusPending,
		}
		if c.Name == "" || c.Phone == "" {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, ErrNoValidContacts
	}
	return out, nil
}

// WriteCSV writes the export header and one row per contact with every
// field double-quoted and embedded quotes doubled.
func WriteCSV(w io.Writer, cs []Contact) error {
	var b bytes.Buffer
	b.WriteString(strings.Join(exportHeader, ","))
	for _, c := range cs {
		b.WriteByte('\n')
		fields := []string{c.Name, c.Phone, c.Email, c.Context, string(c.Priority), string(c.Status)}
		for i, f := range fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(f, `"`, `""`))
			b.WriteByte('"')
		}
	}
	_, err := w.Write(b.Bytes())
	return err
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)

// ExportFilename replaces every non-alphanumeric character of the list name with "_".
func ExportFilename(listName string) string {
	return nonAlnum.ReplaceAllString(listName, "_") + "_contacts.csv"
}

// Template returns a sample import file.
func Template() []byte {
	return []byte("name,phone,email,context,priority\n" +
		"John Doe,+1234567890,john@example.com,Interested in premium package,high\n" +
		"Jane Smith,+1987654321,jane@example.com,Previous customer follow-up,medium")
}
