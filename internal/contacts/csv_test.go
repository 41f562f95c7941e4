package contacts

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseCSV_QuotedNamePhone(t *testing.T) {
	cs, err := ParseCSV(strings.NewReader("name,phone\n\"Ann\",\"+15551234567\"\n"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(cs) != 1 {
		t.Fatalf("expected 1 contact, got %d", len(cs))
	}
	c := cs[0]
	if c.Name != "Ann" || c.Phone != "+15551234567" {
		t.Fatalf("unexpected contact: %+v", c)
	}
	if c.Status != StatusPending || c.Priority != PriorityMedium {
		t.Fatalf("expected pending/medium, got %s/%s", c.Status, c.Priority)
	}
}

func TestParseCSV_RequiresNameAndPhone(t *testing.T) {
	if _, err := ParseCSV(strings.NewReader("phone,email\n+1555,a@b.c\n")); !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("expected ErrMissingColumns, got %v", err)
	}
	if _, err := ParseCSV(strings.NewReader("")); !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("expected ErrMissingColumns for empty input, got %v", err)
	}
}

func TestParseCSV_HeaderCaseAndOrder(t *testing.T) {
	in := " Phone , NAME ,Priority,Context\n+1555,Bob,HIGH,\"Likes calls, mornings\"\n\n+1666,,low,x\n"
	cs, err := ParseCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(cs) != 1 {
		t.Fatalf("expected row without name dropped, got %d contacts", len(cs))
	}
	if cs[0].Name != "Bob" || cs[0].Priority != PriorityHigh || cs[0].Context != "Likes calls, mornings" {
		t.Fatalf("unexpected contact: %+v", cs[0])
	}
}

func TestParseCSV_NoValidContacts(t *testing.T) {
	if _, err := ParseCSV(strings.NewReader("name,phone\n,+1555\nAnn,\n")); !errors.Is(err, ErrNoValidContacts) {
		t.Fatalf("expected ErrNoValidContacts, got %v", err)
	}
}

func TestParseCSV_Template(t *testing.T) {
	cs, err := ParseCSV(bytes.NewReader(Template()))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(cs) != 2 || cs[0].Context != "Interested in premium package" || cs[1].Priority != PriorityMedium {
		t.Fatalf("unexpected template contacts: %+v", cs)
	}
}

func TestWriteCSV_QuotesEveryField(t *testing.T) {
	var b bytes.Buffer
	err := WriteCSV(&b, []Contact{{Name: `Ann "A"`, Phone: "+1555", Context: "a, b", Priority: PriorityLow, Status: StatusFailed}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := "name,phone,email,context,priority,status\n" +
		`"Ann ""A""","+1555","","a, b","low","failed"`
	if b.String() != want {
		t.Fatalf("got\n%s\nwant\n%s", b.String(), want)
	}
}

func TestExportFilename(t *testing.T) {
	if got := ExportFilename("Q1 2024 Prospects!"); got != "Q1_2024_Prospects__contacts.csv" {
		t.Fatalf("unexpected filename %q", got)
	}
}
