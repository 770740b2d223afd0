package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"documind-backend/internal/inference"
)

type stubRecognizer struct {
	entities []Entity
	err      error
	calls    int
}

func (s *stubRecognizer) Recognize(ctx context.Context, text string) ([]Entity, error) {
	s.calls++
	return s.entities, s.err
}

func TestInvoiceReportsMaximumAmount(t *testing.T) {
	engine := NewEngine(nil, 0)
	text := "Line item $99.00\nConsulting $1,200.50\nTax $ 12.00\nDue 03/15/2024 and 4-1-24"

	got := engine.Extract(context.Background(), text, "invoice")

	if got[FieldTotalAmount].Text != "$1,200.50" {
		t.Fatalf("expected $1,200.50, got %q", got[FieldTotalAmount].Text)
	}
	dates := got[FieldDates]
	if !dates.IsList() || !reflect.DeepEqual(dates.Items, []string{"03/15/2024", "4-1-24"}) {
		t.Fatalf("unexpected dates %+v", dates)
	}
	if _, ok := got[FieldEmails]; ok {
		t.Fatalf("invoice should not extract emails")
	}
}

func TestInvoiceDatesCappedAtThree(t *testing.T) {
	v, ok := DatesRule{}.Apply("1/1/20 2/2/20 3/3/20 4/4/20")
	if !ok || len(v.Items) != 3 || v.Items[2] != "3/3/20" {
		t.Fatalf("expected first three dates, got %+v", v)
	}
}

func TestEmailCategory(t *testing.T) {
	engine := NewEngine(nil, 0)
	text := "From: john@example.com\nSubject: Quarterly Report\n\nHi team, reply to john@example.com"

	got := engine.Extract(context.Background(), text, "email")

	if !reflect.DeepEqual(got[FieldEmails].Items, []string{"john@example.com"}) {
		t.Fatalf("unexpected emails %+v", got[FieldEmails])
	}
	if got[FieldSubject].Text != "Subject: Quarterly Report" {
		t.Fatalf("unexpected subject %q", got[FieldSubject].Text)
	}
}

func TestEmailRepairsOCRArtifacts(t *testing.T) {
	v, ok := EmailRule{}.Apply("contact jane.doe ©acme.io or bob @ mail.example.org")
	if !ok {
		t.Fatalf("expected emails")
	}
	want := []string{"jane.doe@acme.io", "bob@mail.example.org"}
	if !reflect.DeepEqual(v.Items, want) {
		t.Fatalf("expected %v, got %v", want, v.Items)
	}
}

func TestEmailCappedAtFive(t *testing.T) {
	text := "a1@x.io a2@x.io a3@x.io a4@x.io a5@x.io a6@x.io"
	v, _ := EmailRule{}.Apply(text)
	if len(v.Items) != MaxItems {
		t.Fatalf("expected %d emails, got %d", MaxItems, len(v.Items))
	}
}

func TestSubjectMatchesReply(t *testing.T) {
	v, ok := SubjectRule{}.Apply("Hello\n   Re: lunch plans  \nSubject: later")
	if !ok || v.Text != "Re: lunch plans" {
		t.Fatalf("expected first Re: line, got %+v", v)
	}
}

func TestResumeExtractsPhoneAndEmail(t *testing.T) {
	engine := NewEngine(nil, 0)
	text := "Jane Roe\njane@roe.dev\n(555) 123-4567 | 555.987.6543\nSubject: not an email"

	got := engine.Extract(context.Background(), text, "Resume")

	if got[FieldPhone].Text != "(555) 123-4567" {
		t.Fatalf("unexpected phone %q", got[FieldPhone].Text)
	}
	if len(got[FieldEmails].Items) != 1 {
		t.Fatalf("expected one email, got %+v", got[FieldEmails])
	}
	if _, ok := got[FieldSubject]; ok {
		t.Fatalf("resume should not extract subject")
	}
}

func TestNoMatchesYieldsEmptyResult(t *testing.T) {
	engine := NewEngine(nil, 0)
	got := engine.Extract(context.Background(), "nothing to see here", "invoice")
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
	got = engine.Extract(context.Background(), "john@example.com", "scientific_report")
	if len(got) != 0 {
		t.Fatalf("expected no rules for unknown category, got %v", got)
	}
}

func TestEntitiesFilteredDedupedAndCapped(t *testing.T) {
	rec := &stubRecognizer{entities: []Entity{
		{Text: "Al", Label: EntityPerson},
		{Text: "Ada Lovelace", Label: EntityPerson},
		{Text: "Ada Lovelace", Label: EntityPerson},
		{Text: "IBM", Label: EntityOrganization},
		{Text: "Bob", Label: EntityPerson},
		{Text: "Cy Young", Label: EntityPerson},
		{Text: "Dee Dee", Label: EntityPerson},
		{Text: "Eve Moss", Label: EntityPerson},
		{Text: "Fay Wray", Label: EntityPerson},
		{Text: "Paris", Label: "GPE"},
	}}
	engine := NewEngine(rec, time.Second)

	got := engine.Extract(context.Background(), "text", "other")

	people := got[FieldPeople].Items
	if len(people) != MaxItems {
		t.Fatalf("expected %d people, got %v", MaxItems, people)
	}
	if people[0] != "Ada Lovelace" || people[1] != "Bob" {
		t.Fatalf("expected first-appearance order, got %v", people)
	}
	for _, p := range people {
		if p == "Al" {
			t.Fatalf("short entity should be dropped")
		}
	}
	if !reflect.DeepEqual(got[FieldOrganizations].Items, []string{"IBM"}) {
		t.Fatalf("unexpected orgs %v", got[FieldOrganizations])
	}
}

func TestRecognizerFailureOmitsEntities(t *testing.T) {
	rec := &stubRecognizer{err: errors.New("ner down")}
	engine := NewEngine(rec, 0)
	got := engine.Extract(context.Background(), "Total $5.00", "invoice")
	if _, ok := got[FieldPeople]; ok {
		t.Fatalf("expected no entity fields")
	}
	if got[FieldTotalAmount].Text != "$5.00" {
		t.Fatalf("expected rules to still apply, got %v", got)
	}
	if rec.calls != 1 {
		t.Fatalf("expected one recognizer call, got %d", rec.calls)
	}
}

func TestRegistryIsExtensible(t *testing.T) {
	engine := NewEngine(nil, 0)
	engine.Rules.Register("receipt", TotalAmountRule{})
	got := engine.Extract(context.Background(), "Paid $7.25", "receipt")
	if got[FieldTotalAmount].Text != "$7.25" {
		t.Fatalf("expected registered rule to apply, got %v", got)
	}
}

func TestFormatDollars(t *testing.T) {
	cases := map[int64]string{
		0:         "$0.00",
		5:         "$0.05",
		120050:    "$1,200.50",
		123456789: "$1,234,567.89",
	}
	for cents, want := range cases {
		if got := FormatDollars(cents); got != want {
			t.Fatalf("FormatDollars(%d) = %q, want %q", cents, got, want)
		}
	}
}

func TestResultJSONShape(t *testing.T) {
	res := Result{
		FieldSubject: Single("Subject: hi"),
		FieldEmails:  List([]string{"a@b.co"}),
	}
	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"Emails":["a@b.co"],"Subject":"Subject: hi"}`
	if string(data) != want {
		t.Fatalf("expected %s, got %s", want, data)
	}
}

func TestHTTPRecognizer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/entities" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"entities":[{"text":"Acme Corp","label":"ORG"},{"text":"Jane Roe","label":"PERSON"}]}`))
	}))
	defer srv.Close()

	rec := HTTPRecognizer{Client: inference.NewClient(srv.URL, time.Second)}
	ents, err := rec.Recognize(context.Background(), "Jane Roe of Acme Corp")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(ents) != 2 || ents[0].Label != EntityOrganization {
		t.Fatalf("unexpected entities %+v", ents)
	}
}

func TestParseCentsRejectsOverflow(t *testing.T) {
	if _, err := parseCents("922337203685477580.07"); err == nil {
		t.Fatalf("expected out of range error")
	}
	got, err := parseCents("92233720368547757.99")
	if err != nil || got != 9223372036854775799 {
		t.Fatalf("expected largest representable amount, got %d %v", got, err)
	}
}
