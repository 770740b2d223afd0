// Package extraction derives category-specific structured fields from OCR text.
package extraction

import "encoding/json"

// MaxItems caps list-valued fields.
const MaxItems = 5

// Field names in an extraction Result.
const (
	FieldPeople        = "People/Names"
	FieldOrganizations = "Organizations"
	FieldEmails        = "Emails"
	FieldSubject       = "Subject"
	FieldTotalAmount   = "Total Amount"
	FieldDates         = "Dates"
	FieldPhone         = "Phone"
)

// Value is either a single string or a short ordered list of strings.
type Value struct {
	Text  string
	Items []string
	list  bool
}

// Single wraps a scalar value.
func Single(s string) Value {
	return Value{Text: s}
}

// List wraps a list value, capped at MaxItems.
func List(items []string) Value {
	if len(items) > MaxItems {
		items = items[:MaxItems]
	}
	return Value{Items: append([]string(nil), items...), list: true}
}

// IsList reports whether the value holds a list.
func (v Value) IsList() bool {
	return v.list
}

// MarshalJSON encodes a string or an array of strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.list {
		items := v.Items
		if items == nil {
			items = []string{}
		}
		return json.Marshal(items)
	}
	return json.Marshal(v.Text)
}

// UnmarshalJSON accepts a string or an array of strings.
func (v *Value) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Single(s)
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*v = List(items)
	return nil
}

// Result maps field names to extracted values. Fields without matches are absent.
type Result map[string]Value
