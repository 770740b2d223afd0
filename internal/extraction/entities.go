package extraction

import (
	"context"
	"unicode/utf8"
)

// Entity types produced by a recognizer.
const (
	EntityPerson       = "PERSON"
	EntityOrganization = "ORG"
)

// minEntityRunes drops OCR noise like initials.
const minEntityRunes = 3

// Entity is a recognized span of text.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// EntityRecognizer finds named entities in text.
type EntityRecognizer interface {
	Recognize(ctx context.Context, text string) ([]Entity, error)
}

// entityFields dedupes by exact text, filters short spans and caps each
// field, keeping first-appearance order.
func entityFields(entities []Entity) Result {
	people := collect(entities, EntityPerson)
	orgs := collect(entities, EntityOrganization)
	out := Result{}
	if len(people) > 0 {
		out[FieldPeople] = List(people)
	}
	if len(orgs) > 0 {
		out[FieldOrganizations] = List(orgs)
	}
	return out
}

func collect(entities []Entity, label string) []string {
	var out []string
	for _, e := range entities {
		if e.Label != label || utf8.RuneCountInString(e.Text) < minEntityRunes {
			continue
		}
		out = appendUnique(out, e.Text)
		if len(out) == MaxItems {
			break
		}
	}
	return out
}
