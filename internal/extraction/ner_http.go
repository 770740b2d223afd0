package extraction

import (
	"context"

	"documind-backend/internal/inference"
)

var entitiesSchema = inference.MustCompileSchema("entities.json", `{
  "type": "object",
  "required": ["entities"],
  "properties": {
    "entities": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["text", "label"],
        "properties": {
          "text": {"type": "string"},
          "label": {"type": "string"}
        }
      }
    }
  }
}`)

// HTTPRecognizer calls POST /entities on the inference service.
type HTTPRecognizer struct {
	Client *inference.Client
}

type entitiesRequest struct {
	Text   string   `json:"text"`
	Labels []string `json:"labels"`
}

type entitiesResponse struct {
	Entities []Entity `json:"entities"`
}

// Recognize returns PERSON and ORG spans in document order.
func (r HTTPRecognizer) Recognize(ctx context.Context, text string) ([]Entity, error) {
	var resp entitiesResponse
	req := entitiesRequest{Text: text, Labels: []string{EntityPerson, EntityOrganization}}
	err := inference.Retry(ctx, "entities", func(ctx context.Context) error {
		return r.Client.Post(ctx, "/entities", req, entitiesSchema, &resp)
	})
	if err != nil {
		return nil, err
	}
	return resp.Entities, nil
}
