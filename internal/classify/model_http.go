package classify

import (
	"context"

	"documind-backend/internal/inference"
)

var classifySchema = inference.MustCompileSchema("classify.json", `{
  "type": "object",
  "required": ["label", "score"],
  "properties": {
    "label": {"type": "string", "minLength": 1},
    "score": {"type": "number", "minimum": 0, "maximum": 1}
  }
}`)

// HTTPModel calls POST /classify on the inference service. The service
// returns the arg-max label of the softmax and its probability.
type HTTPModel struct {
	Client *inference.Client
}

func (m HTTPModel) Predict(ctx context.Context, text string) (Prediction, error) {
	var pred Prediction
	err := inference.Retry(ctx, "classify", func(ctx context.Context) error {
		return m.Client.Post(ctx, "/classify", map[string]string{"text": text}, classifySchema, &pred)
	})
	return pred, err
}

// Ready probes the service health endpoint.
func (m HTTPModel) Ready(ctx context.Context) error {
	return m.Client.Ready(ctx)
}
