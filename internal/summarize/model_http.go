package summarize

import (
	"context"

	"documind-backend/internal/inference"
)

var (
	tokenizeSchema = inference.MustCompileSchema("tokenize.json", `{
  "type": "object",
  "required": ["ids"],
  "properties": {"ids": {"type": "array", "items": {"type": "integer"}}}
}`)
	detokenizeSchema = inference.MustCompileSchema("detokenize.json", `{
  "type": "object",
  "required": ["text"],
  "properties": {"text": {"type": "string"}}
}`)
	summarizeSchema = inference.MustCompileSchema("summarize.json", `{
  "type": "object",
  "required": ["summary_text"],
  "properties": {"summary_text": {"type": "string"}}
}`)
)

// HTTPModel calls /tokenize, /detokenize and /summarize on the inference service.
type HTTPModel struct {
	Client *inference.Client
}

type generateRequest struct {
	Text      string `json:"text"`
	MinLength int    `json:"min_length"`
	MaxLength int    `json:"max_length"`
	DoSample  bool   `json:"do_sample"`
}

func (m HTTPModel) Tokenize(ctx context.Context, text string) ([]int, error) {
	var resp struct {
		IDs []int `json:"ids"`
	}
	err := inference.Retry(ctx, "tokenize", func(ctx context.Context) error {
		return m.Client.Post(ctx, "/tokenize", map[string]string{"text": text}, tokenizeSchema, &resp)
	})
	return resp.IDs, err
}

func (m HTTPModel) Detokenize(ctx context.Context, ids []int) (string, error) {
	var resp struct {
		Text string `json:"text"`
	}
	err := inference.Retry(ctx, "detokenize", func(ctx context.Context) error {
		return m.Client.Post(ctx, "/detokenize", map[string][]int{"ids": ids}, detokenizeSchema, &resp)
	})
	return resp.Text, err
}

func (m HTTPModel) Generate(ctx context.Context, text string, p Params) (string, error) {
	var resp struct {
		SummaryText string `json:"summary_text"`
	}
	req := generateRequest{Text: text, MinLength: p.MinLength, MaxLength: p.MaxLength, DoSample: p.Sample}
	err := inference.Retry(ctx, "summarize", func(ctx context.Context) error {
		return m.Client.Post(ctx, "/summarize", req, summarizeSchema, &resp)
	})
	return resp.SummaryText, err
}
