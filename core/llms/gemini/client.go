package gemini

import (
	"context"
	"fmt"
	"iter"
	"net/http"

	"github.com/koscakluka/ema-clips/core/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/genai"
)

// contentStreamer is the part of the genai models service the client uses.
type contentStreamer interface {
	GenerateContentStream(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) iter.Seq2[*genai.GenerateContentResponse, error]
}

type Client struct {
	model      string
	generation GenerationOptions
	httpClient *http.Client
	models     contentStreamer
}

func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		model:      DefaultModel,
		generation: DefaultGenerationOptions(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.models != nil {
		return c, nil
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	c.models = client.Models

	return c, nil
}

func (c *Client) Model() string { return c.model }

// PromptWithStream prepares a streaming request. Nothing is sent until the
// returned stream's chunks are ranged over.
func (c *Client) PromptWithStream(_ context.Context, prompt *string, opts ...llms.StreamingPromptOption) llms.Stream {
	options := llms.StreamingPromptOptions{}
	for _, opt := range opts {
		opt.ApplyToStreaming(&options)
	}

	contents := toGeminiContents(options.Turns)
	if prompt != nil {
		contents = append(contents, &genai.Content{
			Role:  string(genai.RoleUser),
			Parts: []*genai.Part{{Text: *prompt}},
		})
	}

	toolNames := make([]string, 0, len(options.Tools))
	for _, tool := range options.Tools {
		toolNames = append(toolNames, tool.Function.Name)
	}

	return &Stream{
		models:    c.models,
		model:     c.model,
		contents:  contents,
		config:    c.generateContentConfig(options),
		toolNames: toolNames,
	}
}

func (c *Client) generateContentConfig(options llms.StreamingPromptOptions) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature:      c.generation.Temperature,
		TopP:             c.generation.TopP,
		TopK:             c.generation.TopK,
		MaxOutputTokens:  c.generation.MaxOutputTokens,
		ResponseMIMEType: c.generation.ResponseMIMEType,
		Tools:            toGeminiTools(options.Tools),
	}
	if options.Instructions != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: options.Instructions}},
		}
	}
	return config
}
