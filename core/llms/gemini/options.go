package gemini

import (
	"net/http"

	"google.golang.org/genai"
)

const (
	DefaultModel            = "gemini-2.0-flash"
	defaultTemperature      = 1
	defaultTopP             = 0.95
	defaultTopK             = 40
	defaultMaxOutputTokens  = 8192
	defaultResponseMIMEType = "text/plain"
)

type GenerationOptions struct {
	Temperature      *float32
	TopP             *float32
	TopK             *float32
	MaxOutputTokens  int32
	ResponseMIMEType string
}

func DefaultGenerationOptions() GenerationOptions {
	return GenerationOptions{
		Temperature:      genai.Ptr[float32](defaultTemperature),
		TopP:             genai.Ptr[float32](defaultTopP),
		TopK:             genai.Ptr[float32](defaultTopK),
		MaxOutputTokens:  defaultMaxOutputTokens,
		ResponseMIMEType: defaultResponseMIMEType,
	}
}

type ClientOption func(*Client)

func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

func WithGenerationOptions(options GenerationOptions) ClientOption {
	return func(c *Client) { c.generation = options }
}

// WithHTTPClient replaces the HTTP client used to reach the service. By
// default requests go through an otelhttp instrumented transport.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = client }
}

func withContentStreamer(models contentStreamer) ClientOption {
	return func(c *Client) { c.models = models }
}
