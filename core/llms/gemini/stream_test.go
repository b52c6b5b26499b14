package gemini

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/koscakluka/ema-clips/core/llms"
	"google.golang.org/genai"
)

type fakeModels struct {
	responses []*genai.GenerateContentResponse
	err       error

	calls    int
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContentStream(
	_ context.Context,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) iter.Seq2[*genai.GenerateContentResponse, error] {
	f.calls++
	f.model = model
	f.contents = contents
	f.config = config
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, response := range f.responses {
			if !yield(response, nil) {
				return
			}
		}
		if f.err != nil {
			yield(nil, f.err)
		}
	}
}

func responseWithParts(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Role: string(genai.RoleModel), Parts: parts},
	}}}
}

func newTestClient(t *testing.T, models *fakeModels) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), "test-key", withContentStreamer(models))
	if err != nil {
		t.Fatalf("expected client to be created, got %v", err)
	}
	return client
}

func TestStreamYieldsPartsInArrivalOrder(t *testing.T) {
	models := &fakeModels{responses: []*genai.GenerateContentResponse{
		responseWithParts(&genai.Part{Text: "Assalomu "}),
		responseWithParts(
			&genai.Part{Text: "alaykum!"},
			&genai.Part{FunctionCall: &genai.FunctionCall{
				Name: "play_audio",
				Args: map[string]any{"audio_file": "Salomlashuv.wav"},
			}},
		),
	}}
	client := newTestClient(t, models)

	var kinds []string
	for chunk, err := range client.PromptWithStream(context.Background(), nil).Chunks(context.Background()) {
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		switch chunk := chunk.(type) {
		case llms.StreamContentChunk:
			kinds = append(kinds, "text:"+chunk.Content())
		case llms.StreamToolCallChunk:
			kinds = append(kinds, "call:"+chunk.ToolCall().Arguments)
		}
	}

	want := []string{"text:Assalomu ", "text:alaykum!", `call:{"audio_file":"Salomlashuv.wav"}`}
	if len(kinds) != len(want) {
		t.Fatalf("expected %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("expected chunk %d to be %q, got %q", i, want[i], kinds[i])
		}
	}
}

func TestStreamDoesNotRequestUntilRanged(t *testing.T) {
	models := &fakeModels{}
	client := newTestClient(t, models)

	stream := client.PromptWithStream(context.Background(), nil)
	if models.calls != 0 {
		t.Fatalf("expected no request before ranging, got %d", models.calls)
	}

	for range stream.Chunks(context.Background()) {
	}
	if models.calls != 1 {
		t.Fatalf("expected exactly one request, got %d", models.calls)
	}
}

func TestStreamPropagatesServiceError(t *testing.T) {
	wantErr := errors.New("permission denied")
	models := &fakeModels{
		responses: []*genai.GenerateContentResponse{responseWithParts(&genai.Part{Text: "partial"})},
		err:       wantErr,
	}
	client := newTestClient(t, models)

	var gotErr error
	texts := 0
	for chunk, err := range client.PromptWithStream(context.Background(), nil).Chunks(context.Background()) {
		if err != nil {
			gotErr = err
			continue
		}
		if _, ok := chunk.(llms.StreamContentChunk); ok {
			texts++
		}
	}

	if texts != 1 {
		t.Fatalf("expected the partial text before the error, got %d text chunks", texts)
	}
	if !errors.Is(gotErr, wantErr) {
		t.Fatalf("expected service error to be wrapped, got %v", gotErr)
	}
}

func TestStreamStopsWhenConsumerBreaks(t *testing.T) {
	models := &fakeModels{responses: []*genai.GenerateContentResponse{
		responseWithParts(&genai.Part{Text: "one"}),
		responseWithParts(&genai.Part{Text: "two"}),
	}}
	client := newTestClient(t, models)

	seen := 0
	for range client.PromptWithStream(context.Background(), nil).Chunks(context.Background()) {
		seen++
		break
	}
	if seen != 1 {
		t.Fatalf("expected to stop after first chunk, got %d", seen)
	}
}

func TestPromptWithStreamBuildsRequest(t *testing.T) {
	models := &fakeModels{}
	client, err := NewClient(context.Background(), "test-key",
		withContentStreamer(models),
		WithModel("gemini-test"),
	)
	if err != nil {
		t.Fatalf("expected client to be created, got %v", err)
	}

	prompt := "Salom"
	tool := llms.NewTool("play_audio", "Plays a clip",
		map[string]llms.ParameterBase{"audio_file": {Type: "string", Description: "Clip"}},
		func(context.Context, struct{}) (string, error) { return "", nil },
	)
	stream := client.PromptWithStream(context.Background(), &prompt,
		llms.WithSystemPrompt("be brief"),
		llms.WithTurns(llms.Turn{Role: llms.TurnRoleUser, Parts: []llms.Part{llms.TextPart("seed")}}),
		llms.WithTools(tool),
	)
	for range stream.Chunks(context.Background()) {
	}

	if models.model != "gemini-test" {
		t.Fatalf("expected configured model, got %q", models.model)
	}
	if len(models.contents) != 2 || models.contents[1].Parts[0].Text != "Salom" {
		t.Fatalf("expected history followed by prompt, got %+v", models.contents)
	}
	config := models.config
	if config.SystemInstruction == nil || config.SystemInstruction.Parts[0].Text != "be brief" {
		t.Fatalf("expected system instruction to be set, got %+v", config.SystemInstruction)
	}
	if config.MaxOutputTokens != defaultMaxOutputTokens || config.ResponseMIMEType != defaultResponseMIMEType {
		t.Fatalf("expected default generation options, got %+v", config)
	}
	if config.Temperature == nil || *config.Temperature != defaultTemperature {
		t.Fatalf("expected default temperature, got %v", config.Temperature)
	}
	if len(config.Tools) != 1 || config.Tools[0].FunctionDeclarations[0].Name != "play_audio" {
		t.Fatalf("expected play_audio declaration, got %+v", config.Tools)
	}
}

func TestToStreamChunksReportsUsageAndSkipsThoughts(t *testing.T) {
	response := responseWithParts(
		&genai.Part{Text: "thinking", Thought: true},
		&genai.Part{Text: "answer"},
	)
	response.Candidates[0].FinishReason = genai.FinishReasonStop
	response.UsageMetadata = &genai.GenerateContentResponseUsageMetadata{
		PromptTokenCount:     12,
		CandidatesTokenCount: 3,
		TotalTokenCount:      15,
	}

	chunks := toStreamChunks(response)
	if len(chunks) != 2 {
		t.Fatalf("expected text and usage chunks, got %d", len(chunks))
	}
	content, ok := chunks[0].(llms.StreamContentChunk)
	if !ok || content.Content() != "answer" {
		t.Fatalf("expected answer text chunk, got %#v", chunks[0])
	}
	if reason := content.FinishReason(); reason == nil || *reason != string(genai.FinishReasonStop) {
		t.Fatalf("expected finish reason to be forwarded, got %v", reason)
	}
	usage, ok := chunks[1].(llms.StreamUsageChunk)
	if !ok {
		t.Fatalf("expected usage chunk, got %#v", chunks[1])
	}
	if got := usage.Usage(); got.InputTokens != 12 || got.OutputTokens != 3 || got.TotalTokens != 15 {
		t.Fatalf("expected usage to be converted, got %+v", got)
	}
}

func TestToStreamChunksHandlesEmptyResponses(t *testing.T) {
	if chunks := toStreamChunks(nil); len(chunks) != 0 {
		t.Fatalf("expected no chunks for nil response, got %d", len(chunks))
	}
	if chunks := toStreamChunks(&genai.GenerateContentResponse{}); len(chunks) != 0 {
		t.Fatalf("expected no chunks for empty response, got %d", len(chunks))
	}
}
