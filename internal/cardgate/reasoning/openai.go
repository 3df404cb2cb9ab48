package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OpenAIConfig configures the responses endpoint and HTTP behavior.
type OpenAIConfig struct {
	ResponsesURL string
	APIKey       string
	Model        string
	HTTPClient   *http.Client
}

type openAIEngine struct {
	cfg OpenAIConfig
}

// NewOpenAIEngine builds an Engine backed by an OpenAI-responses-style
// HTTP endpoint.
func NewOpenAIEngine(cfg OpenAIConfig) Engine {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.ResponsesURL) == "" {
		cfg.ResponsesURL = "https://api.openai.com/v1/responses"
	}
	return &openAIEngine{cfg: cfg}
}

func (e *openAIEngine) Decide(ctx context.Context, in Input) (Output, error) {
	if strings.TrimSpace(e.cfg.APIKey) == "" {
		return Output{}, fmt.Errorf("%w: api key is required", ErrUnavailable)
	}
	if strings.TrimSpace(e.cfg.Model) == "" {
		return Output{}, fmt.Errorf("%w: model is required", ErrUnavailable)
	}

	requestBody, err := json.Marshal(map[string]any{
		"model": e.cfg.Model,
		"input": buildPrompt(in),
	})
	if err != nil {
		return Output{}, fmt.Errorf("%w: marshal request: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.ResponsesURL, bytes.NewReader(requestBody))
	if err != nil {
		return Output{}, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Credential material goes only into the Authorization header and
	// is never echoed in errors.
	req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)

	res, err := e.cfg.HTTPClient.Do(req)
	if err != nil {
		return Output{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return Output{}, fmt.Errorf("%w: status %d: %s", ErrUnavailable, res.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		OutputText string `json:"output_text"`
		Output     []struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return Output{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	text := strings.TrimSpace(payload.OutputText)
	if text == "" {
		for _, item := range payload.Output {
			for _, content := range item.Content {
				if t := strings.TrimSpace(content.Text); t != "" {
					text = t
					break
				}
			}
			if text != "" {
				break
			}
		}
	}
	if text == "" {
		return Output{}, fmt.Errorf("%w: response missing output text", ErrUnavailable)
	}

	return parseVerdict(text)
}

// buildPrompt renders the instruction handed to the model.  The model
// is asked to answer with a single JSON object so the reply stays
// machine-parseable.
func buildPrompt(in Input) string {
	var b strings.Builder
	b.WriteString("You are an access control system expert. You are provided with data ")
	b.WriteString("from an RFID card and an access permissions table.\n\n")
	b.WriteString("Based on the card's UID, block 1 data, block 2 data, and the access ")
	b.WriteString("permissions table, determine if the card is authorized to access the system.\n\n")
	fmt.Fprintf(&b, "Card UID: %s\n", in.CardUID)
	fmt.Fprintf(&b, "Block 1 Data: %s\n", in.Block1Data)
	fmt.Fprintf(&b, "Block 2 Data: %s\n", in.Block2Data)
	fmt.Fprintf(&b, "Access Permissions Table:\n%s\n\n", in.PermissionsTable)
	b.WriteString("Make sure you use the data in the Access Permissions Table to make your decision. ")
	b.WriteString(`Respond with only a JSON object of the form {"authorized": <bool>, "reason": "<string>"}.`)
	return b.String()
}

// parseVerdict extracts the JSON verdict from the model's output text.
// Models occasionally wrap the object in prose or a code fence, so the
// outermost braces delimit what gets decoded.
func parseVerdict(text string) (Output, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return Output{}, fmt.Errorf("%w: output is not a JSON verdict", ErrUnavailable)
	}

	var out Output
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return Output{}, fmt.Errorf("%w: decode verdict: %v", ErrUnavailable, err)
	}
	if strings.TrimSpace(out.Reason) == "" {
		return Output{}, fmt.Errorf("%w: verdict missing reason", ErrUnavailable)
	}
	return out, nil
}
