package analyzersvc

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/trezcool/degreeaudit/core/audit"
)

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	anthropicMaxToks = 8192
)

const extractionPrompt = `You read university "what-if" degree audit reports.
Return ONLY a JSON object, no prose, with this shape:
{
  "summary": "<short plain-text summary of the audit>",
  "structured_data": {
    "Student Name": "", "Major / Program": "", "Cumulative GPA": "", "Semester": "",
    "Credits": {"Completed Credits": 0, "In Progress Credits": 0, "Remaining Credits": 0},
    "Courses": {
      "Taken": [{"code": "", "title": "", "units": 3, "term": "", "year": "", "grade": ""}],
      "In Progress": [], "Remaining": [], "Not Used": []
    }
  }
}
Use "FA <yyyy>" / "SP <yyyy>" / "SU <yyyy>" for terms. Leave unknown fields empty.`

// AnthropicAnalyzer extracts the audit with the Anthropic Messages API, sending the PDF as a document block.
type AnthropicAnalyzer struct {
	client  anthropic.Client
	model   string
	timeout time.Duration
}

var _ audit.Analyzer = (*AnthropicAnalyzer)(nil)

func NewAnthropicAnalyzer(apiKey, model string, timeout time.Duration, opts ...option.RequestOption) *AnthropicAnalyzer {
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &AnthropicAnalyzer{
		client:  anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...),
		model:   model,
		timeout: timeout,
	}
}

func (a *AnthropicAnalyzer) Analyze(ctx context.Context, doc audit.Document) ([]byte, error) {
	pdf := anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{
		Data: base64.StdEncoding.EncodeToString(doc.Content),
	})

	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: anthropicMaxToks,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(pdf, anthropic.NewTextBlock(extractionPrompt)),
		},
	}, option.WithRequestTimeout(a.timeout))
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, &ResponseError{StatusCode: apiErr.StatusCode, Detail: fallbackDetail}
		}
		return nil, errors.Wrap(err, "calling anthropic")
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return extractJSON(block.Text)
		}
	}
	return nil, errors.New("no text content in anthropic response")
}

// extractJSON returns the JSON object in a model reply, ignoring code fences and surrounding prose.
func extractJSON(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		text = text[start : end+1]
	}
	if !gjson.Valid(text) || !gjson.Parse(text).IsObject() {
		return nil, audit.ErrInvalidResponse
	}
	return []byte(text), nil
}
