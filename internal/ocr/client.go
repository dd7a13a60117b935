package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	defaultMaxTokens = 300
	requestTimeout   = 60 * time.Second
)

type Transcription struct {
	Text         string
	PromptTokens int64
}

// VisionClient extracts the text printed in an image.
type VisionClient interface {
	Transcribe(ctx context.Context, image []byte, prompt string) (Transcription, error)
}

type OpenAIVision struct {
	client    openai.Client
	model     string
	maxTokens int64
}

var _ VisionClient = (*OpenAIVision)(nil)

// NewOpenAIVision creates a client for model. If apiKey is empty the key is
// read from OPENAI_API_KEY.
func NewOpenAIVision(model, apiKey string) *OpenAIVision {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	return &OpenAIVision{
		client:    openai.NewClient(opts...),
		model:     model,
		maxTokens: defaultMaxTokens,
	}
}

func (o *OpenAIVision) Transcribe(ctx context.Context, image []byte, prompt string) (Transcription, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	imageURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)

	chatOpts := openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: imageURL,
				}),
			}),
		},
		MaxTokens: openai.Int(o.maxTokens),
	}

	res, err := o.client.Chat.Completions.New(ctx, chatOpts)
	if err != nil {
		slog.Error("openai error: chat completions failed", "error", err)
		return Transcription{}, fmt.Errorf("openai transcription failed: %w", err)
	}

	if len(res.Choices) == 0 {
		return Transcription{}, fmt.Errorf("openai transcription returned no choices")
	}

	return Transcription{
		Text:         res.Choices[0].Message.Content,
		PromptTokens: res.Usage.PromptTokens,
	}, nil
}
