package adapter

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/pvelleleth/JiraChat/cmd/jirachat/app/domain"
	"github.com/pvelleleth/JiraChat/cmd/jirachat/app/service"
)

var (
	_ service.ChatModel = (*OpenAIClient)(nil)
	_ service.Embedder  = (*OpenAIClient)(nil)
)

// OpenAIClient serves both chat completions and embeddings. Generations are
// issued at temperature 0 so classification and answers stay deterministic.
type OpenAIClient struct {
	client         openai.Client
	chatModel      string
	embeddingModel string
}

func NewOpenAIClient(apiKey, chatModel, embeddingModel string) *OpenAIClient {
	return &OpenAIClient{
		client:         openai.NewClient(option.WithAPIKey(apiKey)),
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
	}
}

// Complete issues one chat completion. An empty system prompt is omitted.
func (o *OpenAIClient) Complete(ctx context.Context, system string, turns []domain.Turn) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)

	if system != "" {
		messages = append(messages, openai.ChatCompletionMessageParamUnion{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(system),
				},
			},
		})
	}

	for _, turn := range turns {
		if turn.Role == domain.RoleUser {
			messages = append(messages, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(turn.Content),
					},
				},
			})
			continue
		}
		messages = append(messages, openai.ChatCompletionMessageParamUnion{
			OfAssistant: &openai.ChatCompletionAssistantMessageParam{
				Content: openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(turn.Content),
				},
			},
		})
	}

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       openai.ChatModel(o.chatModel),
		Temperature: openai.Float(0),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// Embed returns the dense vector for one text.
func (o *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: []string{text},
		},
		Model: openai.EmbeddingModel(o.embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response is empty")
	}

	vector := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vector[i] = float32(v)
	}
	return vector, nil
}
