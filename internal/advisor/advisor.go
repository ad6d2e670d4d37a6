package advisor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cryptopulse/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var ErrNoData = errors.New("no sentiment data in range")

// LLMClient abstracts the OpenAI chat completions API for testability.
type LLMClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// SentimentQuerier provides the sentiment data the advisor talks about.
type SentimentQuerier interface {
	History(ctx context.Context, start, end time.Time, coins []string) ([]domain.SentimentPoint, error)
	Summary(ctx context.Context, coin string, window time.Duration) (domain.Summary, error)
	Latest(ctx context.Context) (domain.SentimentPoint, bool)
}

// ConversationStore persists and retrieves conversation messages.
type ConversationStore interface {
	AppendMessage(ctx context.Context, chatID int64, role, content string) error
	RecentMessages(ctx context.Context, chatID int64, limit int) ([]domain.ConversationMessage, error)
}

type AdvisorService struct {
	tracer     trace.Tracer
	llm        LLMClient
	sentiment  SentimentQuerier
	convStore  ConversationStore
	model      string
	maxHistory int
	window     time.Duration
}

func NewAdvisorService(
	tracer trace.Tracer,
	llm LLMClient,
	sentiment SentimentQuerier,
	convStore ConversationStore,
	model string,
	maxHistory int,
) *AdvisorService {
	if maxHistory <= 0 {
		maxHistory = 20
	}
	return &AdvisorService{
		tracer:     tracer,
		llm:        llm,
		sentiment:  sentiment,
		convStore:  convStore,
		model:      model,
		maxHistory: maxHistory,
		window:     30 * time.Minute,
	}
}

// Explain asks the model why a coin's sentiment moved the way it did over
// [start, end].
func (s *AdvisorService) Explain(ctx context.Context, coin string, start, end time.Time) (string, error) {
	ctx, span := s.tracer.Start(ctx, "advisor.explain")
	defer span.End()

	c, ok := domain.LookupCoin(coin)
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownCoin, coin)
	}
	span.SetAttributes(attribute.String("coin", c.Name))

	points, err := s.sentiment.History(ctx, start, end, []string{c.Name})
	if err != nil {
		return "", err
	}
	if len(points) == 0 {
		return "", ErrNoData
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(explainerRole),
		openai.UserMessage(BuildExplainPrompt(c.Name, start, end, points)),
	}
	reply, err := s.callLLM(ctx, messages)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("explainer unavailable: %w", err)
	}
	return reply, nil
}

// Ask answers a free-form chat message with the conversation so far and
// current sentiment as context.
func (s *AdvisorService) Ask(ctx context.Context, chatID int64, userMessage string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "advisor.ask")
	defer span.End()
	span.SetAttributes(attribute.Int64("chat_id", chatID))

	if err := s.convStore.AppendMessage(ctx, chatID, "user", userMessage); err != nil {
		log.Printf("failed to store user message: %v", err)
	}

	sentimentContext := s.gatherContext(ctx, ExtractCoins(userMessage))
	systemPrompt := BuildSystemPrompt(sentimentContext)

	history, err := s.convStore.RecentMessages(ctx, chatID, s.maxHistory)
	if err != nil {
		log.Printf("failed to load conversation history: %v", err)
		history = nil
	}

	reply, err := s.callLLM(ctx, s.buildMessages(systemPrompt, history))
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("advisor unavailable: %w", err)
	}

	if err := s.convStore.AppendMessage(ctx, chatID, "assistant", reply); err != nil {
		log.Printf("failed to store assistant reply: %v", err)
	}
	return reply, nil
}

func (s *AdvisorService) gatherContext(ctx context.Context, coins []string) string {
	ctx, span := s.tracer.Start(ctx, "advisor.gather-context")
	defer span.End()

	if len(coins) == 0 {
		coins = domain.CoinNames
	}
	summaries := make([]domain.Summary, 0, len(coins))
	for _, coin := range coins {
		sum, err := s.sentiment.Summary(ctx, coin, s.window)
		if err != nil {
			log.Printf("failed to summarize %s: %v", coin, err)
			continue
		}
		summaries = append(summaries, sum)
	}

	var latest *domain.SentimentPoint
	if p, ok := s.sentiment.Latest(ctx); ok {
		latest = &p
	}
	return FormatSentimentContext(summaries, latest, coins)
}

func (s *AdvisorService) buildMessages(
	systemPrompt string,
	history []domain.ConversationMessage,
) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	messages = append(messages, openai.SystemMessage(systemPrompt))

	for _, msg := range history {
		switch msg.Role {
		case "user":
			messages = append(messages, openai.UserMessage(msg.Content))
		case "assistant":
			messages = append(messages, openai.AssistantMessage(msg.Content))
		}
	}
	return messages
}

func (s *AdvisorService) callLLM(
	ctx context.Context,
	messages []openai.ChatCompletionMessageParamUnion,
) (string, error) {
	ctx, span := s.tracer.Start(ctx, "advisor.llm-call")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", s.model),
		attribute.Int("llm.message_count", len(messages)),
	)

	completion, err := s.llm.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model:    s.model,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices in LLM response")
	}

	reply := completion.Choices[0].Message.Content
	span.SetAttributes(attribute.Int("llm.reply_length", len(reply)))
	return reply, nil
}

type openaiClient struct {
	client openai.Client
}

func NewOpenAIClient(apiKey string) LLMClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &openaiClient{client: client}
}

func (c *openaiClient) CreateChatCompletion(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
