package genai

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockChatAPI is a mock for the OpenAI chat API
type MockChatAPI struct {
	mock.Mock
}

func (m *MockChatAPI) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func answerResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
		},
	}
}

func TestClient_GenerateAnswer_Success(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := &Client{api: mockAPI, model: DefaultChatModel}

	ctx := context.Background()
	mockAPI.On("CreateChatCompletion", ctx, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == DefaultChatModel &&
			len(req.Messages) == 1 &&
			req.Messages[0].Content == "What is your refund policy?"
	})).Return(answerResponse("30 days, no questions asked"), nil)

	answer, err := client.GenerateAnswer(ctx, "What is your refund policy?")

	require.NoError(t, err)
	assert.Equal(t, "30 days, no questions asked", answer)
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateAnswer_EmptyPrompt(t *testing.T) {
	client := NewClient("")

	answer, err := client.GenerateAnswer(context.Background(), "")

	assert.Error(t, err)
	assert.Empty(t, answer)
	assert.Equal(t, ErrEmptyPrompt, err)
}

func TestClient_GenerateAnswer_APIError(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := &Client{api: mockAPI, model: DefaultChatModel}

	ctx := context.Background()
	mockAPI.On("CreateChatCompletion", ctx, mock.Anything).
		Return(openai.ChatCompletionResponse{}, errors.New("rate limited"))

	answer, err := client.GenerateAnswer(ctx, "hello")

	assert.Error(t, err)
	assert.Empty(t, answer)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestClient_GenerateAnswer_NoChoices(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := &Client{api: mockAPI, model: DefaultChatModel}

	ctx := context.Background()
	mockAPI.On("CreateChatCompletion", ctx, mock.Anything).
		Return(openai.ChatCompletionResponse{}, nil)

	answer, err := client.GenerateAnswer(ctx, "hello")

	assert.Empty(t, answer)
	assert.Equal(t, ErrNoAnswer, err)
}

func TestClient_GenerateAnswerWithImage_Success(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := &Client{api: mockAPI, model: DefaultChatModel}

	ctx := context.Background()
	mockAPI.On("CreateChatCompletion", ctx, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		if len(req.Messages) != 1 || len(req.Messages[0].MultiContent) != 2 {
			return false
		}
		parts := req.Messages[0].MultiContent
		return parts[0].Type == openai.ChatMessagePartTypeText &&
			parts[0].Text == "What is in this picture?" &&
			parts[1].Type == openai.ChatMessagePartTypeImageURL &&
			parts[1].ImageURL.URL == "https://media.example.com/cat.png"
	})).Return(answerResponse("A cat on a keyboard"), nil)

	answer, err := client.GenerateAnswerWithImage(ctx, "What is in this picture?", "https://media.example.com/cat.png")

	require.NoError(t, err)
	assert.Equal(t, "A cat on a keyboard", answer)
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateAnswerWithImage_EmptyPrompt(t *testing.T) {
	client := NewClient("")

	answer, err := client.GenerateAnswerWithImage(context.Background(), "", "https://media.example.com/cat.png")

	assert.Empty(t, answer)
	assert.Equal(t, ErrEmptyPrompt, err)
}

func TestNewClientFromEnv_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	client, err := NewClientFromEnv()

	assert.Nil(t, client)
	assert.Equal(t, ErrNoAPIKey, err)
}

func TestNewClientWithConfig_ModelDefault(t *testing.T) {
	client := NewClientWithConfig(Config{APIKey: "sk-test"})
	assert.Equal(t, DefaultChatModel, client.model)

	client = NewClientWithConfig(Config{APIKey: "sk-test", Model: openai.GPT4o})
	assert.Equal(t, openai.GPT4o, client.model)
}
