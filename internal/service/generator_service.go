package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/harshaislive/bespoke/internal/config"
	"github.com/harshaislive/bespoke/internal/model"
	"github.com/harshaislive/bespoke/internal/util"
)

// QuestionGenerator produces the ordered scenario-question list for a new
// session. Implementations are stateless across invocations.
type QuestionGenerator interface {
	Generate(ctx context.Context, knowledgeContext, userQueries string) ([]model.Question, error)
}

const questionPromptTemplate = `You are the Bespoke Agent for Beforest, tasked with generating 5 situation-based questions to evaluate employees' communication skills in converting well-informed prospects into members of the Beforest community. Use the knowledge base documents (Beforest BMC and Brand Guidelines) provided below to create realistic scenarios that reflect the final concerns or objections prospects might raise before joining.

### Instructions:
- Generate exactly 5 situation-based questions.
- Each question should present a realistic scenario involving a prospect who has already attended a one-on-one call, received detailed information about Beforest, and has clarity on its mission and offerings, but is hesitant to join due to final concerns or objections.
- Base scenarios on the BMC's customer segments and their potential hesitations (financial commitment, community dynamics, long-term value).
- Incorporate Beforest's offerings, such as the BeWild produce arm or Belong barefoot luxury experiences, where relevant.
- Reflect the Brand Guidelines' tone: assertive (70%), authentic (30%). Avoid superlatives, hyperbole, or exaggeration; use simple, fact-based language.
- Ensure questions test the employee's ability to address these concerns using Beforest's value propositions in a transparent, community-focused manner.
- Format each question as a string in a JSON array, e.g., ["Question 1", "Question 2", ..., "Question 5"].
- Use these questions asked by real-time users on the website chatbot as a base, strictly only if they are relevant: {{USER_QUERIES}}

### Retrieved Knowledge Base Context:
{{DOCUMENT_CONTEXT}}

Generate the 5 situation-based questions now.`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GeneratorService calls an OpenAI-compatible chat-completions endpoint.
// The model's reply is untrusted input and must parse as a string array.
type GeneratorService struct {
	cfg    config.OpenAIConfig
	client *http.Client
}

func NewGeneratorService(cfg config.OpenAIConfig) *GeneratorService {
	return &GeneratorService{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

func (s *GeneratorService) Generate(ctx context.Context, knowledgeContext, userQueries string) ([]model.Question, error) {
	if s.cfg.APIKey == "" {
		return nil, util.ErrGenerationNoCredentials
	}

	prompt := strings.NewReplacer(
		"{{USER_QUERIES}}", userQueries,
		"{{DOCUMENT_CONTEXT}}", knowledgeContext,
	).Replace(questionPromptTemplate)

	reqBody := chatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrGenerationUpstream, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrGenerationUpstream, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrGenerationUpstream, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", util.ErrGenerationUpstream, resp.StatusCode, string(body))
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrGenerationUpstream, err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("%w: %s", util.ErrGenerationUpstream, result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", util.ErrGenerationUpstream)
	}

	return parseQuestionList(result.Choices[0].Message.Content)
}

// parseQuestionList strips markdown code fences, then requires a JSON array
// whose every element is a string. Any other shape is malformed; nothing is
// silently coerced.
func parseQuestionList(content string) ([]model.Question, error) {
	text := stripCodeFence(content)

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrGenerationMalformed, err)
	}

	questions := make([]model.Question, 0, len(raw))
	for _, item := range raw {
		var q string
		if err := json.Unmarshal(item, &q); err != nil {
			return nil, fmt.Errorf("%w: element is not a string", util.ErrGenerationMalformed)
		}
		questions = append(questions, model.Question{Text: q})
	}
	return questions, nil
}

func stripCodeFence(content string) string {
	text := strings.TrimSpace(content)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	// Drop an optional language tag on the opening fence line.
	if idx := strings.Index(text, "\n"); idx >= 0 {
		first := strings.TrimSpace(text[:idx])
		if first == "" || !strings.ContainsAny(first, "[{") {
			text = text[idx+1:]
		}
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
