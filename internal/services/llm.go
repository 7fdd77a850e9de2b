package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// LLMService talks to an OpenAI-compatible chat completion endpoint. All of
// base URL, token and model come from the environment; if any is missing the
// service reports itself disabled and the AI endpoints return unavailable.
type LLMService struct {
	baseURL string
	token   string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

func NewLLMService(logger *zap.Logger) *LLMService {
	s := &LLMService{
		baseURL: strings.TrimSuffix(os.Getenv("LLM_BASE_URL"), "/"),
		token:   os.Getenv("LLM_TOKEN"),
		model:   os.Getenv("LLM_MODEL"),
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
	if !s.Enabled() {
		logger.Warn("LLM service disabled, missing LLM_BASE_URL, LLM_TOKEN or LLM_MODEL")
	}
	return s
}

func (s *LLMService) Enabled() bool {
	return s.baseURL != "" && s.token != "" && s.model != ""
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// IdeaSuggestion is the model's improvement proposal for a draft idea.
type IdeaSuggestion struct {
	ImprovedTitle       string   `json:"improvedTitle"`
	ImprovedDescription string   `json:"improvedDescription"`
	SuggestedTags       []string `json:"suggestedTags"`
	ImplementationSteps []string `json:"implementationSteps"`
	PotentialChallenges []string `json:"potentialChallenges"`
	SuccessMetrics      []string `json:"successMetrics"`
}

// IdeaAnalysis scores a submitted idea. Scores are 1-10.
type IdeaAnalysis struct {
	Sentiment        string   `json:"sentiment"`
	FeasibilityScore int      `json:"feasibilityScore"`
	InnovationScore  int      `json:"innovationScore"`
	ImpactScore      int      `json:"impactScore"`
	OverallScore     int      `json:"overallScore"`
	Insights         []string `json:"insights"`
}

const suggestPrompt = `You are an innovation consultant reviewing an employee idea submission.
Improve the idea below and respond with ONLY a JSON object, no prose, with keys:
improvedTitle (string), improvedDescription (string), suggestedTags (array of strings),
implementationSteps (array of strings), potentialChallenges (array of strings),
successMetrics (array of strings).

Category: %s
Title: %s
Description: %s`

const analyzePrompt = `You are an innovation consultant scoring an employee idea submission.
Respond with ONLY a JSON object, no prose, with keys:
sentiment (one of "positive", "neutral", "negative"),
feasibilityScore (integer 1-10), innovationScore (integer 1-10),
impactScore (integer 1-10), overallScore (integer 1-10),
insights (array of strings).

Category: %s
Title: %s
Description: %s`

// SuggestImprovement asks the model to rework a draft idea. Nothing is
// persisted; the caller shows the suggestion to the author.
func (s *LLMService) SuggestImprovement(title, description, category string) (*IdeaSuggestion, error) {
	content, err := s.chat(fmt.Sprintf(suggestPrompt, category, title, description))
	if err != nil {
		return nil, err
	}
	var suggestion IdeaSuggestion
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &suggestion); err != nil {
		s.logger.Error("could not parse suggestion response", zap.Error(err))
		return nil, Unavailable("AI suggestion response was malformed", err)
	}
	return &suggestion, nil
}

// Analyze scores an idea. The caller persists the result onto the idea.
func (s *LLMService) Analyze(title, description, category string) (*IdeaAnalysis, error) {
	content, err := s.chat(fmt.Sprintf(analyzePrompt, category, title, description))
	if err != nil {
		return nil, err
	}
	var analysis IdeaAnalysis
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &analysis); err != nil {
		s.logger.Error("could not parse analysis response", zap.Error(err))
		return nil, Unavailable("AI analysis response was malformed", err)
	}
	return &analysis, nil
}

func (s *LLMService) chat(prompt string) (string, error) {
	if !s.Enabled() {
		return "", Unavailable("AI features are not configured", nil)
	}

	reqBody, err := json.Marshal(ChatRequest{
		Model:    s.model,
		Messages: []ChatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", Unavailable("could not build AI request", err)
	}

	req, err := http.NewRequest("POST", s.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", Unavailable("could not build AI request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", Unavailable("AI request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Error("AI request rejected", zap.Int("status", resp.StatusCode))
		return "", Unavailable(fmt.Sprintf("AI request failed with status %d", resp.StatusCode), nil)
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", Unavailable("could not decode AI response", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", Unavailable("AI response contained no choices", nil)
	}
	return chatResp.Choices[0].Message.Content, nil
}

// stripCodeFence unwraps responses the model insists on fencing as ```json.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}
