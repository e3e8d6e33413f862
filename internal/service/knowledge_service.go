package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/harshaislive/bespoke/internal/config"
	"github.com/harshaislive/bespoke/pkg/logger"

	"go.uber.org/zap"
)

// ContextSource supplies the prompt inputs for question generation: the
// static knowledge context and the crowd-sourced user queries. Both are
// best-effort; failures yield fixed fallback strings, never errors.
type ContextSource interface {
	Context(ctx context.Context) string
	UserQueries(ctx context.Context) string
}

const (
	fallbackKnowledgeContext = "Error loading knowledge base documents. Using fallback context for question generation."
	defaultUserQueries       = "No specific user queries provided for this generation."
)

type knowledgeDocument struct {
	FullContext string `json:"fullContext"`
	BMC         struct {
		Mission               string            `json:"mission"`
		CustomerSegments      []string          `json:"customerSegments"`
		ValuePropositions     []string          `json:"valuePropositions"`
		CustomerRelationships string            `json:"customerRelationships"`
		SubBrands             map[string]string `json:"subBrands"`
		CommonConcerns        []string          `json:"commonProspectConcerns"`
	} `json:"bmc"`
	BrandGuidelines struct {
		Tone         map[string]string `json:"tone"`
		Guidelines   []string          `json:"guidelines"`
		BrandPersona string            `json:"brandPersona"`
		Purpose      string            `json:"purpose"`
	} `json:"brandGuidelines"`
}

// KnowledgeService loads the static business-context document once and
// fetches crowd-sourced queries from the configured webhook per session
// start. Fire-once, no retry.
type KnowledgeService struct {
	cfg    config.KnowledgeConfig
	client *http.Client

	once    sync.Once
	context string
}

func NewKnowledgeService(cfg config.KnowledgeConfig) *KnowledgeService {
	return &KnowledgeService{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *KnowledgeService) Context(ctx context.Context) string {
	s.once.Do(func() {
		s.context = s.loadContext(ctx)
	})
	return s.context
}

func (s *KnowledgeService) loadContext(ctx context.Context) string {
	data, err := s.readDocument(ctx)
	if err != nil {
		logger.Log.Warn("Knowledge base unavailable, using fallback context", zap.Error(err))
		return fallbackKnowledgeContext
	}

	var doc knowledgeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		logger.Log.Warn("Knowledge base document is not valid JSON", zap.Error(err))
		return fallbackKnowledgeContext
	}

	// Prefer the pre-formatted context when the document carries one.
	if doc.FullContext != "" {
		return doc.FullContext
	}
	return formatKnowledgeDocument(&doc)
}

func (s *KnowledgeService) readDocument(ctx context.Context) ([]byte, error) {
	if s.cfg.Path != "" {
		return os.ReadFile(s.cfg.Path)
	}
	if s.cfg.URL == "" {
		return nil, fmt.Errorf("no knowledge base source configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch knowledge base: %s", resp.Status)
	}

	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

func formatKnowledgeDocument(doc *knowledgeDocument) string {
	lines := []string{
		fmt.Sprintf("BMC:\n- Mission: %s", doc.BMC.Mission),
		fmt.Sprintf("- Customer Segments: %s", strings.Join(doc.BMC.CustomerSegments, ", ")),
		fmt.Sprintf("- Value Propositions: %s", strings.Join(doc.BMC.ValuePropositions, ", ")),
		fmt.Sprintf("- Customer Relationships: %s", doc.BMC.CustomerRelationships),
		fmt.Sprintf("- Sub-Brands: BeWild (%s), Belong (%s)", doc.BMC.SubBrands["BeWild"], doc.BMC.SubBrands["Belong"]),
		fmt.Sprintf("- Common Concerns: %s", strings.Join(doc.BMC.CommonConcerns, ", ")),
		fmt.Sprintf("\nBrand Guidelines:\n- Tone: Assertive (%s), Authentic (%s), Approachable (%s)",
			doc.BrandGuidelines.Tone["assertive"], doc.BrandGuidelines.Tone["authentic"], doc.BrandGuidelines.Tone["approachable"]),
		fmt.Sprintf("- Guidelines: %s", strings.Join(doc.BrandGuidelines.Guidelines, "; ")),
		fmt.Sprintf("- Brand Persona: %s", doc.BrandGuidelines.BrandPersona),
		fmt.Sprintf("- Purpose: %s", doc.BrandGuidelines.Purpose),
	}
	return strings.Join(lines, "\n")
}

// UserQueries pulls crowd-sourced chatbot questions from the webhook. The
// payload is either {"User_message": "..."} or a bare JSON string; anything
// else, or any failure, falls back to the default sentence.
func (s *KnowledgeService) UserQueries(ctx context.Context) string {
	if s.cfg.UserQueriesURL == "" {
		return defaultUserQueries
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.UserQueriesURL, nil)
	if err != nil {
		return defaultUserQueries
	}
	resp, err := s.client.Do(req)
	if err != nil {
		logger.Log.Warn("User queries webhook unreachable, proceeding without them", zap.Error(err))
		return defaultUserQueries
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		logger.Log.Warn("User queries webhook returned non-OK status", zap.String("status", resp.Status))
		return defaultUserQueries
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return defaultUserQueries
	}

	var wrapped struct {
		UserMessage string `json:"User_message"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && strings.TrimSpace(wrapped.UserMessage) != "" {
		return wrapped.UserMessage
	}

	var bare string
	if err := json.Unmarshal(body, &bare); err == nil && strings.TrimSpace(bare) != "" {
		return bare
	}

	return defaultUserQueries
}
