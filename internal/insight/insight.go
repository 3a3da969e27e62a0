// Package insight asks a language model to analyze a dataset and decodes
// its structured reply.
package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/KaramelBytes/datadeck-cli/internal/ai"
	"github.com/KaramelBytes/datadeck-cli/internal/utils"
)

// Analysis types.
const (
	AnalysisDocument = "document_analysis"
	AnalysisChat     = "chatbot_assistance"
)

// Response formats.
const (
	FormatText  = "text"
	FormatTable = "table"
	FormatChart = "chart"
	FormatMixed = "mixed"
)

var (
	// ErrProcessingFailed wraps every failure of the remote model call.
	ErrProcessingFailed = errors.New("AI processing failed")
	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("empty model response")
)

// File describes one uploaded input.
type File struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// Request is one insight or chat turn.
type Request struct {
	Command      string `json:"command"`
	Files        []File `json:"files"`
	AnalysisType string `json:"analysisType"`
}

// DataPoint is one chart bar or slice.
type DataPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// UnmarshalJSON tolerates quoted numbers and non-string names.
func (d *DataPoint) UnmarshalJSON(b []byte) error {
	var raw struct {
		Name  any `json:"name"`
		Value any `json:"value"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	d.Name = cast.ToString(raw.Name)
	d.Value = cast.ToFloat64(raw.Value)
	return nil
}

// TableData is a small table suggested by the model.
type TableData struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// VisualData carries chart or table data suggested by the model.
type VisualData struct {
	Type      string      `json:"type,omitempty"`
	Data      []DataPoint `json:"data,omitempty"`
	TableData *TableData  `json:"tableData,omitempty"`
}

// Response is the decoded model reply plus metadata.
type Response struct {
	Analysis        string      `json:"analysis"`
	Insights        []string    `json:"insights,omitempty"`
	Recommendations []string    `json:"recommendations,omitempty"`
	VisualData      *VisualData `json:"visualData,omitempty"`
	ImagePrompt     string      `json:"imagePrompt,omitempty"`
	Format          string      `json:"format,omitempty"`
	Model           string      `json:"model"`
	Status          string      `json:"status"`
	Type            string      `json:"type,omitempty"`
	Timestamp       time.Time   `json:"timestamp"`
	FilesProcessed  int         `json:"filesProcessed"`
	Usage           ai.Usage    `json:"usage"`
}

// Config tunes a Service. Zero MaxTokens and Temperature select the
// per-analysis presets.
type Config struct {
	Model            string
	MaxTokens        int
	Temperature      float64
	PromptTokenLimit int
	Logger           *zap.Logger
}

// Service turns requests into model calls.
type Service struct {
	rt     ai.Runtime
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a runtime; a nil logger discards output.
func NewService(rt ai.Runtime, cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{rt: rt, cfg: cfg, logger: logger, now: time.Now}
}

// presets returns temperature and max tokens for the analysis type.
func presets(analysisType string) (float64, int) {
	if analysisType == AnalysisChat {
		return 0.8, 1000
	}
	return 0.7, 3000
}

func (s *Service) params(analysisType string) (float64, int) {
	temp, maxTok := presets(analysisType)
	if s.cfg.Temperature > 0 {
		temp = s.cfg.Temperature
	}
	if s.cfg.MaxTokens > 0 {
		maxTok = s.cfg.MaxTokens
	}
	return temp, maxTok
}

// Process runs one request. dataContext is a dataset summary appended to
// the prompt and cut to the configured token budget.
func (s *Service) Process(ctx context.Context, req Request, dataContext string) (*Response, error) {
	if req.AnalysisType == AnalysisChat {
		return s.Chat(ctx, nil, req.Command, dataContext, nil)
	}
	dataContext = s.truncate(dataContext)
	msgs := []ai.Message{
		{Role: "system", Content: documentSystemPrompt},
		{Role: "user", Content: documentUserPrompt(req, dataContext)},
	}
	s.logger.Debug("Insight prompt",
		zap.Any("tokens", utils.TokenBreakdown(map[string]string{
			"system":  msgs[0].Content,
			"context": dataContext,
			"command": req.Command,
		})))

	text, resp, err := s.generate(ctx, msgs, req.AnalysisType, nil)
	if err != nil {
		return nil, err
	}
	out := ParseReply(text)
	out.Model = s.model(resp)
	out.Status = "success"
	out.Type = AnalysisDocument
	out.Timestamp = s.now().UTC()
	out.FilesProcessed = len(req.Files)
	out.Usage = resp.Usage
	return out, nil
}

// Chat answers one question given prior turns. When onDelta is set and the
// runtime streams, partial text is delivered as it arrives.
func (s *Service) Chat(ctx context.Context, history []ai.Message, question, dataContext string, onDelta func(string)) (*Response, error) {
	if strings.TrimSpace(question) == "" {
		question = "Hello! How can I help you with your data analysis today?"
	}
	system := chatSystemPrompt
	if dataContext = s.truncate(dataContext); dataContext != "" {
		system += "\n\nThe user's current dataset:\n" + dataContext
	}
	msgs := make([]ai.Message, 0, len(history)+2)
	msgs = append(msgs, ai.Message{Role: "system", Content: system})
	msgs = append(msgs, history...)
	msgs = append(msgs, ai.Message{Role: "user", Content: question})

	text, resp, err := s.generate(ctx, msgs, AnalysisChat, onDelta)
	if err != nil {
		return nil, err
	}
	return &Response{
		Analysis:  text,
		Format:    FormatText,
		Model:     s.model(resp),
		Status:    "success",
		Type:      "chatbot",
		Timestamp: s.now().UTC(),
		Usage:     resp.Usage,
	}, nil
}

func (s *Service) generate(ctx context.Context, msgs []ai.Message, analysisType string, onDelta func(string)) (string, *ai.GenerateResponse, error) {
	if s.rt == nil {
		return "", nil, fmt.Errorf("%w: no runtime configured", ErrProcessingFailed)
	}
	temp, maxTok := s.params(analysisType)
	req := ai.GenerateRequest{Model: s.cfg.Model, Messages: msgs, MaxTokens: maxTok, Temperature: temp}

	start := s.now()
	var (
		text string
		resp *ai.GenerateResponse
	)
	if sr, ok := s.rt.(ai.StreamRuntime); ok && onDelta != nil {
		var b strings.Builder
		err := sr.GenerateStream(ctx, req, func(d string) {
			b.WriteString(d)
			onDelta(d)
		})
		if err != nil {
			s.logger.Warn("Model call failed", zap.String("model", req.Model), zap.Error(err))
			return "", nil, fmt.Errorf("%w: %w", ErrProcessingFailed, err)
		}
		text, resp = b.String(), &ai.GenerateResponse{Model: req.Model}
	} else {
		r, err := s.rt.Generate(ctx, req)
		if err != nil {
			s.logger.Warn("Model call failed", zap.String("model", req.Model), zap.Error(err))
			return "", nil, fmt.Errorf("%w: %w", ErrProcessingFailed, err)
		}
		text, resp = r.Text(), r
	}
	if strings.TrimSpace(text) == "" {
		return "", nil, fmt.Errorf("%w: %w", ErrProcessingFailed, ErrEmptyResponse)
	}

	fields := []zap.Field{
		zap.String("model", s.model(resp)),
		zap.String("analysis_type", analysisType),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", s.now().Sub(start)),
	}
	if cost, ok := ai.EstimateCostUSD(req.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens); ok {
		fields = append(fields, zap.Float64("cost_usd", cost))
	}
	if resp.RequestID != "" {
		fields = append(fields, zap.String("request_id", resp.RequestID))
	}
	s.logger.Info("Model call completed", fields...)
	return text, resp, nil
}

func (s *Service) truncate(dataContext string) string {
	dataContext = strings.TrimSpace(dataContext)
	if s.cfg.PromptTokenLimit > 0 && utils.CountTokens(dataContext) > s.cfg.PromptTokenLimit {
		s.logger.Debug("Dataset context truncated", zap.Int("limit", s.cfg.PromptTokenLimit))
		return utils.TruncateToTokenLimit(dataContext, s.cfg.PromptTokenLimit)
	}
	return dataContext
}

func (s *Service) model(resp *ai.GenerateResponse) string {
	if resp != nil && resp.Model != "" {
		return resp.Model
	}
	return s.cfg.Model
}

// ParseReply decodes a JSON reply, with or without a markdown code fence.
// Anything that is not a JSON object becomes plain text analysis.
func ParseReply(text string) *Response {
	body := stripFence(text)
	var out Response
	if strings.HasPrefix(body, "{") && json.Unmarshal([]byte(body), &out) == nil {
		if out.Format == "" {
			out.Format = FormatText
			if out.VisualData != nil {
				out.Format = FormatMixed
			}
		}
		return &out
	}
	return &Response{Analysis: strings.TrimSpace(text), Format: FormatText}
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// language tag, e.g. ```json
		if tag := strings.TrimSpace(s[:i]); !strings.ContainsAny(tag, "{[") {
			s = s[i+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
