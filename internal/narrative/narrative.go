// Package narrative asks a local LLM runtime for an executive summary of the
// report KPIs. Every failure is returned to the caller, which keeps the
// rule-based narrative in that case.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/ai"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/analysis"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/utils"
)

// DefaultTimeout bounds one narrative request against a local runtime.
const DefaultTimeout = 9 * time.Second

const systemPrompt = "Eres analista de operaciones TI. Respondes con claridad ejecutiva."

const userPrompt = `Redacta una narrativa ejecutiva (150–220 palabras) para comité directivo.
Incluye 3 riesgos y 4 acciones priorizadas (viñetas). Sé claro y específico.

Datos:
%s`

var (
	// ErrDisabled is returned when the narrative was turned off in config.
	ErrDisabled = errors.New("llm narrative disabled")
	// ErrEmptyResponse is returned when the runtime answers with no text.
	ErrEmptyResponse = errors.New("llm returned an empty narrative")
)

// Summarizer turns a KPI payload into free text through an ai.Runtime.
type Summarizer struct {
	Runtime     ai.Runtime
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Enabled     bool
}

// Result is a generated narrative plus request metadata for diagnostics.
type Result struct {
	Text         string
	RequestID    string
	PromptTokens int
	Elapsed      time.Duration
}

// Messages builds the chat messages sent for kpi.
func Messages(kpi analysis.KPIPayload) ([]ai.Message, error) {
	data, err := utils.PrettyJSON(kpi)
	if err != nil {
		return nil, fmt.Errorf("encode kpis: %w", err)
	}
	return []ai.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf(userPrompt, data)},
	}, nil
}

// Summarize requests the narrative under the configured timeout. ctx may carry
// an earlier deadline.
func (s *Summarizer) Summarize(ctx context.Context, kpi analysis.KPIPayload) (*Result, error) {
	if s == nil || !s.Enabled {
		return nil, ErrDisabled
	}
	if s.Runtime == nil {
		return nil, errors.New("no llm runtime configured")
	}
	msgs, err := Messages(kpi)
	if err != nil {
		return nil, err
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res := &Result{}
	for _, m := range msgs {
		res.PromptTokens += utils.CountTokens(m.Content)
	}
	start := time.Now()
	resp, err := s.Runtime.Generate(ctx, ai.GenerateRequest{
		Model:       s.Model,
		Messages:    msgs,
		MaxTokens:   s.MaxTokens,
		Temperature: s.Temperature,
	})
	res.Elapsed = time.Since(start)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("llm narrative timed out after %s: %w", timeout, err)
		}
		return nil, fmt.Errorf("llm narrative: %w", err)
	}
	res.Text = strings.TrimSpace(resp.Text())
	if res.Text == "" {
		return nil, ErrEmptyResponse
	}
	res.RequestID = resp.RequestID
	return res, nil
}
