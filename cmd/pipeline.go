package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/ai"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/analysis"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/dataset"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/narrative"
	"github.com/johnja1989/dashboard-incidentes-ti-nivel2-Banco-Union-S.A/internal/schema"
)

// inputFlags are the loader flags shared by every command that reads a file.
type inputFlags struct {
	delimiter  string
	sheetName  string
	sheetIndex int
}

func (in *inputFlags) options() (dataset.Options, error) {
	opt := dataset.Options{SheetName: in.sheetName, SheetIndex: in.sheetIndex}
	delim := in.delimiter
	if delim == "" {
		delim = settings().Delimiter
	}
	r, err := dataset.ParseDelimiter(delim)
	if err != nil {
		return opt, err
	}
	opt.Delimiter = r
	return opt, nil
}

// loadDataset reads path and infers its schema, applying configured column
// overrides.
func loadDataset(path string, in *inputFlags) (*dataset.Dataset, schema.Schema, error) {
	opt, err := in.options()
	if err != nil {
		return nil, schema.Schema{}, err
	}
	ds, err := dataset.Load(path, opt)
	if err != nil {
		if errors.Is(err, dataset.ErrNoData) {
			return nil, schema.Schema{}, fmt.Errorf("%s: no hay datos para analizar: %w", filepath.Base(path), err)
		}
		return nil, schema.Schema{}, err
	}
	debugf("loaded %s: %d rows, %d columns", ds.Name, len(ds.Rows), len(ds.Headers))

	c := settings()
	inf := &schema.Inferrer{SampleSize: c.SampleSize}
	sc := inf.Infer(ds.Headers, ds.Rows)

	overrides, unknown := c.RoleOverrides()
	for _, k := range unknown {
		warnf("columns.%s does not name a role (valid: %v)", k, schema.Roles)
	}
	known := make(map[string]struct{}, len(ds.Headers))
	for _, h := range ds.Headers {
		known[h] = struct{}{}
	}
	roles := make([]string, 0, len(overrides))
	for r := range overrides {
		roles = append(roles, string(r))
	}
	sort.Strings(roles)
	for _, r := range roles {
		col := overrides[schema.Role(r)]
		if _, ok := known[col]; !ok {
			warnf("override %s=%q ignored: column not found in %s", r, col, ds.Name)
			continue
		}
		debugf("override %s -> %q", r, col)
	}
	sc = sc.WithOverrides(ds.Headers, overrides)

	for _, r := range schema.Roles {
		if col, ok := sc.Column(r); ok {
			debugf("role %-12s -> %q (%s)", r, col, sc.Types[col])
		} else {
			debugf("role %-12s -> (unresolved)", r)
		}
	}
	return ds, sc, nil
}

// buildReport runs the full aggregation pipeline for path.
func buildReport(path string, in *inputFlags) (*dataset.Dataset, *analysis.Report, error) {
	ds, sc, err := loadDataset(path, in)
	if err != nil {
		return nil, nil, err
	}
	return ds, analysis.Build(ds, sc, analysis.DefaultOptions()), nil
}

// newSummarizer wires the configured LLM runtime.
func newSummarizer() (*narrative.Summarizer, error) {
	c := settings()
	if !c.LLMEnabled {
		return nil, narrative.ErrDisabled
	}
	rt, ok := ai.GetRuntime(c.LLMProvider, ai.RuntimeConfig{
		HTTPTimeout: c.LLMTimeout(),
		RetryMax:    1,
		Host:        c.LLMHost(),
		APIKey:      c.LLMAPIKey,
	})
	if !ok {
		return nil, fmt.Errorf("unknown llm_provider %q", c.LLMProvider)
	}
	return &narrative.Summarizer{
		Runtime:     rt,
		Model:       c.LLMModel,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		Timeout:     c.LLMTimeout(),
		Enabled:     true,
	}, nil
}

// narrate fills rep.Narrative when the runtime answers. Failures only warn:
// the rule-based summary already covers the report.
func narrate(ctx context.Context, rep *analysis.Report) {
	s, err := newSummarizer()
	if err != nil {
		if errors.Is(err, narrative.ErrDisabled) {
			warnf("narrativa LLM deshabilitada (llm_enabled=false); se usa solo el resumen por reglas")
			return
		}
		warnf("narrativa LLM no disponible: %v", err)
		return
	}
	debugf("llm %s model=%s host=%s timeout=%s", settings().LLMProvider, s.Model, settings().LLMHost(), s.Timeout)
	res, err := s.Summarize(ctx, rep.KPI)
	if err != nil {
		warnf("narrativa LLM no disponible: %v", err)
		if h := ai.Hint(err); h != "" {
			fmt.Fprintf(os.Stderr, "  %s\n", h)
		}
		return
	}
	debugf("llm narrative: ~%d prompt tokens, %s, request %s", res.PromptTokens, res.Elapsed.Round(time.Millisecond), res.RequestID)
	rep.Narrative = res.Text
}

// resolveOutput places relative output paths under output_dir.
func resolveOutput(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	dir := settings().OutputDir
	if dir == "" || dir == "." {
		return p
	}
	return filepath.Join(dir, p)
}
