package cheques

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"cheques-backend/internal/bureau"
	"cheques-backend/internal/ingest"
	"cheques-backend/internal/llm"
	"cheques-backend/internal/shared/metrics"
	"cheques-backend/internal/shared/telemetry"
)

const defaultMaxCheques = 10

// Pipeline orchestrates one extraction-and-validation run. It owns all
// run-scoped state; the components it composes are stateless between runs.
type Pipeline struct {
	LLM        llm.Client
	Bureau     bureau.Validator
	MaxCheques int
}

// Run drives one document through extract, normalize/split, validate and
// assemble. It returns either an assembled PipelineResult or a *StageError
// naming the stage that failed. Per-record problems degrade or exclude the
// individual record; they never fail the run on their own.
func (p *Pipeline) Run(ctx context.Context, payload ingest.Payload) (PipelineResult, error) {
	start := time.Now()
	metrics.IncRunStarted()

	result, err := p.run(ctx, payload)
	metrics.ObserveRunDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
	if err != nil {
		metrics.IncRunFailed()
		return PipelineResult{}, err
	}
	metrics.IncRunCompleted()
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, payload ingest.Payload) (PipelineResult, error) {
	extracted, err := p.LLM.Extract(ctx, llm.ExtractInput{
		Data:     payload.Data,
		MimeType: payload.MimeType,
		Schema:   llm.ChequeSchema(),
	})
	if err != nil {
		return PipelineResult{}, failedAt(StageExtraction, extractionReason(err), err)
	}

	telemetry.Info("pipeline.extracted", map[string]any{
		"detected_kind": extracted.DetectedKind,
		"model":         extracted.Model,
		"filename":      payload.Filename,
	})

	if extracted.DetectedKind != llm.KindCheque {
		return p.assembleDocument(extracted, payload.Filename), nil
	}

	limit := p.MaxCheques
	if limit <= 0 {
		limit = defaultMaxCheques
	}
	rawRecords, err := Split(extracted.Payload, limit)
	if err != nil {
		return PipelineResult{}, failedAt(StageNormalization, "unsplittable extraction payload", err)
	}
	if len(rawRecords) == 0 {
		return PipelineResult{}, failedAt(StageNormalization, "no records detected", ErrNoRecordsDetected)
	}

	records, skipped := Normalize(rawRecords)
	if len(records) == 0 {
		return PipelineResult{}, failedAt(StageNormalization, "no usable records after normalization", ErrNoRecordsDetected)
	}

	if err := p.validateAll(ctx, records); err != nil {
		return PipelineResult{}, err
	}

	return PipelineResult{
		Success:       true,
		TipoDocumento: llm.KindCheque,
		Cantidad:      len(records),
		Cheques:       records,
		Descartados:   skipped,
		Filename:      payload.Filename,
	}, nil
}

// validateAll runs the bureau check for every record concurrently. Verdicts
// are written back by original index so output order never depends on which
// lookup returns first. A failed lookup degrades that record to the
// unavailable verdict; only caller cancellation aborts the run.
func (p *Pipeline) validateAll(ctx context.Context, records []ChequeRecord) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := range records {
		idx := i
		g.Go(func() error {
			metrics.IncBureauLookup()
			verdict, err := p.Bureau.Check(gctx, records[idx].CUITLibrador)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				metrics.IncBureauUnavailable()
				telemetry.Warn("pipeline.bureau_degraded", map[string]any{
					"cuit": records[idx].CUITLibrador,
					"err":  err.Error(),
				})
				verdict = bureau.UnavailableVerdict()
			}
			records[idx].attachVerdict(verdict)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return failedAt(StageValidation, "run canceled", err)
	}
	return nil
}

func (p *Pipeline) assembleDocument(extracted llm.Result, filename string) PipelineResult {
	var env struct {
		Contenido          string         `json:"contenido"`
		DatosEstructurados map[string]any `json:"datos_estructurados"`
	}
	_ = json.Unmarshal(extracted.Payload, &env)
	if env.DatosEstructurados == nil {
		env.DatosEstructurados = map[string]any{}
	}

	return PipelineResult{
		Success:       true,
		TipoDocumento: llm.KindDocumento,
		Cantidad:      1,
		Documento: &GenericDocumentRecord{
			TipoDocumento:      string(llm.KindDocumento),
			Contenido:          env.Contenido,
			DatosEstructurados: env.DatosEstructurados,
		},
		Filename: filename,
	}
}

func extractionReason(err error) string {
	switch {
	case errors.Is(err, llm.ErrTimeout):
		return "timeout"
	case errors.Is(err, llm.ErrServiceUnavailable):
		return "service unavailable"
	case errors.Is(err, llm.ErrMalformedOutput):
		return "malformed output"
	default:
		return "extraction failed"
	}
}
