package core

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"oogiri-dataset/internal/core/types"
	"oogiri-dataset/internal/dataset"
	"oogiri-dataset/internal/storage"
)

type PipelineOpts struct {
	RecordsFile    string
	OcrResultsFile string
	ExclusionsFile string
	ImageDir       string
	MetadataKey    string

	TaskCodes  types.TaskCodes
	TaskOrder  []types.TaskType
	Thresholds map[types.TaskType]int

	Output       storage.ObjectStore
	ShowProgress bool
}

type Summary struct {
	RecordsRead    int
	RecordsKept    int
	SamplesPerTask map[types.TaskType]int
	MetadataPath   string
}

// Pipeline turns the crowd response file into the training corpus in one pass.
type Pipeline struct {
	opts       PipelineOpts
	normalizer *Normalizer
	logger     *slog.Logger
}

func NewPipeline(opts PipelineOpts, normalizer *Normalizer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{opts: opts, normalizer: normalizer, logger: logger}
}

func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	p.logger.Info("load original data", "file", p.opts.RecordsFile)
	records, err := dataset.ReadRecords(p.opts.RecordsFile, p.opts.TaskCodes)
	if err != nil {
		return Summary{}, err
	}

	p.logger.Info("eliminate some harmful responses", "records", len(records))
	records = NormalizeResponses(records, p.normalizer)

	p.logger.Info("load test file information", "file", p.opts.ExclusionsFile)
	exclusions, err := dataset.ReadExclusions(p.opts.ExclusionsFile)
	if err != nil {
		return Summary{}, err
	}

	p.logger.Info("load OCR results", "file", p.opts.OcrResultsFile)
	ocrRecords, err := dataset.ReadOcrResults(p.opts.OcrResultsFile)
	if err != nil {
		return Summary{}, err
	}
	index := NewOcrIndex(NormalizeOcr(ocrRecords, p.normalizer))

	records = AssignPrompts(records, index)
	kept := FilterRecords(records, exclusions)
	p.logger.Info("filtered records", "read", len(records), "kept", len(kept), "excluded_files", len(exclusions))

	agg := AggregateScores(kept, p.opts.TaskOrder)

	p.logger.Info("choose the train data")
	selector := NewSelector(SelectorOpts{
		TaskTypes:    p.opts.TaskOrder,
		Thresholds:   p.opts.Thresholds,
		ImageDir:     p.opts.ImageDir,
		Output:       p.opts.Output,
		ShowProgress: p.opts.ShowProgress,
	})
	samples, err := selector.Select(ctx, kept, agg)
	if err != nil {
		return Summary{}, fmt.Errorf("error selecting training samples: %w", err)
	}

	p.logger.Info("save metadata", "location", p.opts.Output.Location(p.opts.MetadataKey), "samples", len(samples))
	data, err := dataset.EncodeJSONLines(samples)
	if err != nil {
		return Summary{}, fmt.Errorf("error encoding training samples: %w", err)
	}
	if err := p.opts.Output.PutObject(ctx, p.opts.MetadataKey, bytes.NewReader(data)); err != nil {
		return Summary{}, fmt.Errorf("error writing metadata: %w", err)
	}

	summary := Summary{
		RecordsRead:    len(records),
		RecordsKept:    len(kept),
		SamplesPerTask: make(map[types.TaskType]int),
		MetadataPath:   p.opts.Output.Location(p.opts.MetadataKey),
	}
	for _, s := range samples {
		summary.SamplesPerTask[s.TaskType]++
	}

	p.logger.Info("finish!", "samples", len(samples))

	return summary, nil
}

func NormalizeResponses(records []types.RawRecord, normalizer *Normalizer) []types.RawRecord {
	out := make([]types.RawRecord, len(records))
	for i, r := range records {
		r.Response = normalizer.Normalize(r.ResponseText)
		out[i] = r
	}
	return out
}

func NormalizeOcr(records []types.OcrRecord, normalizer *Normalizer) []types.OcrRecord {
	out := make([]types.OcrRecord, len(records))
	for i, r := range records {
		r.Text = normalizer.Normalize(r.Text)
		out[i] = r
	}
	return out
}

func AssignPrompts(records []types.RawRecord, index OcrIndex) []types.RawRecord {
	out := make([]types.RawRecord, len(records))
	for i, r := range records {
		r.Prompt = ResolvePrompt(r, index)
		out[i] = r
	}
	return out
}
