package core

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/schollz/progressbar/v3"

	"oogiri-dataset/internal/core/types"
	"oogiri-dataset/internal/storage"
)

const DefaultMaxResponses = 10

// FilterRecords keeps records with a usable response and prompt whose image is
// not held out for testing. Order is preserved.
func FilterRecords(records []types.RawRecord, exclusions map[string]struct{}) []types.RawRecord {
	kept := make([]types.RawRecord, 0, len(records))
	for _, r := range records {
		if r.Response == "" || r.Prompt == "" {
			continue
		}
		if _, excluded := exclusions[r.FileName()]; excluded {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

type ScoreAggregate map[types.TaskType]map[int64]int64

func AggregateScores(records []types.RawRecord, taskTypes []types.TaskType) ScoreAggregate {
	agg := make(ScoreAggregate, len(taskTypes))
	for _, task := range taskTypes {
		agg[task] = make(map[int64]int64)
	}

	for _, r := range records {
		scores, ok := agg[r.TaskType]
		if !ok {
			continue
		}
		scores[r.ImageId] += r.Score
	}

	return agg
}

// RankImages orders image ids by total score, highest first, breaking ties by
// the smaller image id, and keeps at most limit of them.
func RankImages(scores map[int64]int64, limit int) []int64 {
	ids := slices.Collect(maps.Keys(scores))
	slices.SortFunc(ids, func(a, b int64) int {
		if c := cmp.Compare(scores[b], scores[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return ids[:min(max(limit, 0), len(ids))]
}

type SelectorOpts struct {
	TaskTypes    []types.TaskType
	Thresholds   map[types.TaskType]int
	MaxResponses int

	ImageDir     string
	Output       storage.ObjectStore
	ShowProgress bool
}

type Selector struct {
	opts SelectorOpts
}

func NewSelector(opts SelectorOpts) *Selector {
	if opts.MaxResponses <= 0 {
		opts.MaxResponses = DefaultMaxResponses
	}
	return &Selector{opts: opts}
}

// Select builds one training sample per kept (task, image) group and copies the
// image it references into the output store. Sample ids come from one counter
// shared across all task types.
func (s *Selector) Select(ctx context.Context, records []types.RawRecord, agg ScoreAggregate) ([]types.TrainingSample, error) {
	var samples []types.TrainingSample
	nextId := 0

	for _, task := range s.opts.TaskTypes {
		threshold, ok := s.opts.Thresholds[task]
		if !ok {
			return nil, fmt.Errorf("no sample threshold configured for task '%s': %w", task, ErrUnknownTaskType)
		}

		kept := RankImages(agg[task], threshold)
		slices.Sort(kept)

		groups := groupByImage(records, task, kept)
		bar := s.progress(task, len(kept))

		for _, imageId := range kept {
			if bar != nil {
				_ = bar.Add(1)
			}
			responses := s.rankResponses(groups[imageId])
			if len(responses) == 0 {
				continue
			}

			first := groups[imageId][0]
			nextId++
			sample := types.TrainingSample{
				SampleId:  types.SampleId(nextId),
				FileName:  first.FileName(),
				Prompt:    first.Prompt,
				TaskType:  task,
				Responses: responses,
			}

			if err := s.copyImage(ctx, sample.FileName); err != nil {
				return nil, err
			}

			samples = append(samples, sample)
		}

		slog.Info("selected samples", "task", task, "threshold", threshold, "candidates", len(agg[task]), "kept", len(kept))
	}

	return samples, nil
}

func (s *Selector) progress(task types.TaskType, total int) *progressbar.ProgressBar {
	if !s.opts.ShowProgress || total == 0 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(string(task)),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
}

func groupByImage(records []types.RawRecord, task types.TaskType, imageIds []int64) map[int64][]types.RawRecord {
	wanted := make(map[int64]struct{}, len(imageIds))
	for _, id := range imageIds {
		wanted[id] = struct{}{}
	}

	groups := make(map[int64][]types.RawRecord, len(imageIds))
	for _, r := range records {
		if r.TaskType != task {
			continue
		}
		if _, ok := wanted[r.ImageId]; ok {
			groups[r.ImageId] = append(groups[r.ImageId], r)
		}
	}
	return groups
}

func (s *Selector) rankResponses(group []types.RawRecord) []types.Response {
	sorted := slices.Clone(group)
	slices.SortStableFunc(sorted, func(a, b types.RawRecord) int {
		return cmp.Compare(b.Score, a.Score)
	})

	responses := make([]types.Response, 0, min(len(sorted), s.opts.MaxResponses))
	for i, r := range sorted[:min(len(sorted), s.opts.MaxResponses)] {
		responses = append(responses, types.Response{
			ResponseId: i + 1,
			Text:       r.Response,
			Score:      r.Score,
		})
	}
	return responses
}

func (s *Selector) copyImage(ctx context.Context, fileName string) error {
	path := filepath.Join(s.opts.ImageDir, fileName)

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("image %s: %w", path, ErrMissingAsset)
		}
		return fmt.Errorf("error opening image %s: %w", path, err)
	}
	defer file.Close()

	if err := s.opts.Output.PutObject(ctx, fileName, file); err != nil {
		return fmt.Errorf("error copying image %s: %w", fileName, err)
	}
	return nil
}
