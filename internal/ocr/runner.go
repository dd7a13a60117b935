package ocr

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/schollz/progressbar/v3"

	"oogiri-dataset/internal/core/types"
	"oogiri-dataset/internal/core/utils"
	"oogiri-dataset/internal/dataset"
)

const imageOnlyTaskCode = "I2T"

type RunnerOpts struct {
	RecordsFile string
	ImageDir    string
	OutputFile  string

	// Prompts holds the instruction sent with each image, keyed by raw task code.
	Prompts      map[string]string
	Concurrency  int
	ShowProgress bool
}

type Stats struct {
	Images    int
	Skipped   int
	Succeeded int
	Failed    int
}

type Runner struct {
	opts   RunnerOpts
	client VisionClient
}

func NewRunner(opts RunnerOpts, client VisionClient) *Runner {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Runner{opts: opts, client: client}
}

// job is one image to transcribe. Each non-image-only row of the image in the
// records file contributes one attempt, tried in file order until one succeeds.
type job struct {
	imageId  int64
	attempts []attempt
}

type attempt struct {
	taskCode string
	prompt   string
}

// Run transcribes every image that needs a prompt and has no entry in the
// output file yet. Results are appended one line per image, so an interrupted
// run resumes where it stopped. A failed API call is retried with the image's
// next row; an image whose attempts all fail is logged and left for the next
// run.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	lines, err := dataset.ReadRecordLines(r.opts.RecordsFile)
	if err != nil {
		return Stats{}, err
	}

	done, err := r.loadFinished()
	if err != nil {
		return Stats{}, err
	}

	jobs, skipped, err := r.pendingJobs(lines, done)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Images: len(jobs) + skipped, Skipped: skipped}
	slog.Info("ocr jobs prepared", "pending", len(jobs), "already_done", stats.Skipped)
	if len(jobs) == 0 {
		return stats, nil
	}

	out, err := os.OpenFile(r.opts.OutputFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return stats, fmt.Errorf("error opening ocr results %s: %w", r.opts.OutputFile, err)
	}
	defer out.Close()
	writer := dataset.NewJSONLinesWriter(out)

	queue := make(chan job, len(jobs))
	for _, j := range jobs {
		queue <- j
	}
	close(queue)
	completed := make(chan utils.CompletedTask[job, Transcription], len(jobs))

	utils.RunInPool(func(j job) (Transcription, error) {
		return r.transcribe(ctx, j)
	}, queue, completed, r.opts.Concurrency)

	var bar *progressbar.ProgressBar
	if r.opts.ShowProgress {
		bar = progressbar.NewOptions(len(jobs),
			progressbar.OptionSetDescription("ocr"),
			progressbar.OptionSetWidth(30),
			progressbar.OptionClearOnFinish(),
		)
	}

	var fatal []error
	for res := range completed {
		if bar != nil {
			_ = bar.Add(1)
		}

		if res.Error != nil {
			stats.Failed++
			if errors.Is(res.Error, fs.ErrNotExist) || errors.Is(res.Error, context.Canceled) {
				fatal = append(fatal, res.Error)
				continue
			}
			slog.Warn("ocr failed, will retry on next run", "image_id", res.Input.imageId, "attempts", len(res.Input.attempts), "error", res.Error)
			continue
		}

		record := types.OcrRecord{
			ImageId:        res.Input.imageId,
			Text:           res.Result.Text,
			ImageTokenSize: res.Result.PromptTokens,
		}
		if err := writer.Write(record); err != nil {
			fatal = append(fatal, err)
			continue
		}
		if err := writer.Flush(); err != nil {
			fatal = append(fatal, fmt.Errorf("error appending to %s: %w", r.opts.OutputFile, err))
			continue
		}
		stats.Succeeded++
		slog.Debug("image was OCRed", "image_id", record.ImageId, "image_tokens", record.ImageTokenSize)
	}

	if len(fatal) > 0 {
		return stats, errors.Join(fatal[:min(3, len(fatal))]...)
	}
	return stats, nil
}

func (r *Runner) transcribe(ctx context.Context, j job) (Transcription, error) {
	if err := ctx.Err(); err != nil {
		return Transcription{}, err
	}

	path := filepath.Join(r.opts.ImageDir, types.ImageFileName(j.imageId))
	image, err := os.ReadFile(path)
	if err != nil {
		return Transcription{}, fmt.Errorf("error reading image %s: %w", path, err)
	}

	var errs []error
	for _, a := range j.attempts {
		res, err := r.client.Transcribe(ctx, image, a.prompt)
		if err == nil {
			return res, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Transcription{}, ctxErr
		}
		slog.Debug("ocr attempt failed", "image_id", j.imageId, "task_code", a.taskCode, "error", err)
		errs = append(errs, err)
	}
	return Transcription{}, errors.Join(errs...)
}

// loadFinished returns the image ids already present in the output file,
// creating the file if it does not exist.
func (r *Runner) loadFinished() (map[int64]struct{}, error) {
	done := make(map[int64]struct{})

	records, err := dataset.ReadOcrResults(r.opts.OutputFile)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(r.opts.OutputFile), os.ModePerm); err != nil {
			return nil, fmt.Errorf("error creating directory for %s: %w", r.opts.OutputFile, err)
		}
		f, err := os.Create(r.opts.OutputFile)
		if err != nil {
			return nil, fmt.Errorf("error creating %s: %w", r.opts.OutputFile, err)
		}
		slog.Info("ocr results file created", "file", r.opts.OutputFile)
		return done, f.Close()
	}
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		done[rec.ImageId] = struct{}{}
	}
	slog.Info("loaded finished ocr results", "images", len(done))
	return done, nil
}

// pendingJobs lists one job per distinct image in image id order, leaving out
// image-only tasks and images that are already done. Every later row of an
// image adds a fallback attempt to its job.
func (r *Runner) pendingJobs(lines []dataset.RecordLine, done map[int64]struct{}) ([]job, int, error) {
	candidates := slices.Clone(lines)
	slices.SortStableFunc(candidates, func(a, b dataset.RecordLine) int {
		return cmp.Compare(a.ImageId, b.ImageId)
	})

	skipped := 0
	var jobs []job
	var last int64
	seen := false
	for _, line := range candidates {
		if line.TaskCode == imageOnlyTaskCode {
			continue
		}

		prompt, ok := r.opts.Prompts[line.TaskCode]
		if !ok {
			return nil, 0, fmt.Errorf("no ocr prompt for task code '%s': %w", line.TaskCode, types.ErrUnknownTaskType)
		}
		next := attempt{taskCode: line.TaskCode, prompt: prompt}

		if seen && line.ImageId == last {
			if n := len(jobs); n > 0 && jobs[n-1].imageId == last {
				jobs[n-1].attempts = append(jobs[n-1].attempts, next)
			}
			continue
		}
		seen, last = true, line.ImageId

		if _, ok := done[line.ImageId]; ok {
			skipped++
			continue
		}
		jobs = append(jobs, job{imageId: line.ImageId, attempts: []attempt{next}})
	}

	return jobs, skipped, nil
}
