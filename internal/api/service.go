package api

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mediaq/internal/logging"
	"mediaq/internal/queue"
	"mediaq/internal/worker"
)

// QueueController is the subset of queue.Manager the façade drives.
type QueueController interface {
	Enqueue(ctx context.Context, sub queue.Submission) ([]queue.Job, error)
	Pause(ctx context.Context) (queue.Snapshot, error)
	Resume(ctx context.Context) (queue.Snapshot, error)
	CancelAll(ctx context.Context) (queue.Snapshot, error)
	Snapshot(ctx context.Context) (queue.Snapshot, error)
}

// Prober fetches metadata for a URL without downloading it.
type Prober interface {
	Probe(ctx context.Context, url string) (*worker.MediaInfo, error)
}

// Service validates caller input and forwards it to the queue manager.
type Service struct {
	queue  QueueController
	prober Prober
	logger *slog.Logger
}

// NewService constructs a Service. prober may be nil when probing is unavailable.
func NewService(q QueueController, prober Prober, logger *slog.Logger) *Service {
	return &Service{
		queue:  q,
		prober: prober,
		logger: logging.NewComponentLogger(logger, "api"),
	}
}

// NormalizeSubmission turns an add request into a queue submission. Items
// keep their order; a request with both Items and URL uses Items.
func NormalizeSubmission(req AddRequest) (queue.Submission, error) {
	format, err := worker.ParseFormat(req.Format)
	if err != nil {
		return queue.Submission{}, fmt.Errorf("%w: %q", ErrInvalidFormat, req.Format)
	}

	raw := req.Items
	if len(raw) == 0 && strings.TrimSpace(req.URL) != "" {
		raw = []AddItem{{URL: req.URL, Title: req.Title}}
	}
	if len(raw) == 0 {
		return queue.Submission{}, ErrNoItems
	}

	items := make([]queue.Item, 0, len(raw))
	for i, item := range raw {
		url := strings.TrimSpace(item.URL)
		if url == "" {
			return queue.Submission{}, fmt.Errorf("%w: item %d", ErrInvalidURL, i)
		}
		items = append(items, queue.Item{URL: url, Title: strings.TrimSpace(item.Title)})
	}

	return queue.Submission{
		Items:          items,
		DestinationDir: strings.TrimSpace(req.DownloadPath),
		GroupName:      strings.TrimSpace(req.PlaylistTitle),
		Format:         format,
	}, nil
}

// Submit validates req and enqueues every item as one batch.
func (s *Service) Submit(ctx context.Context, req AddRequest) (AddResponse, error) {
	sub, err := NormalizeSubmission(req)
	if err != nil {
		return AddResponse{}, err
	}
	jobs, err := s.queue.Enqueue(ctx, sub)
	if err != nil {
		return AddResponse{}, fmt.Errorf("enqueue: %w", err)
	}
	ids := make([]string, len(jobs))
	for i, job := range jobs {
		ids[i] = job.ID
	}
	s.logger.Debug("submission accepted",
		logging.Int("count", len(jobs)),
		logging.String("format", string(sub.Format)),
		logging.String(logging.FieldEventType, "submission_accepted"),
	)
	return AddResponse{Success: true, Count: len(jobs), JobIDs: ids}, nil
}

// Control applies a control verb and returns the resulting snapshot.
func (s *Service) Control(ctx context.Context, action string) (ActionResponse, error) {
	var (
		snap queue.Snapshot
		err  error
	)
	switch strings.ToLower(strings.TrimSpace(action)) {
	case ActionPause:
		snap, err = s.queue.Pause(ctx)
	case ActionResume:
		snap, err = s.queue.Resume(ctx)
	case ActionCancelAll:
		snap, err = s.queue.CancelAll(ctx)
	default:
		return ActionResponse{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	if err != nil {
		return ActionResponse{}, fmt.Errorf("%s: %w", action, err)
	}
	return ActionResponse{Success: true, State: snap}, nil
}

// Info probes url for title and playlist entries.
func (s *Service) Info(ctx context.Context, url string) (*worker.MediaInfo, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrInvalidURL
	}
	if s.prober == nil {
		return nil, fmt.Errorf("probe %s: %w", url, worker.ErrNoBinary)
	}
	return s.prober.Probe(ctx, url)
}
