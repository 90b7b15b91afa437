package api

import (
	"context"
	"errors"
	"testing"

	"mediaq/internal/queue"
	"mediaq/internal/worker"
)

type queueStub struct {
	submissions []queue.Submission
	calls       []string
	err         error
}

func (q *queueStub) Enqueue(_ context.Context, sub queue.Submission) ([]queue.Job, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.submissions = append(q.submissions, sub)
	jobs := make([]queue.Job, len(sub.Items))
	for i, item := range sub.Items {
		jobs[i] = queue.Job{ID: item.URL + "-id", URL: item.URL}
	}
	return jobs, nil
}

func (q *queueStub) control(name string) (queue.Snapshot, error) {
	q.calls = append(q.calls, name)
	return queue.Snapshot{Paused: name == "pause"}, q.err
}

func (q *queueStub) Pause(context.Context) (queue.Snapshot, error)     { return q.control("pause") }
func (q *queueStub) Resume(context.Context) (queue.Snapshot, error)    { return q.control("resume") }
func (q *queueStub) CancelAll(context.Context) (queue.Snapshot, error) { return q.control("cancel") }
func (q *queueStub) Snapshot(context.Context) (queue.Snapshot, error)  { return q.control("snapshot") }

type proberStub struct {
	info worker.MediaInfo
	err  error
	urls []string
}

func (p *proberStub) Probe(_ context.Context, url string) (*worker.MediaInfo, error) {
	p.urls = append(p.urls, url)
	if p.err != nil {
		return nil, p.err
	}
	info := p.info
	return &info, nil
}

func TestNormalizeSubmission(t *testing.T) {
	tests := []struct {
		name    string
		req     AddRequest
		wantErr error
		check   func(t *testing.T, sub queue.Submission)
	}{
		{
			name: "bulk keeps order and shared settings",
			req: AddRequest{
				Items:         []AddItem{{URL: " https://a ", Title: " A "}, {URL: "https://b"}},
				DownloadPath:  " /music ",
				PlaylistTitle: " Mix ",
				Format:        "video",
			},
			check: func(t *testing.T, sub queue.Submission) {
				if len(sub.Items) != 2 || sub.Items[0].URL != "https://a" || sub.Items[0].Title != "A" || sub.Items[1].URL != "https://b" {
					t.Fatalf("unexpected items: %+v", sub.Items)
				}
				if sub.DestinationDir != "/music" || sub.GroupName != "Mix" || sub.Format != worker.FormatVideo {
					t.Fatalf("unexpected shared fields: %+v", sub)
				}
			},
		},
		{
			name: "single url defaults to audio",
			req:  AddRequest{URL: "https://single", Title: "One"},
			check: func(t *testing.T, sub queue.Submission) {
				if len(sub.Items) != 1 || sub.Items[0].Title != "One" || sub.Format != worker.FormatAudio {
					t.Fatalf("unexpected submission: %+v", sub)
				}
			},
		},
		{
			name: "legacy mp3 format maps to audio",
			req:  AddRequest{URL: "https://single", Format: "mp3"},
			check: func(t *testing.T, sub queue.Submission) {
				if sub.Format != worker.FormatAudio {
					t.Fatalf("expected audio, got %s", sub.Format)
				}
			},
		},
		{name: "empty request", req: AddRequest{}, wantErr: ErrNoItems},
		{name: "blank url in batch", req: AddRequest{Items: []AddItem{{URL: "https://a"}, {URL: "  "}}}, wantErr: ErrInvalidURL},
		{name: "unknown format", req: AddRequest{URL: "https://a", Format: "flac"}, wantErr: ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := NormalizeSubmission(tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if !IsValidation(err) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeSubmission: %v", err)
			}
			tt.check(t, sub)
		})
	}
}

func TestSubmitReturnsCountAndIDs(t *testing.T) {
	stub := &queueStub{}
	svc := NewService(stub, nil, nil)

	resp, err := svc.Submit(context.Background(), AddRequest{Items: []AddItem{{URL: "a"}, {URL: "b"}, {URL: "c"}}})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !resp.Success || resp.Count != 3 || len(resp.JobIDs) != 3 || resp.JobIDs[2] != "c-id" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(stub.submissions) != 1 {
		t.Fatalf("expected one batch submission, got %d", len(stub.submissions))
	}
}

func TestSubmitDoesNotEnqueueInvalidBatch(t *testing.T) {
	stub := &queueStub{}
	svc := NewService(stub, nil, nil)

	if _, err := svc.Submit(context.Background(), AddRequest{Items: []AddItem{{URL: "a"}, {URL: ""}}}); !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
	if len(stub.submissions) != 0 {
		t.Fatal("invalid batch must not be partially enqueued")
	}
}

func TestSubmitWrapsQueueErrors(t *testing.T) {
	stub := &queueStub{err: queue.ErrStopped}
	svc := NewService(stub, nil, nil)

	_, err := svc.Submit(context.Background(), AddRequest{URL: "a"})
	if !errors.Is(err, queue.ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if IsValidation(err) {
		t.Fatal("queue errors are not validation errors")
	}
}

func TestControl(t *testing.T) {
	stub := &queueStub{}
	svc := NewService(stub, nil, nil)
	ctx := context.Background()

	for _, action := range []string{"pause", "resume", "cancel_all", " PAUSE "} {
		resp, err := svc.Control(ctx, action)
		if err != nil {
			t.Fatalf("Control(%q): %v", action, err)
		}
		if !resp.Success {
			t.Fatalf("Control(%q) not successful", action)
		}
	}
	want := []string{"pause", "resume", "cancel", "pause"}
	for i, call := range want {
		if stub.calls[i] != call {
			t.Fatalf("call %d = %s, want %s", i, stub.calls[i], call)
		}
	}

	if _, err := svc.Control(ctx, "stop"); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestInfo(t *testing.T) {
	prober := &proberStub{info: worker.MediaInfo{Title: "Mix", IsPlaylist: true, VideoCount: 2}}
	svc := NewService(&queueStub{}, prober, nil)

	info, err := svc.Info(context.Background(), " https://list ")
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.Title != "Mix" || prober.urls[0] != "https://list" {
		t.Fatalf("unexpected info %+v / urls %v", info, prober.urls)
	}
	if _, err := svc.Info(context.Background(), ""); !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}

	noProbe := NewService(&queueStub{}, nil, nil)
	if _, err := noProbe.Info(context.Background(), "https://x"); !errors.Is(err, worker.ErrNoBinary) {
		t.Fatalf("expected ErrNoBinary, got %v", err)
	}
}
