package daemon_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"runtime"
	"strings"
	"testing"
	"time"

	"mediaq/internal/api"
	"mediaq/internal/config"
	"mediaq/internal/daemon"
	"mediaq/internal/events"
	"mediaq/internal/logging"
	"mediaq/internal/queue"
	"mediaq/internal/testsupport"
	"mediaq/internal/worker"
)

const successScript = `
case "$*" in
  *--dump-single-json*)
    echo '{"_type":"playlist","title":"Mix","entries":[{"id":"aaa","title":"One"},{"id":"bbb","title":"Two","url":"https://example.com/b"}]}'
    exit 0
    ;;
esac
echo "[download]  40.0% of 1.00MiB"
echo "[download] 100.0% of 1.00MiB"
exit 0`

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs unsupported on windows")
	}
}

func newDaemon(t *testing.T, cfg *config.Config) *daemon.Daemon {
	t.Helper()
	logger := logging.NewNop()
	bus := events.NewBus(cfg.Queue.SubscriberBuffer, logger)
	sup := worker.NewSupervisor(worker.OptionsFromConfig(cfg, logger))
	mgr := queue.NewManager(queue.Options{
		Concurrency: cfg.Queue.Concurrency,
		CancelGrace: cfg.CancelGrace(),
		Spawner:     sup,
		Bus:         bus,
		Logger:      logger,
	})
	d, err := daemon.New(daemon.Options{
		Config:  cfg,
		Logger:  logger,
		Manager: mgr,
		Bus:     bus,
		Prober:  sup,
		History: testsupport.MustOpenHistory(t, cfg),
		RunID:   "test-run",
	})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})
	return d
}

func startDaemon(t *testing.T, cfg *config.Config) *daemon.Daemon {
	t.Helper()
	d := newDaemon(t, cfg)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return d
}

type apiClient struct {
	t     *testing.T
	base  string
	token string
}

func clientFor(t *testing.T, d *daemon.Daemon, token string) *apiClient {
	return &apiClient{t: t, base: "http://" + d.Addr(), token: token}
}

func (c *apiClient) do(method, path string, body any, out any) int {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithConcurrency(3))
	d := startDaemon(t, cfg)

	if !d.Running() {
		t.Fatal("expected daemon to report running")
	}
	if err := d.Start(context.Background()); err == nil {
		t.Fatal("expected second start to fail")
	}
	status := d.Status(context.Background())
	if !status.Running || status.RunID != "test-run" || status.Queue.Concurrency != 3 {
		t.Fatalf("unexpected status: %+v", status)
	}

	d.Stop()
	if d.Running() {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestSecondInstanceIsRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	startDaemon(t, cfg)

	second := newDaemon(t, cfg)
	err := second.Start(context.Background())
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected lock error, got %v", err)
	}
}

func TestAddDownloadsStreamsAndRecordsHistory(t *testing.T) {
	skipWithoutShell(t)
	cfg := testsupport.NewConfig(t, testsupport.WithWorkerScript(successScript))
	d := startDaemon(t, cfg)
	client := clientFor(t, d, "")

	resp, err := http.Get(client.base + "/api/events")
	if err != nil {
		t.Fatalf("open event stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}
	decoder := events.NewDecoder(resp.Body)

	first, err := decoder.Next()
	if err != nil {
		t.Fatalf("first frame: %v", err)
	}
	if first.Type != events.QueueUpdate {
		t.Fatalf("expected queueUpdate first, got %s", first.Type)
	}

	var added api.AddResponse
	status := client.do(http.MethodPost, "/api/queue/add", api.AddRequest{
		Items:         []api.AddItem{{URL: "https://example.com/a", Title: "Song"}},
		PlaylistTitle: "Mix",
		Format:        "audio",
	}, &added)
	if status != http.StatusOK || !added.Success || added.Count != 1 {
		t.Fatalf("unexpected add response %d %+v", status, added)
	}

	var completed queue.CompletedEvent
	deadline := time.Now().Add(10 * time.Second)
	for completed.JobID == "" {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for jobCompleted")
		}
		frame, err := decoder.Next()
		if err != nil {
			t.Fatalf("read frame: %v", err)
		}
		switch frame.Type {
		case events.JobError:
			t.Fatalf("unexpected job error: %s", frame.Data)
		case events.JobCompleted:
			if err := frame.Decode(&completed); err != nil {
				t.Fatalf("decode completion: %v", err)
			}
		}
	}
	if completed.JobID != added.JobIDs[0] || completed.Title != "Song" || completed.Progress != 100 {
		t.Fatalf("unexpected completion: %+v", completed)
	}
	if !strings.HasSuffix(completed.Path, "Mix") {
		t.Fatalf("expected group directory in path, got %q", completed.Path)
	}

	var hist api.HistoryResponse
	for i := 0; i < 100; i++ {
		client.do(http.MethodGet, "/api/history?limit=5", nil, &hist)
		if len(hist.Entries) > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if len(hist.Entries) != 1 || hist.Entries[0].Status != "completed" || hist.Entries[0].JobID != completed.JobID {
		t.Fatalf("unexpected history: %+v", hist.Entries)
	}
}

func TestAuthRequiredWhenTokenConfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAPIToken("secret"))
	d := startDaemon(t, cfg)

	anonymous := clientFor(t, d, "")
	var errResp api.ErrorResponse
	if status := anonymous.do(http.MethodGet, "/api/queue", nil, &errResp); status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
	wrong := clientFor(t, d, "guess")
	if status := wrong.do(http.MethodGet, "/api/queue", nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong token, got %d", status)
	}

	authed := clientFor(t, d, "secret")
	var snap queue.Snapshot
	if status := authed.do(http.MethodGet, "/api/queue", nil, &snap); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
}

func TestValidationErrorsReturnBadRequest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := startDaemon(t, cfg)
	client := clientFor(t, d, "")

	cases := []struct {
		path string
		body any
	}{
		{"/api/queue/add", map[string]any{}},
		{"/api/queue/add", api.AddRequest{Items: []api.AddItem{{URL: " "}}}},
		{"/api/queue/add", api.AddRequest{URL: "https://a", Format: "flac"}},
		{"/api/queue/action", api.ActionRequest{Action: "explode"}},
		{"/api/info", api.InfoRequest{}},
	}
	for _, tc := range cases {
		var errResp api.ErrorResponse
		if status := client.do(http.MethodPost, tc.path, tc.body, &errResp); status != http.StatusBadRequest {
			t.Fatalf("%s %+v: expected 400, got %d", tc.path, tc.body, status)
		}
		if errResp.Error == "" {
			t.Fatalf("%s: expected error message", tc.path)
		}
	}

	if status := client.do(http.MethodGet, "/api/history?limit=zero", nil, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", status)
	}
}

func TestActionsAndJobLookup(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := startDaemon(t, cfg)
	client := clientFor(t, d, "")

	var action api.ActionResponse
	if status := client.do(http.MethodPost, "/api/queue/action", api.ActionRequest{Action: "pause"}, &action); status != http.StatusOK {
		t.Fatalf("pause: %d", status)
	}
	if !action.Success || !action.State.Paused {
		t.Fatalf("expected paused state, got %+v", action)
	}

	var added api.AddResponse
	client.do(http.MethodPost, "/api/queue/add", api.AddRequest{URL: "https://example.com/a", Title: "A"}, &added)
	if added.Count != 1 {
		t.Fatalf("unexpected add response %+v", added)
	}

	var job api.JobResponse
	if status := client.do(http.MethodGet, "/api/queue/"+added.JobIDs[0], nil, &job); status != http.StatusOK {
		t.Fatalf("lookup: %d", status)
	}
	if job.Job.Status != queue.StatusWaiting || job.Job.Title != "A" {
		t.Fatalf("unexpected job: %+v", job.Job)
	}
	if status := client.do(http.MethodGet, "/api/queue/missing", nil, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}

	if status := client.do(http.MethodPost, "/api/queue/action", api.ActionRequest{Action: "cancel_all"}, &action); status != http.StatusOK {
		t.Fatalf("cancel_all: %d", status)
	}
	if len(action.State.Waiting) != 0 || len(action.State.Active) != 0 {
		t.Fatalf("expected empty queue after cancel, got %+v", action.State)
	}

	var snap queue.Snapshot
	deadline := time.Now().Add(2 * time.Second)
	for {
		client.do(http.MethodGet, "/api/queue", nil, &snap)
		if !snap.Paused {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("queue still paused after cancel grace")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestInfoEndpointProbesURL(t *testing.T) {
	skipWithoutShell(t)
	cfg := testsupport.NewConfig(t, testsupport.WithWorkerScript(successScript))
	d := startDaemon(t, cfg)
	client := clientFor(t, d, "")

	var info worker.MediaInfo
	if status := client.do(http.MethodPost, "/api/info", api.InfoRequest{URL: "https://example.com/list"}, &info); status != http.StatusOK {
		t.Fatalf("info: %d", status)
	}
	if !info.IsPlaylist || info.VideoCount != 2 || info.Entries[0].URL != "https://www.youtube.com/watch?v=aaa" {
		t.Fatalf("unexpected info: %+v", info)
	}
}
