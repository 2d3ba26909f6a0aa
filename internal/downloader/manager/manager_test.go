package manager

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"telegram-fetch-bot/internal/config"
	"telegram-fetch-bot/internal/models"
	"telegram-fetch-bot/internal/registry"
	"telegram-fetch-bot/internal/testutils"
)

// fakeEngine writes a stub engine script that always fails with the given
// stderr text, so ladder behavior can be driven without the real binary.
func fakeEngine(t *testing.T, stderr string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.sh")
	script := "#!/bin/sh\necho \"" + stderr + "\" >&2\nexit 1\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

type testEnv struct {
	cfg     *config.Config
	mock    *testutils.MockBot
	reg     *registry.Registry
	manager *Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := testutils.NewTestConfig(t)
	mock := testutils.NewMockBot()
	db := testutils.NewTestDatabase(t)
	reg := registry.New(db)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return &testEnv{
		cfg:     cfg,
		mock:    mock,
		reg:     reg,
		manager: NewManager(ctx, cfg, reg, mock, db),
	}
}

// prepareJob walks a job to the preparing state the way a format pick does.
func (e *testEnv) prepareJob(t *testing.T, url, token string) models.Job {
	t.Helper()
	job := e.reg.Create(1, 2, url)
	if err := e.reg.SetMessageID(job.ID, 50); err != nil {
		t.Fatal(err)
	}
	for _, s := range []models.JobStatus{models.StatusProbing, models.StatusAwaitingSelection, models.StatusPreparing} {
		if err := e.reg.SetStatus(job.ID, s); err != nil {
			t.Fatal(err)
		}
	}
	if err := e.reg.SetFormat(job.ID, token); err != nil {
		t.Fatal(err)
	}
	got, _ := e.reg.Get(job.ID)
	return got
}

func waitForStatus(t *testing.T, reg *registry.Registry, jobID string, want models.JobStatus) models.Job {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		job, ok := reg.Get(jobID)
		if ok && job.Status == want {
			return job
		}
		select {
		case <-deadline:
			t.Fatalf("job never reached %s, stuck at %s", want, job.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// waitForRemoved blocks until the job record is gone from the registry and
// its store, the end state of every non-failed settlement.
func waitForRemoved(t *testing.T, reg *registry.Registry, jobID string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		if _, ok := reg.Get(jobID); !ok {
			return
		}
		select {
		case <-deadline:
			t.Fatal("job record never removed after settlement")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func waitForEditContaining(t *testing.T, mock *testutils.MockBot, substr string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		if msg, ok := mock.LastOfKind("edit"); ok && strings.Contains(msg.Text, substr) {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("no edit containing %q; calls: %+v", substr, mock.Sent())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestBuildAttemptsLadder(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		job  models.Job
		want []string
	}{
		{
			name: "plain job",
			job:  models.Job{URL: "https://e.com/v"},
			want: []string{"site extractor", "generic extractor"},
		},
		{
			name: "force generic skips site rung",
			job:  models.Job{URL: "https://e.com/v", ForceGeneric: true},
			want: []string{"generic extractor"},
		},
		{
			name: "sniffed manifest adds rung",
			job:  models.Job{URL: "https://e.com/v", SniffedHLS: "https://c.e.com/m.m3u8"},
			want: []string{"site extractor", "generic extractor", "sniffed manifest"},
		},
		{
			name: "full ladder",
			job:  models.Job{URL: "https://e.com/v", SniffedHLS: "https://c.e.com/m.m3u8", SniffedMP4: "https://c.e.com/v.mp4"},
			want: []string{"site extractor", "generic extractor", "sniffed manifest", "raw fetch"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := env.manager.buildAttempts(tt.job, "")
			if len(attempts) != len(tt.want) {
				t.Fatalf("got %d rungs, want %d", len(attempts), len(tt.want))
			}
			for i := range tt.want {
				if attempts[i].name != tt.want[i] {
					t.Errorf("rung %d = %q, want %q", i, attempts[i].name, tt.want[i])
				}
			}
		})
	}
}

// A DRM failure on the first rung must stop the ladder even when later rungs
// exist.
func TestRunJobDRMShortCircuit(t *testing.T) {
	env := newTestEnv(t)
	env.manager.engineBinary = fakeEngine(t, "ERROR: This video is DRM protected")

	job := env.prepareJob(t, "https://example.com/v", "best")
	if err := env.reg.SetProbeInfo(job.ID, "t", "mid", 0, "", "https://unreachable.invalid/v.mp4", false); err != nil {
		t.Fatal(err)
	}

	env.manager.runJob(context.Background(), job.ID)

	got := waitForStatus(t, env.reg, job.ID, models.StatusFailed)
	if !strings.Contains(got.Log, "DRM") {
		t.Errorf("log missing DRM cause: %q", got.Log)
	}
	// Only the first strategy may have run.
	if strings.Contains(got.Log, "strategy: generic extractor") {
		t.Errorf("ladder continued past DRM failure:\n%s", got.Log)
	}
}

// When every engine rung fails, a sniffed progressive URL is fetched raw and
// the file is delivered.
func TestRunJobRawFallbackDelivers(t *testing.T) {
	payload := []byte("fake video payload")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		if _, err := w.Write(payload); err != nil {
			t.Error(err)
		}
	}))
	defer server.Close()

	env := newTestEnv(t)
	env.manager.engineBinary = fakeEngine(t, "ERROR: Unsupported URL")

	job := env.prepareJob(t, "https://example.com/page", "best")
	if err := env.reg.SetProbeInfo(job.ID, "Fetched Clip", "raw1", 0, "", server.URL+"/v.mp4", true); err != nil {
		t.Fatal(err)
	}

	env.manager.runJob(context.Background(), job.ID)

	video, ok := env.mock.LastOfKind("video")
	if !ok {
		t.Fatalf("no video delivered; calls: %+v", env.mock.Sent())
	}
	// Delivered files are removed from disk and the record is dropped.
	if _, err := os.Stat(video.Path); !os.IsNotExist(err) {
		t.Errorf("delivered file still on disk: %s", video.Path)
	}
	if _, ok := env.reg.Get(job.ID); ok {
		t.Error("delivered job still registered")
	}
}

// The raw rung fails cleanly on an HTTP error and leaves no partial file.
func TestRunJobRawFetchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	env := newTestEnv(t)
	env.manager.engineBinary = fakeEngine(t, "ERROR: Unsupported URL")

	job := env.prepareJob(t, "https://example.com/page", "best")
	if err := env.reg.SetProbeInfo(job.ID, "Clip", "raw2", 0, "", server.URL+"/v.mp4", true); err != nil {
		t.Fatal(err)
	}

	env.manager.runJob(context.Background(), job.ID)

	waitForStatus(t, env.reg, job.ID, models.StatusFailed)
	entries, err := os.ReadDir(env.cfg.DownloadDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), "raw2") {
			t.Errorf("partial file left behind: %s", e.Name())
		}
	}
}

func TestCancelBeforeStartSettlesJob(t *testing.T) {
	env := newTestEnv(t)

	job := env.reg.Create(1, 2, "https://example.com/v")
	if err := env.reg.SetMessageID(job.ID, 60); err != nil {
		t.Fatal(err)
	}
	if err := env.reg.SetStatus(job.ID, models.StatusProbing); err != nil {
		t.Fatal(err)
	}
	if err := env.reg.SetStatus(job.ID, models.StatusAwaitingSelection); err != nil {
		t.Fatal(err)
	}

	env.manager.CancelJob(job.ID)

	waitForRemoved(t, env.reg, job.ID)
	waitForEditContaining(t, env.mock, "Cancelled")
}

// Cancelling mid-stream stops a running raw download, settles the job as
// cancelled and leaves neither the record nor a partial file behind.
func TestCancelRunningDownload(t *testing.T) {
	started := make(chan struct{})
	var once sync.Once
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		if _, err := w.Write(make([]byte, 1024)); err != nil {
			return
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		once.Do(func() { close(started) })
		// Hold the stream open until the client walks away.
		<-r.Context().Done()
	}))
	defer server.Close()

	env := newTestEnv(t)
	env.manager.engineBinary = fakeEngine(t, "ERROR: Unsupported URL")

	job := env.prepareJob(t, "https://example.com/page", "best")
	if err := env.reg.SetProbeInfo(job.ID, "Slow Clip", "slow1", 0, "", server.URL+"/v.mp4", true); err != nil {
		t.Fatal(err)
	}

	if err := env.manager.StartJob(job.ID); err != nil {
		t.Fatal(err)
	}
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("worker never reached the raw stream")
	}

	env.manager.CancelJob(job.ID)

	waitForRemoved(t, env.reg, job.ID)
	waitForEditContaining(t, env.mock, "Cancelled")

	entries, err := os.ReadDir(env.cfg.DownloadDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), "slow1") {
			t.Errorf("partial file left behind: %s", e.Name())
		}
	}
}
