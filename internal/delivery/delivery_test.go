package delivery

import (
	"errors"
	"os"
	"testing"
	"time"

	"telegram-fetch-bot/internal/config"
	"telegram-fetch-bot/internal/testutils"
	"telegram-fetch-bot/internal/utils"
)

func TestMain(m *testing.M) {
	retryPause = time.Millisecond
	os.Exit(m.Run())
}

func TestDeliverPlayableAsVideo(t *testing.T) {
	mock := testutils.NewMockBot()
	adapter := New(mock, config.DeliveryConfig{AsMediaDefault: true})

	if err := adapter.Deliver(1, "/dl/clip.mp4", "caption"); err != nil {
		t.Fatal(err)
	}
	if msg, ok := mock.LastOfKind("video"); !ok || msg.Path != "/dl/clip.mp4" {
		t.Errorf("expected video upload, got %+v", mock.Sent())
	}
}

func TestDeliverNonPlayableAsDocument(t *testing.T) {
	mock := testutils.NewMockBot()
	adapter := New(mock, config.DeliveryConfig{AsMediaDefault: true})

	if err := adapter.Deliver(1, "/dl/song.mp3", "caption"); err != nil {
		t.Fatal(err)
	}
	if _, ok := mock.LastOfKind("video"); ok {
		t.Error("mp3 must not go out as video")
	}
	if _, ok := mock.LastOfKind("document"); !ok {
		t.Error("expected document upload")
	}
}

func TestDeliverMediaDisabled(t *testing.T) {
	mock := testutils.NewMockBot()
	adapter := New(mock, config.DeliveryConfig{AsMediaDefault: false})

	if err := adapter.Deliver(1, "/dl/clip.mp4", "caption"); err != nil {
		t.Fatal(err)
	}
	if _, ok := mock.LastOfKind("video"); ok {
		t.Error("media sending disabled but video was used")
	}
}

func TestDeliverFallsBackToDocument(t *testing.T) {
	mock := testutils.NewMockBot()
	mock.VideoErr = errors.New("Request Entity Too Large")
	adapter := New(mock, config.DeliveryConfig{AsMediaDefault: true})

	if err := adapter.Deliver(1, "/dl/clip.mp4", "caption"); err != nil {
		t.Fatalf("document fallback should have saved the delivery: %v", err)
	}
	if _, ok := mock.LastOfKind("document"); !ok {
		t.Error("expected document fallback after video failure")
	}
}

func TestDeliverTotalFailure(t *testing.T) {
	mock := testutils.NewMockBot()
	mock.VideoErr = errors.New("boom")
	mock.DocumentErr = errors.New("boom")
	adapter := New(mock, config.DeliveryConfig{AsMediaDefault: true})

	err := adapter.Deliver(1, "/dl/clip.mp4", "caption")
	if !errors.Is(err, utils.ErrUploadFailed) {
		t.Errorf("expected ErrUploadFailed, got %v", err)
	}
}
