package manager

import (
	"context"
	"sync"
	"time"

	"telegram-fetch-bot/internal/bot"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// progressEvent is one UI update request emitted by a worker.
type progressEvent struct {
	chatID    int64
	messageID int
	text      string
	keyboard  any
}

// Relay funnels progress updates from all workers through a single consumer
// goroutine so message edits never race. Each job gets a rate limiter acting
// as a skip-gate: updates arriving faster than the edit interval are dropped,
// not queued.
type Relay struct {
	botService bot.Service
	events     chan progressEvent

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	interval time.Duration

	done chan struct{}
}

func NewRelay(botService bot.Service, editInterval time.Duration) *Relay {
	if editInterval <= 0 {
		editInterval = time.Second
	}
	return &Relay{
		botService: botService,
		events:     make(chan progressEvent, 256),
		limiters:   make(map[string]*rate.Limiter),
		interval:   editInterval,
		done:       make(chan struct{}),
	}
}

// Start launches the consumer. Stop by cancelling ctx.
func (r *Relay) Start(ctx context.Context) {
	go func() {
		defer close(r.done)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-r.events:
				if err := r.botService.EditMessage(ev.chatID, ev.messageID, ev.text, ev.keyboard); err != nil {
					logrus.WithError(err).Debug("Progress edit failed")
				}
			}
		}
	}()
}

// Wait blocks until the consumer has drained out after Start's ctx ended.
func (r *Relay) Wait() {
	<-r.done
}

// Publish offers a throttled update for a job's bound message. Returns false
// when the skip-gate dropped it.
func (r *Relay) Publish(jobID string, chatID int64, messageID int, text string, keyboard any) bool {
	if messageID == 0 {
		return false
	}
	if !r.limiter(jobID).Allow() {
		return false
	}
	r.send(chatID, messageID, text, keyboard)
	return true
}

// PublishFinal bypasses the skip-gate for terminal updates that must land.
func (r *Relay) PublishFinal(chatID int64, messageID int, text string, keyboard any) {
	if messageID == 0 {
		return
	}
	r.send(chatID, messageID, text, keyboard)
}

func (r *Relay) send(chatID int64, messageID int, text string, keyboard any) {
	ev := progressEvent{chatID: chatID, messageID: messageID, text: text, keyboard: keyboard}
	select {
	case r.events <- ev:
	default:
		// Channel full: drop rather than stall a download worker.
		logrus.Debug("Progress relay channel full, dropping update")
	}
}

func (r *Relay) limiter(jobID string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	lim, ok := r.limiters[jobID]
	if !ok {
		lim = rate.NewLimiter(rate.Every(r.interval), 1)
		r.limiters[jobID] = lim
	}
	return lim
}

// Forget drops the job's limiter once the job reaches a terminal state.
func (r *Relay) Forget(jobID string) {
	r.mu.Lock()
	delete(r.limiters, jobID)
	r.mu.Unlock()
}
