package models

import "time"

// JobStatus is the lifecycle state of a Job. Transitions are restricted to the
// state machine encoded in CanTransitionTo.
type JobStatus string

const (
	StatusPending           JobStatus = "pending"
	StatusProbing           JobStatus = "probing"
	StatusAwaitingSelection JobStatus = "awaiting_selection"
	StatusPreparing         JobStatus = "preparing"
	StatusDownloading       JobStatus = "downloading"
	StatusFinalizing        JobStatus = "finalizing"
	StatusDelivering        JobStatus = "delivering"
	StatusTooLarge          JobStatus = "too_large"
	StatusOfferedRemedy     JobStatus = "offered_remedy"
	StatusCompressing       JobStatus = "compressing"
	StatusFailed            JobStatus = "failed"
	StatusCancelled         JobStatus = "cancelled"
	StatusDone              JobStatus = "done"
)

var transitions = map[JobStatus][]JobStatus{
	StatusPending:           {StatusProbing},
	StatusProbing:           {StatusAwaitingSelection, StatusFailed},
	StatusAwaitingSelection: {StatusPreparing},
	StatusPreparing:         {StatusDownloading, StatusFailed},
	StatusDownloading:       {StatusFinalizing, StatusFailed},
	StatusFinalizing:        {StatusDelivering, StatusTooLarge, StatusFailed},
	StatusDelivering:        {StatusDone, StatusFailed},
	StatusTooLarge:          {StatusOfferedRemedy},
	StatusOfferedRemedy:     {StatusCompressing, StatusDelivering, StatusDone, StatusFailed},
	StatusCompressing:       {StatusFinalizing, StatusFailed},
	// Retry/recheck starts a fresh execution from a terminal state.
	StatusFailed:    {StatusPending, StatusProbing, StatusPreparing},
	StatusCancelled: {StatusPending, StatusProbing, StatusPreparing},
	StatusDone:      {StatusPending, StatusProbing, StatusPreparing},
}

// CanTransitionTo reports whether moving to next is a legal state change.
// Cancellation is reachable from every non-terminal state.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	if next == StatusCancelled {
		return !s.IsTerminal()
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the job has finished its current execution.
// offered_remedy is deliberately not terminal: the job stays addressable.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case StatusDone, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Job is one user-initiated attempt to fetch a URL at a chosen format.
type Job struct {
	ID           string    `json:"id"            gorm:"primaryKey"`
	ChatID       int64     `json:"chat_id"       gorm:"not null"`
	UserID       int64     `json:"user_id"       gorm:"not null;index"`
	URL          string    `json:"url"           gorm:"not null"`
	Format       string    `json:"format"` // selection token; empty until the user picks
	ForceGeneric bool      `json:"force_generic" gorm:"not null;default:false"`
	BestEffort   bool      `json:"best_effort"   gorm:"not null;default:false"`
	Status       JobStatus `json:"status"        gorm:"not null"`
	FilePath     string    `json:"file_path"` // set only after the file is confirmed on disk
	Title        string    `json:"title"`
	MediaID      string    `json:"media_id"`
	Duration     float64   `json:"duration"`
	SniffedHLS   string    `json:"sniffed_hls"` // direct manifest URL discovered during probing
	SniffedMP4   string    `json:"sniffed_mp4"` // direct progressive URL discovered during probing
	Log          string    `json:"log"`
	MessageID    int       `json:"message_id"` // bound UI message to edit
	Cancelled    bool      `json:"cancelled"   gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"created_at"  gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at"  gorm:"autoUpdateTime"`
}

// Cookie is an opaque per-(user, domain) credential blob consumed by the
// extraction engine. The value is never shown to anyone; previews mask it.
type Cookie struct {
	UserID    int64     `json:"user_id"    gorm:"primaryKey;autoIncrement:false"`
	Domain    string    `json:"domain"     gorm:"primaryKey"`
	Value     string    `json:"-"          gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// QuotaEntry counts a user's jobs and transferred bytes for one day.
// Day rollover is implicit through the key; no purge is needed.
type QuotaEntry struct {
	Day    string `json:"day"     gorm:"primaryKey;size:10"` // "2006-01-02"
	UserID int64  `json:"user_id" gorm:"primaryKey;autoIncrement:false"`
	Jobs   int    `json:"jobs"    gorm:"not null;default:0"`
	Bytes  int64  `json:"bytes"   gorm:"not null;default:0"`
}
