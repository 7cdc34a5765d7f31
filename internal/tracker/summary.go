package tracker

import (
	"time"

	"github.com/valeevte/PriceTracker/internal/notify"
)

// Stage names the step at which a product failed.
type Stage string

const (
	StageExtract Stage = "extract"
	StagePersist Stage = "persist"
	StageNotify  Stage = "notify"
)

// State is the per-product, per-run lifecycle position.
type State string

const (
	StatePending       State = "PENDING"
	StateExtracted     State = "EXTRACTED"
	StatePersisted     State = "PERSISTED"
	StateClassified    State = "CLASSIFIED"
	StateNotified      State = "NOTIFIED"
	StateSkippedNotify State = "SKIPPED_NOTIFY"
	StateFailed        State = "FAILED"
)

// Outcome is the result of driving one product through a run.
type Outcome struct {
	URL   string
	State State
	Stage Stage // set when State is StateFailed
	Kind  notify.Kind
	Err   error
}

// Failure describes one per-product failure in a RunSummary.
type Failure struct {
	URL   string `json:"url"`
	Stage Stage  `json:"stage"`
	Error string `json:"error"`
}

// maxFailures bounds RunSummary.Failures; counters stay exact.
const maxFailures = 100

// RunSummary reports what one run did.
type RunSummary struct {
	RunID             string              `json:"run_id"`
	StartedAt         time.Time           `json:"started_at"`
	FinishedAt        time.Time           `json:"finished_at"`
	Processed         int                 `json:"processed"`
	Succeeded         int                 `json:"succeeded"`
	Failed            int                 `json:"failed"`
	NotificationsSent int                 `json:"notifications_sent"`
	Kinds             map[notify.Kind]int `json:"kinds,omitempty"`
	Failures          []Failure           `json:"failures,omitempty"`
}

func (s *RunSummary) add(o Outcome) {
	s.Processed++
	if o.Kind != "" && o.Kind != notify.None {
		if s.Kinds == nil {
			s.Kinds = map[notify.Kind]int{}
		}
		s.Kinds[o.Kind]++
	}
	switch o.State {
	case StateNotified:
		s.NotificationsSent++
		s.Succeeded++
	case StateFailed:
		s.Failed++
		if len(s.Failures) < maxFailures {
			msg := ""
			if o.Err != nil {
				msg = o.Err.Error()
			}
			s.Failures = append(s.Failures, Failure{URL: o.URL, Stage: o.Stage, Error: msg})
		}
	default:
		s.Succeeded++
	}
}
