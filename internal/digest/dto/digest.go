package dto

import "time"

// RunState is the lifecycle of one digest run.
type RunState string

const (
	RunStateInProgress RunState = "in_progress"
	RunStateCompleted  RunState = "completed"
)

// DigestRunStats are the counters of one run. They only grow during the run.
type DigestRunStats struct {
	State          RunState      `json:"state"`
	UsersProcessed int           `json:"users_processed"`
	NewsSent       int           `json:"news_sent"`
	LLMCalls       int           `json:"llm_calls"`
	CacheHits      int           `json:"cache_hits"`
	Errors         int           `json:"errors"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at,omitempty"`
	Duration       time.Duration `json:"duration"`
	TimedOut       bool          `json:"timed_out"`
}

// Add merges the counters produced while assembling one subscriber's digest.
func (s *DigestRunStats) Add(local AssembleStats) {
	s.NewsSent += local.NewsSent
	s.LLMCalls += local.LLMCalls
	s.CacheHits += local.CacheHits
}

// AssembleStats are the counters of one subscriber's digest.
type AssembleStats struct {
	NewsSent  int `json:"news_sent"`
	LLMCalls  int `json:"llm_calls"`
	CacheHits int `json:"cache_hits"`
}

// AssembleResult is the output of assembling one subscriber's digest.
type AssembleResult struct {
	Message    string        `json:"message"`
	HadContent bool          `json:"had_content"`
	Stats      AssembleStats `json:"stats"`
}

// SummaryResult is a summary and whether it came from the cache.
// Fallback is set when every model attempt failed and Text is the placeholder.
type SummaryResult struct {
	Text            string `json:"text"`
	ServedFromCache bool   `json:"served_from_cache"`
	Fallback        bool   `json:"fallback"`
}
