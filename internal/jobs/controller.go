package jobs

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DouglasMacKrell/namegnome-serve/internal/services"
)

// EventType classifies job events.
type EventType string

const (
	EventProgress EventType = "progress"
	EventLLMToken EventType = "llm_token"
	EventWarning  EventType = "warning"
	EventDone     EventType = "done"
)

// Event is one hint on a job's stream.
type Event struct {
	Type EventType      `json:"type"`
	Seq  int            `json:"seq"`
	Time time.Time      `json:"time"`
	Data map[string]any `json:"data,omitempty"`
}

// State is a job's lifecycle state.
type State string

const (
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Job is one pipeline run.
type Job struct {
	ID        string    `json:"job_id"`
	Phase     string    `json:"phase"`
	StartedAt time.Time `json:"started_at"`

	mu          sync.Mutex
	state       State
	events      []Event
	subscribers map[int]chan Event
	nextSub     int
	result      any
	err         error
}

// Status is a point-in-time job snapshot.
type Status struct {
	JobID     string    `json:"job_id"`
	Phase     string    `json:"phase"`
	State     State     `json:"state"`
	StartedAt time.Time `json:"started_at"`
	Events    int       `json:"events"`
	Error     string    `json:"error,omitempty"`
}

// Controller registers jobs and hands out their streams.
type Controller struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

// NewController constructs a Controller.
func NewController() *Controller {
	return &Controller{jobs: map[string]*Job{}}
}

// Start registers a new running job for the given phase.
func (c *Controller) Start(phase string) *Job {
	job := &Job{
		ID:          "job_" + strings.ReplaceAll(uuid.New().String(), "-", ""),
		Phase:       phase,
		StartedAt:   time.Now().UTC(),
		state:       StateRunning,
		subscribers: map[int]chan Event{},
	}
	c.mu.Lock()
	c.jobs[job.ID] = job
	c.mu.Unlock()
	return job
}

// Get fetches a job by id.
func (c *Controller) Get(id string) (*Job, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	job, ok := c.jobs[id]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "jobs", "get", "unknown job "+id, nil)
	}
	return job, nil
}

// Publish appends an event and fans it out to live subscribers. Slow
// subscribers drop events rather than block the pipeline; the buffered
// history remains complete.
func (j *Job) Publish(eventType EventType, data map[string]any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != StateRunning && eventType != EventDone {
		return
	}
	event := Event{
		Type: eventType,
		Seq:  len(j.events) + 1,
		Time: time.Now().UTC(),
		Data: data,
	}
	j.events = append(j.events, event)
	for _, subscriber := range j.subscribers {
		select {
		case subscriber <- event:
		default:
		}
	}
}

// Subscribe returns a channel that replays the buffered history and then
// follows live events, plus a cancel function.
func (j *Job) Subscribe() (<-chan Event, func()) {
	j.mu.Lock()
	history := make([]Event, len(j.events))
	copy(history, j.events)
	channel := make(chan Event, len(history)+64)
	for _, event := range history {
		channel <- event
	}
	id := j.nextSub
	j.nextSub++
	done := j.state != StateRunning
	if !done {
		j.subscribers[id] = channel
	}
	j.mu.Unlock()

	if done {
		close(channel)
		return channel, func() {}
	}
	cancel := func() {
		j.mu.Lock()
		if _, ok := j.subscribers[id]; ok {
			delete(j.subscribers, id)
			close(channel)
		}
		j.mu.Unlock()
	}
	return channel, cancel
}

// Finish records the authoritative result (or error), emits the done event,
// and closes every subscriber.
func (j *Job) Finish(result any, err error) {
	j.Publish(EventDone, doneData(err))
	j.mu.Lock()
	if err != nil {
		j.state = StateFailed
		j.err = err
	} else {
		j.state = StateSucceeded
		j.result = result
	}
	for id, subscriber := range j.subscribers {
		delete(j.subscribers, id)
		close(subscriber)
	}
	j.mu.Unlock()
}

func doneData(err error) map[string]any {
	if err == nil {
		return map[string]any{"ok": true}
	}
	return map[string]any{"ok": false, "error": err.Error(), "code": services.Code(err)}
}

// Result returns the final artifact once the job has finished; done is
// false while it is still running.
func (j *Job) Result() (result any, done bool, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == StateRunning {
		return nil, false, nil
	}
	return j.result, true, j.err
}

// Status snapshots the job.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	status := Status{
		JobID:     j.ID,
		Phase:     j.Phase,
		State:     j.state,
		StartedAt: j.StartedAt,
		Events:    len(j.events),
	}
	if j.err != nil {
		status.Error = j.err.Error()
	}
	return status
}
