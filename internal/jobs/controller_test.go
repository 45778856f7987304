package jobs

import (
	"errors"
	"testing"

	"github.com/DouglasMacKrell/namegnome-serve/internal/services"
)

func TestSubscribeReplaysHistory(t *testing.T) {
	controller := NewController()
	job := controller.Start("plan")
	job.Publish(EventProgress, map[string]any{"done": 1, "total": 2})
	job.Publish(EventWarning, map[string]any{"warning": "gap_present"})

	events, cancel := job.Subscribe()
	defer cancel()

	first := <-events
	if first.Type != EventProgress || first.Seq != 1 {
		t.Fatalf("first event = %+v", first)
	}
	second := <-events
	if second.Type != EventWarning || second.Seq != 2 {
		t.Fatalf("second event = %+v", second)
	}
}

func TestFinishClosesSubscribers(t *testing.T) {
	controller := NewController()
	job := controller.Start("plan")
	events, cancel := job.Subscribe()
	defer cancel()

	job.Finish("artifact", nil)

	var last Event
	for event := range events {
		last = event
	}
	if last.Type != EventDone {
		t.Fatalf("last event = %+v", last)
	}

	result, done, err := job.Result()
	if !done || err != nil || result != "artifact" {
		t.Fatalf("result = %v, %v, %v", result, done, err)
	}
	if job.Status().State != StateSucceeded {
		t.Fatalf("state = %s", job.Status().State)
	}
}

func TestFinishWithErrorMarksFailed(t *testing.T) {
	controller := NewController()
	job := controller.Start("apply")
	job.Finish(nil, errors.New("boom"))

	if job.Status().State != StateFailed || job.Status().Error == "" {
		t.Fatalf("status = %+v", job.Status())
	}
}

func TestSubscribeAfterFinishReplaysAndCloses(t *testing.T) {
	controller := NewController()
	job := controller.Start("scan")
	job.Publish(EventProgress, nil)
	job.Finish("done", nil)

	events, cancel := job.Subscribe()
	defer cancel()
	count := 0
	for range events {
		count++
	}
	if count != 2 {
		t.Fatalf("replayed %d events, want 2", count)
	}
}

func TestGetUnknownJob(t *testing.T) {
	controller := NewController()
	if _, err := controller.Get("job_missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
