package breaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNew_OpensAfterFailures(t *testing.T) {
	cb := New[int]("test-open", Settings{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		MinRequests:  2,
		FailureRatio: 0.5,
	})

	boom := errors.New("boom")
	for i := 0; i < 2; i++ {
		_, err := cb.Execute(func() (int, error) { return 0, boom })
		if !errors.Is(err, boom) {
			t.Fatalf("call %d error = %v, want boom", i, err)
		}
	}

	_, err := cb.Execute(func() (int, error) { return 1, nil })
	if !IsRejected(err) {
		t.Errorf("error after tripping = %v, want rejection", err)
	}
}

func TestNew_CancellationIsNotFailure(t *testing.T) {
	cb := New[int]("test-cancel", Settings{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		MinRequests:  1,
		FailureRatio: 0.5,
	})

	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(func() (int, error) { return 0, context.Canceled })
	}

	got, err := cb.Execute(func() (int, error) { return 7, nil })
	if err != nil || got != 7 {
		t.Errorf("Execute() = (%d, %v), want (7, nil)", got, err)
	}
}

func TestIsRejected(t *testing.T) {
	if IsRejected(errors.New("other")) {
		t.Error("IsRejected(other) = true")
	}
	if IsRejected(nil) {
		t.Error("IsRejected(nil) = true")
	}
}
