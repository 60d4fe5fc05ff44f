package locking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubService struct {
	failOn  Resource
	deadlock bool
	illegal  bool
}

func (s *stubService) AcquireRead(ctx context.Context, resource Resource) error {
	return s.maybeFail(resource)
}

func (s *stubService) AcquireWrite(ctx context.Context, resource Resource) error {
	return s.maybeFail(resource)
}

func (s *stubService) maybeFail(resource Resource) error {
	if resource != s.failOn {
		return nil
	}
	if s.deadlock {
		return &DeadlockError{Resource: resource, Message: "cycle detected"}
	}
	if s.illegal {
		return &IllegalResourceError{Resource: resource}
	}
	return nil
}

type stubTracker struct {
	added []Resource
}

func (t *stubTracker) AddLock(resource Resource, mode Mode) {
	t.added = append(t.added, resource)
}

func TestAcquireAllSucceed(t *testing.T) {
	svc := &stubService{}
	tracker := &stubTracker{}

	result := Acquire(context.Background(), svc, tracker, Write, []Resource{NodeResource(1), NodeResource(2)})

	require.Equal(t, Ok, result)
	require.Len(t, tracker.added, 2)
}

func TestAcquireDeadlockShortCircuits(t *testing.T) {
	target := NodeResource(2)
	svc := &stubService{failOn: target, deadlock: true}
	tracker := &stubTracker{}

	result := Acquire(context.Background(), svc, tracker, Write, []Resource{NodeResource(1), target, NodeResource(3)})

	require.Equal(t, DeadLocked, result.Status)
	require.Equal(t, "cycle detected", result.Message)
	// Only the resource before the failure was tracked.
	require.Equal(t, []Resource{NodeResource(1)}, tracker.added)
}

func TestAcquireIllegalResourceReturnsNotLocked(t *testing.T) {
	target := IndexResource("label", "key")
	svc := &stubService{failOn: target, illegal: true}
	tracker := &stubTracker{}

	result := Acquire(context.Background(), svc, tracker, Read, []Resource{target})

	require.Equal(t, NotLockedResult, result)
	require.Empty(t, tracker.added)
}

func TestResourceEquality(t *testing.T) {
	require.Equal(t, NodeResource(1), NodeResource(1))
	require.NotEqual(t, NodeResource(1), NodeResource(2))
	require.NotEqual(t, NodeResource(1), RelationshipResource(1))
	require.Equal(t, GraphResource(), GraphResource())
}
