package channel

import (
	"errors"
	"testing"
)

func TestAcquireReleaseLifecycle(t *testing.T) {
	closed := make(chan string, 1)
	sent := make(chan string, 10)
	reg := NewRegistry(
		func(channelID, event string, payload any, requestID string) error {
			sent <- event
			return nil
		},
		nil,
		func(channelID string) error {
			closed <- channelID
			return nil
		},
	)

	b1 := reg.AcquireChannel("c1")
	b2 := reg.AcquireChannel("c1")
	if b1 != b2 {
		t.Fatal("expected the same bridge for repeated acquires")
	}

	reg.ReleaseChannel("c1")
	select {
	case <-closed:
		t.Fatal("expected no close with refcount still above zero")
	default:
	}

	reg.ReleaseChannel("c1")
	select {
	case id := <-closed:
		if id != "c1" {
			t.Fatalf("closed id = %q", id)
		}
	default:
		t.Fatal("expected close message once refcount reached zero")
	}
}

func TestRequestResponseCorrelation(t *testing.T) {
	var capturedReqID string
	reg := NewRegistry(func(channelID, event string, payload any, requestID string) error {
		capturedReqID = requestID
		return nil
	}, nil, nil)
	b := reg.AcquireChannel("c1")
	resultCh, errCh := b.Request("ping", "hello")

	reg.Deliver("c1", "", capturedReqID, "", "pong", nil)

	select {
	case v := <-resultCh:
		if v != "pong" {
			t.Fatalf("result = %v", v)
		}
	case err := <-errCh:
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDisposalRejectsPendingWithResetError(t *testing.T) {
	reg := NewRegistry(func(channelID, event string, payload any, requestID string) error {
		return nil
	}, nil, func(channelID string) error { return nil })
	b := reg.AcquireChannel("c1")
	_, errCh := b.Request("ping", nil)

	reg.ReleaseChannel("c1")

	err := <-errCh
	var resetErr *PulseChannelResetError
	if !errors.As(err, &resetErr) {
		t.Fatalf("expected PulseChannelResetError, got %v (%T)", err, err)
	}
}

func TestOnUnsubscribe(t *testing.T) {
	reg := NewRegistry(func(channelID, event string, payload any, requestID string) error { return nil }, nil, nil)
	b := reg.AcquireChannel("c1")
	calls := 0
	unsub := b.On("tick", func(payload any) { calls++ })
	reg.Deliver("c1", "tick", "", "", nil, nil)
	unsub()
	reg.Deliver("c1", "tick", "", "", nil, nil)
	if calls != 1 {
		t.Fatalf("expected exactly 1 call, got %d", calls)
	}
}

func TestOnRequestRepliesWithResponseTo(t *testing.T) {
	type reply struct {
		channelID, responseTo string
		payload               any
		err                   error
	}
	replies := make(chan reply, 1)
	reg := NewRegistry(
		func(channelID, event string, payload any, requestID string) error { return nil },
		func(channelID, responseTo string, payload any, deliveryErr error) error {
			replies <- reply{channelID, responseTo, payload, deliveryErr}
			return nil
		},
		nil,
	)
	b := reg.AcquireChannel("c1")
	b.OnRequest("ref:request", func(payload any) (any, error) {
		return "measured", nil
	})

	reg.Deliver("c1", "ref:request", "", "req-1", map[string]any{"op": "measure"}, nil)

	r := <-replies
	if r.channelID != "c1" || r.responseTo != "req-1" || r.payload != "measured" || r.err != nil {
		t.Fatalf("reply = %+v", r)
	}
}
