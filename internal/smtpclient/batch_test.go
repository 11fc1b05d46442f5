package smtpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/shineum/mail-dash-lite/internal/email"
)

// buildOrFail builds a trivial message, failing for any set whose first To
// address is "fail@x.com".
func buildOrFail(set email.Recipients) (*email.Message, []string, error) {
	if len(set.To) > 0 && set.To[0] == "fail@x.com" {
		return nil, nil, errors.New("builder exploded")
	}
	msg := testMessage(set)
	return msg, msg.Envelope(), nil
}

func TestSendBatch_IsolatesFailures(t *testing.T) {
	t.Parallel()

	rec := &relayRecorder{}
	c := scriptedClient(t, nil, rec)
	defer c.Close()

	sets := []email.Recipients{
		{To: []string{"one@x.com"}},
		{To: []string{"fail@x.com"}},
		{To: []string{"three@x.com"}},
	}

	results := c.SendBatch(buildOrFail, sets)
	if len(results) != 3 {
		t.Fatalf("results: got %d, want 3", len(results))
	}

	if results[0].Err != nil || results[0].Result == nil || !results[0].Result.Success {
		t.Errorf("descriptor 1: got %+v, want success", results[0])
	}
	if results[1].Err == nil {
		t.Error("descriptor 2: expected build error")
	}
	if results[2].Err != nil || results[2].Result == nil || !results[2].Result.Success {
		t.Errorf("descriptor 3: got %+v, want success", results[2])
	}

	// Each successful descriptor ran its own MAIL transaction.
	if !rec.sawCommand("RCPT TO:<one@x.com>") || !rec.sawCommand("RCPT TO:<three@x.com>") {
		t.Error("expected both successful descriptors to reach the relay")
	}
}

func TestSendBatch_PreservesOrder(t *testing.T) {
	t.Parallel()

	c := scriptedClient(t, nil, &relayRecorder{})
	defer c.Close()

	var sets []email.Recipients
	for i := 0; i < 5; i++ {
		sets = append(sets, email.Recipients{To: []string{fmt.Sprintf("user%d@x.com", i)}})
	}

	results := c.SendBatch(buildOrFail, sets)
	for i, res := range results {
		want := fmt.Sprintf("user%d@x.com", i)
		if len(res.Recipients.To) != 1 || res.Recipients.To[0] != want {
			t.Errorf("result %d: got %v, want %s", i, res.Recipients.To, want)
		}
	}
}

func TestSendBatchConcurrent_BuildFailures(t *testing.T) {
	t.Parallel()

	// Build failures never dial; every descriptor still yields its own
	// result record in submission order.
	c := New("sender@example.com", "pw", DefaultConfig())

	sets := []email.Recipients{
		{To: []string{"fail@x.com"}},
		{To: []string{"fail@x.com"}},
		{To: []string{"fail@x.com"}},
	}

	results := c.SendBatchConcurrent(context.Background(), buildOrFail, sets)
	if len(results) != 3 {
		t.Fatalf("results: got %d, want 3", len(results))
	}
	for i, res := range results {
		if res.Err == nil {
			t.Errorf("result %d: expected build error", i)
		}
	}
}

func TestSendBatchConcurrent_ConnectionFailuresDoNotAbortBatch(t *testing.T) {
	t.Parallel()

	// Reserve a port and close it so dials are refused quickly.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close()

	cfg := Config{Host: "127.0.0.1", Port: addr.Port, Timeout: DefaultConfig().Timeout}
	c := New("sender@example.com", "pw", cfg)

	sets := []email.Recipients{
		{To: []string{"a@x.com"}},
		{To: []string{"fail@x.com"}},
		{To: []string{"b@x.com"}},
	}

	results := c.SendBatchConcurrent(context.Background(), buildOrFail, sets)
	if len(results) != 3 {
		t.Fatalf("results: got %d, want 3", len(results))
	}

	var clientErr *Error
	if !errors.As(results[0].Err, &clientErr) || clientErr.Kind != KindConnection {
		t.Errorf("descriptor 1: got %v, want KindConnection", results[0].Err)
	}
	// Descriptor 2 fails in its builder, not on the network.
	if results[1].Err == nil || results[1].Err.Error() != "builder exploded" {
		t.Errorf("descriptor 2: got %v, want builder error", results[1].Err)
	}
	if !errors.As(results[2].Err, &clientErr) || clientErr.Kind != KindConnection {
		t.Errorf("descriptor 3: got %v, want KindConnection", results[2].Err)
	}
}
