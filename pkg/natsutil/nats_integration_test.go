//go:build integration

package natsutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
)

func natsURL() string {
	if v := os.Getenv("NATS_URL"); v != "" {
		return v
	}
	return nats.DefaultURL
}

func connectNATS(t *testing.T) *nats.Conn {
	t.Helper()
	nc, err := nats.Connect(natsURL())
	if err != nil {
		t.Fatalf("nats connect: %v", err)
	}
	t.Cleanup(func() { nc.Close() })
	return nc
}

func TestNATS_PubSub(t *testing.T) {
	nc := connectNATS(t)

	ch := make(chan testMsg, 1)
	sub, err := Subscribe(nc, "integ.frames", func(_ context.Context, m testMsg) { ch <- m })
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Unsubscribe()

	if err := Publish(context.Background(), nc, "integ.frames", testMsg{Name: "frame", Value: 1}); err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-ch:
		if got.Name != "frame" {
			t.Fatalf("got %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestNATS_HandleRequest(t *testing.T) {
	nc := connectNATS(t)
	sub, err := Handle(nc, "integ.command", double, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Unsubscribe()

	got, err := Request[testMsg, testMsg](context.Background(), nc, "integ.command", testMsg{Value: 4})
	if err != nil || got.Value != 8 {
		t.Fatalf("got %+v, %v", got, err)
	}
}
