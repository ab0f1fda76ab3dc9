package client

import (
	"context"
	"strings"
	"testing"
)

func TestWatchStdinQuit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	WatchStdin(ctx, strings.NewReader("hello\n  QUIT \nignored\n"), cancel)
	if ctx.Err() == nil {
		t.Fatalf("expected cancellation")
	}
}

func TestWatchStdinEOFDoesNotCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	WatchStdin(ctx, strings.NewReader("status\n"), cancel)
	if ctx.Err() != nil {
		t.Fatalf("EOF on stdin must not cancel")
	}
}
