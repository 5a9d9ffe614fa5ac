package main

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatLoop_ExitReleasesReader(t *testing.T) {
	before := runtime.NumGoroutine()

	logger := zerolog.Nop()
	input := strings.NewReader("exit\nleftover line nobody consumes\n")

	err := chatLoop(context.Background(), nil, input, &logger)
	require.NoError(t, err)

	// The reader goroutine is mid-send with the leftover line when the
	// loop returns; it must still wind down.
	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, time.Second, 10*time.Millisecond, "reader goroutine still running")
}

func TestChatLoop_ReturnsOnCancel(t *testing.T) {
	logger := zerolog.Nop()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() {
		done <- chatLoop(ctx, nil, strings.NewReader(""), &logger)
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("chatLoop did not return after cancellation")
	}
}
