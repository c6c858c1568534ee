package cmd_test

import (
	"context"
	"testing"
	"time"

	"github.com/DMarby/additive-mask/internal/cmd"
)

func TestWaitForInterrupt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := cmd.WaitForInterrupt(ctx); err == nil || err.Error() != "canceled" {
		t.Errorf("wrong error %v", err)
	}
}

func TestInterruptContext(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := cmd.InterruptContext(parent)
	defer stop()

	cancel()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Error("context not canceled with its parent")
	}
}
