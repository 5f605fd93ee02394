package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHooksRunInReverseOrder(t *testing.T) {
	h := NewHandler(5 * time.Second)

	var order []int
	h.OnShutdown(func(context.Context) error {
		order = append(order, 1)
		return nil
	})
	h.OnShutdown(func(context.Context) error {
		order = append(order, 2)
		return nil
	})

	if err := h.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Errorf("hook order = %v, want [2 1]", order)
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done channel not closed after Run")
	}
}

func TestRunReturnsLastError(t *testing.T) {
	h := NewHandler(time.Second)

	wantErr := errors.New("cleanup failed")
	h.OnShutdown(func(context.Context) error { return wantErr })
	h.OnShutdown(func(context.Context) error { return nil })

	if err := h.Run(); !errors.Is(err, wantErr) {
		t.Errorf("Run error = %v, want %v", err, wantErr)
	}
}

func TestRunTimeoutContext(t *testing.T) {
	h := NewHandler(50 * time.Millisecond)

	h.OnShutdown(func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	})

	start := time.Now()
	err := h.Run()
	if time.Since(start) > time.Second {
		t.Fatal("Run did not honor the shutdown timeout")
	}
	if err == nil {
		t.Error("Run = nil, want context deadline error from the hook")
	}
}
