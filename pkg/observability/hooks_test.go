package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Order hooks
	o := NoopOrderHooks{}
	o.OnOrderStart(ctx, 12)
	o.OnOrderComplete(ctx, "vertical", 3, time.Millisecond)
	o.OnOrderDegraded(ctx, "MALFORMED_GEOMETRY", errors.New("bad polygon"))

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "page")
	c.OnCacheMiss(ctx, "page")
	c.OnCacheSet(ctx, "graph", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/v1/order")
	h.OnResponse(ctx, "POST", "/v1/order", 200, time.Millisecond)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Order().(NoopOrderHooks); !ok {
		t.Error("Order() should return NoopOrderHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	// Set custom hooks
	customOrder := &testOrderHooks{}
	SetOrderHooks(customOrder)
	if Order() != customOrder {
		t.Error("SetOrderHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Order().(NoopOrderHooks); !ok {
		t.Error("Reset() should restore NoopOrderHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testOrderHooks{}
	SetOrderHooks(custom)

	// Setting nil should be ignored
	SetOrderHooks(nil)

	if Order() != custom {
		t.Error("SetOrderHooks(nil) should be ignored")
	}

	Reset()
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	h := NewLogHooks(logger)
	ctx := context.Background()

	h.OnOrderComplete(ctx, "vertical", 2, time.Millisecond)
	h.OnCacheHit(ctx, "page")
	h.OnResponse(ctx, "POST", "/v1/order", 400, time.Millisecond)

	out := buf.String()
	for _, want := range []string{"order complete", "orientation=vertical", "cache hit", "status=400"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

// Test implementations
type testOrderHooks struct{ NoopOrderHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
