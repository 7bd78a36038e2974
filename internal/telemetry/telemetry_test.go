package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestInitialize_EmptyEndpointIsNoop(t *testing.T) {
	shutdown, err := Initialize(context.Background(), Config{ServiceName: "archiver-test"})
	if err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}
	if shutdown == nil {
		t.Fatalf("shutdown func is nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown returned error: %v", err)
	}
}

func TestStartSpan_WithoutProviderDoesNotPanic(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "bridge.invoke", attribute.String("channel", "get-chats"))
	if ctx == nil {
		t.Fatalf("StartSpan returned nil context")
	}
	EndSpan(span, errors.New("proxy failed"))
}
