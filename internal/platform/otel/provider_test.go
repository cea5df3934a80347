package otel_test

import (
	"context"
	"testing"

	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/otel"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	t.Setenv("TRACKER_OTEL_ENDPOINT", "")
	t.Setenv("TRACKER_OTEL_ENABLED", "")

	shutdown, err := otel.Setup(context.Background(), "tracker-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_NoopWhenExplicitlyDisabled(t *testing.T) {
	t.Setenv("TRACKER_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("TRACKER_OTEL_ENABLED", "FALSE")

	shutdown, err := otel.Setup(context.Background(), "tracker-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_CreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address so nothing is exported.
	t.Setenv("TRACKER_OTEL_ENDPOINT", "http://192.0.2.1:4318")
	t.Setenv("TRACKER_OTEL_ENABLED", "")

	shutdown, err := otel.Setup(context.Background(), "tracker-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}
