package metrics

import (
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("studio_id", "123"),
		attribute.String("member_email", "potter@example.com"),
		attribute.String("action", "invite_accepted"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "studio_id" && attrs[1].Key != "studio_id" {
		t.Fatalf("expected studio_id to be retained")
	}
	if attrs[0].Key != "action" && attrs[1].Key != "action" {
		t.Fatalf("expected action to be retained")
	}
}
