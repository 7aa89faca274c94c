package telephony

import (
	"strings"
	"testing"
)

func TestRenderMediaStream(t *testing.T) {
	xml, err := RenderMediaStream("wss://example.com/media-stream", "CA123")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(xml, "<Connect>") {
		t.Fatalf("expected Connect verb: %s", xml)
	}
	if !strings.Contains(xml, `url="wss://example.com/media-stream"`) {
		t.Fatalf("expected stream url attribute: %s", xml)
	}
	if !strings.Contains(xml, `name="CallSid"`) || !strings.Contains(xml, `value="CA123"`) {
		t.Fatalf("expected CallSid custom parameter: %s", xml)
	}
}

func TestRenderMediaStreamRequiresURL(t *testing.T) {
	if _, err := RenderMediaStream("  ", "CA123"); err == nil {
		t.Fatalf("expected error for empty stream url")
	}
}

func TestRenderRejection(t *testing.T) {
	xml, err := RenderRejection("This number is not configured.")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(xml, "<Say>This number is not configured.</Say>") {
		t.Fatalf("expected Say verb: %s", xml)
	}
	if !strings.Contains(xml, "<Hangup>") {
		t.Fatalf("expected Hangup verb: %s", xml)
	}
}
