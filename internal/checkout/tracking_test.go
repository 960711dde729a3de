package checkout

import (
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"
)

var trackingPattern = regexp.MustCompile(`^(CJ|HJ|LX|EP)\d{11}$`)

func TestGenerateTrackingFormat(t *testing.T) {
	t.Parallel()

	now := time.Now()
	for i := 0; i < 50; i++ {
		carrier, trackingNo := GenerateTracking(now)
		if len(trackingNo) != 13 {
			t.Fatalf("expected 13 characters, got %q", trackingNo)
		}
		if !trackingPattern.MatchString(trackingNo) {
			t.Fatalf("malformed tracking number %q", trackingNo)
		}
		if !strings.HasPrefix(trackingNo, carrier.String()) {
			t.Fatalf("tracking %q does not carry its carrier %s", trackingNo, carrier)
		}
	}
}

func TestGenerateTrackingStamp(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1_234_567_890_123)
	_, trackingNo := GenerateTracking(now)

	wantStamp := fmt.Sprintf("%08d", now.UnixMilli()%100_000_000)
	if got := trackingNo[2:10]; got != wantStamp {
		t.Fatalf("expected stamp %s, got %s", wantStamp, got)
	}
}
