package storage

import (
	"reflect"
	"testing"

	"github.com/opsassess/m365-readiness/pkg/models"
)

func TestServiceListRoundTrip(t *testing.T) {
	services := []models.Service{models.ServiceM365, models.ServiceDefender}

	joined := joinServices(services)
	if joined != "m365,defender" {
		t.Errorf("unexpected joined form: %q", joined)
	}
	if got := splitServices(joined); !reflect.DeepEqual(got, services) {
		t.Errorf("round trip mismatch: %v", got)
	}
}

func TestSplitServicesEmpty(t *testing.T) {
	if got := splitServices(""); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
	if got := joinServices(nil); got != "" {
		t.Errorf("expected empty string for nil input, got %q", got)
	}
}
