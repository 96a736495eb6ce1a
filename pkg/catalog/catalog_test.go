package catalog

import (
	"testing"

	"github.com/opsassess/m365-readiness/pkg/models"
)

func TestServiceForKnownPlans(t *testing.T) {
	cases := map[string]models.Service{
		"EXCHANGE_S_ENTERPRISE": models.ServiceM365,
		"WINDEFATP":             models.ServiceDefender,
		"MIP_S_CLP2":            models.ServicePurview,
		"POWERAPPS_O365_P3":     models.ServicePowerPlatform,
	}

	for plan, want := range cases {
		if got := ServiceFor(plan); got != want {
			t.Errorf("ServiceFor(%s) = %s, want %s", plan, got, want)
		}
	}
}

func TestServiceForIsCaseInsensitive(t *testing.T) {
	if got := ServiceFor("windefatp"); got != models.ServiceDefender {
		t.Errorf("Expected defender for lowercase plan name, got %s", got)
	}
}

func TestServiceForKeywordFallback(t *testing.T) {
	// Not in the table, but the keyword routing should still place these.
	if got := ServiceFor("DEFENDER_FOR_IOT_ENTERPRISE"); got != models.ServiceDefender {
		t.Errorf("Expected defender via keyword, got %s", got)
	}
	if got := ServiceFor("FLOW_P2_VIRAL"); got != models.ServicePowerPlatform {
		t.Errorf("Expected power_platform via keyword, got %s", got)
	}
}

func TestServiceForUnknownDefaultsToM365(t *testing.T) {
	if got := ServiceFor("SOME_FUTURE_PLAN"); got != models.ServiceM365 {
		t.Errorf("Expected m365 default, got %s", got)
	}
}

func TestFriendlyNames(t *testing.T) {
	if got := FriendlySKUName("SPE_E5"); got != "Microsoft 365 E5" {
		t.Errorf("Unexpected SKU name: %s", got)
	}
	if got := FriendlySKUName("UNLISTED_SKU"); got != "UNLISTED_SKU" {
		t.Errorf("Unknown SKU should fall back to part number, got %s", got)
	}
	if got := FriendlyPlanName("MTP"); got != "Microsoft Defender XDR" {
		t.Errorf("Unexpected plan name: %s", got)
	}
}
