package collector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsassess/m365-readiness/pkg/models"
)

// The payload must be a single line: the bridge contract extracts the
// last stdout line that starts with '{'.
const complianceJSON = `{"dlp_policies":{"policies":[{"name":"Credit cards","enabled":true},{"name":"SSNs","enabled":true},{"name":"Draft","enabled":false}]},"sensitivity_labels":{"labels":[{"name":"Public"},{"name":"Confidential"}]},"label_policies":{"policies":[{"name":"Global labels","enabled":true}]},"retention_policies":{"policies":[{"name":"7 year hold","enabled":true}]},"insider_risk_policies":{"policies":[]},"communication_compliance":{"policies":[{"name":"Harassment","enabled":true}]},"information_barriers":{"policies":[]}}`

func TestComplianceCollect(t *testing.T) {
	c := NewComplianceCollector(shRunner("printf '%s' '"+complianceJSON+"'"), testLogger())
	summary := c.Collect(context.Background())

	require.True(t, summary.Available)
	require.NotNil(t, summary.Compliance)
	cs := summary.Compliance

	assert.Equal(t, 3, cs.DLPPolicies)
	assert.Equal(t, 2, cs.DLPEnabledPolicies)
	assert.Equal(t, 2, cs.SensitivityLabels)
	assert.Equal(t, 1, cs.LabelPolicies)
	assert.Equal(t, 1, cs.RetentionPolicies)
	assert.Equal(t, 0, cs.InsiderRiskPolicies)
	assert.Equal(t, 1, cs.CommunicationCompliancePolicies)
	assert.Equal(t, 0, cs.InformationBarrierPolicies)
}

func TestComplianceCollectMissingSections(t *testing.T) {
	c := NewComplianceCollector(shRunner(`printf '%s' '{"dlp_policies":{"policies":[{"name":"Only","enabled":true}]}}'`), testLogger())
	summary := c.Collect(context.Background())

	require.True(t, summary.Available)
	assert.Equal(t, 1, summary.Compliance.DLPPolicies)
	assert.Zero(t, summary.Compliance.SensitivityLabels)
}

func TestComplianceCollectEnvChannel(t *testing.T) {
	runner := shRunner("exit 1")
	runner.EnvVar = "COMPLIANCE_DATA_JSON"
	t.Setenv("COMPLIANCE_DATA_JSON", complianceJSON)

	c := NewComplianceCollector(runner, testLogger())
	summary := c.Collect(context.Background())

	require.True(t, summary.Available)
	assert.Equal(t, 3, summary.Compliance.DLPPolicies)
}

func TestComplianceCollectProcessFailure(t *testing.T) {
	c := NewComplianceCollector(shRunner("echo 'connect-ipps failed' >&2; exit 2"), testLogger())
	summary := c.Collect(context.Background())

	require.False(t, summary.Available)
	assert.Equal(t, models.ReasonUnknown, summary.Reason)
}
