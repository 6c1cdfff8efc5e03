package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/hourcoin/hourcoin/pkg/validator"
)

func TestObserveSubmissionIncrementsLabeledCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveSubmission(validator.Accepted)
	c.ObserveSubmission(validator.RejectedMinerInLockout)
	c.ObserveSubmission(validator.Accepted)

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, fam := range families {
		if fam.GetName() != "hourcoin_validator_block_submissions_total" {
			continue
		}
		for _, m := range fam.Metric {
			counts[labelValue(m, "result")] = m.GetCounter().GetValue()
		}
	}
	require.Equal(t, float64(2), counts[string(validator.Accepted)])
	require.Equal(t, float64(1), counts[string(validator.RejectedMinerInLockout)])
}

func TestSetChainHeightAndLockouts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.SetChainHeight(5)
	c.SetActiveLockouts(2)

	families, err := reg.Gather()
	require.NoError(t, err)
	var sawHeight, sawLockouts bool
	for _, fam := range families {
		switch fam.GetName() {
		case "hourcoin_validator_chain_height":
			require.Equal(t, float64(5), fam.Metric[0].GetGauge().GetValue())
			sawHeight = true
		case "hourcoin_validator_active_lockouts":
			require.Equal(t, float64(2), fam.Metric[0].GetGauge().GetValue())
			sawLockouts = true
		}
	}
	require.True(t, sawHeight)
	require.True(t, sawLockouts)
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.Label {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
