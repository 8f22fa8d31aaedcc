package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestRegister(t *testing.T) {
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "metrics_test_counter", Help: "test"})
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: "metrics_test_gauge", Help: "test"})
	assert.Nil(t, Register(c, g))
	assert.Nil(t, Register(c))
}

func TestRegister_Fails(t *testing.T) {
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "metrics_test_dup", Help: "test"})
	other := prometheus.NewGauge(prometheus.GaugeOpts{Name: "metrics_test_dup", Help: "test"})
	assert.Nil(t, Register(c))
	assert.NotNil(t, Register(other))
}
