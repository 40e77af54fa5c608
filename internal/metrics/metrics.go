// Package metrics exposes Prometheus counters for registrations, logins and token checks.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Recorder interface {
	RecordRegistration(result string)
	RecordLogin(result string)
	RecordTokenRejected(reason string)
	RecordTokensPurged(count int64)
}

type Collector struct {
	registrations  *prometheus.CounterVec
	logins         *prometheus.CounterVec
	tokenRejection *prometheus.CounterVec
	tokensPurged   prometheus.Counter
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "passport_auth_registrations_total",
			Help: "Registration attempts by result.",
		}, []string{"result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "passport_auth_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		tokenRejection: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "passport_auth_token_rejections_total",
			Help: "Rejected bearer tokens by reason.",
		}, []string{"reason"}),
		tokensPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "passport_auth_tokens_purged_total",
			Help: "Expired tokens removed by the cleanup job.",
		}),
	}

	reg.MustRegister(
		c.registrations,
		c.logins,
		c.tokenRejection,
		c.tokensPurged,
	)

	return c
}

func (c *Collector) RecordRegistration(result string) {
	c.registrations.WithLabelValues(result).Inc()
}

func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

func (c *Collector) RecordTokenRejected(reason string) {
	c.tokenRejection.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordTokensPurged(count int64) {
	c.tokensPurged.Add(float64(count))
}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type nopRecorder struct{}

// Nop discards everything; handy where metrics are not wired.
func Nop() Recorder { return nopRecorder{} }

func (nopRecorder) RecordRegistration(string)  {}
func (nopRecorder) RecordLogin(string)         {}
func (nopRecorder) RecordTokenRejected(string) {}
func (nopRecorder) RecordTokensPurged(int64)   {}
