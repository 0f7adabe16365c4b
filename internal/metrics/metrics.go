package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CustomerOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "custportal_customer_operations_total",
			Help: "Customer write operations by kind",
		},
		[]string{"op"}, // created|updated|deleted
	)

	TokensIssued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "custportal_tokens_issued_total",
			Help: "Access tokens issued by the password grant",
		},
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		CustomerOps,
		TokensIssued,
	)
}
