package metrics

import (
	"sync"

	"github.com/miekg/dns"
	"github.com/prometheus/client_golang/prometheus"
)

type DNSMetrics struct {
	queries *prometheus.CounterVec
}

var (
	dnsOnce     sync.Once
	dnsRegistry *DNSMetrics
)

// DNS returns the registry counting gateway queries.
func DNS() *DNSMetrics {
	dnsOnce.Do(func() {
		dnsRegistry = &DNSMetrics{
			queries: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "namechain_dns_queries_total",
				Help: "Count of DNS queries answered by question type and response code.",
			}, []string{"qtype", "rcode"}),
		}
		prometheus.MustRegister(dnsRegistry.queries)
	})
	return dnsRegistry
}

func (m *DNSMetrics) RecordQuery(qtype uint16, rcode int) {
	if m == nil {
		return
	}
	typeName, ok := dns.TypeToString[qtype]
	if !ok {
		typeName = "UNKNOWN"
	}
	rcodeName, ok := dns.RcodeToString[rcode]
	if !ok {
		rcodeName = "UNKNOWN"
	}
	m.queries.WithLabelValues(typeName, rcodeName).Inc()
}
