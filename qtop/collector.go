package qtop

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports the per-user totals of a fresh qstat snapshot on every
// scrape.
type Collector struct {
	top      *Top
	jobs     *prometheus.Desc
	cpus     *prometheus.Desc
	memory   *prometheus.Desc
	rejected *prometheus.Desc
}

func NewCollector(top *Top) *Collector {
	return &Collector{
		top: top,
		jobs: prometheus.NewDesc(
			"gridengine_user_jobs",
			"Running Grid Engine jobs per user",
			[]string{"user"}, nil,
		),
		cpus: prometheus.NewDesc(
			"gridengine_user_cpus",
			"Slots requested by running Grid Engine jobs per user",
			[]string{"user"}, nil,
		),
		memory: prometheus.NewDesc(
			"gridengine_user_memory_bytes",
			"Memory requested by running Grid Engine jobs per user",
			[]string{"user"}, nil,
		),
		rejected: prometheus.NewDesc(
			"gridengine_rejected_jobs",
			"Grid Engine jobs left out of the per-user totals",
			[]string{"reason"}, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.jobs
	ch <- c.cpus
	ch <- c.memory
	ch <- c.rejected
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if err := c.top.Update(); err != nil {
		c.top.log.WithError(err).Error("qstat query failed")
		ch <- prometheus.NewInvalidMetric(c.jobs, err)
		return
	}

	sum := c.top.Current()

	for _, owner := range sum.Report.Owners {
		ch <- prometheus.MustNewConstMetric(c.jobs, prometheus.GaugeValue, float64(owner.Jobs), owner.Owner)
		ch <- prometheus.MustNewConstMetric(c.cpus, prometheus.GaugeValue, float64(owner.CPU), owner.Owner)
		ch <- prometheus.MustNewConstMetric(c.memory, prometheus.GaugeValue, float64(owner.Mem), owner.Owner)
	}

	counts := map[Reason]int{}
	for _, diag := range sum.Diagnostics {
		counts[diag.Reason]++
	}

	for _, reason := range Reasons {
		ch <- prometheus.MustNewConstMetric(c.rejected, prometheus.GaugeValue, float64(counts[reason]), string(reason))
	}
}
