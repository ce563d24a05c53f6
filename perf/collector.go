package perf

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports a Monitor's metrics to Prometheus. Values are read from
// Metrics on every scrape; the counters come from Totals so they survive
// Reset.
type Collector struct {
	m *Monitor

	currentFPS  *prometheus.Desc
	averageFPS  *prometheus.Desc
	frameDrops  *prometheus.Desc
	frames      *prometheus.Desc
	memoryUsage *prometheus.Desc
	renderTime  *prometheus.Desc
	tier        *prometheus.Desc
	poor        *prometheus.Desc
	idle        *prometheus.Desc
}

// NewCollector creates a collector for m. constLabels are attached to every
// metric, e.g. a surface id.
func NewCollector(m *Monitor, constLabels prometheus.Labels) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("ripple", "", name), help, nil, constLabels)
	}
	return &Collector{
		m:           m,
		currentFPS:  desc("fps_current", "Frame rate of the latest frame."),
		averageFPS:  desc("fps_average", "Rolling average frame rate."),
		frameDrops:  desc("frame_drops_total", "Frames that exceeded the frame budget."),
		frames:      desc("frames_total", "Frames sampled."),
		memoryUsage: desc("memory_usage_bytes", "Estimated GPU memory in use."),
		renderTime:  desc("render_time_seconds", "Duration of the latest render."),
		tier:        desc("quality_tier", "Active quality tier (0 low, 1 medium, 2 high)."),
		poor:        desc("performance_poor", "1 while performance is poor."),
		idle:        desc("idle_seconds", "Time since the last user interaction."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.currentFPS, c.averageFPS, c.frameDrops, c.frames,
		c.memoryUsage, c.renderTime, c.tier, c.poor, c.idle,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	mt := c.m.Metrics()
	totals := c.m.Totals()
	var poor float64
	if c.m.IsPerformancePoor() {
		poor = 1
	}
	ch <- prometheus.MustNewConstMetric(c.currentFPS, prometheus.GaugeValue, mt.CurrentFPS)
	ch <- prometheus.MustNewConstMetric(c.averageFPS, prometheus.GaugeValue, mt.AverageFPS)
	ch <- prometheus.MustNewConstMetric(c.frameDrops, prometheus.CounterValue, float64(totals.FrameDrops))
	ch <- prometheus.MustNewConstMetric(c.frames, prometheus.CounterValue, float64(totals.Frames))
	ch <- prometheus.MustNewConstMetric(c.memoryUsage, prometheus.GaugeValue, float64(mt.MemoryUsage))
	ch <- prometheus.MustNewConstMetric(c.renderTime, prometheus.GaugeValue, mt.RenderTime.Seconds())
	ch <- prometheus.MustNewConstMetric(c.tier, prometheus.GaugeValue, float64(c.m.Tier()))
	ch <- prometheus.MustNewConstMetric(c.poor, prometheus.GaugeValue, poor)
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, c.m.IdleFor().Seconds())
}

var _ prometheus.Collector = (*Collector)(nil)
