package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/gogpu/ripple"
	"github.com/gogpu/ripple/device"
)

// sample is the surface state after one replayed frame.
type sample struct {
	At         time.Duration
	FrameTime  time.Duration
	CurrentFPS float64
	AverageFPS float64
	Tier       device.Tier
	Mode       ripple.Mode
}

func xLabels(samples []sample) []string {
	out := make([]string, len(samples))
	for i, s := range samples {
		out[i] = fmt.Sprintf("%.2fs", s.At.Seconds())
	}
	return out
}

func baseOpts(title, subtitle string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", AxisLabel: &opts.AxisLabel{Rotate: 45}}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "400px"}),
	}
}

// fpsChart plots the per-frame and rolling frame rate.
func fpsChart(samples []sample, s *ripple.Surface) *charts.Line {
	line := charts.NewLine()
	cfg := s.Monitor().Config()
	line.SetGlobalOptions(append(baseOpts("Frame rate",
		fmt.Sprintf("min %.0f fps, demotion after %d poor samples", cfg.MinFPS, cfg.DemotionThreshold)),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "fps"}))...)

	current := make([]opts.LineData, len(samples))
	average := make([]opts.LineData, len(samples))
	for i, smp := range samples {
		current[i] = opts.LineData{Value: smp.CurrentFPS}
		average[i] = opts.LineData{Value: smp.AverageFPS}
	}
	line.SetXAxis(xLabels(samples)).
		AddSeries("current", current, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)})).
		AddSeries("average", average, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), ShowSymbol: opts.Bool(false)}))
	return line
}

// stateChart plots the quality tier and rendering mode.
func stateChart(samples []sample) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(append(baseOpts("Pipeline state",
		"tier: 0 low, 1 medium, 2 high; mode: 1 webgl, 0 css-fallback"),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "level"}))...)

	tiers := make([]opts.LineData, len(samples))
	modes := make([]opts.LineData, len(samples))
	for i, smp := range samples {
		tiers[i] = opts.LineData{Value: int(smp.Tier)}
		webgl := 0
		if smp.Mode == ripple.ModeWebGL {
			webgl = 1
		}
		modes[i] = opts.LineData{Value: webgl}
	}
	line.SetXAxis(xLabels(samples)).
		AddSeries("tier", tiers, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)})).
		AddSeries("mode", modes, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	return line
}

// frameTimeChart plots the replayed frame times.
func frameTimeChart(samples []sample) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(append(baseOpts("Frame time", ""),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "ms"}))...)

	data := make([]opts.BarData, len(samples))
	for i, smp := range samples {
		data[i] = opts.BarData{Value: float64(smp.FrameTime) / float64(time.Millisecond)}
	}
	bar.SetXAxis(xLabels(samples)).AddSeries("frame time", data)
	return bar
}

func writeReport(path string, s *ripple.Surface, samples []sample) error {
	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("ripple bench - %s", s.ID())
	page.AddCharts(fpsChart(samples, s), stateChart(samples), frameTimeChart(samples))

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
