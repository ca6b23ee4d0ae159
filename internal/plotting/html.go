package plotting

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

func echartsAxisType(a Axis) string {
	if a.Log {
		return "log"
	}
	return "value"
}

func axisLimit(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// newLineChart renders one chart as a go-echarts step line chart.
func newLineChart(c Chart) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "720px", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: c.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside", XAxisIndex: []int{0}}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:         c.X.Label,
			Type:         echartsAxisType(c.X),
			Min:          axisLimit(c.X.Min),
			Max:          axisLimit(c.X.Max),
			NameLocation: "middle",
			NameGap:      25,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:         c.Y.Label,
			Type:         echartsAxisType(c.Y),
			Min:          axisLimit(c.Y.Min),
			Max:          axisLimit(c.Y.Max),
			NameLocation: "middle",
			NameGap:      45,
		}),
	)

	colors := generateColors(len(c.Series))
	xs, ys := c.points()
	for i, s := range c.Series {
		data := make([]opts.LineData, len(xs[i]))
		for j := range data {
			data[j] = opts.LineData{Value: []interface{}{xs[i][j], ys[i][j]}}
		}
		line.AddSeries(s.Label, data,
			charts.WithLineChartOpts(opts.LineChart{Step: "end", ShowSymbol: opts.Bool(false)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(colors[i])}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: hexColor(colors[i]), Width: 1}),
		)
	}
	return line
}

// RenderHTML writes an interactive page holding every chart.
func RenderHTML(w io.Writer, title string, panels []Chart) error {
	page := components.NewPage()
	page.PageTitle = title
	for _, c := range panels {
		page.AddCharts(newLineChart(c))
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render charts: %w", err)
	}
	return nil
}
