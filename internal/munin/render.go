package munin

import (
	"fmt"

	"github.com/sbaerlocher/cgmetrics/pkg/device"
)

const graphCategory = "mining"

// Render produces the complete plugin output for one mode, as protocol lines
// without trailing newlines. Device order is preserved within every graph,
// so config and fetch output stay aligned for the same device list.
func Render(mode Mode, devices []device.Device) []string {
	var lines []string
	for _, g := range Graphs() {
		lines = append(lines, "multigraph "+g.Name)
		if mode == Config {
			lines = append(lines, g.configLines(devices)...)
		} else {
			lines = append(lines, g.fetchLines(devices)...)
		}
	}
	return lines
}

// configLines declares the graph and one data source per device. The field
// identifier must match fetch output exactly or munin drops the series.
func (g Graph) configLines(devices []device.Device) []string {
	lines := []string{
		"graph_category " + graphCategory,
		"graph_title " + g.Title,
		"graph_vlabel " + g.VLabel,
	}
	if g.Args != "" {
		lines = append(lines, "graph_args "+g.Args)
	}

	for _, d := range devices {
		field := d.Field()
		lines = append(lines,
			fmt.Sprintf("%s.label %s %d", field, d.Tag, d.Ident),
			fmt.Sprintf("%s.type %s", field, g.DataType),
		)
		if g.Floor {
			lines = append(lines, fmt.Sprintf("%s.min 0", field))
		}
		lines = append(lines, fmt.Sprintf("%s.draw %s", field, g.Draw))
	}

	return lines
}

func (g Graph) fetchLines(devices []device.Device) []string {
	lines := make([]string, 0, len(devices))
	for _, d := range devices {
		lines = append(lines, fmt.Sprintf("%s.value %s", d.Field(), g.Value(d)))
	}
	return lines
}
