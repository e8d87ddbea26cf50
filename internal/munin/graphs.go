// Package munin renders classified device views into the munin multigraph
// protocol. Rendering is pure: callers hand it devices, it hands back lines.
package munin

import (
	"strconv"

	"github.com/sbaerlocher/cgmetrics/pkg/device"
)

// Mode selects which half of the munin plugin contract to render.
type Mode int

const (
	// Fetch emits one value line per device and graph.
	Fetch Mode = iota
	// Config emits graph headers and per-device data-source declarations.
	Config
)

// Data-source kinds and draw styles from the munin protocol.
const (
	typeDerive = "DERIVE"
	typeGauge  = "GAUGE"

	drawAreaStack = "AREASTACK"
	drawLine      = "LINE"
)

// Graph declares one multigraph: its munin headers, the data-source shape
// shared by every device on it, and how a device view maps to a value.
type Graph struct {
	Name     string
	Title    string
	VLabel   string
	Args     string
	DataType string
	Draw     string
	Floor    bool // emit ".min 0"; rate sources must never step backwards
	Value    func(device.Device) string
}

// Graphs returns the five fixed metric groups in their wire order.
// Front-ends key series on both the graph names and this order.
func Graphs() []Graph {
	return []Graph{
		{
			Name:     "cgminer_hashrate",
			Title:    "Hashrate",
			VLabel:   "Hash/s",
			Args:     "--base 1000 --lower-limit 0",
			DataType: typeDerive,
			Draw:     drawAreaStack,
			Floor:    true,
			Value:    hashesPerSecond,
		},
		{
			Name:     "cgminer_utility",
			Title:    "Utility",
			VLabel:   "Shares/Min",
			DataType: typeGauge,
			Draw:     drawLine,
			Value:    func(d device.Device) string { return formatGauge(d.Utility) },
		},
		{
			Name:     "cgminer_temperature",
			Title:    "Temperature",
			VLabel:   "Degrees Celsius",
			DataType: typeGauge,
			Draw:     drawLine,
			Value:    func(d device.Device) string { return formatGauge(d.Temperature) },
		},
		{
			Name:     "cgminer_accepted",
			Title:    "Accepted",
			VLabel:   "Shares",
			DataType: typeDerive,
			Draw:     drawAreaStack,
			Floor:    true,
			Value:    func(d device.Device) string { return strconv.FormatInt(d.Accepted, 10) },
		},
		{
			Name:     "cgminer_rejected",
			Title:    "Rejected",
			VLabel:   "Shares",
			DataType: typeDerive,
			Draw:     drawAreaStack,
			Floor:    true,
			Value:    func(d device.Device) string { return strconv.FormatInt(d.Rejected, 10) },
		},
	}
}

// hashesPerSecond converts the daemon's megahash figure to hashes, truncated
// to an integer as munin expects of DERIVE sources.
func hashesPerSecond(d device.Device) string {
	return strconv.FormatInt(int64(d.MHS*1e6), 10)
}

// formatGauge keeps the fixed six-decimal form the deployed graphs were
// built on.
func formatGauge(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
