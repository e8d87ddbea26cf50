// Package plugin drives one invocation of the munin plugin: poll the
// daemon, classify the report, render the requested mode.
package plugin

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/sbaerlocher/cgmetrics/internal/cgminer"
	"github.com/sbaerlocher/cgmetrics/internal/health"
	"github.com/sbaerlocher/cgmetrics/internal/munin"
	"github.com/sbaerlocher/cgmetrics/pkg/device"
)

// Runner executes single-shot plugin runs against one daemon.
type Runner struct {
	client   *cgminer.Client
	registry *device.Registry
}

// NewRunner creates a runner for the given client and device registry.
func NewRunner(client *cgminer.Client, registry *device.Registry) *Runner {
	return &Runner{client: client, registry: registry}
}

// Run polls the daemon once and writes the rendered graphs for mode to w.
// Output is buffered until the whole run has succeeded so that a failure
// never leaves munin with a partial report.
func (r *Runner) Run(ctx context.Context, mode munin.Mode, w io.Writer) error {
	devices, err := r.poll(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	for _, line := range munin.Render(mode, devices) {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	_, err = w.Write(buf.Bytes())
	return err
}

func (r *Runner) poll(ctx context.Context) ([]device.Device, error) {
	records, err := r.client.Devs(ctx)
	if err != nil {
		return nil, err
	}

	devices := make([]device.Device, 0, len(records))
	for i, record := range records {
		d, err := r.registry.Classify(record)
		if err != nil {
			return nil, fmt.Errorf("device %d: %w", i, err)
		}
		devices = append(devices, d)
	}

	log.Debug().Int("devices", len(devices)).Msg("classified device report")

	return devices, nil
}

// Autoconf writes the munin autoconf verdict for the daemon to w. The
// verdict line is the answer, so an unreachable daemon is not an error.
func (r *Runner) Autoconf(ctx context.Context, w io.Writer) error {
	checker := health.NewChecker()
	checker.Register(health.NewDaemonChecker(r.client))

	if err := checker.Check(ctx); err != nil {
		_, werr := fmt.Fprintf(w, "no (%v)\n", err)
		return werr
	}

	_, err := fmt.Fprintln(w, "yes")
	return err
}
