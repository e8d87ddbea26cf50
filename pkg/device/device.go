// Package device provides the daemon's device records, their typed views,
// and the classification registry that maps one to the other.
package device

import (
	"fmt"
	"sort"

	"github.com/sbaerlocher/cgmetrics/internal/errors"
	"github.com/sbaerlocher/cgmetrics/internal/types"
)

// Record is one raw entry of the daemon's DEVS array. The daemon reports a
// flat JSON object per device; the set of keys varies by device type.
type Record map[string]any

// Device is the typed view of one classified record.
type Device struct {
	Tag         types.TypeTag
	Ident       int
	Accepted    int64
	Rejected    int64
	Enabled     bool
	MHS         float64
	Temperature float64
	Utility     float64
	Uptime      float64
}

// Field returns the munin data-source name for this device, e.g. "gpu_0".
func (d Device) Field() types.FieldName {
	return d.Tag.FieldPrefix(d.Ident)
}

// Validate checks if the device view has valid required fields.
func (d Device) Validate() error {
	if !d.Tag.IsValid() {
		return types.ErrInvalidTypeTag
	}
	if d.Ident < 0 {
		return fmt.Errorf("negative device index: %d", d.Ident)
	}
	if !d.Field().IsValid() {
		return types.ErrInvalidFieldName
	}
	return nil
}

// Record field names fixed by the daemon API.
const (
	fieldAccepted    = "Accepted"
	fieldEnabled     = "Enabled"
	fieldTotalMH     = "Total MH"
	fieldRejected    = "Rejected"
	fieldTemperature = "Temperature"
	fieldUtility     = "Utility"
	fieldElapsed     = "Device Elapsed"

	enabledYes = "Y"
)

// floatField reads a required numeric field. JSON numbers always decode as
// float64 inside a Record.
func (r Record) floatField(tag types.TypeTag, key string) (float64, error) {
	v, ok := r[key]
	if !ok {
		return 0, errors.SchemaError{Tag: tag.String(), Field: key, Reason: "missing"}
	}
	f, ok := v.(float64)
	if !ok {
		return 0, errors.SchemaError{Tag: tag.String(), Field: key, Reason: fmt.Sprintf("expected number, got %T", v)}
	}
	return f, nil
}

func (r Record) intField(tag types.TypeTag, key string) (int64, error) {
	f, err := r.floatField(tag, key)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

func (r Record) stringField(tag types.TypeTag, key string) (string, error) {
	v, ok := r[key]
	if !ok {
		return "", errors.SchemaError{Tag: tag.String(), Field: key, Reason: "missing"}
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.SchemaError{Tag: tag.String(), Field: key, Reason: fmt.Sprintf("expected string, got %T", v)}
	}
	return s, nil
}

func (r Record) sortedKeys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NewStandard builds the typed view shared by the stock device types: the
// device index lives under the tag-named key, counters and gauges under the
// fixed daemon field names.
func NewStandard(tag types.TypeTag, rec Record) (Device, error) {
	ident, err := rec.intField(tag, tag.String())
	if err != nil {
		return Device{}, err
	}
	if ident < 0 {
		return Device{}, errors.SchemaError{Tag: tag.String(), Field: tag.String(), Reason: "negative device index"}
	}

	accepted, err := rec.intField(tag, fieldAccepted)
	if err != nil {
		return Device{}, err
	}

	rejected, err := rec.intField(tag, fieldRejected)
	if err != nil {
		return Device{}, err
	}

	enabled, err := rec.stringField(tag, fieldEnabled)
	if err != nil {
		return Device{}, err
	}

	mhs, err := rec.floatField(tag, fieldTotalMH)
	if err != nil {
		return Device{}, err
	}

	temperature, err := rec.floatField(tag, fieldTemperature)
	if err != nil {
		return Device{}, err
	}

	utility, err := rec.floatField(tag, fieldUtility)
	if err != nil {
		return Device{}, err
	}

	uptime, err := rec.floatField(tag, fieldElapsed)
	if err != nil {
		return Device{}, err
	}

	return Device{
		Tag:         tag,
		Ident:       int(ident),
		Accepted:    accepted,
		Rejected:    rejected,
		Enabled:     enabled == enabledYes,
		MHS:         mhs,
		Temperature: temperature,
		Utility:     utility,
		Uptime:      uptime,
	}, nil
}
