package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/itohio/embsim/pkg/config"
	"github.com/itohio/embsim/pkg/duty"
	"github.com/itohio/embsim/pkg/filter"
	"github.com/itohio/embsim/pkg/frame"
	"github.com/itohio/embsim/pkg/ringlog"
	"github.com/itohio/embsim/pkg/sensor"
)

// AdvisoryLine is logged after any cycle whose duty exceeds the high-duty threshold.
const AdvisoryLine = "  -> Actuator: HIGH power (example)"

// Cycle is the result of one pass through the pipeline.
type Cycle struct {
	Elapsed  time.Duration
	Raw      sensor.Reading
	Filtered uint16 // Moving average, truncated
	Duty     uint8
	Frame    frame.Frame
	Checksum uint8
	High     bool // Duty exceeded the high-duty threshold
}

// String formats the cycle as a status line.
func (c Cycle) String() string {
	return fmt.Sprintf("t=%.2fs raw=%4d filt=%4d duty=%3d%% crc=0x%02X",
		c.Elapsed.Seconds(), c.Raw, c.Filtered, c.Duty, c.Checksum)
}

// Driver owns all pipeline state for one run: the reading source, the
// filter, the bounded log and the simulation clock.
// Not safe for concurrent use.
type Driver struct {
	cfg    config.PipelineConfig
	src    sensor.Source
	filter *filter.MovingAverage
	log    *ringlog.Log
	out    io.Writer

	elapsed time.Duration
	cycles  int

	callbacks []func(Cycle)
}

// New creates a driver. Status lines are written to out as they are
// produced; a nil out discards them.
func New(cfg *config.Config, src sensor.Source, out io.Writer) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	f, err := filter.New(cfg.Filter.Window)
	if err != nil {
		return nil, fmt.Errorf("create filter: %w", err)
	}

	l, err := ringlog.New(cfg.Log.Capacity, cfg.Log.MaxLine)
	if err != nil {
		return nil, fmt.Errorf("create log: %w", err)
	}

	if out == nil {
		out = io.Discard
	}

	return &Driver{
		cfg:    cfg.Pipeline,
		src:    src,
		filter: f,
		log:    l,
		out:    out,
	}, nil
}

// OnCycle registers a callback invoked after every completed cycle.
func (d *Driver) OnCycle(callback func(Cycle)) {
	d.callbacks = append(d.callbacks, callback)
}

// Step runs a single cycle and advances the clock by one step.
func (d *Driver) Step() (Cycle, error) {
	raw, err := d.src.Sample(d.elapsed)
	if err != nil {
		return Cycle{}, fmt.Errorf("sample at %v: %w", d.elapsed, err)
	}

	// Mean of 12-bit readings, so it fits in uint16.
	filtered := uint16(d.filter.Push(float64(raw)))
	dc := duty.FromReading(filtered)
	f := frame.New(uint16(raw), dc, filtered)

	c := Cycle{
		Elapsed:  d.elapsed,
		Raw:      raw,
		Filtered: filtered,
		Duty:     dc,
		Frame:    f,
		Checksum: f.Checksum(),
		High:     duty.IsHigh(dc, d.cfg.HighDutyThreshold),
	}

	line := c.String()
	d.log.Push(line)
	_, werr := fmt.Fprintln(d.out, line)

	if c.High {
		d.log.Push(AdvisoryLine)
	}

	d.elapsed += d.cfg.Step
	d.cycles++

	for _, cb := range d.callbacks {
		if cb != nil {
			cb(c)
		}
	}

	if werr != nil {
		return c, fmt.Errorf("write status line: %w", werr)
	}
	return c, nil
}

// Run steps the pipeline until the configured number of cycles has
// completed. In realtime mode it waits one step period between cycles.
// Cancelling ctx stops the run between cycles.
func (d *Driver) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if d.cfg.Realtime {
		ticker := time.NewTicker(d.cfg.Step)
		defer ticker.Stop()
		tick = ticker.C
	}

	for d.cycles < d.cfg.Cycles {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := d.Step(); err != nil {
			return err
		}

		if tick != nil && d.cycles < d.cfg.Cycles {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		}
	}

	return nil
}

// Dump returns the retained log lines from oldest to newest.
func (d *Driver) Dump() []string {
	return d.log.Dump()
}

// Elapsed returns the simulation time of the next cycle.
func (d *Driver) Elapsed() time.Duration {
	return d.elapsed
}

// Cycles returns the number of completed cycles.
func (d *Driver) Cycles() int {
	return d.cycles
}
