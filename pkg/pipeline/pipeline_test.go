package pipeline

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/itohio/embsim/pkg/config"
	"github.com/itohio/embsim/pkg/frame"
	"github.com/itohio/embsim/pkg/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zeroNoise makes every noise draw land on the centre of the range.
type zeroNoise struct{}

func (zeroNoise) Intn(n int) int {
	return n / 2
}

var errSensor = errors.New("sensor offline")

type failingSource struct{}

func (failingSource) Sample(time.Duration) (sensor.Reading, error) {
	return 0, errSensor
}

func newDriver(t *testing.T, cfg *config.Config, src sensor.Source, out *bytes.Buffer) *Driver {
	t.Helper()
	if out == nil {
		out = &bytes.Buffer{}
	}
	d, err := New(cfg, src, out)
	require.NoError(t, err)
	return d
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{name: "zero step", mutate: func(c *config.Config) { c.Pipeline.Step = 0 }},
		{name: "zero step realtime", mutate: func(c *config.Config) { c.Pipeline.Step = 0; c.Pipeline.Realtime = true }},
		{name: "negative step", mutate: func(c *config.Config) { c.Pipeline.Step = -50 * time.Millisecond }},
		{name: "zero cycles", mutate: func(c *config.Config) { c.Pipeline.Cycles = 0 }},
		{name: "zero window", mutate: func(c *config.Config) { c.Filter.Window = 0 }},
		{name: "zero log capacity", mutate: func(c *config.Config) { c.Log.Capacity = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)

			d, err := New(cfg, sensor.NewReplay(1), nil)
			assert.ErrorIs(t, err, config.ErrInvalid)
			assert.Nil(t, d)
		})
	}
}

func TestStep_Golden(t *testing.T) {
	cfg := config.Default()
	out := &bytes.Buffer{}
	d := newDriver(t, cfg, sensor.NewSimulator(&cfg.Signal, zeroNoise{}), out)

	c, err := d.Step()
	require.NoError(t, err)

	assert.Equal(t, time.Duration(0), c.Elapsed)
	assert.Equal(t, sensor.Reading(2047), c.Raw)
	assert.Equal(t, uint16(2047), c.Filtered)
	assert.Equal(t, uint8(49), c.Duty)
	assert.Equal(t, frame.Frame{0x07, 0xFF, 0x31, 0xFF}, c.Frame)
	assert.Equal(t, uint8(0x56), c.Checksum)
	assert.False(t, c.High)

	want := "t=0.00s raw=2047 filt=2047 duty= 49% crc=0x56"
	assert.Equal(t, want, c.String())
	assert.Equal(t, want+"\n", out.String())
	assert.Equal(t, []string{want}, d.Dump())
	assert.Equal(t, cfg.Pipeline.Step, d.Elapsed())
}

func TestRun_SeededGolden(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.Cycles = 3
	cfg.Signal.Seed = 42
	out := &bytes.Buffer{}
	d := newDriver(t, cfg, sensor.NewSimulator(&cfg.Signal, nil), out)

	var cycles []Cycle
	d.OnCycle(func(c Cycle) {
		cycles = append(cycles, c)
	})
	require.NoError(t, d.Run(context.Background()))
	require.Len(t, cycles, 3)

	tests := []struct {
		raw      sensor.Reading
		filtered uint16
		duty     uint8
		frame    frame.Frame
		checksum uint8
	}{
		{raw: 2033, filtered: 2033, duty: 49, frame: frame.Frame{0x07, 0xF1, 0x31, 0xF1}, checksum: 0x50},
		{raw: 2336, filtered: 2184, duty: 53, frame: frame.Frame{0x09, 0x20, 0x35, 0x88}, checksum: 0xEC},
		{raw: 2695, filtered: 2354, duty: 57, frame: frame.Frame{0x0A, 0x87, 0x39, 0x32}, checksum: 0x5B},
	}

	for i, tt := range tests {
		c := cycles[i]
		assert.Equal(t, tt.raw, c.Raw, "cycle %d", i)
		assert.Equal(t, tt.filtered, c.Filtered, "cycle %d", i)
		assert.Equal(t, tt.duty, c.Duty, "cycle %d", i)
		assert.Equal(t, tt.frame, c.Frame, "cycle %d", i)
		assert.Equal(t, tt.checksum, c.Checksum, "cycle %d", i)
	}

	assert.True(t, strings.HasPrefix(out.String(), "t=0.00s raw=2033 filt=2033 duty= 49% crc=0x50\n"), out.String())
}

func TestStep_HighDutyAdvisory(t *testing.T) {
	cfg := config.Default()
	out := &bytes.Buffer{}
	d := newDriver(t, cfg, sensor.NewReplay(4095), out)

	c, err := d.Step()
	require.NoError(t, err)
	assert.True(t, c.High)
	assert.Equal(t, uint8(100), c.Duty)
	assert.Equal(t, uint8(0xAB), c.Checksum)

	line := "t=0.00s raw=4095 filt=4095 duty=100% crc=0xAB"
	assert.Equal(t, []string{line, AdvisoryLine}, d.Dump())
	// The advisory is retained but not echoed.
	assert.Equal(t, line+"\n", out.String())
}

func TestStep_ThresholdIsExclusive(t *testing.T) {
	cfg := config.Default()
	// 3317 * 100 / 4095 = 81, 3316 * 100 / 4095 = 80
	d := newDriver(t, cfg, sensor.NewReplay(3316), nil)
	c, err := d.Step()
	require.NoError(t, err)
	assert.Equal(t, uint8(80), c.Duty)
	assert.False(t, c.High)

	d = newDriver(t, cfg, sensor.NewReplay(3317), nil)
	c, err = d.Step()
	require.NoError(t, err)
	assert.Equal(t, uint8(81), c.Duty)
	assert.True(t, c.High)
}

func TestStep_FilterWarmUp(t *testing.T) {
	cfg := config.Default()
	d := newDriver(t, cfg, sensor.NewReplay(0, 4095, 4095), nil)

	var filtered []uint16
	for i := 0; i < 3; i++ {
		c, err := d.Step()
		require.NoError(t, err)
		filtered = append(filtered, c.Filtered)
	}

	// 0, 4095/2 = 2047.5, 8190/3 = 2730
	assert.Equal(t, []uint16{0, 2047, 2730}, filtered)
}

func TestStep_ClockAdvances(t *testing.T) {
	cfg := config.Default()
	d := newDriver(t, cfg, sensor.NewReplay(100), nil)

	for i := 0; i < 5; i++ {
		c, err := d.Step()
		require.NoError(t, err)
		assert.Equal(t, time.Duration(i)*50*time.Millisecond, c.Elapsed)
	}
	assert.Equal(t, 5, d.Cycles())

	c, err := d.Step()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(c.String(), "t=0.25s "), c.String())
}

func TestStep_SourceError(t *testing.T) {
	d := newDriver(t, config.Default(), failingSource{}, nil)

	_, err := d.Step()
	assert.ErrorIs(t, err, errSensor)
	assert.Equal(t, 0, d.Cycles())
	assert.Empty(t, d.Dump())
}

func TestRun_FullRun(t *testing.T) {
	cfg := config.Default()
	cfg.Signal.Seed = 12345
	out := &bytes.Buffer{}
	d := newDriver(t, cfg, sensor.NewSimulator(&cfg.Signal, nil), out)

	var cycles []Cycle
	d.OnCycle(func(c Cycle) {
		cycles = append(cycles, c)
	})

	require.NoError(t, d.Run(context.Background()))

	assert.Equal(t, cfg.Pipeline.Cycles, d.Cycles())
	require.Len(t, cycles, cfg.Pipeline.Cycles)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, cfg.Pipeline.Cycles)

	for i, c := range cycles {
		assert.LessOrEqual(t, c.Raw, sensor.Reading(sensor.MaxReading))
		assert.LessOrEqual(t, c.Filtered, uint16(sensor.MaxReading))
		assert.LessOrEqual(t, c.Duty, uint8(100))
		assert.Equal(t, c.Frame.Checksum(), c.Checksum)
		assert.Equal(t, uint16(c.Raw), c.Frame.Raw())
		assert.Equal(t, c.String(), lines[i])
	}

	dump := d.Dump()
	require.Len(t, dump, cfg.Log.Capacity)

	// The newest retained entry is the last status line or its advisory.
	last := cycles[len(cycles)-1]
	if last.High {
		assert.Equal(t, AdvisoryLine, dump[len(dump)-1])
		assert.Equal(t, last.String(), dump[len(dump)-2])
	} else {
		assert.Equal(t, last.String(), dump[len(dump)-1])
	}
}

func TestRun_SameSeedSameOutput(t *testing.T) {
	run := func() string {
		cfg := config.Default()
		cfg.Signal.Seed = 777
		out := &bytes.Buffer{}
		d := newDriver(t, cfg, sensor.NewSimulator(&cfg.Signal, nil), out)
		require.NoError(t, d.Run(context.Background()))
		return out.String()
	}

	assert.Equal(t, run(), run())
}

func TestRun_RawInRangeForAnySeed(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		cfg := config.Default()
		d := newDriver(t, cfg, sensor.NewSimulator(&cfg.Signal, rand.New(rand.NewSource(seed))), nil)
		d.OnCycle(func(c Cycle) {
			assert.LessOrEqual(t, c.Raw, sensor.Reading(sensor.MaxReading), "seed %d", seed)
		})
		require.NoError(t, d.Run(context.Background()))
	}
}

func TestRun_Cancelled(t *testing.T) {
	d := newDriver(t, config.Default(), sensor.NewReplay(1), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, d.Cycles())
}

func TestRun_Realtime(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.Cycles = 5
	cfg.Pipeline.Step = 2 * time.Millisecond
	cfg.Pipeline.Realtime = true
	d := newDriver(t, cfg, sensor.NewReplay(1), nil)

	start := time.Now()
	require.NoError(t, d.Run(context.Background()))

	assert.Equal(t, 5, d.Cycles())
	assert.GreaterOrEqual(t, time.Since(start), 4*cfg.Pipeline.Step)
	assert.Equal(t, 5*cfg.Pipeline.Step, d.Elapsed())
}

func TestRun_RealtimeCancelledMidRun(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.Step = time.Hour
	cfg.Pipeline.Realtime = true
	d := newDriver(t, cfg, sensor.NewReplay(1), nil)

	ctx, cancel := context.WithCancel(context.Background())
	d.OnCycle(func(Cycle) { cancel() })

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	assert.Equal(t, 1, d.Cycles())
}
