package serlcd

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transfer struct {
	addr uint16
	data []byte
}

// fakeBus records every write. The driver reuses its command buffer, so
// writes are copied.
type fakeBus struct {
	writes []transfer
	err    error
}

func (b *fakeBus) Tx(addr uint16, w, r []byte) error {
	if b.err != nil {
		return b.err
	}
	b.writes = append(b.writes, transfer{addr: addr, data: append([]byte(nil), w...)})
	return nil
}

func (b *fakeBus) data() [][]byte {
	out := make([][]byte, len(b.writes))
	for i, w := range b.writes {
		out[i] = w.data
	}
	return out
}

func (b *fakeBus) reset() { b.writes = nil }

// newTestDevice returns a configured device whose init writes are already
// discarded.
func newTestDevice(t *testing.T, cfg Config) (*Device, *fakeBus) {
	t.Helper()
	bus := &fakeBus{}
	dev := New(bus, DefaultAddress)
	dev.sleep = func(time.Duration) {}
	require.NoError(t, dev.Configure(cfg))
	bus.reset()
	return &dev, bus
}

func TestConfigure(t *testing.T) {
	bus := &fakeBus{}
	dev := New(bus, DefaultAddress)
	var slept []time.Duration
	dev.sleep = func(d time.Duration) { slept = append(slept, d) }

	err := dev.Configure(Config{Width: 20, Height: 4, StartupDelay: time.Second})
	require.NoError(t, err)

	assert.Equal(t, [][]byte{
		{0xFE, 0x0C}, // display on, cursor off, blink off
		{0xFE, 0x06}, // entry left, no shift
		{0x7C, 0x2D},
	}, bus.data())
	for _, w := range bus.writes {
		assert.Equal(t, uint16(0x72), w.addr)
	}
	assert.Equal(t, []time.Duration{time.Second, 10 * time.Millisecond, 10 * time.Millisecond, 10 * time.Millisecond}, slept)

	w, h := dev.Size()
	assert.Equal(t, uint8(20), w)
	assert.Equal(t, uint8(4), h)
}

func TestConfigureDefaults(t *testing.T) {
	dev, _ := newTestDevice(t, Config{})
	w, h := dev.Size()
	assert.Equal(t, uint8(16), w)
	assert.Equal(t, uint8(2), h)
	assert.Equal(t, 10*time.Millisecond, dev.commandDelay)
}

func TestConfigureRejectsSize(t *testing.T) {
	for _, cfg := range []Config{{Width: 21, Height: 2}, {Width: 16, Height: 5}} {
		bus := &fakeBus{}
		dev := New(bus, DefaultAddress)
		dev.sleep = func(time.Duration) {}
		err := dev.Configure(cfg)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.Empty(t, bus.writes)
	}
}

func TestClear(t *testing.T) {
	dev, bus := newTestDevice(t, Config{})
	require.NoError(t, dev.Clear())
	assert.Equal(t, [][]byte{{0x7C, 0x2D}}, bus.data())
}

func TestHome(t *testing.T) {
	dev, bus := newTestDevice(t, Config{})
	require.NoError(t, dev.Home())
	assert.Equal(t, [][]byte{{0xFE, 0x02}}, bus.data())
}

func TestSetCursor(t *testing.T) {
	tests := []struct {
		col, row uint8
		want     byte
	}{
		{0, 0, 0x80},
		{15, 0, 0x8F},
		{0, 1, 0xC0},
		{5, 1, 0xC5},
		{0, 2, 0x94},
		{19, 2, 0xA7},
		{0, 3, 0xD4},
		{19, 3, 0xE7},
	}
	dev, bus := newTestDevice(t, Config{Width: 20, Height: 4})
	for _, tt := range tests {
		bus.reset()
		require.NoError(t, dev.SetCursor(tt.col, tt.row))
		assert.Equal(t, [][]byte{{0xFE, tt.want}}, bus.data(), "col %d row %d", tt.col, tt.row)
	}
}

func TestSetCursorEveryPosition(t *testing.T) {
	offsets := []byte{0x00, 0x40, 0x14, 0x54}
	dev, bus := newTestDevice(t, Config{Width: 20, Height: 4})
	for row := uint8(0); row < 4; row++ {
		for col := uint8(0); col < 20; col++ {
			bus.reset()
			require.NoError(t, dev.SetCursor(col, row))
			require.Equal(t, [][]byte{{0xFE, 0x80 | (offsets[row] + col)}}, bus.data())
		}
	}
}

func TestSetCursorOutOfBounds(t *testing.T) {
	dev, bus := newTestDevice(t, Config{Width: 16, Height: 2})
	for _, pos := range [][2]uint8{{0, 2}, {16, 0}, {16, 1}, {255, 255}} {
		err := dev.SetCursor(pos[0], pos[1])
		assert.ErrorIs(t, err, ErrInvalidArgument, "col %d row %d", pos[0], pos[1])
	}
	assert.Empty(t, bus.writes)
}

func TestPrint(t *testing.T) {
	dev, bus := newTestDevice(t, Config{})
	require.NoError(t, dev.Print([]byte("Hi")))
	assert.Equal(t, [][]byte{{'H', 'i'}}, bus.data())
}

func TestPrintSplitsLongText(t *testing.T) {
	dev, bus := newTestDevice(t, Config{Width: 20, Height: 4})
	text := []byte(strings.Repeat("abcdefghij", 7))
	require.NoError(t, dev.Print(text))

	got := bus.data()
	require.Len(t, got, 3)
	assert.Len(t, got[0], 32)
	assert.Len(t, got[1], 32)
	assert.Len(t, got[2], 6)
	assert.Equal(t, text, append(append(got[0], got[1]...), got[2]...))
}

func TestPrintRejectsReservedBytes(t *testing.T) {
	dev, bus := newTestDevice(t, Config{})
	for _, text := range []string{"a|b", "x\xfe"} {
		err := dev.Print([]byte(text))
		assert.ErrorIs(t, err, ErrInvalidArgument, text)
	}
	assert.Empty(t, bus.writes)
}

func TestWrite(t *testing.T) {
	dev, bus := newTestDevice(t, Config{})
	n, err := dev.Write([]byte("ok"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, [][]byte{[]byte("ok")}, bus.data())

	n, err = dev.Write([]byte("|"))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSetBacklight(t *testing.T) {
	dev, bus := newTestDevice(t, Config{})
	for _, c := range [][3]uint8{{0, 0, 0}, {255, 0, 0}, {0, 255, 0}, {0, 0, 255}, {1, 2, 3}, {255, 255, 255}} {
		bus.reset()
		require.NoError(t, dev.SetBacklight(c[0], c[1], c[2]))
		got := bus.data()
		require.Len(t, got, 1)
		assert.Equal(t, []byte{0x7C, 0x2B}, got[0][:2])
		assert.Equal(t, c[:], got[0][2:])
	}
}

func TestSetContrast(t *testing.T) {
	dev, bus := newTestDevice(t, Config{})
	require.NoError(t, dev.SetContrast(40))
	assert.Equal(t, [][]byte{{0x7C, 0x18, 40}}, bus.data())
}

func TestDisplayControlKeepsFlags(t *testing.T) {
	dev, bus := newTestDevice(t, Config{})
	steps := []struct {
		name string
		op   func() error
		want byte
	}{
		{"enable cursor", dev.EnableCursor, 0x0E},
		{"enable blink", dev.EnableBlink, 0x0F},
		{"disable display", dev.DisableDisplay, 0x0B},
		{"disable cursor", dev.DisableCursor, 0x09},
		{"enable display", dev.EnableDisplay, 0x0D},
		{"disable blink", dev.DisableBlink, 0x0C},
	}
	for _, step := range steps {
		bus.reset()
		require.NoError(t, step.op(), step.name)
		assert.Equal(t, [][]byte{{0xFE, step.want}}, bus.data(), step.name)
	}
}

func TestShiftCommands(t *testing.T) {
	dev, bus := newTestDevice(t, Config{})
	tests := []struct {
		name string
		op   func() error
		want byte
	}{
		{"scroll left", dev.ScrollLeft, 0x18},
		{"scroll right", dev.ScrollRight, 0x1C},
		{"move cursor left", dev.MoveCursorLeft, 0x10},
		{"move cursor right", dev.MoveCursorRight, 0x14},
	}
	for _, tt := range tests {
		bus.reset()
		require.NoError(t, tt.op(), tt.name)
		assert.Equal(t, [][]byte{{0xFE, tt.want}}, bus.data(), tt.name)
	}
}

func TestEntryMode(t *testing.T) {
	dev, bus := newTestDevice(t, Config{})
	require.NoError(t, dev.RightToLeft())
	require.NoError(t, dev.EnableAutoscroll())
	require.NoError(t, dev.LeftToRight())
	require.NoError(t, dev.DisableAutoscroll())
	assert.Equal(t, [][]byte{{0xFE, 0x04}, {0xFE, 0x05}, {0xFE, 0x07}, {0xFE, 0x06}}, bus.data())
}

func TestSettings(t *testing.T) {
	dev, bus := newTestDevice(t, Config{})
	tests := []struct {
		name string
		op   func() error
		want byte
	}{
		{"enable system messages", dev.EnableSystemMessages, 0x2E},
		{"disable system messages", dev.DisableSystemMessages, 0x2F},
		{"enable splash", dev.EnableSplash, 0x30},
		{"disable splash", dev.DisableSplash, 0x31},
		{"save splash", dev.SaveSplash, 0x0A},
	}
	for _, tt := range tests {
		bus.reset()
		require.NoError(t, tt.op(), tt.name)
		assert.Equal(t, [][]byte{{0x7C, tt.want}}, bus.data(), tt.name)
	}
}

func TestSetAddress(t *testing.T) {
	dev, bus := newTestDevice(t, Config{})
	require.NoError(t, dev.SetAddress(0x30))
	require.NoError(t, dev.Clear())

	require.Len(t, bus.writes, 2)
	assert.Equal(t, transfer{addr: 0x72, data: []byte{0x7C, 0x19, 0x30}}, bus.writes[0])
	assert.Equal(t, uint16(0x30), bus.writes[1].addr)
	assert.Equal(t, uint16(0x30), dev.Address())
}

func TestSetAddressRejectsReserved(t *testing.T) {
	dev, bus := newTestDevice(t, Config{})
	for _, addr := range []uint16{0x00, 0x07, 0x78, 0x100} {
		assert.ErrorIs(t, dev.SetAddress(addr), ErrInvalidArgument)
	}
	assert.Empty(t, bus.writes)
	assert.Equal(t, uint16(DefaultAddress), dev.Address())
}

func TestBusError(t *testing.T) {
	dev, bus := newTestDevice(t, Config{})
	cause := errors.New("nack")
	bus.err = cause

	err := dev.Clear()
	var busErr *BusError
	require.ErrorAs(t, err, &busErr)
	assert.Equal(t, "clear", busErr.Op)
	assert.Equal(t, uint16(0x72), busErr.Addr)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "serlcd: clear at 0x72: nack", err.Error())
}

func TestBusErrorKeepsFlags(t *testing.T) {
	dev, bus := newTestDevice(t, Config{})
	bus.err = errors.New("nack")
	require.Error(t, dev.EnableCursor())

	bus.err = nil
	require.NoError(t, dev.EnableBlink())
	assert.Equal(t, [][]byte{{0xFE, 0x0D}}, bus.data())
}

func TestBusErrorStopsAddressChange(t *testing.T) {
	dev, bus := newTestDevice(t, Config{})
	bus.err = errors.New("nack")
	require.Error(t, dev.SetAddress(0x30))
	assert.Equal(t, uint16(DefaultAddress), dev.Address())
}

func TestDefaultSettings(t *testing.T) {
	dev, bus := newTestDevice(t, Config{})
	require.NoError(t, dev.DefaultSettings())
	assert.Equal(t, [][]byte{
		{0xFE, 0x08},
		{0x7C, 0x2F},
		{0x7C, 0x18, 20},
		{0x7C, 0x2B, 20, 20, 20},
		{0x7C, 0x30},
		{0x7C, 0x2D},
		{0x7C, 0x2E},
		{0xFE, 0x0C},
	}, bus.data())
}
