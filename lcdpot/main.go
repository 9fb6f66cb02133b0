//go:build tinygo

// Lcdpot dims the SerLCD backlight with a potentiometer on ADC0 and shows
// the reading on the display.
package main

import (
	"errors"
	"log/slog"
	"machine"
	"strconv"
	"time"

	"github.com/harveysanders/serlcd/serlcd"
)

const (
	max16Bit uint16  = 65535 // Max ADC value. The Pico has an onboard 16-bit ADC.
	sysV     float32 = 3.3   // Logic level in volts. Pico runs at 3.3VDC.
)

func main() {
	logger := slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	debugLED := machine.GP21
	debugLED.Configure(machine.PinConfig{Mode: machine.PinOutput})

	machine.InitADC()
	sensor := machine.ADC{Pin: machine.ADC0}
	sensor.Configure(machine.ADCConfig{})

	err := machine.I2C0.Configure(machine.I2CConfig{
		SDA: machine.GP4,
		SCL: machine.GP5,
	})
	if err != nil {
		printErrForever(logger, "configure I2C", slog.Any("reason", err))
	}

	lcd, err := configureLCD(machine.I2C0, logger)
	if err != nil {
		printErrForever(logger, "configure LCD", slog.Any("reason", err))
	}

	// Buffer for LCD characters (16x2)
	// We need a preallocated buffer so the heap isn't exhausted
	// by many calls to fmt functions.
	printBuf := make([]byte, 0, 16)
	const floatNoExp = 'f'
	var last uint8
	for {
		val := sensor.Get()
		percentage := (float32(val) / float32(max16Bit))
		voltage := percentage * sysV

		// The backlight only has 256 steps, skip writes that change nothing.
		level := uint8(val >> 8)
		if level != last {
			if err := lcd.SetBacklight(level, level, level); err != nil {
				logger.Error("lcd:backlight", slog.Any("reason", err))
			}
			last = level
		}

		// reslice the buffer to zero-length so append continues to work
		printBuf = printBuf[:0]
		printBuf = append(printBuf, "V: "...)
		printBuf = strconv.AppendFloat(printBuf, float64(voltage), floatNoExp, 1, 32)
		printBuf = append(printBuf, ", "...)
		printBuf = strconv.AppendFloat(printBuf, float64(percentage*100), floatNoExp, 1, 32)
		printBuf = append(printBuf, '%')
		printLine(lcd, logger, 0, printBuf)

		printBuf = printBuf[:0]
		printBuf = append(printBuf, "16-bit: "...)
		printBuf = strconv.AppendUint(printBuf, uint64(val), 10)
		printLine(lcd, logger, 1, printBuf)

		debugLED.High()
		time.Sleep(250 * time.Millisecond)
		debugLED.Low()
		time.Sleep(250 * time.Millisecond)
	}
}

// configureLCD takes a preconfigured I2C peripheral and initializes the
// first SerLCD that answers on a known address.
func configureLCD(i2c *machine.I2C, logger *slog.Logger) (*serlcd.Device, error) {
	// Factory address first, then the one SparkFun examples move it to.
	addrs := []uint16{serlcd.DefaultAddress, 0x71}
	for _, a := range addrs {
		logger.Info("lcd:probing", slog.Int("addr", int(a)))
		dev := serlcd.New(i2c, a)
		err := dev.Configure(serlcd.Config{
			Width:        16,
			Height:       2,
			StartupDelay: time.Second,
		})
		var busErr *serlcd.BusError
		if errors.As(err, &busErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &dev, nil
	}
	return nil, errors.New("LCD not found on addresses: 0x72, 0x71")
}

func printLine(lcd *serlcd.Device, logger *slog.Logger, row uint8, text []byte) {
	// Pad so a shorter reading overwrites the previous one.
	for len(text) < 16 {
		text = append(text, ' ')
	}
	if err := lcd.SetCursor(0, row); err != nil {
		logger.Error("lcd:cursor", slog.Any("reason", err))
		return
	}
	if err := lcd.Print(text); err != nil {
		logger.Error("lcd:print", slog.Any("reason", err))
	}
}

// printErrForever prints a string to serial @ 1hz. It
// blocks forever.
func printErrForever(logger *slog.Logger, msg string, args ...any) {
	for {
		logger.Error(msg, args...)
		time.Sleep(time.Second)
	}
}
