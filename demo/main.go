//go:build tinygo

// Demo walks through the SerLCD features: text, cursor, scrolling,
// contrast and backlight colors.
package main

import (
	"log/slog"
	"machine"
	"strconv"
	"time"

	"github.com/harveysanders/serlcd/lcd"
	"github.com/harveysanders/serlcd/serlcd"
)

func main() {
	logger := slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Qwiic cable: SDA blue, SCL yellow.
	err := machine.I2C0.Configure(machine.I2CConfig{
		SDA:       machine.GP0,
		SCL:       machine.GP1,
		Frequency: 400 * machine.KHz,
	})
	if err != nil {
		printErrForever(logger, "configure I2C", slog.Any("reason", err))
	}

	dev := serlcd.New(machine.I2C0, serlcd.DefaultAddress)
	err = dev.Configure(serlcd.Config{
		Width:        16,
		Height:       2,
		StartupDelay: time.Second,
	})
	if err != nil {
		printErrForever(logger, "configure LCD", slog.Any("reason", err))
	}

	if err := run(&dev, logger); err != nil {
		printErrForever(logger, "demo", slog.Any("reason", err))
	}
	logger.Info("demo:done")
	for {
		time.Sleep(time.Hour)
	}
}

func run(dev *serlcd.Device, logger *slog.Logger) error {
	if err := dev.DefaultSettings(); err != nil {
		return err
	}

	steps := []struct {
		name string
		do   func() error
	}{
		{"hello", func() error { return dev.Display("Hello world") }},
		{"append", func() error { return dev.AppendDisplay(" HEY!") }},
		{"lines", func() error { return dev.DisplayLines("This is line 1", "This is line 2") }},
		{"cursor on", func() error { return show(dev.Display("Cursor is on"), dev.EnableCursor) }},
		{"cursor off", func() error { return show(dev.Display("Cursor is off"), dev.DisableCursor) }},
		{"blink on", func() error { return show(dev.Display("Cursor blink"), dev.EnableBlink) }},
		{"blink off", func() error { return show(dev.Display("Cursor no blink"), dev.DisableBlink) }},
	}
	for _, step := range steps {
		logger.Info("demo:step", slog.String("name", step.name))
		if err := step.do(); err != nil {
			return err
		}
		time.Sleep(2 * time.Second)
	}

	logger.Info("demo:step", slog.String("name", "scrolling"))
	w, h := dev.Size()
	stop := make(chan struct{})
	time.AfterFunc(5*time.Second, func() { close(stop) })
	lcd.Scroll(dev, lcd.NewMarquee("This is a long scrolling message! Awesome... ", int(w)*int(h)), 300*time.Millisecond, stop, logger)

	// System messages would print over the contrast values.
	if err := dev.DisableSystemMessages(); err != nil {
		return err
	}
	for _, contrast := range []uint8{80, 70, 60, 50, 40, 30, 20} {
		if err := dev.SetContrast(contrast); err != nil {
			return err
		}
		if err := dev.Display("Contrast: " + strconv.Itoa(int(contrast))); err != nil {
			return err
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err := dev.EnableSystemMessages(); err != nil {
		return err
	}
	time.Sleep(time.Second)

	colors := []struct {
		name    string
		r, g, b uint8
	}{
		{"RED", 255, 0, 0},
		{"GREEN", 0, 255, 0},
		{"BLUE", 0, 0, 255},
	}
	for _, c := range colors {
		if err := dev.Display(c.name); err != nil {
			return err
		}
		if err := dev.SetBacklight(c.r, c.g, c.b); err != nil {
			return err
		}
		time.Sleep(time.Second)
	}

	// Fade from blue back to a dim white.
	if err := dev.Display("RGB transition"); err != nil {
		return err
	}
	var j uint8
	for i := uint8(254); i != 20; i-- {
		if err := dev.SetBacklight(j, j, i); err != nil {
			return err
		}
		if i < 41 {
			j++
		}
	}
	return dev.Display("The end")
}

// show runs next once the text is on screen.
func show(displayErr error, next func() error) error {
	if displayErr != nil {
		return displayErr
	}
	return next()
}

// printErrForever prints a string to serial @ 1hz. It
// blocks forever.
func printErrForever(logger *slog.Logger, msg string, args ...any) {
	for {
		logger.Error(msg, args...)
		time.Sleep(time.Second)
	}
}
