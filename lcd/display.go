// Package lcd provides a channel-based messaging system for SerLCD displays.
//
// One Handler goroutine owns the display. Everything else talks to it
// through channels, so the I2C bus is never written from two places.
//
// Example usage:
//
//	lcdMessages := make(chan lcd.Message, 10)
//	handler := lcd.NewHandler(&device, lcdMessages, logger)
//	go handler.Run()
//
//	// Send messages non-blocking
//	if !lcd.Send(lcdMessages, "Status", "OK") {
//	    // Channel full - message dropped
//	}
package lcd

import (
	"log/slog"
)

// Screen is the part of a character display the handler drives.
// *serlcd.Device implements it.
type Screen interface {
	Clear() error
	SetCursor(col, row uint8) error
	Print(text []byte) error
	Size() (width, height uint8)
}

// Message represents a two-line LCD message.
type Message struct {
	Line1 []byte
	Line2 []byte
}

// Send queues a message without blocking. It reports false when the
// channel is full and the message was dropped.
func Send(messages chan<- Message, line1, line2 string) bool {
	select {
	case messages <- Message{Line1: []byte(line1), Line2: []byte(line2)}:
		return true
	default:
		return false
	}
}

// Handler processes LCD messages and commands from channels.
type Handler struct {
	device   Screen
	messages <-chan Message
	commands <-chan Command
	logger   *slog.Logger
	rows     int
	columns  int
}

// NewHandler creates a new LCD message handler sized to the device.
func NewHandler(device Screen, messages <-chan Message, logger *slog.Logger) *Handler {
	w, h := device.Size()
	return &Handler{
		device:   device,
		messages: messages,
		logger:   logger,
		rows:     int(h),
		columns:  int(w),
	}
}

// WithCommands makes Run also apply commands received on commands.
// device must then implement Controller.
func (h *Handler) WithCommands(commands <-chan Command) *Handler {
	h.commands = commands
	return h
}

// Run processes messages from the channel and updates the LCD. It returns
// once the message channel is closed.
// Run should be called in a separate goroutine.
func (h *Handler) Run() {
	for {
		select {
		case msg, ok := <-h.messages:
			if !ok {
				return
			}
			h.display(msg)
		case cmd, ok := <-h.commands:
			if !ok {
				// A nil channel never becomes ready.
				h.commands = nil
				continue
			}
			h.apply(cmd)
		}
	}
}

// display prints msg to the LCD handler.
func (h *Handler) display(msg Message) {
	if err := h.device.Clear(); err != nil {
		h.logger.Error("lcd:clear", slog.String("err", err.Error()))
		return
	}
	h.printLine(0, msg.Line1)
	if h.rows > 1 {
		h.printLine(1, msg.Line2)
	}
}

func (h *Handler) printLine(row uint8, line []byte) {
	// Truncate in-place, no allocation
	if len(line) > h.columns {
		line = line[:h.columns]
	}
	if err := h.device.SetCursor(0, row); err != nil {
		h.logger.Error("lcd:set-cursor", slog.Int("row", int(row)), slog.String("err", err.Error()))
		return
	}
	if err := h.device.Print(line); err != nil {
		h.logger.Error("lcd:print", slog.Int("row", int(row)), slog.String("err", err.Error()))
	}
}

func (h *Handler) apply(cmd Command) {
	ctrl, ok := h.device.(Controller)
	if !ok {
		h.logger.Error("lcd:command", slog.String("err", "screen does not accept commands"))
		return
	}
	if err := cmd.Apply(ctrl); err != nil {
		h.logger.Error("lcd:command", slog.String("err", err.Error()))
	}
}
