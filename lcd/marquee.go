package lcd

import (
	"log/slog"
	"time"
)

// Marquee scrolls a message longer than the screen. Each frame shows a
// window of the message one character further along, wrapping back to
// the start.
type Marquee struct {
	msg   []byte
	size  int
	index int
	frame []byte
}

// NewMarquee returns a marquee showing size characters of msg at a time.
func NewMarquee(msg string, size int) *Marquee {
	return &Marquee{
		msg:   []byte(msg),
		size:  size,
		frame: make([]byte, 0, size),
	}
}

// Next returns the next frame. The returned slice is reused by the
// following call.
func (m *Marquee) Next() []byte {
	end := m.index + m.size
	m.frame = m.frame[:0]
	if end > len(m.msg) {
		m.frame = append(m.frame, m.msg[m.index:]...)
		// Wrap around, with at most one more copy of the message.
		m.frame = append(m.frame, m.msg[:min(end-len(m.msg), len(m.msg))]...)
	} else {
		m.frame = append(m.frame, m.msg[m.index:end]...)
	}
	m.index++
	if m.index > len(m.msg) {
		m.index = 0
	}
	return m.frame
}

// Scroll shows a frame of m every interval until stop is closed.
// Errors are logged and scrolling goes on.
func Scroll(screen Screen, m *Marquee, interval time.Duration, stop <-chan struct{}, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		show(screen, m.Next(), logger)
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

func show(screen Screen, frame []byte, logger *slog.Logger) {
	if err := screen.Clear(); err != nil {
		logger.Error("marquee:clear", slog.String("err", err.Error()))
		return
	}
	if err := screen.Print(frame); err != nil {
		logger.Error("marquee:print", slog.String("err", err.Error()))
	}
}
