package serlcd

// Display clears the screen and prints msg from the top left. Characters
// beyond what the screen holds are dropped.
func (d *Device) Display(msg string) error {
	if n := int(d.width) * int(d.height); len(msg) > n {
		msg = msg[:n]
	}
	text := []byte(msg)
	// Reject before clearing so bad text leaves the screen untouched.
	if err := checkText(text); err != nil {
		return err
	}
	if err := d.Clear(); err != nil {
		return err
	}
	return d.Print(text)
}

// AppendDisplay prints msg at the current cursor position.
func (d *Device) AppendDisplay(msg string) error {
	return d.Print([]byte(msg))
}

// DisplayLines shows one string per row. Each line is cut to the display
// width; extra lines are dropped.
func (d *Device) DisplayLines(lines ...string) error {
	if len(lines) > int(d.height) {
		lines = lines[:d.height]
	}
	w := int(d.width)
	buf := make([]byte, 0, w*len(lines))
	for i, line := range lines {
		if len(line) > w {
			line = line[:w]
		}
		buf = append(buf, line...)
		// The firmware wraps to the next row after the last column, so
		// padding moves the following line to the start of its row.
		if i < len(lines)-1 {
			for j := len(line); j < w; j++ {
				buf = append(buf, ' ')
			}
		}
	}
	if err := checkText(buf); err != nil {
		return err
	}
	if err := d.Clear(); err != nil {
		return err
	}
	return d.Print(buf)
}
