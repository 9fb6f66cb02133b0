package serlcd

import (
	"strconv"
	"time"

	"tinygo.org/x/drivers"
)

// Config holds the display geometry and bus timing.
type Config struct {
	Width  uint8 // columns, 16 when zero
	Height uint8 // rows, 2 when zero

	// CommandDelay is waited after every write so the firmware can process
	// it before the next one arrives. 10ms when zero.
	CommandDelay time.Duration

	// StartupDelay is waited once by Configure before the first command.
	// Give the display about a second after power on.
	StartupDelay time.Duration
}

// Device is a handle to a SerLCD.
type Device struct {
	bus     drivers.I2C
	address uint16

	width        uint8
	height       uint8
	commandDelay time.Duration

	// OpenLCD takes the whole flag set on every display control or entry
	// mode instruction, so the last one sent is kept here.
	control uint8
	mode    uint8

	sleep func(time.Duration)
	buf   [5]byte
}

// New returns a handle to the SerLCD at address on bus. The bus must already
// be configured. Call Configure before use.
func New(bus drivers.I2C, address uint16) Device {
	return Device{
		bus:          bus,
		address:      address,
		width:        16,
		height:       2,
		commandDelay: 10 * time.Millisecond,
		control:      displayOn | cursorOff | blinkOff,
		mode:         entryLeft | entryShiftDecrement,
		sleep:        time.Sleep,
	}
}

// Configure applies cfg and initializes the display: display on with no
// cursor, left-to-right entry, cleared.
func (d *Device) Configure(cfg Config) error {
	if cfg.Width == 0 {
		cfg.Width = 16
	}
	if cfg.Height == 0 {
		cfg.Height = 2
	}
	if cfg.Width > maxColumns {
		return errInvalid("width " + strconv.Itoa(int(cfg.Width)) + " exceeds " + strconv.Itoa(maxColumns) + " columns")
	}
	if cfg.Height > maxRows {
		return errInvalid("height " + strconv.Itoa(int(cfg.Height)) + " exceeds " + strconv.Itoa(maxRows) + " rows")
	}
	if cfg.CommandDelay == 0 {
		cfg.CommandDelay = 10 * time.Millisecond
	}
	d.width = cfg.Width
	d.height = cfg.Height
	d.commandDelay = cfg.CommandDelay

	if cfg.StartupDelay > 0 {
		d.sleep(cfg.StartupDelay)
	}
	if err := d.special("configure", displayControl|d.control); err != nil {
		return err
	}
	if err := d.special("configure", entryModeSet|d.mode); err != nil {
		return err
	}
	return d.Clear()
}

// Address returns the I2C address the handle writes to.
func (d *Device) Address() uint16 { return d.address }

// Size returns the number of columns and rows.
func (d *Device) Size() (width, height uint8) { return d.width, d.height }

// Clear clears the display and moves the cursor home.
func (d *Device) Clear() error {
	return d.setting("clear", clearCommand)
}

// Home moves the cursor to the top left without clearing.
func (d *Device) Home() error {
	return d.special("home", returnHome)
}

// SetCursor moves the cursor to column col of row row, both zero based.
func (d *Device) SetCursor(col, row uint8) error {
	if row >= d.height {
		return errInvalid("row " + strconv.Itoa(int(row)) + " outside " + strconv.Itoa(int(d.height)) + " rows")
	}
	if col >= d.width {
		return errInvalid("column " + strconv.Itoa(int(col)) + " outside " + strconv.Itoa(int(d.width)) + " columns")
	}
	return d.special("set cursor", setDDRAMAddr|(col+rowOffsets[row]))
}

// Print writes text at the cursor. Text must not contain the command
// prefixes '|' (0x7C) or 0xFE, which the firmware would act on.
func (d *Device) Print(text []byte) error {
	if err := checkText(text); err != nil {
		return err
	}
	for len(text) > 0 {
		chunk := text
		if len(chunk) > maxTxSize {
			chunk = chunk[:maxTxSize]
		}
		if err := d.tx("print", chunk); err != nil {
			return err
		}
		text = text[len(chunk):]
	}
	return nil
}

// IsReserved reports whether c is a command prefix the firmware acts on
// instead of printing.
func IsReserved(c byte) bool {
	return c == settingCommand || c == specialCommand
}

func checkText(text []byte) error {
	for i, c := range text {
		if IsReserved(c) {
			return errInvalid("reserved byte 0x" + strconv.FormatUint(uint64(c), 16) + " at offset " + strconv.Itoa(i))
		}
	}
	return nil
}

// Write implements io.Writer on top of Print.
func (d *Device) Write(p []byte) (int, error) {
	if err := d.Print(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// SetBacklight sets the backlight color.
func (d *Device) SetBacklight(r, g, b uint8) error {
	return d.setting("set backlight", setRGBCommand, r, g, b)
}

// SetContrast sets the contrast. Lower values give darker characters.
func (d *Device) SetContrast(contrast uint8) error {
	return d.setting("set contrast", contrastCommand, contrast)
}

// EnableDisplay shows the display content.
func (d *Device) EnableDisplay() error {
	return d.setControl("enable display", d.control|displayOn)
}

// DisableDisplay hides the display content. The text is kept.
func (d *Device) DisableDisplay() error {
	return d.setControl("disable display", d.control&^displayOn)
}

// EnableCursor turns the underline cursor on.
func (d *Device) EnableCursor() error {
	return d.setControl("enable cursor", d.control|cursorOn)
}

// DisableCursor turns the underline cursor off.
func (d *Device) DisableCursor() error {
	return d.setControl("disable cursor", d.control&^cursorOn)
}

// EnableBlink turns the blinking block cursor on.
func (d *Device) EnableBlink() error {
	return d.setControl("enable blink", d.control|blinkOn)
}

// DisableBlink turns the blinking block cursor off.
func (d *Device) DisableBlink() error {
	return d.setControl("disable blink", d.control&^blinkOn)
}

// ScrollLeft shifts the whole display one column left.
func (d *Device) ScrollLeft() error {
	return d.special("scroll left", cursorShift|displayMove|moveLeft)
}

// ScrollRight shifts the whole display one column right.
func (d *Device) ScrollRight() error {
	return d.special("scroll right", cursorShift|displayMove|moveRight)
}

// MoveCursorLeft moves the cursor one column left.
func (d *Device) MoveCursorLeft() error {
	return d.special("move cursor left", cursorShift|cursorMove|moveLeft)
}

// MoveCursorRight moves the cursor one column right.
func (d *Device) MoveCursorRight() error {
	return d.special("move cursor right", cursorShift|cursorMove|moveRight)
}

// LeftToRight makes text flow left to right from the cursor.
func (d *Device) LeftToRight() error {
	return d.setMode("left to right", d.mode|entryLeft)
}

// RightToLeft makes text flow right to left from the cursor.
func (d *Device) RightToLeft() error {
	return d.setMode("right to left", d.mode&^entryLeft)
}

// EnableAutoscroll shifts the display on every printed character instead
// of moving the cursor.
func (d *Device) EnableAutoscroll() error {
	return d.setMode("enable autoscroll", d.mode|entryShiftIncrement)
}

// DisableAutoscroll moves the cursor on every printed character again.
func (d *Device) DisableAutoscroll() error {
	return d.setMode("disable autoscroll", d.mode&^entryShiftIncrement)
}

// EnableSystemMessages lets the firmware print messages such as
// "Contrast: 5" when a setting changes.
func (d *Device) EnableSystemMessages() error {
	return d.setting("enable system messages", enableSystemMessages)
}

// DisableSystemMessages stops the firmware printing setting changes.
func (d *Device) DisableSystemMessages() error {
	return d.setting("disable system messages", disableSystemMessages)
}

// EnableSplash shows the splash screen at power on.
func (d *Device) EnableSplash() error {
	return d.setting("enable splash", enableSplash)
}

// DisableSplash skips the splash screen at power on.
func (d *Device) DisableSplash() error {
	return d.setting("disable splash", disableSplash)
}

// SaveSplash stores the current display content in EEPROM as the splash
// screen.
func (d *Device) SaveSplash() error {
	return d.setting("save splash", saveSplash)
}

// SetAddress changes the display's I2C address. The change is persistent;
// if it goes wrong the display needs a hardware reset. The handle uses the
// new address once the write succeeds.
func (d *Device) SetAddress(address uint16) error {
	if address < minDeviceAddress || address > maxDeviceAddress {
		return errInvalid("address 0x" + strconv.FormatUint(uint64(address), 16) + " outside 0x08-0x77")
	}
	if err := d.setting("set address", addressCommand, uint8(address)); err != nil {
		return err
	}
	// The firmware restarts its I2C peripheral on the new address.
	d.sleep(50 * time.Millisecond)
	d.address = address
	return nil
}

// DefaultSettings restores contrast and backlight to their power-on values,
// enables the splash screen and clears the display. Display and system
// messages are off while the settings change.
func (d *Device) DefaultSettings() error {
	steps := []func() error{
		d.DisableDisplay,
		d.DisableSystemMessages,
		func() error { return d.SetContrast(defaultContrast) },
		func() error { return d.SetBacklight(defaultBacklight, defaultBacklight, defaultBacklight) },
		d.EnableSplash,
		d.Clear,
		d.EnableSystemMessages,
		d.EnableDisplay,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) setControl(op string, control uint8) error {
	if err := d.special(op, displayControl|control); err != nil {
		return err
	}
	d.control = control
	return nil
}

func (d *Device) setMode(op string, mode uint8) error {
	if err := d.special(op, entryModeSet|mode); err != nil {
		return err
	}
	d.mode = mode
	return nil
}

func (d *Device) special(op string, instr uint8) error {
	d.buf[0], d.buf[1] = specialCommand, instr
	return d.tx(op, d.buf[:2])
}

func (d *Device) setting(op string, cmd uint8, args ...uint8) error {
	d.buf[0], d.buf[1] = settingCommand, cmd
	n := 2 + copy(d.buf[2:], args)
	return d.tx(op, d.buf[:n])
}

// tx writes w to the display and waits out the command delay.
func (d *Device) tx(op string, w []byte) error {
	if err := d.bus.Tx(d.address, w, nil); err != nil {
		return &BusError{Op: op, Addr: d.address, Err: err}
	}
	if d.commandDelay > 0 {
		d.sleep(d.commandDelay)
	}
	return nil
}
