package serlcd

// DefaultAddress is the factory I2C address of a SerLCD.
const DefaultAddress = 0x72

// Command prefixes. Names and values from the OpenLCD firmware.
const (
	specialCommand = 0xFE // HD44780 instruction follows
	settingCommand = 0x7C // OpenLCD setting follows
)

// Settings, sent after settingCommand.
const (
	clearCommand          = 0x2D // clear and home
	contrastCommand       = 0x18
	addressCommand        = 0x19
	setRGBCommand         = 0x2B
	enableSystemMessages  = 0x2E
	disableSystemMessages = 0x2F
	enableSplash          = 0x30
	disableSplash         = 0x31
	saveSplash            = 0x0A // current text becomes the splash screen
)

// HD44780 instructions, sent after specialCommand.
const (
	returnHome     = 0x02
	entryModeSet   = 0x04
	displayControl = 0x08
	cursorShift    = 0x10
	setDDRAMAddr   = 0x80
)

// Entry mode flags.
const (
	entryRight          = 0x00
	entryLeft           = 0x02
	entryShiftIncrement = 0x01
	entryShiftDecrement = 0x00
)

// Display control flags.
const (
	displayOn  = 0x04
	displayOff = 0x00
	cursorOn   = 0x02
	cursorOff  = 0x00
	blinkOn    = 0x01
	blinkOff   = 0x00
)

// Cursor shift flags.
const (
	displayMove = 0x08
	cursorMove  = 0x00
	moveRight   = 0x04
	moveLeft    = 0x00
)

const (
	maxRows    = 4
	maxColumns = 20

	// maxTxSize bounds a single text transfer. OpenLCD is usually driven from
	// Arduino Wire, whose buffer is 32 bytes.
	maxTxSize = 32

	// Power-on defaults used by DefaultSettings.
	defaultContrast  = 20
	defaultBacklight = 20

	minDeviceAddress = 0x08
	maxDeviceAddress = 0x77
)

// rowOffsets maps a row to its first DDRAM address.
var rowOffsets = [maxRows]uint8{0x00, 0x40, 0x14, 0x54}
