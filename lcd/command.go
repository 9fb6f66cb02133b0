package lcd

import (
	"encoding/json"
	"strconv"

	"github.com/harveysanders/serlcd/serlcd"
)

// Controller is a Screen that also takes the SerLCD settings a remote
// Command can change. *serlcd.Device implements it.
type Controller interface {
	Screen
	Display(msg string) error
	AppendDisplay(msg string) error
	DisplayLines(lines ...string) error
	SetBacklight(r, g, b uint8) error
	SetContrast(contrast uint8) error
	EnableDisplay() error
	DisableDisplay() error
	EnableCursor() error
	DisableCursor() error
	EnableBlink() error
	DisableBlink() error
}

// Command is a remote request to change the display. Unset fields leave
// the display as it is.
type Command struct {
	Clear    bool
	Display  *bool
	Cursor   *bool
	Blink    *bool
	Contrast *uint8
	RGB      *[3]uint8
	Lines    []string
	Text     *string
	Append   string
}

// wireCommand is the JSON form of a Command. Numbers are decoded wide so
// out of range values are reported instead of wrapping.
type wireCommand struct {
	Clear    bool     `json:"clear"`
	Display  *bool    `json:"display"`
	Cursor   *bool    `json:"cursor"`
	Blink    *bool    `json:"blink"`
	Contrast *int     `json:"contrast"`
	RGB      []int    `json:"rgb"`
	Lines    []string `json:"lines"`
	Text     *string  `json:"text"`
	Append   string   `json:"append"`
}

// commandError reports a field with a value the display cannot take.
type commandError struct {
	field string
	msg   string
}

func (e *commandError) Error() string { return "lcd: command " + e.field + ": " + e.msg }

func (e *commandError) Unwrap() error { return serlcd.ErrInvalidArgument }

// DecodeCommand parses a JSON command such as
//
//	{"clear":true,"rgb":[255,0,0],"lines":["Hello","World"]}
//
// Values outside what the display accepts, including text holding a
// command prefix byte, fail with an error wrapping serlcd.ErrInvalidArgument.
func DecodeCommand(payload []byte) (Command, error) {
	var w wireCommand
	if err := json.Unmarshal(payload, &w); err != nil {
		return Command{}, err
	}
	cmd := Command{
		Clear:   w.Clear,
		Display: w.Display,
		Cursor:  w.Cursor,
		Blink:   w.Blink,
		Lines:   w.Lines,
		Text:    w.Text,
		Append:  w.Append,
	}
	if err := checkText("lines", w.Lines...); err != nil {
		return Command{}, err
	}
	if w.Text != nil {
		if err := checkText("text", *w.Text); err != nil {
			return Command{}, err
		}
	}
	if err := checkText("append", w.Append); err != nil {
		return Command{}, err
	}
	if w.Contrast != nil {
		c, err := toByte("contrast", *w.Contrast)
		if err != nil {
			return Command{}, err
		}
		cmd.Contrast = &c
	}
	if w.RGB != nil {
		if len(w.RGB) != 3 {
			return Command{}, &commandError{field: "rgb", msg: "want 3 channels, got " + strconv.Itoa(len(w.RGB))}
		}
		var rgb [3]uint8
		for i, v := range w.RGB {
			c, err := toByte("rgb", v)
			if err != nil {
				return Command{}, err
			}
			rgb[i] = c
		}
		cmd.RGB = &rgb
	}
	return cmd, nil
}

// checkText rejects texts holding a command prefix byte.
func checkText(field string, texts ...string) error {
	for _, text := range texts {
		for i := 0; i < len(text); i++ {
			if serlcd.IsReserved(text[i]) {
				return &commandError{field: field, msg: "reserved byte 0x" + strconv.FormatUint(uint64(text[i]), 16) + " at offset " + strconv.Itoa(i)}
			}
		}
	}
	return nil
}

func toByte(field string, v int) (uint8, error) {
	if v < 0 || v > 255 {
		return 0, &commandError{field: field, msg: strconv.Itoa(v) + " outside 0-255"}
	}
	return uint8(v), nil
}

// Apply performs the command on c. Settings are applied before text so a
// command can color the backlight and write in one go. Apply stops at the
// first error.
func (cmd Command) Apply(c Controller) error {
	if cmd.Clear {
		if err := c.Clear(); err != nil {
			return err
		}
	}
	if err := toggle(cmd.Display, c.EnableDisplay, c.DisableDisplay); err != nil {
		return err
	}
	if err := toggle(cmd.Cursor, c.EnableCursor, c.DisableCursor); err != nil {
		return err
	}
	if err := toggle(cmd.Blink, c.EnableBlink, c.DisableBlink); err != nil {
		return err
	}
	if cmd.Contrast != nil {
		if err := c.SetContrast(*cmd.Contrast); err != nil {
			return err
		}
	}
	if cmd.RGB != nil {
		if err := c.SetBacklight(cmd.RGB[0], cmd.RGB[1], cmd.RGB[2]); err != nil {
			return err
		}
	}
	if len(cmd.Lines) > 0 {
		if err := c.DisplayLines(cmd.Lines...); err != nil {
			return err
		}
	}
	if cmd.Text != nil {
		if err := c.Display(*cmd.Text); err != nil {
			return err
		}
	}
	if cmd.Append != "" {
		return c.AppendDisplay(cmd.Append)
	}
	return nil
}

func toggle(on *bool, enable, disable func() error) error {
	switch {
	case on == nil:
		return nil
	case *on:
		return enable()
	default:
		return disable()
	}
}
