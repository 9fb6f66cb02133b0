// Package serlcd drives SparkFun SerLCD character displays (OpenLCD firmware)
// over I2C.
//
// Supported boards:
//   - SparkFun 16x2 SerLCD, RGB backlight (Qwiic) https://www.sparkfun.com/products/16396
//   - SparkFun 16x2 SerLCD, RGB text (Qwiic) https://www.sparkfun.com/products/16397
//   - SparkFun 20x4 SerLCD, RGB backlight (Qwiic) https://www.sparkfun.com/products/16398
//
// Every operation is a single write of a fixed command sequence to the
// display. The driver does not retry and is not safe for concurrent use.
//
// Example usage:
//
//	machine.I2C0.Configure(machine.I2CConfig{SDA: machine.GP4, SCL: machine.GP5})
//	dev := serlcd.New(machine.I2C0, serlcd.DefaultAddress)
//	if err := dev.Configure(serlcd.Config{Width: 16, Height: 2}); err != nil {
//	    println(err.Error())
//	}
//	dev.SetBacklight(255, 0, 0)
//	dev.Display("Hello world")
//
// Datasheet
//
// https://github.com/sparkfun/OpenLCD
package serlcd
