//go:build tinygo

// Mqttdisplay shows text and colors published to an MQTT topic on a SerLCD
// attached to a Pico W.
//
// Publish JSON commands to the topic, for example:
//
//	mosquitto_pub -t lcd/pico -m '{"rgb":[0,0,255],"lines":["Hello","from MQTT"]}'
package main

import (
	"log/slog"
	"machine"
	"time"

	"github.com/harveysanders/serlcd/lcd"
	"github.com/harveysanders/serlcd/mqttdisplay/cyw43439"
	"github.com/harveysanders/serlcd/mqttdisplay/mqtt"
	"github.com/harveysanders/serlcd/serlcd"
)

// Set with -ldflags="-X main.brokerAddr=host:port -X main.topic=..."
var (
	brokerAddr = "10.0.0.9:1883"
	topic      = "lcd/pico"
	mqttUser   string
	mqttPass   string
)

func main() {
	logger := slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Setup LCD display over I2C
	err := machine.I2C0.Configure(machine.I2CConfig{
		SDA: machine.GP4,
		SCL: machine.GP5,
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

	// The handler goroutine is the only writer to the LCD.
	lcdMessages := make(chan lcd.Message, 10)
	commands := make(chan lcd.Command, 4)
	go lcd.NewHandler(&dev, lcdMessages, logger).WithCommands(commands).Run()

	stack, err := cyw43439.Connect(cyw43439.Config{
		Hostname:    "serlcd-pico",
		MaxTCPPorts: 1,
		Logger:      logger,
		OnStatus: func(line1, line2 string) {
			lcd.Send(lcdMessages, line1, line2)
		},
	})
	if err != nil {
		lcd.Send(lcdMessages, "Network error", err.Error())
		printErrForever(logger, "connect network", slog.Any("reason", err))
	}

	c := mqtt.Client{
		ID:                "tinygo-serlcd",
		Topic:             topic,
		Logger:            logger,
		Timeout:           5 * time.Second,
		TCPBufSize:        2030, // MTU - ethhdr - iphdr - tcphdr
		HeartbeatInterval: 30 * time.Second,
		Username:          mqttUser,
		Password:          mqttPass,
	}
	err = c.ConnectAndSubscribe(stack, brokerAddr, commands, lcdMessages)
	lcd.Send(lcdMessages, "MQTT error", err.Error())
	printErrForever(logger, "connect to MQTT broker", slog.Any("reason", err))
}

// printErrForever prints a string to serial @ 1hz. It
// blocks forever.
func printErrForever(logger *slog.Logger, msg string, args ...any) {
	for {
		logger.Error(msg, args...)
		time.Sleep(time.Second)
	}
}
