//go:build tinygo

package mqtt

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/netip"
	"runtime"
	"time"

	"github.com/harveysanders/serlcd/lcd"
	"github.com/harveysanders/serlcd/mqttdisplay/cyw43439"
	"github.com/soypat/lneto/tcp"
	mqtt "github.com/soypat/natiu-mqtt"
)

var pubFlags, _ = mqtt.NewPublishFlags(mqtt.QoS0, false, false)

// Status is published on <topic>/status every heartbeat.
type Status struct {
	ID        string `json:"id"`
	Addr      string `json:"addr"`
	Uptime    int64  `json:"uptime_ms"`
	Commands  int    `json:"commands"`
	Rejected  int    `json:"rejected"`
	Forwarded int    `json:"forwarded"`
}

type Client struct {
	ID                string
	Topic             string // commands arrive here, status goes to Topic + "/status"
	Timeout           time.Duration
	TCPBufSize        int
	Logger            *slog.Logger
	HeartbeatInterval time.Duration // 30s when zero
	Username          string // MQTT broker username (optional)
	Password          string // MQTT broker password (optional, requires Username)

	start  time.Time
	status Status
}

// ConnectAndSubscribe connects to the MQTT broker, subscribes to the command
// topic and forwards every valid command to commands. Progress is shown on
// the LCD through lcdMessages. It reconnects forever and only returns on a
// configuration error.
func (c *Client) ConnectAndSubscribe(
	stack *cyw43439.Stack,
	addr string,
	commands chan<- lcd.Command,
	lcdMessages chan<- lcd.Message,
) error {
	const pollTime = 5 * time.Millisecond

	if c.Topic == "" {
		return errors.New("empty command topic")
	}
	c.HeartbeatInterval = heartbeatInterval(c.HeartbeatInterval)
	c.start = time.Now()
	c.status.ID = c.ID
	c.Logger.Info("MQTT address: " + addr)

	mqttHost, port, err := splitHostPort(addr)
	if err != nil {
		return errors.New("parsing host:port from " + addr + ": " + err.Error())
	}

	lnetoStack := stack.LnetoStack()
	rstack := lnetoStack.StackRetrying(pollTime)
	c.status.Addr = stack.Addr().String()

	// Try to parse as IP first, otherwise DNS lookup
	var mqttAddr netip.Addr
	if parsedAddr, err := netip.ParseAddr(mqttHost); err == nil {
		mqttAddr = parsedAddr
	} else {
		c.Logger.Info("dns:resolving " + mqttHost)
		lcd.Send(lcdMessages, "DNS lookup", mqttHost)
		addrs, err := rstack.DoLookupIP(mqttHost, 5*time.Second, 3)
		if err != nil {
			return errors.New("dns lookup for " + mqttHost + ": " + err.Error())
		}
		if len(addrs) == 0 {
			return errors.New("dns lookup for " + mqttHost + ": no addresses returned")
		}
		mqttAddr = addrs[0]
	}
	c.Logger.Info("resolved IP: " + mqttAddr.String())

	cfg := mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 4096)},
		OnPub: func(pubHead mqtt.Header, varPub mqtt.VariablesPublish, r io.Reader) error {
			return c.onCommand(varPub, r, commands, lcdMessages)
		},
	}
	var varconn mqtt.VariablesConnect
	varconn.SetDefaultMQTT([]byte(c.ID))
	if c.Username != "" {
		varconn.Username = []byte(c.Username)
		if c.Password != "" {
			varconn.Password = []byte(c.Password)
		}
	}

	mqttClient := mqtt.NewClient(cfg)

	var conn tcp.Conn
	err = conn.Configure(tcp.ConnConfig{
		RxBuf:             make([]byte, c.TCPBufSize),
		TxBuf:             make([]byte, c.TCPBufSize),
		TxPacketQueueSize: 3,
	})
	if err != nil {
		return errors.New("tcp configure:" + err.Error())
	}

	closeConn := func(reason string) {
		c.Logger.Error("tcpconn:closing", slog.String("reason", reason))
		conn.Close()
		for i := 0; i < 50 && !conn.State().IsClosed(); i++ {
			time.Sleep(100 * time.Millisecond)
		}
		conn.Abort()
	}

	serverAddr := netip.AddrPortFrom(mqttAddr, port)
	statusTopic := []byte(c.Topic + "/status")

	// Connection loop for TCP+MQTT.
	for {
		localPort := uint16(lnetoStack.Prand32()>>17) + 1024
		c.Logger.Info("socket:dialing", slog.Uint64("localPort", uint64(localPort)))
		lcd.Send(lcdMessages, "Connecting...", "TCP handshake")
		err = rstack.DoDialTCP(&conn, localPort, serverAddr, 10*time.Second, 3)
		if err != nil {
			c.Logger.Error("socket:dial-failed", slog.String("err", err.Error()))
			closeConn("dial failed: " + err.Error())
			time.Sleep(2 * time.Second)
			continue
		}
		c.Logger.Info("tcp:connected", slog.String("state", conn.State().String()))

		lcd.Send(lcdMessages, "MQTT Connect", "Authenticating")
		conn.SetDeadline(time.Now().Add(c.Timeout))
		err = mqttClient.StartConnect(&conn, &varconn)
		if err != nil {
			c.Logger.Error("mqtt:start-connect-failed", slog.String("reason", err.Error()))
			lcd.Send(lcdMessages, "Connect Failed", err.Error())
			closeConn("connect failed")
			continue
		}
		for retries := 50; retries > 0 && !mqttClient.IsConnected(); retries-- {
			time.Sleep(100 * time.Millisecond)
			if err := mqttClient.HandleNext(); err != nil {
				c.Logger.Error("mqtt:handle-next-failed", slog.String("err", err.Error()))
			}
		}
		if !mqttClient.IsConnected() {
			c.Logger.Error("mqtt:connect-failed", slog.Any("reason", mqttClient.Err()))
			lcd.Send(lcdMessages, "Connect Failed", "Timed out")
			closeConn("connect timed out")
			continue
		}

		if err := c.subscribe(mqttClient, &conn, uint16(lnetoStack.Prand32())); err != nil {
			c.Logger.Error("mqtt:subscribe-failed", slog.String("reason", err.Error()))
			lcd.Send(lcdMessages, "Subscribe Failed", err.Error())
			closeConn("subscribe failed")
			continue
		}
		c.Logger.Info("mqtt:subscribed", slog.String("topic", c.Topic))
		lcd.Send(lcdMessages, "MQTT Connected", c.Topic)

		heartbeat := time.NewTicker(c.HeartbeatInterval)
		for mqttClient.IsConnected() {
			select {
			case <-heartbeat.C:
				// Publishing also keeps the connection alive between commands.
				if err := c.publishStatus(mqttClient, &conn, statusTopic, uint16(lnetoStack.Prand32())); err != nil {
					c.Logger.Error("mqtt:publish-failed", slog.Any("reason", err))
				}
			default:
			}
			conn.SetDeadline(time.Now().Add(c.Timeout))
			if err := mqttClient.HandleNext(); err != nil {
				c.Logger.Debug("mqtt:handle-next", slog.String("err", err.Error()))
			}
			// TinyGo runs on a single core; let the LCD handler run.
			// https://tinygo.org/docs/guides/tips-n-tricks/
			runtime.Gosched()
		}
		heartbeat.Stop()

		c.Logger.Error("mqtt:disconnected", slog.Any("reason", mqttClient.Err()))
		lcd.Send(lcdMessages, "Disconnected", "Reconnecting...")
		closeConn("disconnected")
		runtime.Gosched()
	}
}

func (c *Client) subscribe(mqttClient *mqtt.Client, conn *tcp.Conn, packetID uint16) error {
	conn.SetDeadline(time.Now().Add(c.Timeout))
	err := mqttClient.StartSubscribe(mqtt.VariablesSubscribe{
		PacketIdentifier: packetID,
		TopicFilters: []mqtt.SubscribeRequest{
			{TopicFilter: []byte(c.Topic), QoS: mqtt.QoS0},
		},
	})
	if err != nil {
		return err
	}
	for retries := 50; retries > 0 && mqttClient.AwaitingSuback(); retries-- {
		time.Sleep(100 * time.Millisecond)
		if err := mqttClient.HandleNext(); err != nil {
			c.Logger.Error("mqtt:handle-next-failed", slog.String("err", err.Error()))
		}
	}
	if mqttClient.AwaitingSuback() {
		return errors.New("suback timed out")
	}
	return nil
}

// onCommand decodes a published command and hands it to the LCD handler.
// Bad payloads are reported on the LCD, never returned: an error here
// would drop the connection.
func (c *Client) onCommand(varPub mqtt.VariablesPublish, r io.Reader, commands chan<- lcd.Command, lcdMessages chan<- lcd.Message) error {
	payload, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	c.status.Commands++
	c.Logger.Info("received command", slog.String("topic", string(varPub.TopicName)), slog.Int("len", len(payload)))

	cmd, err := lcd.DecodeCommand(payload)
	if err != nil {
		c.status.Rejected++
		c.Logger.Error("mqtt:bad-command", slog.String("err", err.Error()))
		lcd.Send(lcdMessages, "Bad command", err.Error())
		return nil
	}
	select {
	case commands <- cmd:
		c.status.Forwarded++
	default:
		c.Logger.Error("mqtt:command-dropped", slog.String("reason", "lcd busy"))
	}
	return nil
}

func (c *Client) publishStatus(mqttClient *mqtt.Client, conn *tcp.Conn, topic []byte, packetID uint16) error {
	c.status.Uptime = time.Since(c.start).Milliseconds()
	payload, err := json.Marshal(c.status)
	if err != nil {
		return err
	}
	conn.SetDeadline(time.Now().Add(c.Timeout))
	return mqttClient.PublishPayload(pubFlags, mqtt.VariablesPublish{
		TopicName:        topic,
		PacketIdentifier: packetID,
	}, payload)
}
