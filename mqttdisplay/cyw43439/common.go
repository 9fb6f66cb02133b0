//go:build tinygo

// Package cyw43439 brings up WiFi on a Raspberry Pi Pico W (CYW43439 chip)
// and runs the lneto network stack the MQTT client dials through.
//
// WiFi credentials are set at build time:
//
//	tinygo flash -target=pico-w \
//	    -ldflags="-X github.com/harveysanders/serlcd/mqttdisplay/cyw43439.ssid=home -X github.com/harveysanders/serlcd/mqttdisplay/cyw43439.pass=secret" \
//	    ./mqttdisplay
//
// Adapted from the examples in the soypat/cyw43439 repository:
// https://github.com/soypat/cyw43439/tree/main/examples/common
package cyw43439

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"time"

	"github.com/soypat/cyw43439"
	"github.com/soypat/lneto/x/xnet"
)

const mtu = cyw43439.MTU

var (
	ssid string
	pass string
)

// SSID returns the WiFi SSID set via linker flags.
func SSID() string { return ssid }

// Password returns the WiFi password set via linker flags.
func Password() string { return pass }

// Config configures WiFi and the lneto stack.
type Config struct {
	// Hostname is used for the stack and the DHCP request.
	Hostname string
	// MaxTCPPorts is the number of TCP ports to open for the stack.
	MaxTCPPorts int
	// Logger for stack operations. Nothing is logged when nil.
	Logger *slog.Logger
	// RandSeed is an optional random seed for the stack's PRNG.
	RandSeed int64
	// RequestedAddr is the preferred IP address to request via DHCP.
	// If DHCP fails and this is set, it is used as a static IP.
	RequestedAddr netip.Addr
	// OnStatus, when set, receives two short lines describing progress,
	// sized for a 16x2 display.
	OnStatus func(line1, line2 string)
}

// Stack wraps the lneto StackAsync and CYW43439 device for network operations.
type Stack struct {
	s       xnet.StackAsync
	dev     *cyw43439.Device
	log     *slog.Logger
	sendbuf []byte
}

// Connect initializes the CYW43439, joins the network named by the linker
// flags and configures the stack through DHCP. Joining is retried until it
// succeeds.
func Connect(cfg Config) (*Stack, error) {
	if cfg.Hostname == "" {
		return nil, errors.New("empty hostname")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.Level(127), // Make temporary logger that does no logging.
		}))
	}
	status := cfg.OnStatus
	if status == nil {
		status = func(string, string) {}
	}

	start := time.Now()
	dev := cyw43439.NewPicoWDevice()
	dev.SetLogger(logger)

	status("WiFi", "initializing")
	if err := dev.Init(cyw43439.DefaultWifiConfig()); err != nil {
		return nil, errors.New("wifi init failed:" + err.Error())
	}
	logger.Info("cyw43439:Init", slog.Duration("duration", time.Since(start)))

	logger.Info("wifi:joining", slog.String("ssid", ssid), slog.Bool("open", len(pass) == 0))
	status("Joining WiFi", ssid)
	for {
		err := dev.JoinWPA2(ssid, pass)
		if err == nil {
			break
		}
		logger.Error("wifi join failed", slog.String("err", err.Error()))
		status("Join failed", "retrying")
		time.Sleep(5 * time.Second)
	}

	mac, err := dev.HardwareAddr6()
	if err != nil {
		return nil, errors.New("get hardware address:" + err.Error())
	}
	logger.Info("wifi join success!", slog.String("mac", net.HardwareAddr(mac[:]).String()))

	stack := &Stack{
		dev:     dev,
		log:     logger,
		sendbuf: make([]byte, mtu),
	}
	err = stack.s.Reset(xnet.StackConfig{
		Hostname:        cfg.Hostname,
		MaxTCPConns:     max(cfg.MaxTCPPorts, 1),
		RandSeed:        time.Since(start).Nanoseconds() ^ cfg.RandSeed,
		HardwareAddress: mac,
		MTU:             mtu,
	})
	if err != nil {
		return nil, errors.New("stack reset:" + err.Error())
	}
	dev.RecvEthHandle(func(pkt []byte) error {
		return stack.s.Demux(pkt, 0)
	})

	// Packets only move while Serve runs, and DHCP needs them.
	go stack.Serve()

	status("DHCP", "requesting")
	if err := stack.dhcp(cfg.RequestedAddr); err != nil {
		return nil, err
	}
	status("IP address", stack.Addr().String())
	return stack, nil
}

// dhcp requests an address, falling back to requested as a static IP.
func (s *Stack) dhcp(requested netip.Addr) error {
	if !requested.IsValid() {
		requested = netip.AddrFrom4([4]byte{})
	} else if !requested.Is4() {
		return errors.New("only dhcpv4 supported")
	}

	const pollTime = 50 * time.Millisecond
	rstack := s.s.StackRetrying(pollTime)

	s.log.Info("DHCP:starting")
	results, err := rstack.DoDHCPv4(requested.As4(), 3*time.Second, 3)
	if err != nil {
		if !requested.IsUnspecified() {
			s.log.Info("DHCP did not complete, assigning static IP", slog.String("ip", requested.String()))
			s.s.SetIPAddr(requested)
			return nil
		}
		return errors.New("dhcp failed:" + err.Error())
	}
	if err := s.s.AssimilateDHCPResults(results); err != nil {
		return errors.New("assimilate dhcp:" + err.Error())
	}

	gatewayHW, err := rstack.DoResolveHardwareAddress6(results.Router, 500*time.Millisecond, 4)
	if err != nil {
		return errors.New("resolve gateway:" + err.Error())
	}
	s.s.SetGateway6(gatewayHW)

	s.log.Info("DHCP complete",
		slog.String("ourIP", results.AssignedAddr.String()),
		slog.String("router", results.Router.String()),
		slog.Uint64("lease_sec", uint64(results.TLease)),
	)
	return nil
}

// Serve moves packets between the chip and the stack forever, backing off
// while the link is idle.
func (s *Stack) Serve() {
	const (
		minBackoff = time.Millisecond
		maxBackoff = 100 * time.Millisecond
	)
	backoff := minBackoff
	for {
		send, recv, _ := s.recvAndSend()
		if send == 0 && recv == 0 {
			time.Sleep(backoff)
			backoff = min(2*backoff, maxBackoff)
			continue
		}
		backoff = minBackoff
	}
}

// recvAndSend polls one incoming packet and sends one outgoing packet.
func (s *Stack) recvAndSend() (send, recv int, err error) {
	gotPacket, errRecv := s.dev.PollOne()
	if gotPacket {
		recv = 1
	}
	if errRecv != nil {
		s.log.Error("RecvAndSend:PollOne", slog.String("err", errRecv.Error()))
	}

	send, err = s.s.Encapsulate(s.sendbuf, -1, 0)
	if err != nil {
		s.log.Error("RecvAndSend:Encapsulate", slog.Int("plen", send), slog.String("err", err.Error()))
	} else {
		err = errRecv
	}
	if send == 0 {
		return send, recv, err
	}

	err = s.dev.SendEth(s.sendbuf[:send])
	if err != nil {
		s.log.Error("RecvAndSend:SendEth", slog.Int("plen", send), slog.String("err", err.Error()))
	}
	return send, recv, err
}

// LnetoStack returns the underlying lneto StackAsync for TCP connections
// and DNS lookups.
func (s *Stack) LnetoStack() *xnet.StackAsync {
	return &s.s
}

// Addr returns the current IP address of the stack.
func (s *Stack) Addr() netip.Addr {
	return s.s.Addr()
}
