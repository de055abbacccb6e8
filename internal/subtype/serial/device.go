// -*- Mode: Go; indent-tabs-mode: t -*-
//
// SPDX-License-Identifier: Apache-2.0

// Package serial provides a concrete models.SubtypeManager over raw
// serial lines, grounded on the same connect/probe/teardown shape as
// internal/subtype/modbus but using github.com/goburrow/serial directly
// rather than Modbus framing, per SPEC_FULL.md §11.1's second example
// transport.
package serial

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	goserial "github.com/goburrow/serial"
	"github.com/pkg/errors"

	devicemanager "github.com/xmidt-toys/device-manager"
	"github.com/xmidt-toys/device-manager/internal/common"
	"github.com/xmidt-toys/device-manager/pkg/models"
)

const probeTimeout = 500 * time.Millisecond

// pingByte is written on connect; a responsive device echoes it back.
// Ports that don't respond within probeTimeout are assumed empty and
// skipped rather than treated as a scan failure.
const pingByte = 0x50

// Manager probes a fixed list of serial device paths, one per
// configured port, since a serial bus has no enumeration primitive of
// its own.
type Manager struct {
	mu       sync.Mutex
	scanning bool

	ports    []string
	baudRate int
	logger   common.LoggingClient

	onAdded    func(models.Device)
	onFinished func()
}

func NewManager(ports []string, baudRate int, logger common.LoggingClient) *Manager {
	return &Manager{ports: ports, baudRate: baudRate, logger: logger}
}

func (m *Manager) Kind() string { return "serial" }

func (m *Manager) OnDeviceAdded(fn func(models.Device)) { m.onAdded = fn }
func (m *Manager) OnScanningFinished(fn func())         { m.onFinished = fn }

func (m *Manager) IsScanning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scanning
}

func (m *Manager) StartScanning(ctx context.Context) error {
	m.mu.Lock()
	if m.scanning {
		m.mu.Unlock()
		return nil
	}
	m.scanning = true
	m.mu.Unlock()

	for _, path := range m.ports {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			m.scanning = false
			m.mu.Unlock()
			if m.onFinished != nil {
				m.onFinished()
			}
			return ctx.Err()
		default:
		}

		dev, err := probe(path, m.baudRate, m.logger)
		if err != nil {
			m.logger.Debug(fmt.Sprintf("serial: no device at %s: %v", path, err))
			continue
		}
		if m.onAdded != nil {
			m.onAdded(dev)
		}
	}

	m.mu.Lock()
	m.scanning = false
	m.mu.Unlock()
	if m.onFinished != nil {
		m.onFinished()
	}
	return nil
}

func (m *Manager) StopScanning(ctx context.Context) error { return nil }

func probe(path string, baudRate int, logger common.LoggingClient) (*device, error) {
	port, err := goserial.Open(&goserial.Config{
		Address:  path,
		BaudRate: baudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  probeTimeout,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}

	if _, err := port.Write([]byte{pingByte}); err != nil {
		port.Close()
		return nil, errors.Wrap(err, "ping")
	}
	ack := make([]byte, 1)
	if _, err := io.ReadFull(port, ack); err != nil {
		port.Close()
		return nil, errors.Wrap(err, "ping response")
	}

	return &device{
		identifier: models.Identifier("serial://" + path),
		name:       fmt.Sprintf("Serial device on %s", path),
		port:       port,
		connected:  true,
		logger:     logger,
	}, nil
}

type device struct {
	mu         sync.Mutex
	identifier models.Identifier
	name       string
	connected  bool

	port   io.ReadWriteCloser
	logger common.LoggingClient

	onRemoved []func()
	onEmitted []func(models.Reply)
}

func (d *device) Identifier() models.Identifier { return d.identifier }
func (d *device) Name() string                  { return d.name }

func (d *device) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

func (d *device) AllowedMessageTypes() []models.AllowedMessageType {
	return []models.AllowedMessageType{
		{Name: "VibrateCmd", SpecIntroducedIn: 1, Attrs: models.MessageAttrs{"FeatureCount": 1}},
		{Name: "StopDeviceCmd", SpecIntroducedIn: 1},
	}
}

// ParseMessage encodes VibrateCmd as the byte pair {'V', scaled speed}
// and StopDeviceCmd as {'S', 0} — a minimal line protocol, not a real
// device's actual wire format, since this subtype manager exists to
// exercise goburrow/serial rather than to speak to a specific chipset.
func (d *device) ParseMessage(ctx context.Context, msg models.DeviceMessage) (models.Reply, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch m := msg.(type) {
	case devicemanager.VibrateCmd:
		speed := 0.0
		if len(m.Speeds) > 0 {
			speed = m.Speeds[0]
		}
		if err := d.send('V', speed); err != nil {
			return nil, err
		}
		return devicemanager.OkReply{Id: m.Id}, nil

	case devicemanager.StopDeviceCmd:
		if err := d.send('S', 0); err != nil {
			return nil, err
		}
		return devicemanager.OkReply{Id: m.Id}, nil

	default:
		return nil, errors.Errorf("serial device does not understand %T", msg)
	}
}

func (d *device) send(command byte, speed float64) error {
	if speed < 0 {
		speed = 0
	}
	if speed > 1 {
		speed = 1
	}
	_, err := d.port.Write([]byte{command, byte(speed * 255)})
	return errors.Wrap(err, "serial write")
}

func (d *device) Disconnect() error {
	d.mu.Lock()
	d.connected = false
	d.mu.Unlock()
	return d.port.Close()
}

func (d *device) OnRemoved(fn func()) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onRemoved = append(d.onRemoved, fn)
	idx := len(d.onRemoved) - 1
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.onRemoved[idx] = nil
	}
}

func (d *device) OnMessageEmitted(fn func(models.Reply)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onEmitted = append(d.onEmitted, fn)
	idx := len(d.onEmitted) - 1
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.onEmitted[idx] = nil
	}
}
