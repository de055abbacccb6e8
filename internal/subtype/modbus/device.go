// -*- Mode: Go; indent-tabs-mode: t -*-
//
// SPDX-License-Identifier: Apache-2.0

// Package modbus provides a concrete models.SubtypeManager backed by
// Modbus RTU, grounded on example/device-modbus/modbus.go's
// handler/client lifecycle from the donor SDK, generalized from that
// file's register-typed sensor reads to the binary vibrate/stop command
// surface of SPEC_FULL.md §11.1.
package modbus

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	gomodbus "github.com/goburrow/modbus"
	"github.com/pkg/errors"

	"github.com/xmidt-toys/device-manager/internal/common"
	devicemanager "github.com/xmidt-toys/device-manager"
	"github.com/xmidt-toys/device-manager/pkg/models"
)

const (
	comTimeout = 2000 * time.Millisecond

	// speedRegister is the single holding register this subtype manager
	// writes a 0-65535 scaled vibration speed to.
	speedRegister uint16 = 0x0000
)

// Manager discovers Modbus RTU slaves at the addresses and slave IDs a
// deployment configures statically — there is no bus-level broadcast
// discovery in Modbus, so "scanning" here means "probe the configured
// unit IDs and connect to whichever respond."
type Manager struct {
	mu       sync.Mutex
	scanning bool

	addresses []string
	slaveIDs  []int
	baudRate  int

	logger common.LoggingClient

	onAdded    func(models.Device)
	onFinished func()
}

// NewManager constructs the Modbus subtype manager. addresses are serial
// device paths (e.g. "/dev/ttyUSB0"), one RTU bus per address, probed at
// every configured slave ID.
func NewManager(addresses []string, slaveIDs []int, baudRate int, logger common.LoggingClient) *Manager {
	return &Manager{
		addresses: addresses,
		slaveIDs:  slaveIDs,
		baudRate:  baudRate,
		logger:    logger,
	}
}

func (m *Manager) Kind() string { return "modbus" }

func (m *Manager) OnDeviceAdded(fn func(models.Device))  { m.onAdded = fn }
func (m *Manager) OnScanningFinished(fn func())          { m.onFinished = fn }

func (m *Manager) IsScanning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scanning
}

// StartScanning probes every address/slaveID pair synchronously and
// returns once the sweep completes, firing OnScanningFinished itself
// before returning — this is the "fast-returning manager" case the Scan
// Coordinator's Starting-phase suppression exists for.
func (m *Manager) StartScanning(ctx context.Context) error {
	m.mu.Lock()
	if m.scanning {
		m.mu.Unlock()
		return nil
	}
	m.scanning = true
	m.mu.Unlock()

	var lastErr error
	for _, addr := range m.addresses {
		for _, slaveID := range m.slaveIDs {
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
			default:
			}

			dev, err := probe(addr, slaveID, m.baudRate, m.logger)
			if err != nil {
				m.logger.Debug(fmt.Sprintf("modbus: no response at %s unit=%d: %v", addr, slaveID, err))
				continue
			}
			if m.onAdded != nil {
				m.onAdded(dev)
			}
		}
	}

	m.mu.Lock()
	m.scanning = false
	m.mu.Unlock()

	if m.onFinished != nil {
		m.onFinished()
	}
	return lastErr
}

// StopScanning is a no-op: StartScanning's sweep is synchronous and
// already finished by the time it returns.
func (m *Manager) StopScanning(ctx context.Context) error { return nil }

func probe(address string, slaveID int, baudRate int, logger common.LoggingClient) (*device, error) {
	handler := gomodbus.NewRTUClientHandler(address)
	handler.BaudRate = baudRate
	handler.DataBits = 8
	handler.StopBits = 1
	handler.Parity = "N"
	handler.SlaveId = byte(slaveID)
	handler.Timeout = comTimeout

	if err := handler.Connect(); err != nil {
		return nil, errors.Wrap(err, "connect")
	}

	client := gomodbus.NewClient(handler)
	if _, err := client.ReadHoldingRegisters(speedRegister, 1); err != nil {
		handler.Close()
		return nil, errors.Wrap(err, "probe read")
	}

	return &device{
		identifier: models.Identifier(fmt.Sprintf("modbus://%s/%d", address, slaveID)),
		name:       fmt.Sprintf("Modbus RTU unit %d on %s", slaveID, address),
		handler:    handler,
		client:     client,
		connected:  true,
		logger:     logger,
	}, nil
}

// device is the Modbus-backed models.Device: a single vibration
// actuator addressed through one holding register.
type device struct {
	mu         sync.Mutex
	identifier models.Identifier
	name       string
	connected  bool

	handler *gomodbus.RTUClientHandler
	client  gomodbus.Client
	logger  common.LoggingClient

	onRemoved  []func()
	onEmitted  []func(models.Reply)
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

// ParseMessage implements the two commands this actuator understands.
// VibrateCmd's first speed (0.0-1.0) is scaled to a uint16 and written to
// speedRegister; StopDeviceCmd writes zero.
func (d *device) ParseMessage(ctx context.Context, msg models.DeviceMessage) (models.Reply, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch m := msg.(type) {
	case devicemanager.VibrateCmd:
		speed := 0.0
		if len(m.Speeds) > 0 {
			speed = m.Speeds[0]
		}
		if err := d.writeSpeed(speed); err != nil {
			return nil, err
		}
		return devicemanager.OkReply{Id: m.Id}, nil

	case devicemanager.StopDeviceCmd:
		if err := d.writeSpeed(0); err != nil {
			return nil, err
		}
		return devicemanager.OkReply{Id: m.Id}, nil

	default:
		return nil, errors.Errorf("modbus device does not understand %T", msg)
	}
}

func (d *device) writeSpeed(speed float64) error {
	if speed < 0 {
		speed = 0
	}
	if speed > 1 {
		speed = 1
	}
	scaled := uint16(speed * 65535)
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], scaled)
	_, err := d.client.WriteMultipleRegisters(speedRegister, 1, buf[:])
	return errors.Wrap(err, "write speed register")
}

func (d *device) Disconnect() error {
	d.mu.Lock()
	d.connected = false
	d.mu.Unlock()
	return d.handler.Close()
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
