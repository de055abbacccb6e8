// -*- Mode: Go; indent-tabs-mode: t -*-
//
// SPDX-License-Identifier: Apache-2.0

package devicemanager

import (
	"context"
	"sync"

	"github.com/xmidt-toys/device-manager/internal/common"
	"github.com/xmidt-toys/device-manager/pkg/models"
)

// testLogger discards everything; the donor's LoggingClient interface
// methods all return error, which we never check in tests.
type testLogger struct{}

func (testLogger) SetLogLevel(string) error                  { return nil }
func (testLogger) Debug(string, ...interface{}) error         { return nil }
func (testLogger) Error(string, ...interface{}) error         { return nil }
func (testLogger) Info(string, ...interface{}) error          { return nil }
func (testLogger) Trace(string, ...interface{}) error         { return nil }
func (testLogger) Warn(string, ...interface{}) error          { return nil }

var _ common.LoggingClient = testLogger{}

// fakeDevice is a controllable models.Device for registry/dispatcher
// tests: ParseMessage result and Connected flag are both settable
// directly by the test.
type fakeDevice struct {
	mu sync.Mutex

	identifier models.Identifier
	name       string
	connected  bool

	parseResult models.Reply
	parseErr    error

	onRemoved []func()
	onEmitted []func(models.Reply)
}

func newFakeDevice(id string, name string) *fakeDevice {
	return &fakeDevice{identifier: models.Identifier(id), name: name, connected: true}
}

func (d *fakeDevice) Identifier() models.Identifier { return d.identifier }
func (d *fakeDevice) Name() string                  { return d.name }

func (d *fakeDevice) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

func (d *fakeDevice) setConnected(v bool) {
	d.mu.Lock()
	d.connected = v
	d.mu.Unlock()
}

func (d *fakeDevice) AllowedMessageTypes() []models.AllowedMessageType {
	return []models.AllowedMessageType{
		{Name: "VibrateCmd", SpecIntroducedIn: 1},
		{Name: "FutureCmd", SpecIntroducedIn: 2},
	}
}

func (d *fakeDevice) ParseMessage(ctx context.Context, msg models.DeviceMessage) (models.Reply, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.parseResult, d.parseErr
}

func (d *fakeDevice) Disconnect() error {
	d.setConnected(false)
	return nil
}

func (d *fakeDevice) OnRemoved(fn func()) func() {
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

func (d *fakeDevice) OnMessageEmitted(fn func(models.Reply)) func() {
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

// fireRemoved invokes every live OnRemoved subscriber, simulating the
// device disconnecting on its own.
func (d *fakeDevice) fireRemoved() {
	d.mu.Lock()
	subs := append([]func(){}, d.onRemoved...)
	d.mu.Unlock()
	for _, fn := range subs {
		if fn != nil {
			fn()
		}
	}
}

// fakeManager is a controllable models.SubtypeManager. synchronous
// causes StartScanning to invoke onAdded/onFinished before returning,
// reproducing the fast-returning-manager scenario the Scan Coordinator's
// Starting-phase suppression exists for.
type fakeManager struct {
	mu   sync.Mutex
	kind string

	synchronous bool
	startErr    error
	scanning    bool

	toAdd []models.Device

	onAdded    func(models.Device)
	onFinished func()
}

func newFakeManager(kind string) *fakeManager {
	return &fakeManager{kind: kind}
}

func (m *fakeManager) Kind() string { return m.kind }

func (m *fakeManager) OnDeviceAdded(fn func(models.Device)) { m.onAdded = fn }
func (m *fakeManager) OnScanningFinished(fn func())         { m.onFinished = fn }

func (m *fakeManager) IsScanning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scanning
}

func (m *fakeManager) StartScanning(ctx context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}

	m.mu.Lock()
	m.scanning = true
	m.mu.Unlock()

	if m.synchronous {
		for _, d := range m.toAdd {
			if m.onAdded != nil {
				m.onAdded(d)
			}
		}
		m.mu.Lock()
		m.scanning = false
		m.mu.Unlock()
		if m.onFinished != nil {
			m.onFinished()
		}
	}
	return nil
}

func (m *fakeManager) StopScanning(ctx context.Context) error {
	m.mu.Lock()
	m.scanning = false
	m.mu.Unlock()
	if m.onFinished != nil {
		m.onFinished()
	}
	return nil
}

// finishAsync simulates an asynchronous manager completing its scan some
// time after StartScanning already returned.
func (m *fakeManager) finishAsync() {
	m.mu.Lock()
	m.scanning = false
	m.mu.Unlock()
	if m.onFinished != nil {
		m.onFinished()
	}
}
