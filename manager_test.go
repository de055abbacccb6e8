// -*- Mode: Go; indent-tabs-mode: t -*-
//
// SPDX-License-Identifier: Apache-2.0

package devicemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-toys/device-manager/internal/config"
)

func newTestManager() *DeviceManager {
	cfg := &config.Config{}
	cfg.Service.SpecVersion = 1
	cfg.Service.DeviceMessageQueueSize = 16
	return NewManager(cfg, testLogger{})
}

// scenario 1: starting a scan with zero registered backends and
// auto-load disabled (no search dirs configured) fails with
// ErrNoScanBackends.
func TestScenarioNoBackendsScanFails(t *testing.T) {
	dm := newTestManager()
	reply := dm.SendMessage(context.Background(), StartScanningMsg{Id: 1})

	errReply, ok := reply.(ErrorReply)
	require.True(t, ok)
	assert.Equal(t, uint32(1), errReply.Id)
	assert.Equal(t, KindDeviceError, errReply.Kind)
	assert.Equal(t, "No scan backends available", errReply.Message)
}

// scenario 2: a subtype manager that finishes scanning synchronously,
// from within its own StartScanning call, still produces exactly one
// ScanningFinishedMsg, observed on the public Messages stream.
func TestScenarioFastReturnScanEmitsScanningFinishedOnce(t *testing.T) {
	dm := newTestManager()
	m := newFakeManager("fast")
	m.synchronous = true
	dm.AddManager(m)

	reply := dm.SendMessage(context.Background(), StartScanningMsg{Id: 2})
	assert.Equal(t, OkReply{Id: 2}, reply)

	select {
	case msg := <-dm.Messages():
		_, ok := msg.(ScanningFinishedMsg)
		assert.True(t, ok, "expected ScanningFinishedMsg, got %#v", msg)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ScanningFinishedMsg")
	}

	select {
	case msg := <-dm.Messages():
		t.Fatalf("expected exactly one ScanningFinishedMsg, got another message %#v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

// scenario 3/4: a device is discovered, listed, then stopped via
// StopAllDevices.
func TestScenarioDeviceAddedListedAndStoppedAll(t *testing.T) {
	dm := newTestManager()
	dev := newFakeDevice("dev-1", "Test Actuator")
	dev.parseResult = OkReply{Id: 0}

	// discover the device directly through the registry's callback path,
	// exercised the same way a real subtype manager would drive it.
	dm.registry.onDeviceAdded(dev)
	added := (<-dm.Messages()).(DeviceAddedMsg)

	listReply := dm.SendMessage(context.Background(), RequestDeviceListMsg{Id: 3})
	list, ok := listReply.(DeviceListReply)
	require.True(t, ok)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, added.Index, list.Entries[0].Index)

	stopReply := dm.SendMessage(context.Background(), StopAllDevicesMsg{Id: 4})
	assert.Equal(t, OkReply{Id: 4}, stopReply)
}

// scenario 5: a device-addressed message naming an index the Registry
// has no entry for fails with UnknownDevice.
func TestScenarioUnknownDeviceIndexFails(t *testing.T) {
	dm := newTestManager()
	reply := dm.SendMessage(context.Background(), VibrateCmd{Id: 5, Index: 999, Speeds: []float64{0.5}})

	errReply, ok := reply.(ErrorReply)
	require.True(t, ok)
	assert.Equal(t, KindUnknownDevice, errReply.Kind)
}

// scenario 6: StopAllDevices with one failing and one succeeding device
// concatenates just the failing device's message with a trailing "; ".
func TestScenarioStopAllDevicesPartialFailure(t *testing.T) {
	dm := newTestManager()

	failing := newFakeDevice("dev-fail", "Failing")
	failing.parseResult = ErrorReply{Id: 0, Kind: KindDeviceError, Message: "e1"}
	ok := newFakeDevice("dev-ok", "Ok")
	ok.parseResult = OkReply{Id: 0}

	dm.registry.onDeviceAdded(failing)
	<-dm.Messages()
	dm.registry.onDeviceAdded(ok)
	<-dm.Messages()

	reply := dm.SendMessage(context.Background(), StopAllDevicesMsg{Id: 9})
	errReply, isErr := reply.(ErrorReply)
	require.True(t, isErr)
	assert.Equal(t, uint32(9), errReply.Id)
	assert.Equal(t, KindDeviceError, errReply.Kind)
	assert.Equal(t, "e1; ", errReply.Message)
}

func TestShutdownDisconnectsDevicesAndClosesStream(t *testing.T) {
	dm := newTestManager()
	dev := newFakeDevice("dev-1", "Device")
	dm.registry.onDeviceAdded(dev)
	<-dm.Messages()

	dm.Shutdown(context.Background())

	assert.False(t, dev.Connected())
	_, open := <-dm.Messages()
	assert.False(t, open)
}
