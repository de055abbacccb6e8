// -*- Mode: Go; indent-tabs-mode: t -*-
//
// SPDX-License-Identifier: Apache-2.0

package devicemanager

import "github.com/xmidt-toys/device-manager/pkg/models"

// Inbound is any protocol message the Dispatcher can receive. The four
// global control kinds below satisfy it with just an Id; any
// models.DeviceMessage satisfies it too, since DeviceMessage embeds
// MessageID().
type Inbound interface {
	MessageID() uint32
}

// StartScanningMsg requests the Scan Coordinator begin a global scan.
type StartScanningMsg struct{ Id uint32 }

func (m StartScanningMsg) MessageID() uint32 { return m.Id }

// StopScanningMsg requests the Scan Coordinator stop the in-flight scan.
type StopScanningMsg struct{ Id uint32 }

func (m StopScanningMsg) MessageID() uint32 { return m.Id }

// StopAllDevicesMsg requests a StopDeviceCmd be dispatched to every
// currently-connected device.
type StopAllDevicesMsg struct{ Id uint32 }

func (m StopAllDevicesMsg) MessageID() uint32 { return m.Id }

// RequestDeviceListMsg requests the Registry's connected-device snapshot.
type RequestDeviceListMsg struct{ Id uint32 }

func (m RequestDeviceListMsg) MessageID() uint32 { return m.Id }

// VibrateCmd is an example device-addressed message (spec.md §8 scenario
// 5), carried through to Device.ParseMessage unexamined by the
// Dispatcher beyond its Id/DeviceIndex.
type VibrateCmd struct {
	Id     uint32
	Index  uint32
	Speeds []float64
}

func (m VibrateCmd) MessageID() uint32   { return m.Id }
func (m VibrateCmd) DeviceIndex() uint32 { return m.Index }

// StopDeviceCmd is the device-addressed message StopAllDevices fans out
// to every connected device (spec.md §4.3).
type StopDeviceCmd struct {
	Id    uint32
	Index uint32
}

func (m StopDeviceCmd) MessageID() uint32   { return m.Id }
func (m StopDeviceCmd) DeviceIndex() uint32 { return m.Index }

// OkReply is the success reply for a global control message.
type OkReply struct{ Id uint32 }

func (r OkReply) ReplyID() uint32 { return r.Id }

// ErrorReply is the failure reply for any inbound message, taxonomy per
// spec.md §7.
type ErrorReply struct {
	Id      uint32
	Kind    ErrorKind
	Message string
}

func (r ErrorReply) ReplyID() uint32 { return r.Id }

// DeviceListEntry is one row of a DeviceListReply, filtered to the
// negotiated spec version per spec.md §4.1.
type DeviceListEntry struct {
	Index           uint32
	Name            string
	AllowedMessages map[string]models.MessageAttrs
}

// DeviceListReply answers RequestDeviceListMsg.
type DeviceListReply struct {
	Id      uint32
	Entries []DeviceListEntry
}

func (r DeviceListReply) ReplyID() uint32 { return r.Id }

// DeviceAddedMsg is unsolicited: emitted by the Registry whenever a new
// (or reconnected) device entry is installed.
type DeviceAddedMsg struct {
	Index           uint32
	Name            string
	AllowedMessages map[string]models.MessageAttrs
}

func (m DeviceAddedMsg) ReplyID() uint32 { return ReservedSystemID }

// DeviceRemovedMsg is unsolicited: emitted by the Registry whenever a
// device entry is withdrawn.
type DeviceRemovedMsg struct {
	Index uint32
}

func (m DeviceRemovedMsg) ReplyID() uint32 { return ReservedSystemID }

// ScanningFinishedMsg is unsolicited: emitted by the Scan Coordinator at
// most once per StartScanning, per spec.md §5's ordering guarantee.
type ScanningFinishedMsg struct{}

func (m ScanningFinishedMsg) ReplyID() uint32 { return ReservedSystemID }

// ReservedSystemID is the Id carried by every unsolicited outbound
// message; no inbound message is ever assigned this Id by a well-behaved
// client.
const ReservedSystemID uint32 = 0
