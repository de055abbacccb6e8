// -*- Mode: Go; indent-tabs-mode: t -*-
//
// SPDX-License-Identifier: Apache-2.0

// Package models defines the external contracts the Device Manager core
// depends on: the Device a subtype manager hands back, and the
// SubtypeManager discovery backend itself. Neither contract says anything
// about how a given transport (Bluetooth, HID, serial, Modbus, ...)
// actually talks to hardware — that stays behind the interface, the same
// way ProtocolDriver kept protocol specifics out of the device service
// core this package is descended from.
package models

import "context"

// Identifier is the opaque, transport-supplied string that stays stable
// for a given physical device across a disconnect/reconnect within one
// process lifetime.
type Identifier string

// MessageAttrs carries the device-supplied attributes for a single allowed
// message type, e.g. feature count for a vibration command, step count for
// a linear actuator.
type MessageAttrs map[string]interface{}

// AllowedMessageType describes one message kind a Device accepts, gated by
// the spec version in which the core introduced that kind.
type AllowedMessageType struct {
	Name            string
	SpecIntroducedIn uint
	Attrs           MessageAttrs
}

// Device is the external contract a subtype manager hands to the Device
// Manager once it has found and connected to a physical device. Nothing in
// this package's callers is allowed to assume a concrete transport: a
// Device discovered over serial and one discovered over Bluetooth satisfy
// the exact same interface.
type Device interface {
	// Identifier is the stable, opaque, per-physical-device string
	// supplied by the owning subtype manager.
	Identifier() Identifier

	// Name is the human-readable device name.
	Name() string

	// Connected reports whether the device is currently reachable.
	Connected() bool

	// AllowedMessageTypes is the full set this device accepts, unfiltered
	// by spec version; filtering by spec version is the Registry's job.
	AllowedMessageTypes() []AllowedMessageType

	// ParseMessage translates one inbound device-addressed message into a
	// reply, honoring ctx cancellation. Implementations are responsible
	// for their own internal serialization; concurrent ParseMessage calls
	// against distinct devices must not block one another.
	ParseMessage(ctx context.Context, msg DeviceMessage) (Reply, error)

	// Disconnect tears down the physical connection. Called from
	// RemoveAllDevices and from Shutdown; must be idempotent.
	Disconnect() error

	// OnRemoved registers a callback invoked exactly once, when this
	// device is no longer reachable, and returns a function that
	// withdraws the subscription. The Registry calls the returned
	// function when it drops its entry for this device, per spec.md §5's
	// "subscriptions are scoped to the Device Entry lifetime."
	OnRemoved(func()) (unsubscribe func())

	// OnMessageEmitted registers a callback invoked for every
	// device-initiated protocol message (e.g. a sensor reading) this
	// device produces on its own, outside of any ParseMessage reply, and
	// returns a function that withdraws the subscription.
	OnMessageEmitted(func(Reply)) (unsubscribe func())
}

// SubtypeManager is a discovery backend: Bluetooth, HID, serial, Modbus,
// or any other pluggable transport. The Device Manager core never
// downcasts this interface; auto-load and manual registration both
// produce values satisfying exactly this contract, per the redesign note
// in SPEC_FULL.md §13 replacing the donor's reflective subclass discovery.
type SubtypeManager interface {
	// Kind identifies the concrete implementation for duplicate-kind
	// detection (§4.4); two managers of the same Kind never coexist.
	Kind() string

	// StartScanning begins discovery. May return before discovery
	// completes; completion is signaled asynchronously via the
	// ScanningFinished callback registered through OnScanningFinished.
	// A manager with nothing to discover is allowed to invoke its
	// ScanningFinished callback synchronously, before StartScanning
	// returns — the Scan Coordinator's Starting-phase suppression exists
	// because of exactly this case.
	StartScanning(ctx context.Context) error

	// StopScanning requests discovery stop; completion is still signaled
	// through ScanningFinished, same as a scan that finished on its own.
	StopScanning(ctx context.Context) error

	// IsScanning reports whether this manager currently believes itself
	// to be scanning.
	IsScanning() bool

	// OnDeviceAdded registers the callback invoked once per newly
	// discovered Device. May fire multiple times for the same physical
	// device across reconnects.
	OnDeviceAdded(func(Device))

	// OnScanningFinished registers the callback invoked when this
	// manager's own scan activity — started or stopped — has settled.
	OnScanningFinished(func())
}

// DeviceMessage is any inbound protocol message addressed to a specific
// device (carries a DeviceIndex alongside whatever the driver needs).
type DeviceMessage interface {
	MessageID() uint32
	DeviceIndex() uint32
}

// Reply is any outbound protocol message produced in response to an
// inbound one; it is opaque to this package, which only ever forwards it.
type Reply interface {
	ReplyID() uint32
}
