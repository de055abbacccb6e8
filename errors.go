// -*- Mode: Go; indent-tabs-mode: t -*-
//
// SPDX-License-Identifier: Apache-2.0

package devicemanager

import "github.com/pkg/errors"

// ErrorKind is the error taxonomy from spec.md §7. Every outbound Error
// reply carries exactly one of these.
type ErrorKind string

const (
	// KindDeviceError covers scan-start failures, device-command dispatch
	// failures, and partial StopAllDevices failures.
	KindDeviceError ErrorKind = "DeviceError"
	// KindMessageError means the inbound message kind is unrecognized.
	KindMessageError ErrorKind = "MessageError"
	// KindUnknownDevice means the inbound DeviceIndex has no registry entry.
	KindUnknownDevice ErrorKind = "UnknownDevice"
	// KindCancelled means the device-addressed call's context was
	// cancelled before a reply arrived.
	KindCancelled ErrorKind = "Cancelled"
)

// Sentinel causes. Compare with errors.Cause(err) == ErrAlreadyScanning,
// never with a direct == on a wrapped error.
//
// ErrNoScanBackends's text is capitalized against normal Go convention:
// spec.md §8 scenario 1 fixes "No scan backends available" as the exact
// outbound Error message, so the sentinel carries that literal text
// rather than being lowercased at the reply boundary.
var (
	ErrNoScanBackends  = errors.New("No scan backends available")
	ErrAlreadyScanning = errors.New("a scan is already in progress")
	ErrDeviceNotFound  = errors.New("device not found")
)

// unknownDeviceErrorText formats the UnknownDevice message text used by both
// the dispatcher and the end-to-end scenarios in spec.md §8.
func unknownDeviceErrorText(index uint32) string {
	return errors.Errorf("unknown device index %d", index).Error()
}
