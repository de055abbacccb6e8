// -*- mode: Go; indent-tabs-mode: t -*-
//
// SPDX-License-Identifier: Apache-2.0

package common

// ServiceName and ServiceVersion identify this process for logging and for
// the optional health registration in internal/health. Unlike the donor
// SDK, the Device Manager core itself holds no other process-wide mutable
// state: the manager, its registry, its scan coordinator and its manager
// set are all fields on an instance, never packages-level globals, because
// SPEC_FULL.md assumes one Device Manager instance per client session.
var (
	ServiceName    = "device-manager"
	ServiceVersion = "0.1.0"
)
