// -*- Mode: Go; indent-tabs-mode: t -*-
//
// SPDX-License-Identifier: Apache-2.0

package devicemanager

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/xmidt-toys/device-manager/internal/common"
	"github.com/xmidt-toys/device-manager/pkg/models"
)

// dispatcher implements spec.md §4.3: one entry point, SendMessage, that
// preserves the inbound Id on every reply and is logically serialized
// with respect to global state transitions (enforced by scanCoordinator's
// own mutex) while letting per-device calls run concurrently with each
// other.
type dispatcher struct {
	registry *registry
	scan     *scanCoordinator
	logger   common.LoggingClient
}

func newDispatcher(registry *registry, scan *scanCoordinator, logger common.LoggingClient) *dispatcher {
	return &dispatcher{registry: registry, scan: scan, logger: logger}
}

// SendMessage is the Dispatcher's single entry point. It always returns a
// reply; internal errors are converted into the matching ErrorReply kind
// rather than propagated as Go errors, per spec.md §7.
func (d *dispatcher) SendMessage(ctx context.Context, msg Inbound) models.Reply {
	id := msg.MessageID()

	correlationID := uuid.New().String()
	ctx = context.WithValue(ctx, common.CorrelationHeader, correlationID)
	d.logger.Debug(fmt.Sprintf("dispatch: id=%d correlation=%s kind=%T", id, correlationID, msg))

	switch msg.(type) {
	case StartScanningMsg:
		if err := d.scan.start(ctx); err != nil {
			return ErrorReply{Id: id, Kind: KindDeviceError, Message: errors.Cause(err).Error()}
		}
		return OkReply{Id: id}

	case StopScanningMsg:
		if err := d.scan.stop(ctx); err != nil {
			return ErrorReply{Id: id, Kind: KindDeviceError, Message: errors.Cause(err).Error()}
		}
		return OkReply{Id: id}

	case StopAllDevicesMsg:
		return d.stopAllDevices(ctx, id)

	case RequestDeviceListMsg:
		return DeviceListReply{Id: id, Entries: d.registry.snapshotConnected()}
	}

	if dm, ok := msg.(models.DeviceMessage); ok {
		return d.dispatchDevice(ctx, dm)
	}

	d.logger.Error(fmt.Sprintf("dispatch: unhandled message kind=%T id=%d", msg, id))
	return ErrorReply{Id: id, Kind: KindMessageError, Message: "unhandled message"}
}

// dispatchDevice implements spec.md §4.3's device-addressed routing:
// look up DeviceIndex, fail with UnknownDevice if absent, otherwise
// delegate to ParseMessage and return its reply directly.
func (d *dispatcher) dispatchDevice(ctx context.Context, dm models.DeviceMessage) models.Reply {
	id := dm.MessageID()
	idx := dm.DeviceIndex()

	dev, ok := d.registry.get(idx)
	if !ok {
		return ErrorReply{Id: id, Kind: KindUnknownDevice, Message: unknownDeviceErrorText(idx)}
	}

	reply, err := dev.ParseMessage(ctx, dm)
	if err != nil {
		if ctx.Err() == context.Canceled {
			return ErrorReply{Id: id, Kind: KindCancelled, Message: err.Error()}
		}
		return ErrorReply{Id: id, Kind: KindDeviceError, Message: err.Error()}
	}
	return reply
}

// stopAllDevices implements spec.md §4.3's StopAllDevices: dispatch a
// StopDeviceCmd to every currently-connected device sequentially,
// concatenating failures per spec.md §8 scenario 6's exact shape
// ("e1; " — a trailing separator after each failed device, not a strict
// join). An unexpected (neither Ok nor Error) reply is treated as a
// DeviceError, per DESIGN.md's resolution of open question #2.
func (d *dispatcher) stopAllDevices(ctx context.Context, id uint32) models.Reply {
	var failures string

	for _, idx := range d.registry.connectedIndexes() {
		dev, ok := d.registry.get(idx)
		if !ok {
			continue
		}

		reply, err := dev.ParseMessage(ctx, StopDeviceCmd{Id: id, Index: idx})
		if err != nil {
			failures += err.Error() + "; "
			continue
		}

		switch r := reply.(type) {
		case OkReply:
			// success, nothing to record
		case ErrorReply:
			failures += r.Message + "; "
		default:
			failures += fmt.Sprintf("device %d: unexpected reply kind %T", idx, reply) + "; "
		}
	}

	if failures != "" {
		return ErrorReply{Id: id, Kind: KindDeviceError, Message: failures}
	}
	return OkReply{Id: id}
}
