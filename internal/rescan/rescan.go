// -*- Mode: Go; indent-tabs-mode: t -*-
//
// SPDX-License-Identifier: Apache-2.0

// Package rescan implements the optional periodic re-discovery tick of
// SPEC_FULL.md §11.6: a cron.v2 job lifecycle (Start/Stop/single job)
// wired to the one thing this domain needs from a ticker — calling the
// same public StartScanning path a client could call.
package rescan

import (
	"context"
	"fmt"

	"gopkg.in/robfig/cron.v2"

	devicemanager "github.com/xmidt-toys/device-manager"
	"github.com/xmidt-toys/device-manager/internal/common"
)

// reservedRescanID is the Id stamped on every scan triggered by the
// ticker rather than by a client, so logs and replies are distinguishable
// from client-initiated scans.
const reservedRescanID uint32 = 0

// Ticker owns a single cron.Cron running a StartScanningMsg dispatch on
// a fixed schedule.
type Ticker struct {
	cr     *cron.Cron
	entry  cron.EntryID
	dm     *devicemanager.DeviceManager
	logger common.LoggingClient
}

// Start parses schedule as a standard cron.v2 expression and begins
// ticking immediately. Call Stop to release the underlying goroutine.
func Start(schedule string, dm *devicemanager.DeviceManager, logger common.LoggingClient) (*Ticker, error) {
	cr := cron.New()

	entry, err := cr.AddFunc(schedule, func() {
		logger.Debug("rescan: tick, starting scan")
		reply := dm.SendMessage(context.Background(), devicemanager.StartScanningMsg{Id: reservedRescanID})
		if errReply, ok := reply.(devicemanager.ErrorReply); ok {
			logger.Warn(fmt.Sprintf("rescan: scan start failed: %s", errReply.Message))
		}
	})
	if err != nil {
		return nil, err
	}

	cr.Start()
	logger.Info(fmt.Sprintf("rescan: ticking on schedule %q", schedule))
	return &Ticker{cr: cr, entry: entry, dm: dm, logger: logger}, nil
}

// Stop halts the ticker. Any scan already in flight is left to finish on
// its own. cron.v2's Stop returns nothing — unlike v3, there is no
// context to wait on for in-flight jobs to drain.
func (t *Ticker) Stop() {
	t.cr.Remove(t.entry)
	t.cr.Stop()
	t.logger.Info("rescan: stopped")
}
