// -*- Mode: Go; indent-tabs-mode: t -*-
//
// SPDX-License-Identifier: Apache-2.0

package devicemanager

import "github.com/xmidt-toys/device-manager/pkg/models"

// fanout is the Event Fanout of spec.md §4.5, reimagined per §9/§13's
// redesign note as a single buffered channel rather than a multicast
// event handler: every DeviceAdded/DeviceRemoved/ScanningFinished and
// every forwarded device-emitted message passes through publish in the
// exact order the Registry/Scan Coordinator produced it. No buffering
// contract beyond the channel's own capacity is implied.
type fanout struct {
	out chan models.Reply
}

func newFanout(bufferSize int) *fanout {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &fanout{out: make(chan models.Reply, bufferSize)}
}

// publish delivers a message to the outbound stream. If the channel's
// buffer is full, publish blocks — the Fanout imposes no buffering
// contract of its own, so a slow subscriber applies backpressure to
// whichever goroutine produced the event (spec.md §4.5).
func (f *fanout) publish(msg models.Reply) {
	f.out <- msg
}

// Messages exposes the outbound stream to the one subscriber a Device
// Manager instance assumes, per spec.md §1's "one logical client session."
func (f *fanout) Messages() <-chan models.Reply {
	return f.out
}

// close shuts the outbound stream down; called only from Shutdown.
func (f *fanout) close() {
	close(f.out)
}
