// -*- Mode: Go; indent-tabs-mode: t -*-
//
// SPDX-License-Identifier: Apache-2.0

package devicemanager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xmidt-toys/device-manager/pkg/models"
)

func TestManagerSetAddIsIdempotentByKind(t *testing.T) {
	var addedCount int
	ms := newManagerSet(nil, testLogger{}, func(models.Device) { addedCount++ }, func() {})

	m1 := newFakeManager("serial")
	m2 := newFakeManager("serial")
	ms.add(m1)
	ms.add(m2)

	assert.Equal(t, 1, ms.count(), "duplicate kind registration must be a no-op")
	assert.Equal(t, []models.SubtypeManager{m1}, ms.list())
}

func TestManagerSetAutoLoadRunsOnceAndIsSafeToRepeat(t *testing.T) {
	ms := newManagerSet(nil, testLogger{}, func(models.Device) {}, func() {})

	assert.False(t, ms.autoLoaded())
	assert.NoError(t, ms.autoLoad(context.Background()))
	assert.True(t, ms.autoLoaded())

	// no search dirs configured, so nothing is discovered; a second call
	// must not error or double-count.
	assert.NoError(t, ms.autoLoad(context.Background()))
	assert.Equal(t, 0, ms.count())
}

func TestManagerSetWiresDeviceAddedCallback(t *testing.T) {
	m := newFakeManager("fake")
	var received models.Device
	ms := newManagerSet(nil, testLogger{}, func(d models.Device) { received = d }, func() {})
	ms.add(m)

	d := newFakeDevice("id-1", "Device")
	m.onAdded(d)

	assert.Equal(t, d, received)
}
