// -*- Mode: Go; indent-tabs-mode: t -*-
//
// SPDX-License-Identifier: Apache-2.0

package devicemanager

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFanoutPublishAndReceiveInOrder(t *testing.T) {
	f := newFanout(4)

	f.publish(OkReply{Id: 1})
	f.publish(OkReply{Id: 2})
	f.publish(OkReply{Id: 3})

	assert.Equal(t, OkReply{Id: 1}, <-f.Messages())
	assert.Equal(t, OkReply{Id: 2}, <-f.Messages())
	assert.Equal(t, OkReply{Id: 3}, <-f.Messages())
}

func TestFanoutCloseStopsReceive(t *testing.T) {
	f := newFanout(1)
	f.close()

	_, ok := <-f.Messages()
	assert.False(t, ok, "expected the channel to be closed")
}

func TestFanoutZeroBufferDefaultsToOne(t *testing.T) {
	f := newFanout(0)
	assert.Equal(t, 1, cap(f.out))
}
