// -*- mode: Go; indent-tabs-mode: t -*-
//
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"fmt"

	"github.com/edgexfoundry/go-mod-core-contracts/clients/logger"
)

// LoggingClient is the logging contract every component takes as an
// injected field, never a bare package-level log.Printf. It is the same
// shape the donor SDK threads as common.LoggingClient, sourced here from
// go-mod-core-contracts instead of a vendored fork.
type LoggingClient = logger.LoggingClient

// NewLoggingClient builds the client bootstrap wires into every
// component. isRemote/logTarget mirror the donor's
// initializeLoggingClient: when isRemote is false, logTarget is a local
// file path; when true, it is a remote logging service URL. An empty
// logTarget is replaced by "<serviceName>.log".
func NewLoggingClient(serviceName string, isRemote bool, logTarget string, logLevel string) LoggingClient {
	if logTarget == "" {
		logTarget = fmt.Sprintf("%s.log", serviceName)
	}
	return logger.NewClient(serviceName, isRemote, logTarget, logLevel)
}
