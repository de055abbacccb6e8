// -*- Mode: Go; indent-tabs-mode: t -*-
//
// SPDX-License-Identifier: Apache-2.0

// Package plugin implements the subtype-manager auto-load mechanism of
// spec.md §4.4/§6, re-architected per SPEC_FULL.md §11.4 away from the
// donor's (and the original protocol's) reflective/inheritance-based
// subclass discovery: a well-known naming convention plus a published
// factory symbol, looked up with Go's native plugin package.
package plugin

import (
	"fmt"
	"path/filepath"

	goplugin "plugin"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
	"io/ioutil"

	"github.com/xmidt-toys/device-manager/internal/common"
	"github.com/xmidt-toys/device-manager/pkg/models"
)

// Manifest is the YAML sidecar every auto-loadable plugin directory
// carries (SPEC_FULL.md §10.3), describing the plugin's declared kind and
// any kind-specific defaults. Kind appears only in construction error
// messages; Defaults is decoded but not passed to the constructed manager.
type Manifest struct {
	Kind     string            `yaml:"kind"`
	Defaults map[string]string `yaml:"defaults"`
}

// Factory is the signature every plugin unit must export under
// common.PluginFactorySymbol.
type Factory func(logger common.LoggingClient) (models.SubtypeManager, error)

// Discover enumerates searchDirs for units matching
// common.PluginUnitGlob, loads each, and constructs a SubtypeManager from
// its exported factory. Load failures — missing manifest, bad YAML, a
// .so that fails to open, a missing or mis-typed factory symbol — are
// logged at Warn and skipped; auto-load is best-effort per spec.md §7.
func Discover(searchDirs []string, logger common.LoggingClient) []models.SubtypeManager {
	var discovered []models.SubtypeManager

	for _, dir := range searchDirs {
		units, err := filepath.Glob(filepath.Join(dir, common.PluginUnitGlob))
		if err != nil {
			logger.Warn(fmt.Sprintf("plugin discover: bad search dir %s: %v", dir, err))
			continue
		}

		for _, unit := range units {
			mgr, err := loadOne(unit, logger)
			if err != nil {
				logger.Warn(fmt.Sprintf("plugin discover: skipping %s: %v", unit, err))
				continue
			}
			discovered = append(discovered, mgr)
		}
	}

	return discovered
}

func loadOne(unitPath string, logger common.LoggingClient) (models.SubtypeManager, error) {
	manifestPath := filepath.Join(filepath.Dir(unitPath), common.PluginManifestName)
	manifestBytes, err := ioutil.ReadFile(manifestPath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading manifest %s", manifestPath)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(manifestBytes, &manifest); err != nil {
		return nil, errors.Wrapf(err, "parsing manifest %s", manifestPath)
	}

	p, err := goplugin.Open(unitPath)
	if err != nil {
		return nil, errors.Wrapf(err, "opening plugin unit %s", unitPath)
	}

	sym, err := p.Lookup(common.PluginFactorySymbol)
	if err != nil {
		return nil, errors.Wrapf(err, "looking up %s in %s", common.PluginFactorySymbol, unitPath)
	}

	factory, ok := sym.(func(common.LoggingClient) (models.SubtypeManager, error))
	if !ok {
		return nil, errors.Errorf("%s in %s has the wrong signature", common.PluginFactorySymbol, unitPath)
	}

	mgr, err := factory(logger)
	if err != nil {
		return nil, errors.Wrapf(err, "constructing subtype manager from %s (kind=%s)", unitPath, manifest.Kind)
	}

	return mgr, nil
}
