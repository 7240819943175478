// airspace/manifest.go
// Copyright(c) 2025 scopesim contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package airspace loads the map datasets drawn under the tracks and
// builds the projection used to place tracks on the scope.
package airspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/mmp/scopesim/log"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"
)

var ErrNoFeatures = errors.New("No usable features")

// ManifestEntry names a single GeoJSON dataset.
type ManifestEntry struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	Layer string `json:"layer"`
	Type  string `json:"type"` // "polygon" or "point"; empty takes the first feature's type
}

type Manifest struct {
	GeoJSON []ManifestEntry `json:"geojson"`

	dir string // entry paths are relative to this
}

const DefaultLayer = "FIR"

func LoadManifest(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return &m, nil
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) || m.dir == "" {
		return p
	}
	return filepath.Join(m.dir, p)
}

// Layer is a named group of features of a single type.
type Layer struct {
	Name     string
	Type     string
	Features []*geojson.Feature
}

// Datasets holds the loaded layers in manifest order.
type Datasets struct {
	Layers []*Layer
}

func featureType(g orb.Geometry) string {
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon:
		return "polygon"
	case orb.Point, orb.MultiPoint:
		return "point"
	default:
		return ""
	}
}

func loadEntry(m *Manifest, e ManifestEntry) (*Layer, error) {
	b, err := os.ReadFile(m.resolve(e.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to read geojson: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(b)
	if err != nil {
		return nil, fmt.Errorf("failed to parse geojson: %w", err)
	}

	layer := &Layer{Name: e.Layer, Type: e.Type}
	if layer.Name == "" {
		layer.Name = DefaultLayer
	}
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		ft := featureType(f.Geometry)
		if ft == "" {
			continue
		}
		if layer.Type == "" {
			layer.Type = ft
		}
		if ft == layer.Type {
			layer.Features = append(layer.Features, f)
		}
	}
	if len(layer.Features) == 0 {
		return nil, ErrNoFeatures
	}
	return layer, nil
}

// Load reads every dataset named in the manifest concurrently. Datasets
// that can't be read are logged and skipped; entries that name the same
// layer are merged.
func Load(ctx context.Context, m *Manifest, lg *log.Logger) (*Datasets, error) {
	layers := make([]*Layer, len(m.GeoJSON))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(8)
	var mu sync.Mutex
	var failed int
	for i, e := range m.GeoJSON {
		if e.Path == "" {
			continue
		}
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			layer, err := loadEntry(m, e)
			if err != nil {
				lg.Warn("failed to load dataset", slog.String("id", e.ID), slog.String("path", e.Path),
					slog.Any("error", err))
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			layers[i] = layer
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	d := &Datasets{}
	byName := make(map[string]*Layer)
	for _, l := range layers {
		if l == nil {
			continue
		}
		if existing, ok := byName[l.Name]; ok {
			existing.Features = append(existing.Features, l.Features...)
			continue
		}
		byName[l.Name] = l
		d.Layers = append(d.Layers, l)
	}

	lg.Info("loaded datasets", slog.Int("layers", len(d.Layers)), slog.Int("failed", failed))
	return d, nil
}

// Layer returns the named layer, if it was loaded.
func (d *Datasets) Layer(name string) (*Layer, bool) {
	for _, l := range d.Layers {
		if l.Name == name {
			return l, true
		}
	}
	return nil, false
}

// Bound returns the extent of all features.
func (d *Datasets) Bound() (orb.Bound, bool) {
	var b orb.Bound
	found := false
	for _, l := range d.Layers {
		for _, f := range l.Features {
			fb := f.Geometry.Bound()
			if !found {
				b, found = fb, true
			} else {
				b = b.Union(fb)
			}
		}
	}
	return b, found
}
