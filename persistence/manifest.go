package persistence

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Schromeo/VecDBMVP/distance"
	"github.com/Schromeo/VecDBMVP/index/hnsw"
)

// Manifest is the textual configuration record of a collection.
type Manifest struct {
	Version int        `json:"version"`
	Dim     int        `json:"dim"`
	Metric  string     `json:"metric"`
	HNSW    HNSWParams `json:"hnsw"`
}

// HNSWParams mirrors hnsw.Params in the manifest's JSON shape.
type HNSWParams struct {
	M              int     `json:"M"`
	M0             int     `json:"M0"`
	EfConstruction int     `json:"ef_construction"`
	UseDiversity   bool    `json:"use_diversity"`
	Seed           uint32  `json:"seed"`
	LevelMult      float64 `json:"level_mult"`
}

// NewManifest builds a manifest from runtime configuration.
func NewManifest(dim int, metric distance.Metric, params hnsw.Params) Manifest {
	return Manifest{
		Version: CurrentVersion,
		Dim:     dim,
		Metric:  metric.String(),
		HNSW: HNSWParams{
			M:              params.M,
			M0:             params.M0,
			EfConstruction: params.EfConstruction,
			UseDiversity:   params.UseDiversity,
			Seed:           params.Seed,
			LevelMult:      params.LevelMult,
		},
	}
}

// ParsedMetric returns the manifest metric; unrecognized names fall back to
// L2, matching the distance dispatch.
func (m Manifest) ParsedMetric() distance.Metric {
	metric, err := distance.ParseMetric(m.Metric)
	if err != nil {
		return distance.MetricL2
	}
	return metric
}

// Params converts the manifest's HNSW section to runtime parameters.
func (m Manifest) Params() hnsw.Params {
	return hnsw.Params{
		M:              m.HNSW.M,
		M0:             m.HNSW.M0,
		EfConstruction: m.HNSW.EfConstruction,
		UseDiversity:   m.HNSW.UseDiversity,
		Seed:           m.HNSW.Seed,
		LevelMult:      m.HNSW.LevelMult,
	}
}

// ManifestExists reports whether dir contains a manifest file.
func ManifestExists(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ManifestFileName))
	return err == nil && info.Mode().IsRegular()
}

// WriteManifest persists the manifest to dir.
func WriteManifest(dir string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	return saveToFile(filepath.Join(dir, ManifestFileName), func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// ReadManifest loads the manifest from dir. Absent keys keep the defaults
// (M=16, M0=32, ef_construction=100, use_diversity=true, seed=123,
// level_mult=1.0, metric=L2). A zero dim is rejected.
func ReadManifest(dir string) (Manifest, error) {
	m := Manifest{
		Version: CurrentVersion,
		Metric:  distance.MetricL2.String(),
		HNSW: HNSWParams{
			M:              hnsw.DefaultParams.M,
			M0:             hnsw.DefaultParams.M0,
			EfConstruction: hnsw.DefaultParams.EfConstruction,
			UseDiversity:   hnsw.DefaultParams.UseDiversity,
			Seed:           hnsw.DefaultParams.Seed,
			LevelMult:      hnsw.DefaultParams.LevelMult,
		},
	}

	path := filepath.Join(dir, ManifestFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("persistence: malformed manifest %s: %w", path, err)
	}
	if m.Dim == 0 {
		return Manifest{}, fmt.Errorf("%w: %s", ErrManifestDim, path)
	}
	return m, nil
}
