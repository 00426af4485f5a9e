package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// boxConfig places one wireframe box landmark.
type boxConfig struct {
	Position [3]float64
	Size     float64
	Color    string // "R,G,B"
}

// modelConfig places one GLB model loaded from disk.
type modelConfig struct {
	Path     string
	Position [3]float64
	Scale    float64
	Color    string // "R,G,B"
}

// portalConfig places one portal: a quad surface and its exit anchor. Yaw
// values are degrees about the world Y axis.
type portalConfig struct {
	Surface    [3]float64
	SurfaceYaw float64
	Anchor     [3]float64
	AnchorYaw  float64
	Width      float64
	Height     float64
}

type config struct {
	FPS        int
	Background string // "R,G,B"
	GridSize   float64
	GridStep   float64
	Boxes      []boxConfig
	Models     []modelConfig
	Portals    []portalConfig
}

// defaultConfig is the built-in scene: a grid, two landmarks, and one portal
// looking at the far landmark from up close.
func defaultConfig() config {
	return config{
		FPS:        30,
		Background: "16,16,24",
		GridSize:   40,
		GridStep:   2,
		Boxes: []boxConfig{
			{Position: [3]float64{-4, 1, -6}, Size: 2, Color: "255,200,0"},
			{Position: [3]float64{18, 1, -20}, Size: 2, Color: "255,80,80"},
		},
		Portals: []portalConfig{
			{
				Surface: [3]float64{2, 1.5, -5},
				Anchor:  [3]float64{16, 1.5, -18},
				Width:   3,
				Height:  2,
			},
		},
	}
}

// loadConfig decodes a TOML scene file over the defaults. A missing or
// unreadable file returns the defaults and the error for the caller to log.
func loadConfig(path string) (config, error) {
	conf := defaultConfig()
	if path == "" {
		return conf, nil
	}
	if _, err := toml.DecodeFile(path, &conf); err != nil {
		return defaultConfig(), fmt.Errorf("decode %s: %w", path, err)
	}
	return conf, nil
}
