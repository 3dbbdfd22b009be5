package driversim

import (
	"github.com/danmuck/tabletctl/internal/routing"
)

// TabletSpec seeds one tablet in the model.
type TabletSpec struct {
	Name        string   `toml:"name" json:"name"`
	Model       string   `toml:"model" json:"model"`
	Transducers []string `toml:"transducers" json:"transducers"`
}

// Config seeds the simulated driver.
type Config struct {
	BundleID string
	Tablets  []TabletSpec
	// DefaultControls is the control layout of a default context. Blank
	// contexts start without controls.
	DefaultControls     map[routing.ControlType]uint32
	FunctionsPerControl uint32
	// FirstHandle is the handle given to the first context created.
	FirstHandle uint32
}

func DefaultConfig() Config {
	return Config{
		BundleID: "com.wacom.TabletDriver",
		Tablets: []TabletSpec{
			{Name: "Intuos Pro M", Model: "PTH-660", Transducers: []string{"Pro Pen 2", "Pro Pen 2 Eraser"}},
		},
		DefaultControls: map[routing.ControlType]uint32{
			routing.ControlButton:     8,
			routing.ControlWheel:      1,
			routing.ControlSlider:     2,
			routing.ControlModeToggle: 1,
		},
		FunctionsPerControl: 4,
		FirstHandle:         0x1001,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BundleID == "" {
		c.BundleID = def.BundleID
	}
	if c.Tablets == nil {
		c.Tablets = def.Tablets
	}
	if c.DefaultControls == nil {
		c.DefaultControls = def.DefaultControls
	}
	if c.FunctionsPerControl == 0 {
		c.FunctionsPerControl = def.FunctionsPerControl
	}
	if c.FirstHandle == 0 {
		c.FirstHandle = def.FirstHandle
	}
	return c
}
