package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/coreman2200/breakout-garden/internal/config"
)

func TestOverlay(t *testing.T) {
	base := config.Default()
	base.FPS = 10
	base.Sim = true

	dim := 0.1
	got := overlay(base, &config.Config{
		Pattern:        "gauge",
		SampleInterval: time.Second,
		Matrix:         config.Matrix{Brightness: &dim},
		Gauge:          config.Gauge{MinHPa: 950, MaxHPa: 1050},
	})
	assert.Equal(t, 10, got.FPS)
	assert.True(t, got.Sim)
	assert.Equal(t, "gauge", got.Pattern)
	assert.Equal(t, time.Second, got.SampleInterval)
	assert.Equal(t, 0.1, *got.Matrix.Brightness)
	assert.Equal(t, uint16(0x74), got.Matrix.Addr)
	assert.Equal(t, config.Gauge{MinHPa: 950, MaxHPa: 1050}, got.Gauge)
	// base is left alone.
	assert.Equal(t, "rainbow", base.Pattern)
}

func TestOverlayZeroBrightness(t *testing.T) {
	off := 0.0
	got := overlay(config.Default(), &config.Config{Matrix: config.Matrix{Brightness: &off}})
	assert.Zero(t, *got.Matrix.Brightness)

	got = overlay(config.Default(), &config.Config{})
	assert.Equal(t, 0.5, *got.Matrix.Brightness)
}

func TestOverlayIgnoresBadGauge(t *testing.T) {
	base := config.Default()
	got := overlay(base, &config.Config{Gauge: config.Gauge{MinHPa: 1000, MaxHPa: 1000}})
	assert.Equal(t, base.Gauge, got.Gauge)
}

func TestSimBus(t *testing.T) {
	b := simBus{}
	r := []byte{1, 2}
	assert.NoError(t, b.Tx(0x74, []byte{0xfd, 0}, r))
	assert.Equal(t, []byte{0, 0}, r)
	assert.NoError(t, b.Close())
}
