package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/extra/devices/screen"
	"periph.io/x/host/v3"

	"github.com/coreman2200/breakout-garden/internal/config"
	"github.com/coreman2200/breakout-garden/internal/garden"
	"github.com/coreman2200/breakout-garden/internal/pattern"
	"github.com/coreman2200/breakout-garden/is31fl3731"
)

func main() {
	// ---- Flags (config.yaml overrides where set) ----
	def := config.Default()
	var (
		busName     = flag.String("bus", def.Bus, "I2C bus name (empty for the first one)")
		speedKHz    = flag.Int("speed-khz", def.SpeedKHz, "I2C bus speed (kHz)")
		fps         = flag.Int("fps", def.FPS, "matrix frames per second")
		interval    = flag.Duration("sample-interval", def.SampleInterval, "barometer sampling period")
		patName     = flag.String("pattern", def.Pattern, "matrix pattern: rainbow | sweep | gauge")
		brightness  = flag.Float64("brightness", *def.Matrix.Brightness, "global matrix brightness 0..1")
		gamma       = flag.Float64("gamma", 0, "power-law gamma exponent (0 keeps the built-in curve)")
		simOnly     = flag.Bool("sim", false, "force simulation (no hardware I/O)")
		configPath  = flag.String("config", "config.yaml", "path to config.yaml")
		writeConfig = flag.Bool("write-config", false, "write the effective config to -config and exit")
		verbose     = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	// ---- Effective config ----
	cfg := &config.Config{
		Bus:            *busName,
		SpeedKHz:       *speedKHz,
		FPS:            *fps,
		SampleInterval: *interval,
		Pattern:        *patName,
		Sim:            *simOnly,
		Matrix: config.Matrix{
			Addr:       is31fl3731.DefaultAddr,
			Brightness: brightness,
			Gamma:      *gamma,
		},
		Gauge: def.Gauge,
	}
	if c, err := config.Load(*configPath); err != nil {
		if !*writeConfig {
			log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
		}
	} else {
		cfg = overlay(cfg, c)
	}
	if *writeConfig {
		if err := config.Save(*configPath, cfg); err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("config save failed")
		}
		log.Info().Str("path", *configPath).Msg("config written")
		return
	}

	mopts := &is31fl3731.Opts{Addr: cfg.Matrix.Addr, Brightness: cfg.Matrix.Brightness}
	if cfg.Matrix.Gamma > 0 {
		mopts.Gamma = is31fl3731.GammaCurve(cfg.Matrix.Gamma)
	}

	// ---- Bus ----
	bus, present, preview := openBus(cfg)
	defer bus.Close()

	reg, err := garden.NewRegistry(bus, present, mopts)
	if err != nil {
		log.Fatal().Err(err).Msg("registry")
	}
	if len(reg.Addrs()) == 0 {
		log.Warn().Msg("no I2C devices found")
	}

	pats := pattern.Default(cfg.Gauge.MinHPa, cfg.Gauge.MaxHPa)
	pat, ok := pats.Get(cfg.Pattern)
	if !ok {
		log.Warn().Str("pattern", cfg.Pattern).Strs("known", pats.List()).Msg("unknown pattern; using rainbow")
		pat, _ = pats.Get("rainbow")
	}

	// ---- Run ----
	l := garden.NewLooper(reg, pat, cfg.FPS, cfg.SampleInterval, preview)
	log.Info().Str("pattern", pat.Name()).Int("fps", cfg.FPS).Msg("running")
	l.Run(context.Background())

	if err := reg.Halt(); err != nil {
		log.Warn().Err(err).Msg("halt")
	}
}

// openBus opens the hardware I2C bus and probes it. Without hardware it falls
// back to a bus that acknowledges and drops everything, with the matrix assumed present and a console
// preview standing in for the LEDs.
func openBus(cfg *config.Config) (i2c.BusCloser, []uint16, display.Drawer) {
	if !cfg.Sim {
		if _, err := host.Init(); err != nil {
			log.Warn().Err(err).Msg("host init failed; falling back to SIM")
		} else if b, err := i2creg.Open(cfg.Bus); err != nil {
			log.Warn().Err(err).Str("bus", cfg.Bus).Msg("I2C open failed; falling back to SIM")
		} else {
			if err := b.SetSpeed(physic.Frequency(cfg.SpeedKHz) * physic.KiloHertz); err != nil {
				log.Warn().Err(err).Int("speed_khz", cfg.SpeedKHz).Msg("bus speed unchanged")
			}
			present := garden.Probe(b)
			for _, a := range present {
				log.Info().Hex("addr", []byte{byte(a)}).Str("device", garden.Known[a]).Msg("found")
			}
			return b, present, nil
		}
	}
	return simBus{}, []uint16{cfg.Matrix.Addr}, screen.New(is31fl3731.NumPixels)
}

// overlay returns base with every non-zero field of c applied on top.
func overlay(base, c *config.Config) *config.Config {
	out := *base
	if c.Bus != "" {
		out.Bus = c.Bus
	}
	if c.SpeedKHz > 0 {
		out.SpeedKHz = c.SpeedKHz
	}
	if c.FPS > 0 {
		out.FPS = c.FPS
	}
	if c.SampleInterval > 0 {
		out.SampleInterval = c.SampleInterval
	}
	if c.Pattern != "" {
		out.Pattern = c.Pattern
	}
	out.Sim = out.Sim || c.Sim
	if c.Matrix.Addr != 0 {
		out.Matrix.Addr = c.Matrix.Addr
	}
	if c.Matrix.Brightness != nil {
		out.Matrix.Brightness = c.Matrix.Brightness
	}
	if c.Matrix.Gamma > 0 {
		out.Matrix.Gamma = c.Matrix.Gamma
	}
	if c.Gauge.MaxHPa > c.Gauge.MinHPa {
		out.Gauge = c.Gauge
	}
	return &out
}

// simBus acknowledges every transaction and reads zeros.
type simBus struct{}

func (simBus) String() string { return "sim" }

func (simBus) Tx(addr uint16, w, r []byte) error {
	for i := range r {
		r[i] = 0
	}
	return nil
}

func (simBus) SetSpeed(physic.Frequency) error { return nil }

func (simBus) Close() error { return nil }
