package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file (yaml or toml)")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagScene     = flag.String("scene", "", "Scene manifest path")
	flagScript    = flag.String("script", "", "Replay script path")
	flagOut       = flag.String("out", "", "Output directory")
	flagStiffness = flag.Float64("stiffness", 0, "Anchor spring stiffness")
	flagNoPreview = flag.Bool("no-preview", false, "Skip writing the preview image")
	flagRealtime  = flag.Bool("realtime", false, "Pace replay at the haptic update rate")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// Args returns the non-flag arguments.
func Args() []string {
	return flag.Args()
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagScene != "" {
		cfg.Scene.Manifest = *flagScene
	}
	if *flagScript != "" {
		cfg.Scene.Script = *flagScript
	}
	if *flagOut != "" {
		cfg.Output.Dir = *flagOut
	}
	if *flagStiffness > 0 {
		cfg.Haptics.SpringStiffness = float32(*flagStiffness)
	}
	if *flagNoPreview {
		cfg.Output.Preview = false
	}
	if *flagRealtime {
		cfg.Haptics.Realtime = true
	}
}
