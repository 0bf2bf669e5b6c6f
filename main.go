package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"go-midifx/arp"
	"go-midifx/config"
	"go-midifx/debug"
	"go-midifx/eventlog"
	"go-midifx/midi"
	"go-midifx/processor"
	"go-midifx/scale"
	"go-midifx/theme"
	"go-midifx/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.Debug {
		if err := debug.Enable(); err != nil {
			fmt.Printf("Warning: debug log unavailable: %v\n", err)
		}
		defer debug.Disable()
	}

	// Load theme, with an optional .gpl palette override next to the config
	palette := theme.Default()
	if dir, err := config.ConfigDir(); err == nil {
		if p, err := theme.LoadGPL(filepath.Join(dir, "theme.gpl")); err == nil {
			palette = p
		}
	}
	th := theme.New(palette)

	// Open MIDI ports
	ports := midi.NewPortManager()
	defer ports.Close()

	outName := midi.FindOutPort(cfg.Ports.OutputHint)
	if outName == "" {
		outs := midi.OutPortNames()
		if len(outs) == 0 {
			fmt.Println("No MIDI output ports available")
			os.Exit(1)
		}
		outName = outs[0]
	}
	send, err := ports.OpenOutput(outName)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	inputs := cfg.Ports.Inputs
	if len(inputs) == 0 {
		inputs = midi.FilterInputs(midi.InPortNames(), outName)
	}
	if len(inputs) == 0 {
		fmt.Println("No MIDI input ports available")
		os.Exit(1)
	}
	for _, name := range inputs {
		if err := ports.Listen(name); err != nil {
			fmt.Printf("Warning: %v\n", err)
		}
	}

	// Build the pipeline engine from config
	sc := scale.Definition{
		Root: scale.ParseRoot(cfg.Scale.Root),
		Type: scale.ParseType(cfg.Scale.Type),
	}
	log := eventlog.New(eventlog.DefaultCapacity)

	engine := processor.NewEngine(ports.Events(), processor.Options{
		Scale:      sc,
		Intervals:  cfg.Harmony.Intervals,
		VoiceLimit: cfg.Harmony.VoiceLimit,
		Tempo:      cfg.Arp.Tempo,
		Swing:      cfg.Arp.Swing,
		PPQN:       cfg.Arp.PPQN,
		Gate:       cfg.Arp.Gate,
		Send:       send,
		Log:        log,
		Dropped:    ports.Dropped,
	})
	go engine.Run()
	defer engine.Stop()

	applyConfig(engine, cfg)

	fmt.Printf("go-midifx  out: %s\n", outName)
	for _, name := range inputs {
		fmt.Printf("           in:  %s\n", name)
	}
	fmt.Println("")

	m := tui.NewModel(engine, log, th)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// applyConfig pushes the saved session settings into the running engine.
func applyConfig(engine *processor.Engine, cfg *config.Config) {
	engine.SetScaleEnabled(cfg.Scale.Enabled)
	engine.SetArpMode(arp.ParseMode(cfg.Arp.Mode))
	if len(cfg.Arp.Steps) > 0 {
		steps := make([]arp.Step, len(cfg.Arp.Steps))
		for i, on := range cfg.Arp.Steps {
			steps[i] = arp.Step{Active: on, VelocityScale: 1.0}
		}
		engine.SetPattern(arp.NewPattern(steps))
	}
	engine.SetLatch(cfg.Arp.Latch)
	engine.SetTranspose(cfg.Output.Transpose)
	engine.SetOctave(cfg.Output.Octave)
	engine.SetChannel(cfg.Output.Channel)
	if cfg.Harmony.Enabled {
		engine.SetHarmonyEnabled(true)
	}
	if cfg.Arp.Enabled {
		engine.SetArpEnabled(true)
	}
}
