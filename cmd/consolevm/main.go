// main.go - consolevm entry point.
//
// Grounded on main.go's flag-driven CPU-mode-and-filename dispatch, generalized to this
// console's single machine type: load a cartridge image, wire video/audio/debug
// frontends to it, and run. Unlike the teacher's fixed "-ie32|-m68k filename" argument
// pair, the options here are ordinary flags since there is only one machine to boot.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hiraeth-systems/consolecore/internal/console"
	"github.com/hiraeth-systems/consolecore/internal/savestate"
)

func main() {
	var (
		scale     = flag.Int("scale", 3, "integer window scale factor")
		headless  = flag.Bool("headless", false, "run without opening a video/audio window (for automation)")
		debugFlag = flag.Bool("debug", false, "start the interactive debug console on stdin")
		loadState = flag.String("load-state", "", "savestate file to restore before booting")
		maxSteps  = flag.Int64("max-steps", 0, "stop after this many instructions (0 = run forever); only meaningful with -headless")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: consolevm [flags] <rom-file>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	romPath := flag.Arg(0)

	romData, err := os.ReadFile(romPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "consolevm: reading rom: %v\n", err)
		os.Exit(1)
	}

	c := console.New(romData)

	if *loadState != "" {
		if err := savestate.LoadFromFile(c, *loadState); err != nil {
			fmt.Fprintf(os.Stderr, "consolevm: loading savestate: %v\n", err)
			os.Exit(1)
		}
	}

	var dbg *DebugConsole
	quit := make(chan struct{})
	if *debugFlag {
		dbg = NewDebugConsole(c, func() { close(quit) })
		dbg.Start()
		defer dbg.Stop()
	}

	if *headless {
		runHeadless(c, *maxSteps, quit)
		return
	}
	runInteractive(c, *scale, dbg, quit)
}

// runHeadless drives the console with no video or audio output, used for scripted
// automation and testing against a fixed instruction budget.
func runHeadless(c *console.Console, maxSteps int64, quit chan struct{}) {
	var steps int64
	for {
		select {
		case <-quit:
			return
		default:
		}
		c.StepInstruction()
		c.DrainAudioSamples()
		steps++
		if maxSteps > 0 && steps >= maxSteps {
			return
		}
	}
}

// runInteractive opens a video window and audio output and runs the console until the
// window is closed or "quit" is issued at the debug console.
func runInteractive(c *console.Console, scale int, dbg *DebugConsole, quit chan struct{}) {
	video := NewVideoOutput(scale)
	video.Start("consolevm")
	defer video.Stop()

	audio, err := NewAudioOutput()
	if err != nil {
		fmt.Fprintf(os.Stderr, "consolevm: audio init failed, continuing without sound: %v\n", err)
	} else {
		audio.Start()
		defer audio.Close()
	}

	lastVblank := false
	for {
		select {
		case <-quit:
			return
		default:
		}

		pad := video.ControllerState()
		c.Input.Ports[0] = &pad

		if dbg == nil || !dbg.paused {
			c.StepInstruction()
		}

		if audio != nil {
			audio.PushSamples(c.DrainAudioSamples())
		} else {
			c.DrainAudioSamples()
		}

		vblank := c.PPU.Vblank()
		if vblank && !lastVblank {
			video.UpdateFrame(c.ScreenBuffer())
			video.WaitForVSync()
		}
		lastVblank = vblank
	}
}
