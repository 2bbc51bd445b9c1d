// Package main implements the gones NES emulator executable.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/nes-emu/gones/internal/bus"
	"github.com/nes-emu/gones/internal/input"
	"github.com/nes-emu/gones/internal/version"
)

const (
	nesWidth  = 256
	nesHeight = 240
	sampleHz  = 44100
)

func main() {
	var (
		romFile   = flag.String("rom", "", "Path to NES ROM file")
		scale     = flag.Int("scale", 3, "Window scale factor")
		showHelp  = flag.Bool("help", false, "Show help message")
		showVers  = flag.Bool("version", false, "Show version information")
		nestest   = flag.Bool("nestest", false, "Run the nestest trace harness and exit")
	)
	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVers {
		version.PrintBuildInfo()
		os.Exit(0)
	}
	if *romFile == "" {
		log.Fatal("a ROM file is required: -rom <path>")
	}

	rom, err := os.ReadFile(*romFile)
	if err != nil {
		log.Fatalf("failed to read ROM: %v", err)
	}

	console, err := bus.New(rom)
	if err != nil {
		log.Fatalf("failed to load cartridge: %v", err)
	}

	if *nestest {
		console.Nestest(func(line string) { fmt.Println(line) })
		return
	}

	game := newGame(console)

	ebiten.SetWindowTitle("gones - " + *romFile)
	ebiten.SetWindowSize(nesWidth*(*scale), nesHeight*(*scale))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatalf("emulator exited: %v", err)
	}
}

// game implements ebiten.Game on top of a bus.Console: Update steps
// the console for one video frame's worth of simulated time, Draw
// blits the console's framebuffer, and audio samples are pulled
// through an io.Reader-backed stream player.
type game struct {
	console *bus.Console
	image   *ebiten.Image
	pixels  []uint8

	audioPlayer *audio.Player
	audioStream *sampleStream
}

func newGame(console *bus.Console) *game {
	g := &game{
		console: console,
		image:   ebiten.NewImage(nesWidth, nesHeight),
		pixels:  make([]uint8, nesWidth*nesHeight*4),
	}

	g.audioStream = newSampleStream(sampleHz)
	console.SetAudioSampleCallback(g.audioStream.push)

	audioContext := audio.NewContext(sampleHz)
	player, err := audioContext.NewPlayer(g.audioStream)
	if err == nil {
		player.Play()
		g.audioPlayer = player
	}

	return g
}

var keyMap = map[ebiten.Key]input.Button{
	ebiten.KeyZ:          input.ButtonA,
	ebiten.KeyX:          input.ButtonB,
	ebiten.KeySpace:      input.ButtonSelect,
	ebiten.KeyEnter:      input.ButtonStart,
	ebiten.KeyArrowUp:    input.ButtonUp,
	ebiten.KeyArrowDown:  input.ButtonDown,
	ebiten.KeyArrowLeft:  input.ButtonLeft,
	ebiten.KeyArrowRight: input.ButtonRight,
}

func (g *game) Update() error {
	for key, button := range keyMap {
		switch {
		case inpututil.IsKeyJustPressed(key):
			g.console.ButtonDown(1, button)
		case inpututil.IsKeyJustReleased(key):
			g.console.ButtonUp(1, button)
		}
	}

	// One video frame of NTSC time per Update call, matching ebiten's
	// default 60Hz tick rate.
	g.console.RunForSeconds(1.0 / 60.0)
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	frame := g.console.FrameBuffer()
	for i, rgb := range frame {
		o := i * 4
		g.pixels[o] = uint8(rgb >> 16)
		g.pixels[o+1] = uint8(rgb >> 8)
		g.pixels[o+2] = uint8(rgb)
		g.pixels[o+3] = 0xFF
	}
	g.image.WritePixels(g.pixels)

	op := &ebiten.DrawImageOptions{}
	bounds := screen.Bounds()
	scaleX := float64(bounds.Dx()) / nesWidth
	scaleY := float64(bounds.Dy()) / nesHeight
	s := scaleX
	if scaleY < s {
		s = scaleY
	}
	op.GeoM.Scale(s, s)

	screen.Fill(color.Black)
	screen.DrawImage(g.image, op)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}
