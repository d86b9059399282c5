// Command desktop runs a compiled imp program in a window: PUT output scrolls
// by, and each GET waits for a number typed on the keyboard.
package main

import (
	"fmt"
	"image/color"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"github.com/chceswieta/kompilator/pkg/compiler"
	"github.com/chceswieta/kompilator/pkg/config"
	"github.com/chceswieta/kompilator/pkg/utils"
)

const (
	screenWidth  = 480
	screenHeight = 480
	lineHeight   = 16
	margin       = 8
)

var (
	face        = text.NewGoXFace(basicfont.Face7x13)
	promptColor = color.RGBA{0xff, 0xd7, 0x00, 0xff}
)

type Game struct {
	term *terminal
}

func (g *Game) Update() error {
	for _, r := range ebiten.AppendInputChars(nil) {
		g.term.typeRune(r)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		g.term.backspace()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadEnter) {
		g.term.submit()
	}
	g.term.step()
	return nil
}

func drawLine(screen *ebiten.Image, s string, row int, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(margin, float64(margin+row*lineHeight))
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, s, face, op)
}

func (g *Game) Draw(screen *ebiten.Image) {
	for i, line := range g.term.lines {
		drawLine(screen, line, i, color.White)
	}
	drawLine(screen, g.term.promptLine(), len(g.term.lines), promptColor)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: desktop file.imp [--show-asm]")
		os.Exit(2)
	}
	cfg := config.Load()

	filename := os.Args[1]
	showAsm := false
	for _, arg := range os.Args[2:] {
		if arg == "--show-asm" {
			showAsm = true
		}
	}

	fullPath, _, err := utils.GetPathInfo(filename)
	if err != nil {
		log.Fatalf("Bad path %q: %v", filename, err)
	}
	source, err := os.ReadFile(fullPath)
	if err != nil {
		log.Fatalf("Failed to read source file: %v", err)
	}

	code, err := compiler.Compile(string(source))
	if err != nil {
		log.Fatalf("Compilation failed: %v", err)
	}
	if showAsm {
		fmt.Print(code.String())
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("kompilator: " + filename)

	game := &Game{term: newTerminal(code, cfg.MaxSteps)}
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
