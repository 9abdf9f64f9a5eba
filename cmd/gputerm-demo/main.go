// Command gputerm-demo is a minimal host for the gputerm grid library: it
// opens a window, builds a dynamic-atlas-backed Grid, writes a greeting,
// and exits on any key press or window-close. It exists to exercise the
// library end to end, not as a terminal emulator: no ANSI parsing, input
// routing, or scrollback lives here (out of scope, see SPEC_FULL.md
// Non-goals).
package main

import (
	"fmt"
	"os"

	"github.com/bloeys/gglm/gglm"
	"github.com/bloeys/gputerm/atlas"
	"github.com/bloeys/gputerm/glyph"
	"github.com/bloeys/gputerm/grid"
	"github.com/bloeys/gputerm/internal/glog"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	windowTitle = "gputerm demo"
	cols, rows  = 80, 24
)

func main() {
	if err := run(); err != nil {
		glog.Errorf("gputerm-demo: %v", err)
		os.Exit(1)
	}
}

func run() error {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return fmt.Errorf("sdl init: %w", err)
	}
	defer sdl.Quit()

	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 4)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 1)

	cellW, cellH := int32(10), int32(18)
	windowSize := gglm.NewVec2(float32(cols*int(cellW)), float32(rows*int(cellH)))

	window, err := sdl.CreateWindow(
		windowTitle,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(windowSize.X()), int32(windowSize.Y()),
		sdl.WINDOW_OPENGL|sdl.WINDOW_SHOWN,
	)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer window.Destroy()

	glContext, err := window.GLCreateContext()
	if err != nil {
		return fmt.Errorf("create GL context: %w", err)
	}
	defer sdl.GLDeleteContext(glContext)

	if err := gl.Init(); err != nil {
		return fmt.Errorf("init GL: %w", err)
	}

	rasterizer, err := atlas.NewFreetypeRasterizer(atlas.FreetypeOptions{
		FontFile: envOr("GPUTERM_FONT", "/usr/share/fonts/truetype/dejavu/DejaVuSansMono.ttf"),
		FontSize: 14,
		CellW:    cellW,
		CellH:    cellH,
	})
	if err != nil {
		return fmt.Errorf("build rasterizer: %w", err)
	}

	underline := atlas.NewLineDecoration(0.9, 0.08)
	strike := atlas.NewLineDecoration(0.5, 0.08)

	dynAtlas, err := atlas.NewDynamicAtlas(rasterizer, underline, strike)
	if err != nil {
		return fmt.Errorf("build dynamic atlas: %w", err)
	}

	g, err := grid.New(cols, rows, dynAtlas)
	if err != nil {
		return fmt.Errorf("build grid: %w", err)
	}
	defer g.Delete()

	greeting := "Hello, gputerm!"
	runes := make([]string, 0, len(greeting))
	for _, r := range greeting {
		runes = append(runes, string(r))
	}
	g.UpdateCells(grid.Index(cols, 2, 1), runes, glyph.StyleNormal, 0xFFFFFFFF, 0xFF202020)
	if err := g.FlushCells(); err != nil {
		return fmt.Errorf("flush cells: %w", err)
	}

	projection := orthoPixelSpace(windowSize.X(), windowSize.Y())

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	running := true
	for running {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch event.(type) {
			case *sdl.QuitEvent:
				running = false
			case *sdl.KeyboardEvent:
				running = false
			}
		}

		gl.ClearColor(0.1, 0.1, 0.1, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT)

		g.Render(projection, 0, 0)

		window.GLSwap()
	}

	return nil
}

// orthoPixelSpace builds a column-major orthographic projection matrix
// mapping pixel coordinates (0,0) top-left .. (w,h) bottom-right to clip
// space, std140-ready for VertexUBO.
func orthoPixelSpace(w, h float32) [16]float32 {
	return [16]float32{
		2 / w, 0, 0, 0,
		0, -2 / h, 0, 0,
		0, 0, -1, 0,
		-1, 1, 0, 1,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
