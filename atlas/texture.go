package atlas

import (
	"github.com/bloeys/gputerm/assert"
	"github.com/go-gl/gl/v4.1-core/gl"
)

// glyphsPerLayer is the fixed vertical strip height of a texture-array
// layer: 32 glyph cells stacked in a single column (spec.md section 4.3).
const glyphsPerLayer = cellsPerSlice

// arrayTexture wraps a GL_TEXTURE_2D_ARRAY holding every glyph cell the
// atlas can address. Raw go-gl, grounded on the teacher's
// updateFontAtlasTexture upload pattern in the deleted glyphs/glyphs.go and
// on beamterm-renderer's gl/texture.rs layout.
type arrayTexture struct {
	id           uint32
	cellW, cellH int32
	layers       int32
}

// textureBackend is the GPU-texture surface DynamicAtlas depends on.
// DynamicAtlas holds this interface rather than *arrayTexture directly so
// dynamic_test.go can swap in a fake that never touches a live GL context,
// the same reason grid.Grid holds a bufferSet interface instead of
// *instanceBuffers.
type textureBackend interface {
	uploadSlot(id SlotID, rgba []byte)
	delete()
	textureID() uint32
}

var _ textureBackend = (*arrayTexture)(nil)

// newTextureBackend constructs the GPU texture backing a dynamic atlas of
// the given cell size and layer count. Overridden in dynamic_test.go.
var newTextureBackend = func(cellW, cellH, layers int32) (textureBackend, error) {
	return newArrayTexture(cellW, cellH, layers)
}

// newArrayTexture allocates (but does not populate) a GL_TEXTURE_2D_ARRAY
// sized to hold `layers` vertical strips of glyphsPerLayer cells each
// cellW x cellH pixels.
func newArrayTexture(cellW, cellH, layers int32) (*arrayTexture, error) {
	assert.T(cellW > 0 && cellH > 0 && layers > 0, "invalid array texture dimensions")

	var id uint32
	gl.GenTextures(1, &id)
	if id == 0 {
		return nil, newResourceError("texture", "glGenTextures returned 0")
	}

	t := &arrayTexture{id: id, cellW: cellW, cellH: cellH, layers: layers}

	gl.BindTexture(gl.TEXTURE_2D_ARRAY, id)
	gl.TexImage3D(
		gl.TEXTURE_2D_ARRAY, 0, gl.RGBA8,
		cellW, cellH*glyphsPerLayer, layers,
		0, gl.RGBA, gl.UNSIGNED_BYTE, nil,
	)

	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_BASE_LEVEL, 0)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_MAX_LEVEL, 0)

	gl.BindTexture(gl.TEXTURE_2D_ARRAY, 0)
	return t, nil
}

// uploadAll replaces the entire contents of layer 0..layers-1 with data, a
// tightly-packed RGBA8 buffer of size width*height*layers*4 where height is
// glyphsPerLayer*cellH pixels per layer. Used once by the static atlas at
// load time.
func (t *arrayTexture) uploadAll(data []byte) {
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, t.id)
	gl.TexSubImage3D(
		gl.TEXTURE_2D_ARRAY, 0,
		0, 0, 0,
		t.cellW, t.cellH*glyphsPerLayer, t.layers,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(data),
	)
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, 0)
}

// uploadSlot replaces a single glyph cell's worth of texels at the given
// slot id. The slot addressing is layer=id/glyphsPerLayer,
// y_offset=(id%glyphsPerLayer)*cellH, matching the fragment shader's own
// addressing math (spec.md section 4.3/5.2).
func (t *arrayTexture) uploadSlot(id SlotID, rgba []byte) {
	layer := int32(id) / glyphsPerLayer
	yOffset := (int32(id) % glyphsPerLayer) * t.cellH

	gl.BindTexture(gl.TEXTURE_2D_ARRAY, t.id)
	gl.TexSubImage3D(
		gl.TEXTURE_2D_ARRAY, 0,
		0, yOffset, layer,
		t.cellW, t.cellH, 1,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba),
	)
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, 0)
}

// bind activates the texture on the given texture unit for sampling.
func (t *arrayTexture) bind(unit uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, t.id)
}

// delete releases the GPU texture object. Safe to call once.
func (t *arrayTexture) delete() {
	if t.id == 0 {
		return
	}
	gl.DeleteTextures(1, &t.id)
	t.id = 0
}

// textureID implements textureBackend.
func (t *arrayTexture) textureID() uint32 { return t.id }
