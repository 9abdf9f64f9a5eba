package grid

import (
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// quadVertex is one corner of the shared unit quad every cell instances.
type quadVertex struct {
	Pos [2]float32
	UV  [2]float32
}

// quadVertices is a single (0,0)-(1,1) quad, two triangles via the index
// buffer below.
var quadVertices = [4]quadVertex{
	{Pos: [2]float32{0, 0}, UV: [2]float32{0, 0}},
	{Pos: [2]float32{1, 0}, UV: [2]float32{1, 0}},
	{Pos: [2]float32{1, 1}, UV: [2]float32{1, 1}},
	{Pos: [2]float32{0, 1}, UV: [2]float32{0, 1}},
}

var quadIndices = [6]uint16{0, 1, 2, 2, 3, 0}

// bufferSet is the GPU-buffer surface Grid depends on. Grid holds this
// interface rather than *instanceBuffers directly so grid_test.go can swap
// in a fake that never touches a live GL context, the same reason
// atlas.NewStaticAtlasFromData is split from its own UploadTexture.
type bufferSet interface {
	uploadStatic(cells []CellStatic)
	uploadDynamicRange(start int, cells []CellDynamic)
	draw(instanceCount int)
	delete()
}

var _ bufferSet = (*instanceBuffers)(nil)

// instanceBuffers owns the shared quad mesh plus the two per-cell instanced
// buffers (CellStatic, CellDynamic). The instanced-attribute (divisor 1)
// setup is raw go-gl, in the same spirit as the teacher's manual
// vertex-array work for its glyph quads.
type instanceBuffers struct {
	vao uint32

	quadVBO uint32
	quadEBO uint32

	staticVBO  uint32
	dynamicVBO uint32

	capacity int
}

func newInstanceBuffers(capacity int) *instanceBuffers {
	b := &instanceBuffers{capacity: capacity}

	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)

	gl.GenBuffers(1, &b.quadVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.quadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, int(unsafe.Sizeof(quadVertices)), gl.Ptr(&quadVertices[0]), gl.STATIC_DRAW)

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, int32(unsafe.Sizeof(quadVertex{})), gl.PtrOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, int32(unsafe.Sizeof(quadVertex{})), gl.PtrOffset(int(unsafe.Sizeof([2]float32{}))))

	gl.GenBuffers(1, &b.quadEBO)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.quadEBO)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, int(unsafe.Sizeof(quadIndices)), gl.Ptr(&quadIndices[0]), gl.STATIC_DRAW)

	gl.GenBuffers(1, &b.staticVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.staticVBO)
	gl.BufferData(gl.ARRAY_BUFFER, capacity*int(unsafe.Sizeof(CellStatic{})), nil, gl.DYNAMIC_DRAW)

	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 2, gl.FLOAT, false, int32(unsafe.Sizeof(CellStatic{})), gl.PtrOffset(0))
	gl.VertexAttribDivisor(2, 1)

	gl.GenBuffers(1, &b.dynamicVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.dynamicVBO)
	gl.BufferData(gl.ARRAY_BUFFER, capacity*int(unsafe.Sizeof(CellDynamic{})), nil, gl.DYNAMIC_DRAW)

	// CellDynamic is its two words, Word0 then Word1 (8 bytes, no padding);
	// the fragment shader unpacks glyph id and fg/bg RGB out of the pair.
	stride := int32(unsafe.Sizeof(CellDynamic{}))
	gl.EnableVertexAttribArray(3)
	gl.VertexAttribIPointer(3, 1, gl.UNSIGNED_INT, stride, gl.PtrOffset(0))
	gl.VertexAttribDivisor(3, 1)

	gl.EnableVertexAttribArray(4)
	gl.VertexAttribIPointer(4, 1, gl.UNSIGNED_INT, stride, gl.PtrOffset(4))
	gl.VertexAttribDivisor(4, 1)

	gl.BindVertexArray(0)
	return b
}

// uploadStatic replaces the grid-position buffer in full (called by
// Resize, not per frame).
func (b *instanceBuffers) uploadStatic(cells []CellStatic) {
	gl.BindBuffer(gl.ARRAY_BUFFER, b.staticVBO)
	if len(cells) > b.capacity {
		gl.BufferData(gl.ARRAY_BUFFER, len(cells)*int(unsafe.Sizeof(CellStatic{})), gl.Ptr(&cells[0]), gl.DYNAMIC_DRAW)
		b.capacity = len(cells)
	} else if len(cells) > 0 {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(cells)*int(unsafe.Sizeof(CellStatic{})), gl.Ptr(&cells[0]))
	}
}

// uploadDynamicRange replaces a contiguous slice of the dynamic buffer
// starting at cell index `start`, for sparse per-frame updates.
func (b *instanceBuffers) uploadDynamicRange(start int, cells []CellDynamic) {
	if len(cells) == 0 {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, b.dynamicVBO)
	offset := start * int(unsafe.Sizeof(CellDynamic{}))
	gl.BufferSubData(gl.ARRAY_BUFFER, offset, len(cells)*int(unsafe.Sizeof(CellDynamic{})), gl.Ptr(&cells[0]))
}

func (b *instanceBuffers) draw(instanceCount int) {
	if instanceCount <= 0 {
		return
	}
	gl.BindVertexArray(b.vao)
	gl.DrawElementsInstanced(gl.TRIANGLES, int32(len(quadIndices)), gl.UNSIGNED_SHORT, nil, int32(instanceCount))
	gl.BindVertexArray(0)
}

func (b *instanceBuffers) delete() {
	gl.DeleteVertexArrays(1, &b.vao)
	gl.DeleteBuffers(1, &b.quadVBO)
	gl.DeleteBuffers(1, &b.quadEBO)
	gl.DeleteBuffers(1, &b.staticVBO)
	gl.DeleteBuffers(1, &b.dynamicVBO)
}
