package grid

import (
	_ "embed"
	"fmt"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
)

var (
	unsafeSizeofVertexUBO   = unsafe.Sizeof(vertexUBOData{})
	unsafeSizeofFragmentUBO = unsafe.Sizeof(fragmentUBOData{})
)

//go:embed shaders/cell.vert
var vertexShaderSource string

//go:embed shaders/cell.frag
var fragmentShaderSource string

// shaderProgram wraps the compiled/linked cell-rendering program and its
// two uniform buffer objects (spec.md section 5.2). Raw go-gl: the
// link/compile/UBO-binding steps are done directly here in the same style
// as the teacher's texture setup.
type shaderProgram struct {
	program uint32

	vertUBO uint32
	fragUBO uint32

	atlasUniformLoc int32
}

// vertexUBOData mirrors the std140 layout of VertexUBO in cell.vert:
// mat4 (64 bytes) then two vec2 (8 bytes each, 8-byte aligned), 80 bytes
// with no padding.
type vertexUBOData struct {
	Projection [16]float32
	CellSize   [2]float32
	GridOrigin [2]float32
}

// fragmentUBOData mirrors FragmentUBO in cell.frag.
type fragmentUBOData struct {
	TextureLookupMask uint32
	DecorationMask    uint32
	UnderlinePos      float32
	UnderlineThick    float32
	StrikePos         float32
	StrikeThick       float32
	BgAlpha           float32
	_pad              float32
}

func newShaderProgram() (*shaderProgram, error) {
	vs, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return nil, err
	}
	defer gl.DeleteShader(vs)

	fs, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return nil, err
	}
	defer gl.DeleteShader(fs)

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(program, logLen, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return nil, fmt.Errorf("gputerm/grid: link cell program: %s", log)
	}

	sp := &shaderProgram{
		program:         program,
		atlasUniformLoc: gl.GetUniformLocation(program, gl.Str("uAtlas\x00")),
	}

	sp.vertUBO = newUBO(program, "VertexUBO\x00", 0)
	sp.fragUBO = newUBO(program, "FragmentUBO\x00", 1)

	return sp, nil
}

func newUBO(program uint32, blockName string, bindingPoint uint32) uint32 {
	var ubo uint32
	gl.GenBuffers(1, &ubo)

	blockIndex := gl.GetUniformBlockIndex(program, gl.Str(blockName))
	if blockIndex != gl.INVALID_INDEX {
		gl.UniformBlockBinding(program, blockIndex, bindingPoint)
	}
	gl.BindBufferBase(gl.UNIFORM_BUFFER, bindingPoint, ubo)
	return ubo
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)

	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("gputerm/grid: compile shader: %s", log)
	}

	return shader, nil
}

func (sp *shaderProgram) use() {
	gl.UseProgram(sp.program)
}

func (sp *shaderProgram) setVertexUBO(data vertexUBOData) {
	gl.BindBuffer(gl.UNIFORM_BUFFER, sp.vertUBO)
	gl.BufferData(gl.UNIFORM_BUFFER, int(unsafeSizeofVertexUBO), gl.Ptr(&data), gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
}

func (sp *shaderProgram) setFragmentUBO(data fragmentUBOData) {
	gl.BindBuffer(gl.UNIFORM_BUFFER, sp.fragUBO)
	gl.BufferData(gl.UNIFORM_BUFFER, int(unsafeSizeofFragmentUBO), gl.Ptr(&data), gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
}

const atlasTextureUnit = 0

// bindAtlasTexture binds texID (a GL_TEXTURE_2D_ARRAY name) to the texture
// unit the fragment shader's uAtlas sampler reads from.
func (sp *shaderProgram) bindAtlasTexture(texID uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + atlasTextureUnit)
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, texID)
	gl.Uniform1i(sp.atlasUniformLoc, atlasTextureUnit)
}

func (sp *shaderProgram) delete() {
	gl.DeleteBuffers(1, &sp.vertUBO)
	gl.DeleteBuffers(1, &sp.fragUBO)
	gl.DeleteProgram(sp.program)
}
