package fabric

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// CommandType identifies the kind of recorded draw command.
type CommandType uint8

const (
	CommandClear     CommandType = iota // Target.Clear
	CommandFill                         // Target.Fill
	CommandImage                        // Target.DrawImage
	CommandTriangles                    // Target.DrawTriangles
)

// maxBatchVertices is the vertex ceiling of one DrawTriangles call with
// 16-bit indices.
const maxBatchVertices = 1 << 16

// DrawCommand is a single recorded draw instruction.
type DrawCommand struct {
	Type       CommandType
	Target     *ebiten.Image
	Image      *ebiten.Image
	Color      Color
	GeoM       ebiten.GeoM
	ColorScale ebiten.ColorScale
	Blend      BlendMode

	// Triangle-only fields. Owned by the buffer.
	Vertices []ebiten.Vertex
	Indices  []uint16
}

// batchKey groups triangle commands that can be submitted in a single draw
// call.
type batchKey struct {
	target *ebiten.Image
	image  *ebiten.Image
	blend  BlendMode
}

func commandBatchKey(cmd *DrawCommand) batchKey {
	return batchKey{target: cmd.Target, image: cmd.Image, blend: cmd.Blend}
}

// CommandBuffer records draw work during a tick. Recording never touches the
// GPU; Commit submits everything in order.
type CommandBuffer struct {
	commands []DrawCommand
	verts    []ebiten.Vertex
	inds     []uint16
	imgOp    ebiten.DrawImageOptions
	triOp    ebiten.DrawTrianglesOptions
}

// NewCommandBuffer creates an empty buffer.
func NewCommandBuffer() *CommandBuffer {
	return &CommandBuffer{commands: make([]DrawCommand, 0, 256)}
}

// Clear records clearing target to transparent black.
func (cb *CommandBuffer) Clear(target *ebiten.Image) {
	cb.commands = append(cb.commands, DrawCommand{Type: CommandClear, Target: target})
}

// Fill records filling target with c.
func (cb *CommandBuffer) Fill(target *ebiten.Image, c Color) {
	cb.commands = append(cb.commands, DrawCommand{Type: CommandFill, Target: target, Color: c})
}

// DrawImage records drawing img onto target.
func (cb *CommandBuffer) DrawImage(target, img *ebiten.Image, geoM ebiten.GeoM, scale ebiten.ColorScale, blend BlendMode) {
	cb.commands = append(cb.commands, DrawCommand{
		Type:       CommandImage,
		Target:     target,
		Image:      img,
		GeoM:       geoM,
		ColorScale: scale,
		Blend:      blend,
	})
}

// DrawTriangles records a triangle list. verts and inds are copied, so the
// caller may reuse them immediately.
func (cb *CommandBuffer) DrawTriangles(target, img *ebiten.Image, verts []ebiten.Vertex, inds []uint16, blend BlendMode) {
	if len(verts) == 0 || len(inds) == 0 {
		return
	}
	cmd := DrawCommand{
		Type:     CommandTriangles,
		Target:   target,
		Image:    img,
		Blend:    blend,
		Vertices: append([]ebiten.Vertex(nil), verts...),
		Indices:  append([]uint16(nil), inds...),
	}
	cb.commands = append(cb.commands, cmd)
}

// Len returns the number of recorded commands.
func (cb *CommandBuffer) Len() int { return len(cb.commands) }

// Commands returns the recorded commands. The slice is only valid until the
// next Commit or Reset.
func (cb *CommandBuffer) Commands() []DrawCommand { return cb.commands }

// Reset drops all recorded commands without submitting them.
func (cb *CommandBuffer) Reset() {
	for i := range cb.commands {
		cb.commands[i] = DrawCommand{}
	}
	cb.commands = cb.commands[:0]
}

// Commit submits the recorded commands in order, merging contiguous triangle
// commands that share a batch key, and empties the buffer. It returns the
// number of backend draw calls issued.
func (cb *CommandBuffer) Commit() int {
	calls := 0
	for i := 0; i < len(cb.commands); {
		cmd := &cb.commands[i]
		if cmd.Target == nil {
			i++
			continue
		}
		switch cmd.Type {
		case CommandClear:
			cmd.Target.Clear()
			calls++
			i++
		case CommandFill:
			cmd.Target.Fill(cmd.Color.toRGBA())
			calls++
			i++
		case CommandImage:
			if cmd.Image != nil {
				op := &cb.imgOp
				op.GeoM = cmd.GeoM
				op.ColorScale = cmd.ColorScale
				op.Blend = cmd.Blend.EbitenBlend()
				cmd.Target.DrawImage(cmd.Image, op)
				calls++
			}
			i++
		case CommandTriangles:
			i = cb.submitBatch(i)
			calls++
		default:
			i++
		}
	}
	cb.Reset()
	return calls
}

// submitBatch merges triangle commands starting at start and issues one
// DrawTriangles call. Returns the index of the first unconsumed command.
func (cb *CommandBuffer) submitBatch(start int) int {
	first := &cb.commands[start]
	key := commandBatchKey(first)
	cb.verts = cb.verts[:0]
	cb.inds = cb.inds[:0]

	i := start
	for ; i < len(cb.commands); i++ {
		cmd := &cb.commands[i]
		if cmd.Type != CommandTriangles || commandBatchKey(cmd) != key {
			break
		}
		if i > start && len(cb.verts)+len(cmd.Vertices) > maxBatchVertices {
			break
		}
		base := uint16(len(cb.verts))
		cb.verts = append(cb.verts, cmd.Vertices...)
		for _, idx := range cmd.Indices {
			cb.inds = append(cb.inds, base+idx)
		}
	}

	img := first.Image
	if img == nil {
		img = ensureWhitePixel()
	}
	cb.triOp.Blend = key.blend.EbitenBlend()
	first.Target.DrawTriangles(cb.verts, cb.inds, img, &cb.triOp)
	return i
}

// countBatches reports how many draw calls Commit would issue for the
// currently recorded commands.
func (cb *CommandBuffer) countBatches() int {
	count := 0
	vertsInBatch := 0
	var prev batchKey
	inBatch := false
	for i := range cb.commands {
		cmd := &cb.commands[i]
		if cmd.Target == nil || (cmd.Type == CommandImage && cmd.Image == nil) {
			inBatch = false
			continue
		}
		if cmd.Type != CommandTriangles {
			count++
			inBatch = false
			continue
		}
		key := commandBatchKey(cmd)
		if inBatch && key == prev && vertsInBatch+len(cmd.Vertices) <= maxBatchVertices {
			vertsInBatch += len(cmd.Vertices)
			continue
		}
		count++
		prev = key
		inBatch = true
		vertsInBatch = len(cmd.Vertices)
	}
	return count
}
