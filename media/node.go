package media

import "github.com/gogpu/aether/render"

// Node is the per-clip view of a loaded source: a quad covering the
// composition buffer, textured with the shared texture of the locator.
//
// A node goes stale when its texture is destroyed by Evict; stale nodes are
// dropped by Loader.SweepStaleNodes.
type Node struct {
	clipID  string
	locator string
	kind    Kind
	tex     render.Texture
	mesh    *render.Mesh
}

func newNode(clipID string, res *resource, width, height float32) *Node {
	n := &Node{clipID: clipID, locator: res.locator, kind: res.kind, tex: res.tex}
	n.mesh = render.NewQuad("media/"+clipID, render.NewTextureMaterial(res.tex))
	// Sources are stretched to the buffer regardless of their aspect.
	_ = n.mesh.SetRect(0, 0, width, height)
	return n
}

// ClipID returns the clip the node belongs to.
func (n *Node) ClipID() string { return n.clipID }

// Locator returns the source locator.
func (n *Node) Locator() string { return n.locator }

// Kind returns the media type of the source.
func (n *Node) Kind() Kind { return n.kind }

// Texture returns the shared texture of the source.
func (n *Node) Texture() render.Texture { return n.tex }

// Mesh returns the quad to draw.
func (n *Node) Mesh() *render.Mesh { return n.mesh }

// Stale reports whether the texture behind the node was destroyed.
func (n *Node) Stale() bool { return n.tex.Destroyed() }

func (n *Node) destroy() { n.mesh.Destroy() }
