// Package fabric is a dataflow render-graph engine for [Ebitengine].
//
// A program is a [Graph] of typed [Node]s wired outlet-to-inlet. Every tick a
// [GraphExecutor] resolves the dependencies of the renderable and camera
// nodes depth-first, executes each dirty node at most once, collects the
// resulting scene objects and cameras, and hands them to a [Renderer].
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	g := fabric.NewGraph()
//	geo := fabric.NewRectGeometryNode("quad", 64, 64)
//	mat := fabric.NewMaterialNode("red")
//	mat.Color = fabric.Color{R: 1, A: 1}
//	mesh := fabric.NewMeshNode("box")
//	cam := fabric.NewCameraNode("camera")
//	g.MustAddNode(geo, mat, mesh, cam)
//	g.MustConnect(geo.OutputGeometry, mesh.InputGeometry)
//	g.MustConnect(mat.OutputMaterial, mesh.InputMaterial)
//
//	exec := fabric.NewGraphExecutor(g, fabric.NewSceneRenderer())
//	fabric.Run(exec, fabric.RunConfig{Title: "Box", Width: 640, Height: 480})
//
// For full control, implement [ebiten.Game] yourself and call
// [GraphExecutor.OnResize], [GraphExecutor.OnFrame] and [CommandBuffer.Commit]
// directly, or wrap the executor with [NewGame].
//
// # Ports
//
// Values flow through [Outlet] and [Inlet] ports. An inlet stores only the id
// of its upstream outlet and resolves the value on every read, so removing a
// node never leaves dangling references. A value is absent until its outlet
// first sends one, and becomes absent again when the producing node faults or
// its inputs go missing.
//
// # Dirty tracking
//
// A node executes only while dirty. Executing a node marks its consumers
// dirty. Nodes that animate ([TweenNode]) or render ([RenderNode]) report
// dirty on their own.
//
// # Cycles
//
// Connections may form cycles. When traversal meets a node that is already
// on the active path, the consumer reads that node's value from the previous
// tick, so feedback loops advance one step per frame.
//
// # Observability
//
// The executor logs through [zerolog], traces each tick through an
// OpenTelemetry tracer, and reports [FrameStats] to a [FrameObserver]. The
// metrics subpackage provides Prometheus and OpenTelemetry observers.
//
// # Captures and scripts
//
// [Game.Screenshot] writes the next committed frame to a PNG. A [Script]
// loaded with [LoadScript] drives unattended runs: it waits, captures,
// toggles nodes by name and quits.
//
// [Ebitengine]: https://ebitengine.org
// [zerolog]: https://github.com/rs/zerolog
package fabric
