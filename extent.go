// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package upscale

// Extent is a 2D size in storage order: rows first, then columns.
//
// Kernels and devices address images as (x, y) with x running along a row,
// which is the reverse of row-major storage. Every conversion between the
// two conventions goes through Extent so the rest of the package can work
// in (row, column) only.
type Extent struct {
	Rows, Cols int
}

// DispatchSize is a 2D size in device addressing order: X counts columns,
// Y counts rows.
type DispatchSize struct {
	X, Y int
}

// Dispatch returns the device-order size covering e.
func (e Extent) Dispatch() DispatchSize {
	return DispatchSize{X: e.Cols, Y: e.Rows}
}

// Scaled returns the extent multiplied by s along both axes.
func (e Extent) Scaled(s int) Extent {
	return Extent{Rows: e.Rows * s, Cols: e.Cols * s}
}

// Len returns the number of cells in e.
func (e Extent) Len() int {
	return e.Rows * e.Cols
}

// Empty reports whether e has no cells.
func (e Extent) Empty() bool {
	return e.Rows <= 0 || e.Cols <= 0
}

// Extent converts a device-order size back to storage order.
func (d DispatchSize) Extent() Extent {
	return Extent{Rows: d.Y, Cols: d.X}
}

// Workgroups returns the number of workgroups of the given size needed to
// cover d, rounding up on each axis.
func (d DispatchSize) Workgroups(sizeX, sizeY int) (x, y int) {
	return (d.X + sizeX - 1) / sizeX, (d.Y + sizeY - 1) / sizeY
}
