package upscale

import "testing"

func TestExtentDispatchReversesAxes(t *testing.T) {
	e := Extent{Rows: 3, Cols: 7}
	d := e.Dispatch()
	if d.X != 7 || d.Y != 3 {
		t.Errorf("Dispatch() = %+v, want X=7 Y=3", d)
	}
	if d.Extent() != e {
		t.Errorf("Dispatch().Extent() = %+v, want %+v", d.Extent(), e)
	}
}

func TestExtentScaled(t *testing.T) {
	e := Extent{Rows: 3, Cols: 7}.Scaled(5)
	if e.Rows != 15 || e.Cols != 35 || e.Len() != 525 {
		t.Errorf("Scaled(5) = %+v (len %d), want 15x35 (525)", e, e.Len())
	}
	if e.Empty() {
		t.Error("scaled extent should not be empty")
	}
	if !(Extent{Rows: 0, Cols: 4}).Empty() {
		t.Error("0x4 extent should be empty")
	}
}

func TestDispatchSizeWorkgroups(t *testing.T) {
	tests := []struct {
		d      DispatchSize
		wx, wy int
	}{
		{DispatchSize{X: 1, Y: 1}, 1, 1},
		{DispatchSize{X: 8, Y: 8}, 1, 1},
		{DispatchSize{X: 9, Y: 16}, 2, 2},
		{DispatchSize{X: 640, Y: 17}, 80, 3},
	}
	for _, tt := range tests {
		if x, y := tt.d.Workgroups(8, 8); x != tt.wx || y != tt.wy {
			t.Errorf("%+v.Workgroups(8, 8) = (%d, %d), want (%d, %d)", tt.d, x, y, tt.wx, tt.wy)
		}
	}
}
