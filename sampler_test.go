package upscale

import (
	"testing"
)

func mustGrid(t *testing.T, rows [][]uint16) *Grid {
	t.Helper()
	g, err := GridFromRows(rows)
	if err != nil {
		t.Fatalf("GridFromRows failed: %v", err)
	}
	return g
}

// upscaleCPU runs every work item sequentially.
func upscaleCPU(src *Grid, scale int) *Grid {
	dst := NewGrid(src.Rows*scale, src.Cols*scale)
	for r := 0; r < src.Rows; r++ {
		for c := 0; c < src.Cols; c++ {
			UpscaleBlock(src, dst, scale, r, c)
		}
	}
	return dst
}

func TestUpscaleBlockScale2(t *testing.T) {
	src := mustGrid(t, [][]uint16{{0, 100}, {100, 200}})
	want := mustGrid(t, [][]uint16{
		{0, 25, 75, 100},
		{25, 50, 100, 125},
		{75, 100, 150, 175},
		{100, 125, 175, 200},
	})

	got := upscaleCPU(src, 2)
	if !got.Equal(want) {
		t.Errorf("upscale x2 =\n%v\nwant\n%v", got.Pix, want.Pix)
	}
}

func TestUpscaleBlockScale2Monotonic(t *testing.T) {
	src := mustGrid(t, [][]uint16{{0, 100}, {100, 200}})
	got := upscaleCPU(src, 2)

	for r := 0; r < got.Rows; r++ {
		for c := 0; c < got.Cols; c++ {
			v := got.At(r, c)
			if v > 200 {
				t.Errorf("(%d,%d) = %d outside [0,200]", r, c, v)
			}
			if c > 0 && v < got.At(r, c-1) {
				t.Errorf("row %d not non-decreasing at column %d", r, c)
			}
			if r > 0 && v < got.At(r-1, c) {
				t.Errorf("column %d not non-decreasing at row %d", c, r)
			}
		}
	}
}

func TestUpscaleBlockIdentity(t *testing.T) {
	src := mustGrid(t, [][]uint16{
		{0, 1, 65535},
		{40000, 7, 12345},
	})
	if got := upscaleCPU(src, 1); !got.Equal(src) {
		t.Errorf("scale 1 = %v, want %v", got.Pix, src.Pix)
	}
}

func TestUpscaleBlockSinglePixel(t *testing.T) {
	src := mustGrid(t, [][]uint16{{4242}})
	got := upscaleCPU(src, 5)
	for i, v := range got.Pix {
		if v != 4242 {
			t.Fatalf("sample %d = %d, want 4242 for a constant image", i, v)
		}
	}
}

func TestSampleClampsToEdge(t *testing.T) {
	g := mustGrid(t, [][]uint16{{10, 20}, {30, 40}})
	tests := []struct {
		name string
		u, v float32
		want float32
	}{
		{"top-left corner", 0, 0, 10},
		{"far top-left", -5, -5, 10},
		{"bottom-right corner", 2, 2, 40},
		{"far bottom-right", 9, 9, 40},
		{"left edge middle", 0, 1, 20},
		{"top edge middle", 1, 0, 15},
		{"center", 1, 1, 25},
		{"texel center", 0.5, 1.5, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sample(g, tt.u, tt.v); got != tt.want {
				t.Errorf("Sample(%v, %v) = %v, want %v", tt.u, tt.v, got, tt.want)
			}
		})
	}
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		in   float32
		want uint16
	}{
		{-3, 0},
		{0, 0},
		{0.49, 0},
		{0.5, 1},
		{24.5, 25},
		{65534.6, 65535},
		{70000, 65535},
	}
	for _, tt := range tests {
		if got := Quantize(tt.in); got != tt.want {
			t.Errorf("Quantize(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestUpscaleBlockBounds(t *testing.T) {
	src := NewGrid(7, 5)
	for i := range src.Pix {
		src.Pix[i] = uint16((i * 7919) % 65536)
	}
	lo, hi := src.MinMax()

	for _, scale := range []int{2, 3, 4, 7} {
		got := upscaleCPU(src, scale)
		glo, ghi := got.MinMax()
		if glo < lo || ghi > hi {
			t.Errorf("scale %d: output range [%d,%d] exceeds source range [%d,%d]", scale, glo, ghi, lo, hi)
		}
	}
}

func TestSamplerValidate(t *testing.T) {
	if err := DefaultSampler().Validate(); err != nil {
		t.Errorf("DefaultSampler().Validate() = %v", err)
	}
	bad := []Sampler{
		{},
		{Filter: FilterNearest, Addressing: AddressClampToEdge},
		{Filter: FilterLinear, Addressing: AddressClampToEdge, NormalizedCoords: true},
	}
	for _, s := range bad {
		if err := s.Validate(); err == nil {
			t.Errorf("Sampler%+v.Validate() = nil, want ErrUnsupportedSampler", s)
		}
	}
}

func TestSamplerStrings(t *testing.T) {
	if FilterLinear.String() != "linear" || FilterNearest.String() != "nearest" {
		t.Error("unexpected filter names")
	}
	if AddressClampToEdge.String() != "clamp-to-edge" {
		t.Error("unexpected addressing name")
	}
	if Filter(0).String() != "Filter(0)" {
		t.Errorf("Filter(0).String() = %q", Filter(0).String())
	}
}
