package upscale

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseBuildOptions(t *testing.T) {
	opts, err := ParseBuildOptions([]string{"-Werror -DSCALE=5", "-DFLAG"})
	if err != nil {
		t.Fatalf("ParseBuildOptions failed: %v", err)
	}
	if !opts.WarningsAsErrors {
		t.Error("-Werror not recorded")
	}
	want := map[string]string{"SCALE": "5", "FLAG": "1"}
	if !reflect.DeepEqual(opts.Defines, want) {
		t.Errorf("Defines = %v, want %v", opts.Defines, want)
	}
	if got := opts.SortedDefines(); !reflect.DeepEqual(got, []string{"FLAG", "SCALE"}) {
		t.Errorf("SortedDefines() = %v", got)
	}
}

func TestParseBuildOptionsRejects(t *testing.T) {
	for _, opt := range []string{"-O3", "-D1BAD=2", "-DX=a;b", "Werror"} {
		if _, err := ParseBuildOptions([]string{opt}); err == nil {
			t.Errorf("ParseBuildOptions(%q) = nil error", opt)
		}
	}
}

func TestKernelConfigPrepare(t *testing.T) {
	dyn := DefaultKernelConfig()
	opts, err := dyn.Prepare("dev", 4)
	if err != nil {
		t.Fatalf("dynamic Prepare failed: %v", err)
	}
	if _, ok := opts.Defines[ScaleDefine]; ok {
		t.Error("dynamic kernels must not define SCALE")
	}

	sk := DefaultKernelConfig()
	sk.Mode = KernelSpecialized
	opts, err = sk.Prepare("dev", 4)
	if err != nil {
		t.Fatalf("specialized Prepare failed: %v", err)
	}
	if opts.Defines[ScaleDefine] != "4" {
		t.Errorf("SCALE = %q, want 4", opts.Defines[ScaleDefine])
	}

	sk.BuildOptions = []string{"-DSCALE=4"}
	if _, err := sk.Prepare("dev", 4); err != nil {
		t.Errorf("matching -DSCALE rejected: %v", err)
	}
}

func TestKernelConfigPrepareFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*KernelConfig)
		logPart string
	}{
		{"format", func(k *KernelConfig) { k.Format = FormatRGBA8 }, "rgba8 (4 channel(s), 8 bits)"},
		{"narrow format", func(k *KernelConfig) { k.Format = FormatGray8 }, "gray8 (1 channel(s), 8 bits)"},
		{"sampler", func(k *KernelConfig) { k.Sampler.Filter = FilterNearest }, "nearest"},
		{"option", func(k *KernelConfig) { k.BuildOptions = []string{"-cl-fast"} }, "-cl-fast"},
		{"dynamic scale", func(k *KernelConfig) { k.BuildOptions = []string{"-DSCALE=3"} }, "runtime argument"},
		{"conflicting scale", func(k *KernelConfig) {
			k.Mode = KernelSpecialized
			k.BuildOptions = []string{"-DSCALE=3"}
		}, "conflicts"},
		{"mode", func(k *KernelConfig) { k.Mode = KernelMode(9) }, "KernelMode(9)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := DefaultKernelConfig()
			tt.mutate(&k)
			_, err := k.Prepare("gpu0", 2)
			var ce *CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("Prepare() error = %v, want *CompileError", err)
			}
			if ce.Device != "gpu0" {
				t.Errorf("Device = %q, want gpu0", ce.Device)
			}
			if !strings.Contains(ce.Log, tt.logPart) {
				t.Errorf("Log = %q, want it to mention %q", ce.Log, tt.logPart)
			}
			if !strings.Contains(ce.Error(), ce.Log) {
				t.Error("Error() should include the build log")
			}
		})
	}
}

func TestParseKernelMode(t *testing.T) {
	for in, want := range map[string]KernelMode{
		"":            KernelDynamic,
		"dynamic":     KernelDynamic,
		"Specialized": KernelSpecialized,
	} {
		got, err := ParseKernelMode(in)
		if err != nil || got != want {
			t.Errorf("ParseKernelMode(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseKernelMode("jit"); err == nil {
		t.Error("ParseKernelMode(jit) should fail")
	}
}
