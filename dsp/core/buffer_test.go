package core

import "testing"

func TestEnsureLen(t *testing.T) {
	buf := make([]float64, 0, 8)

	out := EnsureLen(buf, 4)
	if len(out) != 4 || cap(out) != 8 {
		t.Fatalf("EnsureLen reuse failed: len=%d cap=%d", len(out), cap(out))
	}

	out = EnsureLen(buf, 16)
	if len(out) != 16 {
		t.Fatalf("EnsureLen grow failed: len=%d", len(out))
	}

	if got := EnsureLen(out, -1); len(got) != 0 {
		t.Fatalf("EnsureLen(-1) = len %d, want 0", len(got))
	}
}

func TestZeroAndFill(t *testing.T) {
	buf := []float64{1, 2, 3}

	Fill(buf, 7)
	for i, v := range buf {
		if v != 7 {
			t.Fatalf("Fill: buf[%d] = %v", i, v)
		}
	}

	Zero(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("Zero: buf[%d] = %v", i, v)
		}
	}
}

func TestCopyInto(t *testing.T) {
	dst := make([]float64, 3)
	if n := CopyInto(dst, []float64{1, 2}); n != 2 {
		t.Fatalf("CopyInto short src: n = %d, want 2", n)
	}

	if dst[0] != 1 || dst[1] != 2 || dst[2] != 0 {
		t.Fatalf("CopyInto contents: %v", dst)
	}
}

func TestApplyProcessorOptions(t *testing.T) {
	cfg := ApplyProcessorOptions(WithSampleRate(44100), WithBlockSize(128))
	if cfg.SampleRate != 44100 || cfg.BlockSize != 128 {
		t.Fatalf("options not applied: %+v", cfg)
	}

	cfg = ApplyProcessorOptions(WithSampleRate(-1), WithBlockSize(0), nil)
	def := DefaultProcessorConfig()
	if cfg != def {
		t.Fatalf("invalid options should keep defaults: %+v", cfg)
	}
}
