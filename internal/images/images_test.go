package images

import "testing"

func TestIdleGlyph(t *testing.T) {
	if got := IdleGlyph(0); got != nil {
		t.Errorf("IdleGlyph(0) = %v, want nil", got)
	}

	img := IdleGlyph(16)
	if img == nil {
		t.Fatal("IdleGlyph(16) = nil")
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 16 {
		t.Errorf("IdleGlyph(16) bounds = %v, want 16x16", b)
	}

	lit := 0
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a > 0 {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("IdleGlyph(16) is fully transparent")
	}
}
