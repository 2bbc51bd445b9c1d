package input

import "testing"

func TestControllerReadOrderMatchesButtonConstants(t *testing.T) {
	c := New()
	c.SetButtons([8]bool{
		ButtonA:      true,
		ButtonSelect: true,
		ButtonRight:  true,
	})

	c.Write(0x01) // strobe high latches current button state
	c.Write(0x00) // strobe low, start shifting

	want := []uint8{1, 0, 1, 0, 0, 0, 0, 1}
	for i, w := range want {
		if got := c.Read(); got != w {
			t.Errorf("bit %d = %d, want %d", i, got, w)
		}
	}
}

func TestControllerReadPastEighthBitReturnsOne(t *testing.T) {
	c := New()
	c.Write(0x01)
	c.Write(0x00)

	for i := 0; i < 8; i++ {
		c.Read()
	}
	for i := 0; i < 3; i++ {
		if got := c.Read(); got != 1 {
			t.Errorf("read %d past the 8th bit = %d, want 1", i, got)
		}
	}
}

func TestControllerStrobeHighAlwaysReportsButtonA(t *testing.T) {
	c := New()
	c.SetButton(ButtonA, true)
	c.Write(0x01)

	for i := 0; i < 3; i++ {
		if got := c.Read(); got != 1 {
			t.Errorf("strobe-high read %d = %d, want 1 (button A held)", i, got)
		}
	}

	c.SetButton(ButtonA, false)
	if got := c.Read(); got != 0 {
		t.Errorf("strobe-high read after release = %d, want 0", got)
	}
}

func TestControllerWriteLowBitResetsShiftIndex(t *testing.T) {
	c := New()
	c.SetButton(ButtonB, true) // second bit in shift order

	c.Write(0x01)
	c.Write(0x00)
	c.Read() // consume bit 0 (A)

	c.Write(0x01) // re-strobe mid-sequence
	c.Write(0x00)

	if got := c.Read(); got != 0 {
		t.Errorf("first read after re-strobe = %d, want 0 (button A still released)", got)
	}
	if got := c.Read(); got != 1 {
		t.Errorf("second read after re-strobe = %d, want 1 (button B)", got)
	}
}

func TestInputStateRoutesPortsByAddress(t *testing.T) {
	is := NewInputState()
	is.Controller1.SetButton(ButtonA, true)
	is.Controller2.SetButton(ButtonA, true)

	is.Write(0x4016, 0x01)
	is.Write(0x4016, 0x00)

	if got := is.Read(0x4016); got != 1 {
		t.Errorf("Read(0x4016) = %d, want 1 (controller 1 bit 0)", got)
	}
	if got := is.Read(0x4017); got != 1 {
		t.Errorf("Read(0x4017) = %d, want 1 (controller 2 bit 0)", got)
	}
}

func TestInputStateWriteOnlyAffectsController1Port(t *testing.T) {
	is := NewInputState()
	is.Write(0x4017, 0xFF) // $4017 is the APU frame counter register, not a strobe write

	if is.Controller1.strobe {
		t.Error("writing $4017 should not affect controller strobe state")
	}
}

func TestInputStateReset(t *testing.T) {
	is := NewInputState()
	is.Write(0x4016, 0x01)
	is.Reset()

	if is.Controller1.strobe || is.Controller1.index != 0 {
		t.Error("Reset should clear strobe latch and shift index")
	}
}
