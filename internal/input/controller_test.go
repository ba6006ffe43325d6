package input

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

// readAll strobes the controller and reads eight bits
func readAll(c *Controller) []uint8 {
	c.Write(1)
	c.Write(0)
	bits := make([]uint8, 8)
	for i := range bits {
		bits[i] = c.Read()
	}
	return bits
}

func TestNew_ShouldCreateControllerWithDefaultState(t *testing.T) {
	controller := New()

	if controller.buttons != 0 {
		t.Errorf("Expected initial buttons state 0, got %d", controller.buttons)
	}
	if controller.strobe {
		t.Error("Expected initial strobe false, got true")
	}
}

func TestSetButton_ShouldUpdateButtonState(t *testing.T) {
	controller := New()

	for _, button := range []Button{
		ButtonA, ButtonB, ButtonSelect, ButtonStart,
		ButtonUp, ButtonDown, ButtonLeft, ButtonRight,
	} {
		controller.SetButton(button, true)
		if !controller.IsPressed(button) {
			t.Errorf("Button %d should be pressed after SetButton(true)", button)
		}
		if controller.buttons != uint8(button) {
			t.Errorf("Expected buttons state %d, got %d", uint8(button), controller.buttons)
		}

		controller.SetButton(button, false)
		if controller.IsPressed(button) {
			t.Errorf("Button %d should not be pressed after SetButton(false)", button)
		}
	}
}

func TestSetButtons_ShouldFollowShiftOrder(t *testing.T) {
	controller := New()
	controller.SetButtons([8]bool{true, false, false, true, false, false, false, true})

	assert.True(t, controller.IsPressed(ButtonA))
	assert.True(t, controller.IsPressed(ButtonStart))
	assert.True(t, controller.IsPressed(ButtonRight))
	assert.False(t, controller.IsPressed(ButtonB))
	assert.Equal(t, []uint8{1, 0, 0, 1, 0, 0, 0, 1}, readAll(controller))
}

func TestRead_StrobeActive_ShouldReturnButtonAState(t *testing.T) {
	controller := New()
	controller.SetButton(ButtonA, true)
	controller.Write(1)

	for i := 0; i < 5; i++ {
		assert.Equal(t, uint8(1), controller.Read())
	}

	controller.SetButton(ButtonA, false)
	assert.Equal(t, uint8(0), controller.Read(), "strobe high tracks the live state")
}

func TestRead_AfterEightBits_ShouldReturnOnes(t *testing.T) {
	controller := New()
	readAll(controller)
	for i := 0; i < 4; i++ {
		assert.Equal(t, uint8(1), controller.Read())
	}
}

func TestRead_ButtonChangeAfterLatch_ShouldUseLatchedState(t *testing.T) {
	controller := New()
	controller.SetButton(ButtonB, true)
	controller.Write(1)
	controller.Write(0)

	controller.SetButton(ButtonB, false)
	assert.Equal(t, uint8(0), controller.Read())
	assert.Equal(t, uint8(1), controller.Read(), "B was latched while pressed")
}

func TestWrite_StrobeWithHigherBits_ShouldIgnoreHigherBits(t *testing.T) {
	controller := New()
	controller.Write(0xFE)
	assert.False(t, controller.strobe)
	controller.Write(0xFF)
	assert.True(t, controller.strobe)
}

func TestReset_ShouldClearAllState(t *testing.T) {
	controller := New()
	controller.SetButton(ButtonA, true)
	controller.Write(1)
	controller.Reset()

	assert.False(t, controller.IsPressed(ButtonA))
	assert.False(t, controller.strobe)
	assert.Equal(t, uint8(0), controller.bitPosition)
}

func TestParseButton_ShouldResolveNames(t *testing.T) {
	b, ok := ParseButton("select")
	assert.True(t, ok)
	assert.Equal(t, ButtonSelect, b)

	_, ok = ParseButton("turbo")
	assert.False(t, ok)
}

func TestPorts_ShouldRouteByAddress(t *testing.T) {
	ports := NewPorts()
	ports.Controller1.SetButton(ButtonA, true)
	ports.Controller2.SetButton(ButtonB, true)

	ports.Write(0x4016, 1)
	ports.Write(0x4016, 0)

	assert.Equal(t, uint8(0x41), ports.Read(0x4016))
	assert.Equal(t, uint8(0x40), ports.Read(0x4017))
	assert.Equal(t, uint8(0x40), ports.Read(0x4016))
	assert.Equal(t, uint8(0x41), ports.Read(0x4017))
	assert.Equal(t, uint8(0), ports.Read(0x4018))
}

func TestPorts_WriteToOtherAddress_ShouldBeIgnored(t *testing.T) {
	ports := NewPorts()
	ports.Write(0x4017, 1)
	assert.False(t, ports.Controller1.strobe)
	assert.False(t, ports.Controller2.strobe)
}

func TestPorts_Port(t *testing.T) {
	ports := NewPorts()
	assert.True(t, ports.Port(1) == ports.Controller1)
	assert.True(t, ports.Port(2) == ports.Controller2)
	assert.True(t, ports.Port(3) == nil)

	ports.Controller1.SetButton(ButtonUp, true)
	ports.Reset()
	assert.False(t, ports.Controller1.IsPressed(ButtonUp))
}
