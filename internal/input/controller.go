// Package input implements controller handling for the NES.
package input

// Button represents NES controller buttons, in the order the shift register
// reports them.
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

var buttonNames = map[string]Button{
	"a":      ButtonA,
	"b":      ButtonB,
	"select": ButtonSelect,
	"start":  ButtonStart,
	"up":     ButtonUp,
	"down":   ButtonDown,
	"left":   ButtonLeft,
	"right":  ButtonRight,
}

// ParseButton resolves a lower case button name such as "start".
func ParseButton(name string) (Button, bool) {
	b, ok := buttonNames[name]
	return b, ok
}

// Controller represents a standard NES controller
type Controller struct {
	buttons uint8

	// Shift register state for serial reading
	shiftRegister uint8
	bitPosition   uint8
	strobe        bool
}

// New creates a new Controller instance
func New() *Controller {
	return &Controller{}
}

// SetButton sets the state of a button
func (c *Controller) SetButton(button Button, pressed bool) {
	if pressed {
		c.buttons |= uint8(button)
	} else {
		c.buttons &^= uint8(button)
	}
}

// SetButtons replaces all button states; the order is A, B, Select, Start,
// Up, Down, Left, Right.
func (c *Controller) SetButtons(buttons [8]bool) {
	c.buttons = 0
	for i, pressed := range buttons {
		if pressed {
			c.buttons |= 1 << i
		}
	}
}

// IsPressed returns true if the button is currently pressed
func (c *Controller) IsPressed(button Button) bool {
	return c.buttons&uint8(button) != 0
}

// Write handles writes to the strobe register ($4016)
func (c *Controller) Write(value uint8) {
	c.strobe = value&1 != 0
	if c.strobe {
		c.reload()
	}
}

// Read returns the next button bit. While strobe is high it keeps reporting
// A; after all eight buttons the official pad answers 1.
func (c *Controller) Read() uint8 {
	if c.strobe {
		c.reload()
		return c.buttons & 1
	}
	if c.bitPosition >= 8 {
		return 1
	}
	result := c.shiftRegister & 1
	c.shiftRegister >>= 1
	c.bitPosition++
	return result
}

// Reset resets the controller state
func (c *Controller) Reset() {
	*c = Controller{}
}

func (c *Controller) reload() {
	c.shiftRegister = c.buttons
	c.bitPosition = 0
}

// Ports holds the two controller ports
type Ports struct {
	Controller1 *Controller
	Controller2 *Controller
}

// NewPorts creates both ports with a controller plugged into each
func NewPorts() *Ports {
	return &Ports{
		Controller1: New(),
		Controller2: New(),
	}
}

// Port returns the controller on port 1 or 2, nil for anything else.
func (p *Ports) Port(n int) *Controller {
	switch n {
	case 1:
		return p.Controller1
	case 2:
		return p.Controller2
	}
	return nil
}

// Reset resets all input devices
func (p *Ports) Reset() {
	p.Controller1.Reset()
	p.Controller2.Reset()
}

// Read reads from controller ports
func (p *Ports) Read(address uint16) uint8 {
	switch address {
	case 0x4016:
		return p.Controller1.Read() | 0x40
	case 0x4017:
		return p.Controller2.Read() | 0x40
	}
	return 0
}

// Write writes to controller ports. Both controllers share the strobe line.
func (p *Ports) Write(address uint16, value uint8) {
	if address == 0x4016 {
		p.Controller1.Write(value)
		p.Controller2.Write(value)
	}
}
