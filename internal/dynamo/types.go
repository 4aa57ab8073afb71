package dynamo

import "fmt"

type Shape int

const (
	ShapeRect Shape = iota
	ShapeCircle
)

func (s Shape) String() string {
	switch s {
	case ShapeRect:
		return "rect"
	case ShapeCircle:
		return "circle"
	}
	return fmt.Sprintf("shape(%d)", int(s))
}

// BodyView is what a renderer needs to draw a body.
type BodyView struct {
	Label    string  `json:"label"`
	Shape    Shape   `json:"shape"`
	Position Vec     `json:"position"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	Radius   float64 `json:"radius,omitempty"`
}

// Frame is the observable outcome of one tick.
type Frame struct {
	Tick            uint64     `json:"tick"`
	Angle           float64    `json:"angle"`
	AngularVelocity float64    `json:"angular_velocity"`
	Force           float64    `json:"force"`
	PGain           float64    `json:"p_gain"`
	DGain           float64    `json:"d_gain"`
	RodLength       float64    `json:"rod_length"`
	RestLength      float64    `json:"rest_length"`
	Cart            BodyView   `json:"cart"`
	Bob             BodyView   `json:"bob"`
	Statics         []BodyView `json:"statics,omitempty"`
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnTick(f Frame)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(f Frame)

func (fn ObserverFunc) OnTick(f Frame) { fn(f) }

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}
