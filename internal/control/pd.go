package control

import (
	"fmt"

	"github.com/san-kum/cartpole/internal/dynamo"
)

// ComputeForce is the PD law for the cart's horizontal force. The setpoint
// is upright (0); a positive angle yields a positive force that drives the
// cart under the falling bob.
func ComputeForce(angle, angularVelocity, pGain, dGain float64) float64 {
	err := 0 - angle
	return -pGain*err + dGain*angularVelocity
}

// PD binds ComputeForce to a set of gains so it can be tuned by name.
type PD struct {
	gains *Gains
}

func NewPD(g *Gains) *PD {
	return &PD{gains: g}
}

func (c *PD) Compute(angle, angularVelocity float64) float64 {
	p, d := c.gains.Snapshot()
	return ComputeForce(angle, angularVelocity, p, d)
}

func (c *PD) GetParams() map[string]float64 {
	p, d := c.gains.Snapshot()
	return map[string]float64{
		"p": p,
		"d": d,
	}
}

// SetParam clamps out-of-range values instead of rejecting them.
func (c *PD) SetParam(name string, value float64) error {
	switch name {
	case "p", "P", "Kp":
		c.gains.SetP(value)
	case "d", "D", "Kd":
		c.gains.SetD(value)
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	return nil
}
