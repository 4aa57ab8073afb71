package control

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/cartpole/internal/dynamo"
	"github.com/san-kum/cartpole/internal/physics"
)

func TestEstimatorAngles(t *testing.T) {
	cart := dynamo.V(300, 240)
	tests := []struct {
		name string
		bob  dynamo.Vec
		want float64
	}{
		{"upright", dynamo.V(300, 140), 0},
		{"right", dynamo.V(400, 240), math.Pi / 2},
		{"left", dynamo.V(200, 240), -math.Pi / 2},
		{"hanging", dynamo.V(300, 340), math.Pi},
		{"small tilt", dynamo.V(300+100*math.Sin(0.05), 240-100*math.Cos(0.05)), 0.05},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var est AngleEstimator
			angle, _ := est.Estimate(cart, tt.bob)
			assert.InDelta(t, tt.want, angle, 1e-12)
		})
	}
}

func TestEstimatorRateIsPerTick(t *testing.T) {
	var est AngleEstimator
	cart := dynamo.V(0, 0)

	a1, v1 := est.Estimate(cart, dynamo.V(100*math.Sin(0.1), -100*math.Cos(0.1)))
	assert.InDelta(t, 0.1, a1, 1e-12)
	assert.InDelta(t, 0.1, v1, 1e-12, "first rate is measured against a zero previous angle")

	_, v2 := est.Estimate(cart, dynamo.V(100*math.Sin(0.13), -100*math.Cos(0.13)))
	assert.InDelta(t, 0.03, v2, 1e-12)
	assert.InDelta(t, 0.13, est.Previous(), 1e-12)

	est.Reset()
	assert.Equal(t, 0.0, est.Previous())
}

func TestComputeForce(t *testing.T) {
	tests := []struct {
		name        string
		angle, rate float64
		p, d        float64
		want        float64
	}{
		{"zero gains", 0.3, 0.1, 0, 0, 0},
		{"proportional", 0.05, 0, 0.004, 0, 0.0002},
		{"derivative", 0, 0.01, 0, 0.008, 0.00008},
		{"opposing", 0.05, -0.05, 0.004, 0.004, 0},
		{"negative tilt", -0.1, 0, 0.01, 0, -0.001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ComputeForce(tt.angle, tt.rate, tt.p, tt.d), 1e-15)
		})
	}
}

func TestGainsClamp(t *testing.T) {
	g := NewGains(DefaultRange, -1, 5)
	p, d := g.Snapshot()
	assert.Equal(t, 0.0, p)
	assert.Equal(t, 0.01, d)

	g.SetP(0.004)
	assert.Equal(t, 0.004, g.P())

	g.SetD(math.NaN())
	assert.Equal(t, 0.0, g.D())
}

func TestGainsNudge(t *testing.T) {
	g := NewGains(DefaultRange, 0, 0)
	for i := 0; i < 3; i++ {
		g.Nudge(ParamP, 1)
	}
	assert.InDelta(t, 0.003, g.P(), 1e-15)

	assert.Equal(t, 0.01, g.Nudge(ParamD, 50))
	assert.Equal(t, 0.0, g.Nudge(ParamD, -50))
}

func TestGainsConcurrentAccess(t *testing.T) {
	g := NewGains(DefaultRange, 0, 0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				g.Set(float64(i)*0.001, float64(j%10)*0.001)
				p, d := g.Snapshot()
				if p < 0 || p > 0.01 || d < 0 || d > 0.01 {
					t.Errorf("gain out of range: p=%f d=%f", p, d)
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestPDConfigurable(t *testing.T) {
	g := NewGains(DefaultRange, 0, 0)
	pd := NewPD(g)

	require.NoError(t, pd.SetParam("p", 0.004))
	require.NoError(t, pd.SetParam("Kd", 0.2))
	assert.Equal(t, map[string]float64{"p": 0.004, "d": 0.01}, pd.GetParams())

	err := pd.SetParam("i", 1)
	assert.True(t, errors.Is(err, dynamo.ErrUnknownParam))

	assert.InDelta(t, 0.004*0.05+0.01*0.01, pd.Compute(0.05, 0.01), 1e-15)
}

func TestDisturbanceDirection(t *testing.T) {
	tests := []struct {
		name    string
		targetX float64
		wantFx  float64
	}{
		{"target left of bob", 250, DefaultDisturbance},
		{"target right of bob", 350, -DefaultDisturbance},
		{"target under bob", 300, DefaultDisturbance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bob := physics.NewCircle("bob", 300, 140, 10, physics.BodyOptions{})
			fx := Disturb(bob, tt.targetX, DefaultDisturbance)

			assert.Equal(t, tt.wantFx, fx)
			assert.Equal(t, dynamo.V(tt.wantFx, 0), bob.Force())
		})
	}
}
