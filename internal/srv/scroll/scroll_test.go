package scroll

import (
	"math"
	"testing"
	"time"
)

const tolerance = 1e-6

// circularDistance compares two offsets modulo period
func circularDistance(a, b, period float64) float64 {
	d := math.Mod(math.Abs(a-b), period)
	return math.Min(d, period-d)
}

func TestAdvanceAccumulation(t *testing.T) {
	tests := []struct {
		name  string
		state State
		speed float64
		steps []time.Duration
	}{
		{"regular ticks", State{TextWidth: 80, WrapGap: 20, ViewWidth: 64}, 20, repeat(33*time.Millisecond, 300)},
		{"jittery ticks", State{TextWidth: 123, WrapGap: 7, ViewWidth: 40}, 37.5, []time.Duration{
			16 * time.Millisecond, 40 * time.Millisecond, 3 * time.Millisecond, 250 * time.Millisecond, 1100 * time.Millisecond, 17 * time.Millisecond}},
		{"starting offset", State{Offset: 42.5, TextWidth: 300, WrapGap: 12, ViewWidth: 64}, 60, repeat(10*time.Millisecond, 1234)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var total time.Duration
			stepped := tt.state
			for _, dt := range tt.steps {
				stepped = Advance(stepped, dt, tt.speed)
				total += dt
			}
			once := Advance(tt.state, total, tt.speed)

			period := float64(tt.state.Period())
			if d := circularDistance(stepped.Offset, once.Offset, period); d > tolerance {
				t.Errorf("stepped offset = %v, single offset = %v", stepped.Offset, once.Offset)
			}
		})
	}
}

func TestAdvanceZeroWidth(t *testing.T) {
	tests := []struct {
		name  string
		state State
		dt    time.Duration
		speed float64
	}{
		{"empty text", State{TextWidth: 0, WrapGap: 20}, time.Second, 20},
		{"empty text no gap", State{TextWidth: 0, WrapGap: 0}, time.Second, 20},
		{"empty text with offset", State{Offset: 12, TextWidth: 0, WrapGap: 0}, 5 * time.Second, 1000},
		{"negative width", State{Offset: 3, TextWidth: -40, WrapGap: -2}, time.Second, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Advance(tt.state, tt.dt, tt.speed)
			if got.Offset != 0 || math.IsNaN(got.Offset) {
				t.Errorf("Advance() offset = %v, want 0", got.Offset)
			}
		})
	}
}

func TestAdvanceStaticCases(t *testing.T) {
	tests := []struct {
		name  string
		state State
		speed float64
	}{
		{"fits in view", State{TextWidth: 30, WrapGap: 20, ViewWidth: 64}, 20},
		{"exactly view width", State{TextWidth: 64, WrapGap: 20, ViewWidth: 64}, 20},
		{"no speed", State{TextWidth: 200, WrapGap: 20, ViewWidth: 64}, 0},
		{"nan speed", State{TextWidth: 200, WrapGap: 20, ViewWidth: 64}, math.NaN()},
		{"infinite speed", State{TextWidth: 200, WrapGap: 20, ViewWidth: 64}, math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Advance(tt.state, 3*time.Second, tt.speed)
			if got.Offset != 0 {
				t.Errorf("Advance() offset = %v, want 0", got.Offset)
			}
		})
	}
}

func TestAdvanceStaysInRange(t *testing.T) {
	state := State{TextWidth: 97, WrapGap: 13, ViewWidth: 64}
	for i := 0; i < 5000; i++ {
		state = Advance(state, time.Duration(i%37)*time.Millisecond, 71.3)
		if state.Offset < 0 || state.Offset >= float64(state.Period()) {
			t.Fatalf("offset %v out of [0, %d)", state.Offset, state.Period())
		}
	}
}

func TestAdvanceOneFullWrap(t *testing.T) {
	// HELLO: 80px wide, 20px gap, 20px/s on a 64px wide matrix
	state := State{TextWidth: 80, WrapGap: 20, ViewWidth: 64}
	got := Advance(state, 5*time.Second, 20)
	if got.Offset != 0 {
		t.Errorf("Advance() after 5s = %v, want 0", got.Offset)
	}

	got = Advance(state, 2500*time.Millisecond, 20)
	if math.Abs(got.Offset-50) > tolerance {
		t.Errorf("Advance() after 2.5s = %v, want 50", got.Offset)
	}
}

func TestAdvanceNegativeDuration(t *testing.T) {
	state := State{Offset: 10, TextWidth: 80, WrapGap: 20, ViewWidth: 64}
	got := Advance(state, -time.Second, 20)
	if got.Offset != 10 {
		t.Errorf("Advance() with negative dt = %v, want 10", got.Offset)
	}
}

func TestRegionResetsOnKeyChange(t *testing.T) {
	metrics := State{TextWidth: 200, WrapGap: 20, ViewWidth: 64}
	var region Region

	if got := region.Step("first line", metrics, time.Second, 30); got.Offset != 0 {
		t.Errorf("first Step() = %v, want 0", got.Offset)
	}
	if got := region.Step("first line", metrics, time.Second, 30); math.Abs(got.Offset-30) > tolerance {
		t.Errorf("second Step() = %v, want 30", got.Offset)
	}

	// new text: reset overrides the elapsed time for this call only
	if got := region.Step("second line", metrics, 2*time.Second, 30); got.Offset != 0 {
		t.Errorf("Step() on key change = %v, want 0", got.Offset)
	}
	if got := region.Step("second line", metrics, time.Second, 30); math.Abs(got.Offset-30) > tolerance {
		t.Errorf("Step() after key change = %v, want 30", got.Offset)
	}
}

func TestRegionReset(t *testing.T) {
	metrics := State{TextWidth: 200, WrapGap: 20, ViewWidth: 64}
	var region Region
	region.Step("line", metrics, 0, 30)
	region.Step("line", metrics, time.Second, 30)

	region.Reset()
	if got := region.Step("line", metrics, time.Second, 30); got.Offset != 0 {
		t.Errorf("Step() after Reset() = %v, want 0", got.Offset)
	}
}

func repeat(dt time.Duration, n int) []time.Duration {
	steps := make([]time.Duration, n)
	for i := range steps {
		steps[i] = dt
	}
	return steps
}
