package indicator

import (
	"math"
	"testing"
)

func TestVolumeRatio_ExcludesCurrentBar(t *testing.T) {
	volumes := []float64{100, 100, 100, 100, 100, 70}
	ratio := VolumeRatio(volumes, 5)

	for i := 0; i < 5; i++ {
		if !math.IsNaN(ratio[i]) {
			t.Errorf("ratio[%d] = %f, want NaN", i, ratio[i])
		}
	}
	if ratio[5] != 0.7 {
		t.Errorf("ratio[5] = %f, want 0.7", ratio[5])
	}
}

func TestVolumeRatio_ZeroAverage(t *testing.T) {
	ratio := VolumeRatio([]float64{0, 0, 0, 50}, 3)
	if !math.IsNaN(ratio[3]) {
		t.Errorf("zero trailing volume should be NaN, got %f", ratio[3])
	}
}

func TestChange(t *testing.T) {
	c := Change([]float64{100, 110, 0, 50})
	if !math.IsNaN(c[0]) {
		t.Error("first change should be NaN")
	}
	if !almostEqual(c[1], 1.1, 1e-12) {
		t.Errorf("c[1] = %f, want 1.1", c[1])
	}
	if !math.IsNaN(c[3]) {
		t.Error("division by zero should be NaN")
	}
}
