package metrics

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestMean(t *testing.T) {
	tests := []struct {
		name   string
		input  []float64
		expect float64
	}{
		{"empty", nil, 0},
		{"single", []float64{5.0}, 5.0},
		{"multiple", []float64{1, 2, 3, 4, 5}, 3.0},
		{"all_same", []float64{7, 7, 7}, 7.0},
		{"negative", []float64{-2, 0, 2}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Mean(tt.input)
			if !approxEqual(got, tt.expect) {
				t.Errorf("Mean(%v) = %f, want %f", tt.input, got, tt.expect)
			}
		})
	}
}

func TestMeanPtr(t *testing.T) {
	if got := MeanPtr(nil); got != nil {
		t.Errorf("MeanPtr(nil) = %v, want nil", got)
	}
	got := MeanPtr([]float64{1, 3})
	if got == nil || !approxEqual(*got, 2.0) {
		t.Errorf("MeanPtr([1,3]) = %v, want 2.0", got)
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		input  []float64
		expect float64
	}{
		{"empty", nil, 0},
		{"single", []float64{5.0}, 5.0},
		{"odd", []float64{9, 1, 5}, 5.0},
		{"even", []float64{1, 2, 3, 4}, 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Median(tt.input)
			if !approxEqual(got, tt.expect) {
				t.Errorf("Median(%v) = %f, want %f", tt.input, got, tt.expect)
			}
		})
	}
}

func TestVariance(t *testing.T) {
	tests := []struct {
		name   string
		input  []float64
		expect float64
	}{
		{"empty", nil, 0},
		{"single", []float64{5.0}, 0},
		{"uniform", []float64{3, 3, 3}, 0},
		{"simple", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 4.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Variance(tt.input)
			if !approxEqual(got, tt.expect) {
				t.Errorf("Variance(%v) = %f, want %f", tt.input, got, tt.expect)
			}
		})
	}
}

func TestStdDev(t *testing.T) {
	tests := []struct {
		name   string
		input  []float64
		expect float64
	}{
		{"empty", nil, 0},
		{"single", []float64{5.0}, 0},
		{"simple", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 2.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StdDev(tt.input)
			if !approxEqual(got, tt.expect) {
				t.Errorf("StdDev(%v) = %f, want %f", tt.input, got, tt.expect)
			}
		})
	}
}

func TestConfidenceInterval95(t *testing.T) {
	tests := []struct {
		name   string
		input  []float64
		wantLo float64
		wantHi float64
	}{
		{"empty", nil, 0, 0},
		{"single", []float64{5.0}, 5.0, 5.0},
		{"five_equal", []float64{3, 3, 3, 3, 3}, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := ConfidenceInterval95(tt.input)
			if !approxEqual(lo, tt.wantLo) || !approxEqual(hi, tt.wantHi) {
				t.Errorf("ConfidenceInterval95(%v) = (%f, %f), want (%f, %f)",
					tt.input, lo, hi, tt.wantLo, tt.wantHi)
			}
		})
	}
}

func TestConfidenceInterval95_TwoValues(t *testing.T) {
	// mean=5, sampleSD=sqrt((1+1)/1)=sqrt(2), margin=1.96*sqrt(2)/sqrt(2)=1.96
	lo, hi := ConfidenceInterval95([]float64{4, 6})
	wantLo := 5.0 - 1.96
	wantHi := 5.0 + 1.96
	if !approxEqual(lo, wantLo) || !approxEqual(hi, wantHi) {
		t.Errorf("got (%f, %f), want (%f, %f)", lo, hi, wantLo, wantHi)
	}
}

func TestRatio(t *testing.T) {
	if got := Ratio(1, 0); got != 0 {
		t.Errorf("Ratio(1, 0) = %f, want 0", got)
	}
	if got := Ratio(3, 4); !approxEqual(got, 0.75) {
		t.Errorf("Ratio(3, 4) = %f, want 0.75", got)
	}
}

func TestF1(t *testing.T) {
	if got := F1(0, 0); got != 0 {
		t.Errorf("F1(0, 0) = %f, want 0", got)
	}
	if got := F1(1.0, 0.5); !approxEqual(got, 2.0/3.0) {
		t.Errorf("F1(1.0, 0.5) = %f, want 0.6667", got)
	}
}
