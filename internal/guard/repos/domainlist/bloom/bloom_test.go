package bloom

import (
	"fmt"
	"testing"
)

func TestFactory_DegenerateParameters(t *testing.T) {
	for _, p := range []float64{0, -1, 1, 1.5} {
		f := NewFactory().New(0, p)
		f.Add([]byte("moc.elpmaxe"))
		if !f.MightContain([]byte("moc.elpmaxe")) {
			t.Fatalf("fpRate %v: added key not found", p)
		}
	}
}

func TestFactory_NoFalseNegatives(t *testing.T) {
	f := NewFactory().New(500, 0.01)
	keys := make([][]byte, 0, 500)
	for i := 0; i < 500; i++ {
		k := []byte(fmt.Sprintf("host-%d.example.co.jp", i))
		keys = append(keys, k)
		f.Add(k)
	}
	for _, k := range keys {
		if !f.MightContain(k) {
			t.Fatalf("false negative for %q", k)
		}
	}
}

func TestFactory_FalsePositiveRateRoughlyBounded(t *testing.T) {
	f := NewFactory().New(1000, 0.01)
	for i := 0; i < 1000; i++ {
		f.Add([]byte(fmt.Sprintf("in-%d.example", i)))
	}
	fp := 0
	const probes = 10000
	for i := 0; i < probes; i++ {
		if f.MightContain([]byte(fmt.Sprintf("out-%d.example", i))) {
			fp++
		}
	}
	if rate := float64(fp) / probes; rate > 0.05 {
		t.Errorf("false positive rate %.4f exceeds bound", rate)
	}
}
