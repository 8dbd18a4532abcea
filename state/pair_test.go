package state

import "testing"

func TestPairHoldsBothValues(t *testing.T) {
	p := Pair[int, error]{V1: 7, V2: nil}
	if p.V1 != 7 {
		t.Fatalf("expected V1 7, got %d", p.V1)
	}
	if p.V2 != nil {
		t.Fatalf("expected V2 nil, got %v", p.V2)
	}
}
