package transit

import (
	"reflect"
	"testing"
)

func TestCheapestPath(t *testing.T) {
	g := Japan()
	tests := []struct {
		from, to string
		want     []string
		cost     int
	}{
		{"Tokyo", "Osaka", []string{"tokyo", "nagoya", "kyoto", "osaka"}, 6},
		{"fukuoka", "kagoshima", []string{"fukuoka", "kumamoto", "kagoshima"}, 2},
		{"gero", "gero", []string{"gero"}, 0},
		{"tokyo", "naha", []string{"tokyo", "naha"}, 10},
	}
	for _, tt := range tests {
		got := g.CheapestPath(tt.from, tt.to)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s->%s: got %v want %v", tt.from, tt.to, got, tt.want)
		}
		if c := g.Cost(got); c != tt.cost {
			t.Errorf("%s->%s: cost %d want %d", tt.from, tt.to, c, tt.cost)
		}
	}
}

func TestFewestStops(t *testing.T) {
	g := Japan()
	got := g.FewestStops("TOKYO", "osaka")
	if len(got) != 2 || got[0] != "tokyo" || got[1] != "osaka" {
		t.Fatalf("expected direct flight, got %v", got)
	}
	if got := g.FewestStops("gujo", "takayama"); !reflect.DeepEqual(got, []string{"gujo", "gifu", "takayama"}) {
		t.Fatalf("got %v", got)
	}
}

func TestUnknownCity(t *testing.T) {
	g := Japan()
	if p := g.CheapestPath("tokyo", "atlantis"); len(p) != 0 {
		t.Fatalf("expected empty path, got %v", p)
	}
	if p := g.FewestStops("atlantis", "tokyo"); len(p) != 0 {
		t.Fatalf("expected empty path, got %v", p)
	}
	if g.Has("Atlantis") || !g.Has(" Kyoto ") {
		t.Fatal("Has is wrong")
	}
}

func TestLegsPickCheapestMode(t *testing.T) {
	g := Japan()
	legs := g.Legs([]string{"tokyo", "nagoya"})
	if len(legs) != 1 || legs[0].Mode != "shinkansen" {
		t.Fatalf("tokyo-nagoya has both shinkansen and flight; got %+v", legs)
	}
	if g.Legs([]string{"tokyo", "gero"}) != nil {
		t.Fatal("non-adjacent hop should yield nil")
	}
}

func TestEveryCityReachable(t *testing.T) {
	g := Japan()
	for _, c := range g.Cities() {
		if p := g.CheapestPath("tokyo", c); len(p) == 0 {
			t.Errorf("%s unreachable from tokyo", c)
		}
	}
}
