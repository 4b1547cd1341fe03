// internal/service/inventory/domain/product_test.go
package domain

import "testing"

func TestGroupByCount(t *testing.T) {
	counts := GroupByCount([]string{"p1", "p2", "p1", "p1"})
	if counts["p1"] != 3 || counts["p2"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
	if len(GroupByCount(nil)) != 0 {
		t.Fatal("empty request must group to nothing")
	}
}

func TestCheckAvailability(t *testing.T) {
	inStock := []Product{
		{ID: "p1", Price: 10, Stock: 2},
		{ID: "p2", Price: 5, Stock: 0},
	}

	cases := []struct {
		name      string
		requested map[string]int
		want      bool
	}{
		{"exact stock", map[string]int{"p1": 2}, true},
		{"within stock", map[string]int{"p1": 1}, true},
		{"over stock", map[string]int{"p1": 3}, false},
		{"zero stock", map[string]int{"p2": 1}, false},
		{"unknown product", map[string]int{"p9": 1}, false},
		{"one missing fails all", map[string]int{"p1": 1, "p9": 1}, false},
		{"empty request", map[string]int{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CheckAvailability(tc.requested, inStock); got != tc.want {
				t.Fatalf("CheckAvailability = %v, want %v", got, tc.want)
			}
		})
	}
}
