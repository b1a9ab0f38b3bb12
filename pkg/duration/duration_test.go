package duration

import "testing"

func TestDays(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"15 días", 15},
		{"15 dias", 15},
		{"1 día", 1},
		{"2 meses", 60},
		{"1 mes", 30},
		{"mes", 30},
		{"1 año", 365},
		{"2 años", 730},
		{"ano y medio", 365},
		{"", 0},
		{"lo que sea", 0},
		{"días", 0},
		{"  3 MESES  ", 90},
	}

	for _, tc := range cases {
		if got := Days(tc.text); got != tc.want {
			t.Errorf("Days(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}
