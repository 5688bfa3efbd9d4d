package quiz

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		correct   string
		want      Match
	}{
		{"exact", "Paris", "Paris", MatchExact},
		{"exact after normalization", "  PARIS  ", "paris", MatchExact},
		{"close one extra rune", "Pariss", "Paris", MatchClose},
		{"close one missing rune", "Pari", "Paris", MatchClose},
		{"partial containment", "The answer is Paris", "Paris", MatchPartial},
		{"partial candidate inside correct", "Amster", "Amsterdam", MatchPartial},
		{"none", "London", "Paris", MatchNone},
		{"none long gibberish", "completely unrelated text", "Paris", MatchNone},
		{"close long candidate scaled threshold", "constantinoble", "constantinople", MatchClose},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.candidate, tt.correct); got != tt.want {
				t.Errorf("Classify(%q, %q) = %v, want %v", tt.candidate, tt.correct, got, tt.want)
			}
		})
	}
}

func TestClassifyThresholdScalesWithCandidateLength(t *testing.T) {
	// A 20-rune candidate tolerates distance 3 (threshold floor), a short
	// one does not.
	long := "abcdefghijklmnopqrst"   // 20 runes
	target := "abcdefghijklmnopq___" // distance 3
	if got := Classify(long, target); got != MatchClose {
		t.Errorf("long candidate at distance 3 = %v, want %v", got, MatchClose)
	}
	if got := Classify("abcde", "ab___"); got != MatchNone {
		t.Errorf("short candidate at distance 3 = %v, want %v", got, MatchNone)
	}
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"paris", "pariss", 1},
		{"london", "paris", 6},
	}

	for _, tt := range tests {
		got := editDistance([]rune(tt.a), []rune(tt.b))
		if got != tt.want {
			t.Errorf("editDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if sym := editDistance([]rune(tt.b), []rune(tt.a)); sym != got {
			t.Errorf("editDistance not symmetric for (%q, %q): %d vs %d", tt.a, tt.b, got, sym)
		}
	}
}

func TestEditDistanceIdentity(t *testing.T) {
	for _, s := range []string{"", "a", "Paris", "ünïcødé"} {
		if d := editDistance([]rune(s), []rune(s)); d != 0 {
			t.Errorf("editDistance(%q, %q) = %d, want 0", s, s, d)
		}
	}
}
