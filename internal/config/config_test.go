package config

import "testing"

func TestFirstNonEmpty(t *testing.T) {
	cases := []struct {
		in   []string
		want string
	}{
		{[]string{"", "", "x"}, "x"},
		{[]string{"a", "b"}, "a"},
		{[]string{"  ", ""}, ""},
	}
	for _, c := range cases {
		if got := firstNonEmpty(c.in...); got != c.want {
			t.Errorf("firstNonEmpty(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestIntFromEnv(t *testing.T) {
	t.Setenv("RECAP_TEST_INT", "42")
	if got := intFromEnv("RECAP_TEST_INT", 7); got != 42 {
		t.Errorf("intFromEnv = %d, want 42", got)
	}
	if got := intFromEnv("RECAP_TEST_INT_UNSET", 7); got != 7 {
		t.Errorf("intFromEnv default = %d, want 7", got)
	}
	t.Setenv("RECAP_TEST_INT_BAD", "nope")
	if got := intFromEnv("RECAP_TEST_INT_BAD", 9); got != 9 {
		t.Errorf("intFromEnv bad = %d, want 9", got)
	}
}
