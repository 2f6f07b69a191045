package validation

import "testing"

func TestRequired(t *testing.T) {
	t.Run("present value passes", func(t *testing.T) {
		var v Violations
		Required(&v, "name", "Alice")
		if !v.OK() {
			t.Errorf("expected no violations, got %v", v)
		}
	})

	t.Run("empty value fails", func(t *testing.T) {
		var v Violations
		Required(&v, "name", "")
		if v.OK() {
			t.Error("expected a violation for empty value")
		}
	})

	t.Run("whitespace-only value fails", func(t *testing.T) {
		var v Violations
		Required(&v, "name", "   ")
		if v.OK() {
			t.Error("expected a violation for whitespace-only value")
		}
	})
}

func TestLength(t *testing.T) {
	t.Run("within bounds passes", func(t *testing.T) {
		var v Violations
		Length(&v, "name", "Alice", 2, 50)
		if !v.OK() {
			t.Errorf("expected no violations, got %v", v)
		}
	})

	t.Run("too short fails", func(t *testing.T) {
		var v Violations
		Length(&v, "name", "A", 2, 50)
		if v.OK() {
			t.Error("expected a violation for short value")
		}
	})

	t.Run("too long fails", func(t *testing.T) {
		long := make([]byte, 51)
		for i := range long {
			long[i] = 'x'
		}
		var v Violations
		Length(&v, "name", string(long), 2, 50)
		if v.OK() {
			t.Error("expected a violation for long value")
		}
	})

	t.Run("empty optional value is skipped", func(t *testing.T) {
		var v Violations
		Length(&v, "name", "", 2, 50)
		if !v.OK() {
			t.Errorf("expected empty value to be skipped, got %v", v)
		}
	})

	t.Run("surrounding whitespace is not counted", func(t *testing.T) {
		var v Violations
		Length(&v, "name", "  A  ", 2, 50)
		if v.OK() {
			t.Error("expected trimmed length to be checked")
		}
	})
}

func TestEmail(t *testing.T) {
	valid := []string{
		"alice@example.com",
		"first.last+tag@sub.example.co.uk",
		"UPPER@EXAMPLE.COM",
	}
	for _, addr := range valid {
		t.Run("accepts "+addr, func(t *testing.T) {
			var v Violations
			Email(&v, "email", addr)
			if !v.OK() {
				t.Errorf("expected %q to be accepted, got %v", addr, v)
			}
		})
	}

	invalid := []string{
		"not-an-email",
		"missing@domain",
		"@example.com",
		"spaces in@example.com",
	}
	for _, addr := range invalid {
		t.Run("rejects "+addr, func(t *testing.T) {
			var v Violations
			Email(&v, "email", addr)
			if v.OK() {
				t.Errorf("expected %q to be rejected", addr)
			}
		})
	}
}

func TestPhone(t *testing.T) {
	t.Run("accepts formatted numbers", func(t *testing.T) {
		for _, num := range []string{"+1 (555) 123-4567", "555 123 4567", "5551234567"} {
			var v Violations
			Phone(&v, "phone", num)
			if !v.OK() {
				t.Errorf("expected %q to be accepted, got %v", num, v)
			}
		}
	})

	t.Run("rejects letters", func(t *testing.T) {
		var v Violations
		Phone(&v, "phone", "555-CALL-NOW")
		if v.OK() {
			t.Error("expected letters to be rejected")
		}
	})

	t.Run("rejects too few digits", func(t *testing.T) {
		var v Violations
		Phone(&v, "phone", "12 34")
		if v.OK() {
			t.Error("expected a violation for too few digits")
		}
	})
}

func TestOneOf(t *testing.T) {
	allowed := []string{"general", "quote", "claim"}

	t.Run("member passes", func(t *testing.T) {
		var v Violations
		OneOf(&v, "subject", "quote", allowed)
		if !v.OK() {
			t.Errorf("expected no violations, got %v", v)
		}
	})

	t.Run("non-member fails", func(t *testing.T) {
		var v Violations
		OneOf(&v, "subject", "billing", allowed)
		if v.OK() {
			t.Error("expected a violation for non-member value")
		}
	})
}

func TestIntRange(t *testing.T) {
	cases := []struct {
		name  string
		value int
		ok    bool
	}{
		{"below minimum", 17, false},
		{"at minimum", 18, true},
		{"at maximum", 100, true},
		{"above maximum", 101, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var v Violations
			IntRange(&v, "age", tc.value, 18, 100)
			if v.OK() != tc.ok {
				t.Errorf("IntRange(%d): ok=%v, want %v", tc.value, v.OK(), tc.ok)
			}
		})
	}
}

func TestViolationsCollectEveryFailure(t *testing.T) {
	var v Violations
	Required(&v, "firstName", "")
	Required(&v, "email", "")
	Email(&v, "email", "bad")
	if len(v) != 2 {
		t.Errorf("expected 2 violations, got %d: %v", len(v), v)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Alice@Example.COM "); got != "alice@example.com" {
		t.Errorf("NormalizeEmail = %q, want %q", got, "alice@example.com")
	}
}
