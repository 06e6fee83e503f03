package telegram

import "testing"

func TestParseNameAge(t *testing.T) {
	t.Run("SimpleNameAndAge", func(t *testing.T) {
		name, age, err := parseNameAge("Alice 30")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if name != "Alice" || age != 30 {
			t.Errorf("Expected Alice/30, got %q/%d", name, age)
		}
	})

	t.Run("MultiWordName", func(t *testing.T) {
		name, age, err := parseNameAge("Mary Jane 25")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if name != "Mary Jane" || age != 25 {
			t.Errorf("Expected 'Mary Jane'/25, got %q/%d", name, age)
		}
	})

	t.Run("MissingAge", func(t *testing.T) {
		if _, _, err := parseNameAge("Alice"); err == nil {
			t.Error("Expected error for missing age")
		}
	})

	t.Run("NonNumericAge", func(t *testing.T) {
		if _, _, err := parseNameAge("Alice thirty"); err == nil {
			t.Error("Expected error for non-numeric age")
		}
	})

	t.Run("UnderThirteenRejected", func(t *testing.T) {
		if _, _, err := parseNameAge("Timmy 12"); err == nil {
			t.Error("Expected error for age under 13")
		}
	})

	t.Run("ThirteenAccepted", func(t *testing.T) {
		if _, _, err := parseNameAge("Sam 13"); err != nil {
			t.Errorf("Expected 13 to be accepted, got: %v", err)
		}
	})
}

func TestParseMetrics(t *testing.T) {
	t.Run("WeightAndHeight", func(t *testing.T) {
		weight, height, err := parseMetrics("70.5 175")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if weight != 70.5 || height != 175 {
			t.Errorf("Expected 70.5/175, got %v/%v", weight, height)
		}
	})

	t.Run("WrongFieldCount", func(t *testing.T) {
		if _, _, err := parseMetrics("70"); err == nil {
			t.Error("Expected error for single field")
		}
	})

	t.Run("NegativeValuesRejected", func(t *testing.T) {
		if _, _, err := parseMetrics("-70 175"); err == nil {
			t.Error("Expected error for negative weight")
		}
		if _, _, err := parseMetrics("70 -175"); err == nil {
			t.Error("Expected error for negative height")
		}
	})
}
