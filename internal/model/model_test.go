package model

import "testing"

func TestValidInventoryNumber(t *testing.T) {
	tests := []struct {
		number   string
		expected bool
	}{
		{"2024-001", true},
		{"12/3.4", true},
		{"0", true},
		{"AB-12", false},
		{"", false},
		{"12 34", false},
		{"12_34", false},
	}

	for _, tt := range tests {
		got := ValidInventoryNumber(tt.number)
		if got != tt.expected {
			t.Errorf("ValidInventoryNumber(%q) = %v, want %v", tt.number, got, tt.expected)
		}
	}
}

func TestValidCondition(t *testing.T) {
	for _, c := range []string{ConditionNew, ConditionInUse, ConditionBroken, ConditionDecommissioned} {
		if !ValidCondition(c) {
			t.Errorf("ValidCondition(%q) = false", c)
		}
	}
	if ValidCondition("lost") {
		t.Error("ValidCondition(\"lost\") = true")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"", true},
		{"short", true},
		{"1234567", true},
		{"12345678", false},
		{"a-valid-password", false},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
		}
	}
}
