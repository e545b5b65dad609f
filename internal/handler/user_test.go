package handler

import (
	"strings"
	"testing"
)

func TestGenerateSecureOtp(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateSecureOtp(6)
		if err != nil {
			t.Fatalf("generateSecureOtp: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("len(%q) = %d, want 6", code, len(code))
		}
		if strings.Trim(code, "0123456789") != "" {
			t.Fatalf("non-digit in %q", code)
		}
		for j := 1; j < len(code); j++ {
			if code[j] == code[j-1] {
				t.Fatalf("adjacent repeat in %q", code)
			}
		}
	}
}
