package phone

import "testing"

func TestDigits10(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"5551234567", "5551234567", false},
		{"(555) 123-4567", "5551234567", false},
		{"+1 555 123 4567", "5551234567", false},
		{"15551234567", "5551234567", false},
		{"555123456", "", true},
		{"555123456789", "", true},
		{"not a number", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := Digits10(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("Digits10(%q): expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Digits10(%q) failed: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("Digits10(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestE164USIdempotent(t *testing.T) {
	once, err := E164US("(555) 123-4567")
	if err != nil {
		t.Fatalf("E164US failed: %v", err)
	}
	if once != "+15551234567" {
		t.Fatalf("unexpected result: %q", once)
	}
	twice, err := E164US(once)
	if err != nil {
		t.Fatalf("E164US on normalized input failed: %v", err)
	}
	if twice != once {
		t.Fatalf("normalization not idempotent: %q != %q", twice, once)
	}
}
