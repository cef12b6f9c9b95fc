package bytesize

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  ByteSize
	}{
		{"0", 0},
		{"1024", 1024},
		{"1Ki", KiB},
		{"50Mi", 50 * MiB},
		{"50MiB", 50 * MiB},
		{"512Mi", 512 * MiB},
		{"2Gi", 2 * GiB},
		{"100MB", 100 * MB},
		{"1.5Gi", ByteSize(1.5 * float64(GiB))},
		{"  64 Ki ", 64 * KiB},
		{"1b", 1},
	}

	for _, tt := range tests {
		got, err := Parse(tt.input)
		if err != nil {
			t.Errorf("Parse(%q) returned error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, input := range []string{"", "  ", "abc", "12XB", "-5Mi", "1.2.3Gi"} {
		if _, err := Parse(input); err == nil {
			t.Errorf("Parse(%q) expected error, got none", input)
		}
	}
}

func TestUnmarshalText(t *testing.T) {
	var b ByteSize
	if err := b.UnmarshalText([]byte("50Mi")); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if b != 50*MiB {
		t.Errorf("expected %d, got %d", 50*MiB, b)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		size ByteSize
		want string
	}{
		{512, "512B"},
		{KiB, "1.00KiB"},
		{50 * MiB, "50.00MiB"},
		{2 * GiB, "2.00GiB"},
	}

	for _, tt := range tests {
		if got := tt.size.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", uint64(tt.size), got, tt.want)
		}
	}
}
