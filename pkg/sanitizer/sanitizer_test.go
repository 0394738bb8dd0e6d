package sanitizer

import "testing"

func TestStripLeadingDots(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"dots before name", "...John", "John"},
		{"dots and spaces", " . . Mary", "Mary"},
		{"only dots", "...", ""},
		{"empty", "", ""},
		{"inner dots kept", "J.R. Smith", "J.R. Smith"},
		{"trailing dots kept", "Jr.", "Jr."},
		{"tabs and newlines", "\t\n.Ann", "Ann"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripLeadingDots(tt.input); got != tt.expected {
				t.Errorf("StripLeadingDots(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestStripLeadingDots_Idempotent(t *testing.T) {
	inputs := []string{"...John", " . x", "", "plain"}
	for _, in := range inputs {
		once := StripLeadingDots(in)
		if twice := StripLeadingDots(once); twice != once {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestSanitizeSubjectName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"clean", "SMITH", "SMITH"},
		{"punctuation both ends", "  -O'Neil. ", "O'Neil"},
		{"digits around", "12Doe34", "Doe"},
		{"inner space kept", "*Mary Ann*", "Mary Ann"},
		{"no letters", "--- 123", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeSubjectName(tt.input); got != tt.expected {
				t.Errorf("SanitizeSubjectName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeNYSID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"12345678a", "12345678A"},
		{" 1234-5678 Q ", "12345678Q"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeNYSID(tt.input); got != tt.expected {
			t.Errorf("NormalizeNYSID(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestPipeline_Apply(t *testing.T) {
	p := Pipeline{StripLeadingDots, TrimAndNormalize}
	if got := p.Apply("..  Jane   Doe  "); got != "Jane Doe" {
		t.Errorf("Apply = %q, want %q", got, "Jane Doe")
	}
	if got := (Pipeline{}).Apply("as is"); got != "as is" {
		t.Errorf("empty pipeline changed input: %q", got)
	}
}
