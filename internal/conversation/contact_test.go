package conversation

import "testing"

func TestSplitContact(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantEmail string
		wantPhone string
	}{
		{"email only", "ana@example.com", "ana@example.com", ""},
		{"email lowercased", "Ana.Perez@Example.COM", "ana.perez@example.com", ""},
		{"phone only", "mi teléfono es 972 750 123", "", "972750123"},
		{"phone with prefix", "+34 600-11-22-33", "", "+34600112233"},
		{"both", "ana@example.com o el 628 123 456", "ana@example.com", "628123456"},
		{"neither", "pregúntale a mi marido", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email, phone := splitContact(tt.in)
			if email != tt.wantEmail || phone != tt.wantPhone {
				t.Errorf("splitContact(%q) = (%q, %q), want (%q, %q)",
					tt.in, email, phone, tt.wantEmail, tt.wantPhone)
			}
		})
	}
}
