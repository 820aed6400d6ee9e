package devices

import "testing"

func TestResolveAdapterRef(t *testing.T) {
	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{"/dev/i2c-1", "/dev/i2c-1", false},
		{"i2c-10", "/dev/i2c-10", false},
		{"0", "/dev/i2c-0", false},
		{"7", "/dev/i2c-7", false},
		{"-1", "", true},
		{"camera", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := ResolveAdapterRef(tt.ref)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveAdapterRef(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveAdapterRef(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}
