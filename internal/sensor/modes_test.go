package sensor

import "testing"

func TestModeCatalog(t *testing.T) {
	want := []struct {
		width, height int
	}{
		{9152, 6944},
		{8000, 6000},
		{4624, 3472},
		{3840, 2160},
		{2312, 1736},
		{1920, 1080},
		{1280, 720},
	}

	modes := Modes()
	if len(modes) != len(want) {
		t.Fatalf("got %d modes, want %d", len(modes), len(want))
	}
	for i, w := range want {
		if modes[i].Width != w.width || modes[i].Height != w.height {
			t.Errorf("mode %d: got %dx%d, want %dx%d",
				i, modes[i].Width, modes[i].Height, w.width, w.height)
		}
	}
}

func TestPayloadTables(t *testing.T) {
	if len(commonRegs) != 646 {
		t.Errorf("common table: got %d entries, want 646", len(commonRegs))
	}
	// The common table starts by forcing standby.
	if commonRegs[0].Addr != regModeSelect || commonRegs[0].Val != 0x00 {
		t.Errorf("common table starts with %#04x=%#02x, want %#04x=0x00",
			commonRegs[0].Addr, commonRegs[0].Val, regModeSelect)
	}

	for _, m := range supportedModes {
		if len(m.payload) == 0 {
			t.Errorf("mode %dx%d: empty payload", m.Width, m.Height)
		}
	}
	if got := len(supportedModes[0].payload); got != 63 {
		t.Errorf("9152x6944 payload: got %d entries, want 63", got)
	}
}

func TestNearestMode(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"exact match", 1920, 1080, 1920, 1080},
		{"oversized snaps to largest", 9344, 7032, 9152, 6944},
		{"tiny snaps to smallest", 16, 16, 1280, 720},
		{"near 1080p", 1900, 1100, 1920, 1080},
		{"near 4k", 4000, 2300, 3840, 2160},
		{"between catalog entries", 2500, 1900, 2312, 1736},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := nearestMode(tt.width, tt.height)
			if m.Width != tt.wantW || m.Height != tt.wantH {
				t.Errorf("nearestMode(%d, %d) = %dx%d, want %dx%d",
					tt.width, tt.height, m.Width, m.Height, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestBayerCode(t *testing.T) {
	tests := []struct {
		hflip, vflip bool
		want         PixelCode
	}{
		{false, false, CodeSRGGB10},
		{true, false, CodeSGRBG10},
		{false, true, CodeSGBRG10},
		{true, true, CodeSBGGR10},
	}
	for _, tt := range tests {
		if got := bayerCode(tt.hflip, tt.vflip); got != tt.want {
			t.Errorf("bayerCode(%v, %v) = %s, want %s", tt.hflip, tt.vflip, got, tt.want)
		}
	}
}
