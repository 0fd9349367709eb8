package focuser

import "testing"

func TestStepSizes(t *testing.T) {
	tests := []struct {
		mode  StepMode
		micro int32
		want  int32
	}{
		{ModeCoarse, 4, 148},
		{ModeMedium, 4, 36}, // 37/4 truncates to 9, times 4
		{ModeFine, 4, 4},
		{ModeCoarse, 1, 37},
		{ModeMedium, 1, 9},
		{ModeFine, 1, 1},
		{ModeCoarse, 8, 296},
		{ModeMedium, 8, 72},
		{ModeFine, 8, 8},
	}

	for _, tt := range tests {
		if got := stepSize(tt.mode, tt.micro); got != tt.want {
			t.Errorf("stepSize(%v, %d) = %d, want %d", tt.mode, tt.micro, got, tt.want)
		}
	}
}

func TestSignedSteps(t *testing.T) {
	if got := signedSteps(Clockwise, ModeMedium, 4); got != 36 {
		t.Errorf("CW medium = %d, want 36", got)
	}
	if got := signedSteps(CounterClockwise, ModeMedium, 4); got != -36 {
		t.Errorf("CCW medium = %d, want -36", got)
	}
}

func TestModeNames(t *testing.T) {
	if ModeCoarse.String() != "coarse" || ModeMedium.String() != "medium" || ModeFine.String() != "fine" {
		t.Error("unexpected step mode names")
	}
	if Clockwise.String() != "CW" || CounterClockwise.String() != "CCW" {
		t.Error("unexpected direction names")
	}
}

func TestStatusNames(t *testing.T) {
	names := map[Status]string{
		StatusSearching:        "SearchingForDevice",
		StatusDeviceFound:      "DeviceFound",
		StatusConnected:        "Connected",
		StatusReady:            "Ready",
		StatusDisconnected:     "Disconnected",
		StatusRadioUnavailable: "RadioUnavailable",
	}
	for s, want := range names {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(s), s.String(), want)
		}
	}
}
