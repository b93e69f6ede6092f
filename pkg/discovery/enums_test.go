package discovery

import (
	"errors"
	"testing"
)

func TestCategoryFromCode(t *testing.T) {
	tests := []struct {
		code    uint64
		want    Category
		wantErr bool
	}{
		{1, CategoryOther, false},
		{5, CategoryLightbulb, false},
		{10, CategorySensor, false},
		{24, CategoryAppleTV, false},
		{26, CategorySpeaker, false},
		{36, CategoryTelevisionStreamingStick, false},
		{0, 0, true},
		{25, 0, true},
		{37, 0, true},
		{255, 0, true},
		{256 + 5, 0, true},
	}

	for _, tt := range tests {
		got, err := CategoryFromCode(tt.code)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidCategory) {
				t.Errorf("CategoryFromCode(%d) error = %v, want ErrInvalidCategory", tt.code, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("CategoryFromCode(%d) unexpected error: %v", tt.code, err)
			continue
		}
		if got != tt.want {
			t.Errorf("CategoryFromCode(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestCategory_String(t *testing.T) {
	tests := []struct {
		c    Category
		want string
	}{
		{CategoryLightbulb, "Lightbulb"},
		{CategoryIPCamera, "IPCamera"},
		{Category(25), "Category(25)"},
		{Category(99), "Category(99)"},
	}

	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("Category(%d).String() = %q, want %q", uint8(tt.c), got, tt.want)
		}
	}
}

func TestStatusFlags(t *testing.T) {
	sf := StatusFlags(0x03)
	if !sf.Has(StatusNotPaired) {
		t.Error("0x03 should contain NotPaired")
	}
	if !sf.Has(StatusNotConfiguredForWiFi) {
		t.Error("0x03 should contain NotConfiguredForWiFi")
	}
	if sf.Has(StatusProblemDetected) {
		t.Error("0x03 should not contain ProblemDetected")
	}
	if !sf.IsValid() {
		t.Error("0x03 should be valid")
	}
	if got := sf.String(); got != "NotPaired|NotConfiguredForWiFi" {
		t.Errorf("String() = %q", got)
	}

	if StatusFlags(0x08).IsValid() {
		t.Error("0x08 should be invalid")
	}
	if got := StatusFlags(0).String(); got != "None" {
		t.Errorf("String() = %q, want None", got)
	}
	if got := StatusFlags(0x09).String(); got != "NotPaired|0x8" {
		t.Errorf("String() = %q, want NotPaired|0x8", got)
	}
}

func TestPairingFeatureFlags(t *testing.T) {
	tests := []struct {
		v     PairingFeatureFlags
		valid bool
		str   string
	}{
		{0, true, "None"},
		{PairingFeatureAppleAuthCoprocessor, true, "AppleAuthCoprocessor"},
		{PairingFeatureSoftwareAuth, true, "SoftwareAuth"},
		{0x03, true, "AppleAuthCoprocessor|SoftwareAuth"},
		{0x04, false, "0x4"},
	}

	for _, tt := range tests {
		if got := tt.v.IsValid(); got != tt.valid {
			t.Errorf("PairingFeatureFlags(%d).IsValid() = %v, want %v", tt.v, got, tt.valid)
		}
		if got := tt.v.String(); got != tt.str {
			t.Errorf("PairingFeatureFlags(%d).String() = %q, want %q", tt.v, got, tt.str)
		}
	}
}

func TestFeatureFlags(t *testing.T) {
	ff := FeatureHAPPairing | FeatureBridge
	if !ff.Has(FeatureHAPPairing) || !ff.Has(FeatureBridge) {
		t.Errorf("%v should contain HAPPairing and Bridge", ff)
	}
	if ff.Has(FeatureAudio) {
		t.Errorf("%v should not contain Audio", ff)
	}
	if !FeatureFlags(0x0F).IsValid() {
		t.Error("0x0F should be valid")
	}
	if FeatureFlags(0x10).IsValid() {
		t.Error("0x10 should be invalid")
	}
}

func TestServiceName(t *testing.T) {
	if ServiceName != "_hap._tcp.local." {
		t.Errorf("ServiceName = %q", ServiceName)
	}
}
