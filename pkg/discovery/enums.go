// Package discovery implements DNS-SD (mDNS) discovery for HAP accessories.
//
// This package provides:
//   - Browsing of the _hap._tcp service within a bounded time window
//   - TXT record decoding into Accessory records
//   - Typed flag sets and the accessory category enumeration
package discovery

import (
	"fmt"
	"strings"
)

// DNS-SD service strings.
const (
	// ServiceHAP is the DNS-SD service type of HAP accessories.
	ServiceHAP = "_hap._tcp"

	// DefaultDomain is the default mDNS domain.
	DefaultDomain = "local."

	// ServiceName is the fully qualified browse name.
	ServiceName = ServiceHAP + "." + DefaultDomain
)

// Category identifies the kind of accessory, advertised as the "ci" key.
type Category uint8

// Category constants. Code 25 is unassigned.
const (
	CategoryOther                    Category = 1
	CategoryBridge                   Category = 2
	CategoryFan                      Category = 3
	CategoryGarageDoorOpener         Category = 4
	CategoryLightbulb                Category = 5
	CategoryDoorLock                 Category = 6
	CategoryOutlet                   Category = 7
	CategorySwitch                   Category = 8
	CategoryThermostat               Category = 9
	CategorySensor                   Category = 10
	CategorySecuritySystem           Category = 11
	CategoryDoor                     Category = 12
	CategoryWindow                   Category = 13
	CategoryWindowCovering           Category = 14
	CategoryProgrammableSwitch       Category = 15
	CategoryRangeExtender            Category = 16
	CategoryIPCamera                 Category = 17
	CategoryVideoDoorbell            Category = 18
	CategoryAirPurifier              Category = 19
	CategoryAirHeater                Category = 20
	CategoryAirConditioner           Category = 21
	CategoryAirHumidifier            Category = 22
	CategoryAirDehumidifier          Category = 23
	CategoryAppleTV                  Category = 24
	CategorySpeaker                  Category = 26
	CategoryAirport                  Category = 27
	CategorySprinkler                Category = 28
	CategoryFaucet                   Category = 29
	CategoryShowerHead               Category = 30
	CategoryTelevision               Category = 31
	CategoryTargetController         Category = 32
	CategoryWiFiRouter               Category = 33
	CategoryAudioReceiver            Category = 34
	CategoryTelevisionSetTopBox      Category = 35
	CategoryTelevisionStreamingStick Category = 36
)

var categoryNames = map[Category]string{
	CategoryOther:                    "Other",
	CategoryBridge:                   "Bridge",
	CategoryFan:                      "Fan",
	CategoryGarageDoorOpener:         "GarageDoorOpener",
	CategoryLightbulb:                "Lightbulb",
	CategoryDoorLock:                 "DoorLock",
	CategoryOutlet:                   "Outlet",
	CategorySwitch:                   "Switch",
	CategoryThermostat:               "Thermostat",
	CategorySensor:                   "Sensor",
	CategorySecuritySystem:           "SecuritySystem",
	CategoryDoor:                     "Door",
	CategoryWindow:                   "Window",
	CategoryWindowCovering:           "WindowCovering",
	CategoryProgrammableSwitch:       "ProgrammableSwitch",
	CategoryRangeExtender:            "RangeExtender",
	CategoryIPCamera:                 "IPCamera",
	CategoryVideoDoorbell:            "VideoDoorbell",
	CategoryAirPurifier:              "AirPurifier",
	CategoryAirHeater:                "AirHeater",
	CategoryAirConditioner:           "AirConditioner",
	CategoryAirHumidifier:            "AirHumidifier",
	CategoryAirDehumidifier:          "AirDehumidifier",
	CategoryAppleTV:                  "AppleTV",
	CategorySpeaker:                  "Speaker",
	CategoryAirport:                  "Airport",
	CategorySprinkler:                "Sprinkler",
	CategoryFaucet:                   "Faucet",
	CategoryShowerHead:               "ShowerHead",
	CategoryTelevision:               "Television",
	CategoryTargetController:         "TargetController",
	CategoryWiFiRouter:               "WiFiRouter",
	CategoryAudioReceiver:            "AudioReceiver",
	CategoryTelevisionSetTopBox:      "TelevisionSetTopBox",
	CategoryTelevisionStreamingStick: "TelevisionStreamingStick",
}

// CategoryFromCode converts an advertised code into a Category.
// Codes outside the assigned set return ErrInvalidCategory.
func CategoryFromCode(code uint64) (Category, error) {
	if code > 0xFF {
		return 0, ErrInvalidCategory
	}
	c := Category(code)
	if !c.IsValid() {
		return 0, ErrInvalidCategory
	}
	return c, nil
}

// String returns a human-readable string for the category.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Category(%d)", uint8(c))
}

// IsValid returns true if the category code is assigned.
func (c Category) IsValid() bool {
	_, ok := categoryNames[c]
	return ok
}

// StatusFlags is the "sf" bit set.
type StatusFlags uint8

// StatusFlags bits.
const (
	StatusNotPaired            StatusFlags = 0x01
	StatusNotConfiguredForWiFi StatusFlags = 0x02
	StatusProblemDetected      StatusFlags = 0x04

	statusFlagsMask = StatusNotPaired | StatusNotConfiguredForWiFi | StatusProblemDetected
)

// Has reports whether every bit of f is set.
func (s StatusFlags) Has(f StatusFlags) bool {
	return s&f == f
}

// IsValid returns true if no undefined bit is set.
func (s StatusFlags) IsValid() bool {
	return s&^statusFlagsMask == 0
}

func (s StatusFlags) String() string {
	return flagString(uint64(s), []flagName{
		{uint64(StatusNotPaired), "NotPaired"},
		{uint64(StatusNotConfiguredForWiFi), "NotConfiguredForWiFi"},
		{uint64(StatusProblemDetected), "ProblemDetected"},
	})
}

// PairingFeatureFlags is the "pf" bit set.
type PairingFeatureFlags uint8

// PairingFeatureFlags bits.
const (
	PairingFeatureAppleAuthCoprocessor PairingFeatureFlags = 0x01
	PairingFeatureSoftwareAuth         PairingFeatureFlags = 0x02

	pairingFeatureFlagsMask = PairingFeatureAppleAuthCoprocessor | PairingFeatureSoftwareAuth
)

// Has reports whether every bit of f is set.
func (p PairingFeatureFlags) Has(f PairingFeatureFlags) bool {
	return p&f == f
}

// IsValid returns true if no undefined bit is set.
func (p PairingFeatureFlags) IsValid() bool {
	return p&^pairingFeatureFlagsMask == 0
}

func (p PairingFeatureFlags) String() string {
	return flagString(uint64(p), []flagName{
		{uint64(PairingFeatureAppleAuthCoprocessor), "AppleAuthCoprocessor"},
		{uint64(PairingFeatureSoftwareAuth), "SoftwareAuth"},
	})
}

// FeatureFlags is the "ff" bit set.
type FeatureFlags uint8

// FeatureFlags bits.
const (
	FeatureHAPPairing  FeatureFlags = 0x01
	FeatureSecureVideo FeatureFlags = 0x02
	FeatureAudio       FeatureFlags = 0x04
	FeatureBridge      FeatureFlags = 0x08

	featureFlagsMask = FeatureHAPPairing | FeatureSecureVideo | FeatureAudio | FeatureBridge
)

// Has reports whether every bit of f is set.
func (f FeatureFlags) Has(o FeatureFlags) bool {
	return f&o == o
}

// IsValid returns true if no undefined bit is set.
func (f FeatureFlags) IsValid() bool {
	return f&^featureFlagsMask == 0
}

func (f FeatureFlags) String() string {
	return flagString(uint64(f), []flagName{
		{uint64(FeatureHAPPairing), "HAPPairing"},
		{uint64(FeatureSecureVideo), "SecureVideo"},
		{uint64(FeatureAudio), "Audio"},
		{uint64(FeatureBridge), "Bridge"},
	})
}

type flagName struct {
	bit  uint64
	name string
}

func flagString(v uint64, names []flagName) string {
	if v == 0 {
		return "None"
	}
	var parts []string
	for _, n := range names {
		if v&n.bit != 0 {
			parts = append(parts, n.name)
			v &^= n.bit
		}
	}
	if v != 0 {
		parts = append(parts, fmt.Sprintf("0x%X", v))
	}
	return strings.Join(parts, "|")
}
