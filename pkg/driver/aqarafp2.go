package driver

// ModelAqaraFP2 is the md value advertised by the Aqara FP2 presence sensor.
const ModelAqaraFP2 = "PS-S02D"

// NewAqaraFP2 returns a HAPDriver for the Aqara FP2. Name, Description and
// Model in config are overwritten.
func NewAqaraFP2(config HAPConfig) *HAPDriver {
	config.Name = "aqarafp2"
	config.Description = "Aqara FP2 presence sensor (HAP)"
	config.Model = ModelAqaraFP2
	return NewHAPDriver(config)
}
