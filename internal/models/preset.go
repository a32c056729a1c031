package models

// ResolutionPreset maps a label to encode targets. Bitrate is passed
// through verbatim to the encoder (conventionally "<kbps>k").
type ResolutionPreset struct {
	Resolution string `json:"resolution" validate:"required,lte=10"`
	Width      int    `json:"width" validate:"required,gt=0"`
	Height     int    `json:"height" validate:"required,gt=0"`
	Bitrate    string `json:"bitrate" validate:"required,lte=20"`
}

// PresetCatalog is the ordered table of encode targets. Encoding runs
// in catalog order; the master playlist is emitted ascending by width.
type PresetCatalog []ResolutionPreset

func DefaultCatalog() PresetCatalog {
	return PresetCatalog{
		{Resolution: "480p", Width: 854, Height: 480, Bitrate: "1000k"},
		{Resolution: "720p", Width: 1280, Height: 720, Bitrate: "2500k"},
		{Resolution: "1080p", Width: 1920, Height: 1080, Bitrate: "5000k"},
	}
}
