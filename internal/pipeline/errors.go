package pipeline

import "github.com/pkg/errors"

// Fatal pipeline error kinds. Encode failures surface as
// *encoder.EncodeError or encoder.ErrTimeout; probe failures are
// advisory and never abort a run.
var (
	ErrStageIn  = errors.New("download failed")
	ErrManifest = errors.New("manifest generation failed")
	ErrStageOut = errors.New("upload failed")
)
