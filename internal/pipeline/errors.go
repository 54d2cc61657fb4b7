package pipeline

import (
	"fmt"

	"github.com/epochlab/protopack/internal/stage"
)

// StageError reports an external tool failure for one stage. The run aborts
// at that point: no marker is written for the failed stage, earlier stages in
// the same run keep theirs, and later targets are not attempted.
type StageError struct {
	Stage stage.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
