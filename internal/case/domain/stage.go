package domain

// Stage identifies one store in the case pipeline. Live stages hold
// cases still in motion; archive stages hold the snapshots left behind
// when a case resolves or moves forward.
type Stage string

const (
	StageBlotter Stage = "blotter"
	StageLupon   Stage = "lupon"
	StageLupon2  Stage = "lupon2"
	StageLupon3  Stage = "lupon3"
	StageCFA     Stage = "cfa"

	StageBlotterComplete Stage = "blotter-complete"
	StageLuponComplete   Stage = "lupon-complete"
	StageCFAComplete     Stage = "cfa-complete"
)

// LiveStages lists the pipeline stages in escalation order.
var LiveStages = []Stage{StageBlotter, StageLupon, StageLupon2, StageLupon3, StageCFA}

// ArchiveStages lists the stores that only ever receive snapshots.
var ArchiveStages = []Stage{StageBlotterComplete, StageLuponComplete, StageCFAComplete}

// All three hearing stages archive into the same store; a case heard
// twice leaves two snapshots there.
var archiveOf = map[Stage]Stage{
	StageBlotter: StageBlotterComplete,
	StageLupon:   StageLuponComplete,
	StageLupon2:  StageLuponComplete,
	StageLupon3:  StageLuponComplete,
	StageCFA:     StageCFAComplete,
}

// Archive returns the archive store this stage resolves into, or ""
// for stages that are themselves archives.
func (s Stage) Archive() Stage {
	return archiveOf[s]
}

// IsLive reports whether cases at this stage can still be transitioned.
func (s Stage) IsLive() bool {
	_, ok := archiveOf[s]
	return ok
}

// ParseStage maps a path segment to a known stage.
func ParseStage(s string) (Stage, bool) {
	switch Stage(s) {
	case StageBlotter, StageLupon, StageLupon2, StageLupon3, StageCFA,
		StageBlotterComplete, StageLuponComplete, StageCFAComplete:
		return Stage(s), true
	}
	return "", false
}
