package models

// MIMEPDF is the only accepted candidate type.
const MIMEPDF = "application/pdf"

// SelectionSource records how a candidate was chosen.
type SelectionSource int

const (
	SourcePicker SelectionSource = iota
	SourceDragDrop
)

func (s SelectionSource) String() string {
	if s == SourceDragDrop {
		return "drag-drop"
	}
	return "picker"
}

// UploadCandidate is the single file staged for upload.
type UploadCandidate struct {
	Path     string
	Name     string
	Size     int64
	MIMEType string
	Pages    int // 0 when the PDF could not be inspected
	Source   SelectionSource
	Content  []byte // filled once staging completes
}

// ProgressPhase is a discrete state of the progress machine.
type ProgressPhase int

const (
	PhaseIdle ProgressPhase = iota
	PhaseInProgress
	PhaseComplete
)

func (p ProgressPhase) String() string {
	switch p {
	case PhaseInProgress:
		return "in progress"
	case PhaseComplete:
		return "complete"
	default:
		return "idle"
	}
}

// UploadProgress tracks a candidate's staging progress.
type UploadProgress struct {
	Percent int
	Phase   ProgressPhase
}

// Complete reports whether submission is permitted.
func (p UploadProgress) Complete() bool {
	return p.Phase == PhaseComplete && p.Percent == 100
}
