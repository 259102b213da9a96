package tasks

import (
	"fmt"

	"github.com/desertthunder/pathfinder/internal/models"
)

// Messages shown to the user by the upload workflow.
const (
	AnalyzeSucceededMessage = "CV uploaded and analyzed successfully!"
	AnalyzeFailedMessage    = "Failed to upload CV. Please try again."
	LoginRequiredMessage    = "You must be logged in to analyze your CV."
	PDFOnlyMessage          = "Only PDF files are allowed."
)

// ProgressUpdate represents a change in the upload workflow.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	State   State                // Controller state after the change
	Phase   models.ProgressPhase // Progress phase
	Percent int                  // Staging progress, 0..100
	Message string               // Human-readable message for display
	Data    any                  // *models.UploadCandidate on selection, *models.AnalysisResult on success
}

// State is the upload controller's state.
type State int

const (
	NoFile State = iota
	Selecting
	InProgress
	Ready
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case NoFile:
		return "no_file"
	case Selecting:
		return "selecting"
	case InProgress:
		return "in_progress"
	case Ready:
		return "ready"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

func rejectedUpdate(state State, progress models.UploadProgress, err error) ProgressUpdate {
	return ProgressUpdate{
		State:   state,
		Phase:   progress.Phase,
		Percent: progress.Percent,
		Message: err.Error(),
	}
}

func selectingUpdate(c *models.UploadCandidate) ProgressUpdate {
	return ProgressUpdate{
		State:   Selecting,
		Phase:   models.PhaseIdle,
		Message: fmt.Sprintf("Selected %s (%s)", c.Name, HumanSize(c.Size)),
		Data:    c,
	}
}

func stagingUpdate(percent int) ProgressUpdate {
	return ProgressUpdate{
		State:   InProgress,
		Phase:   models.PhaseInProgress,
		Percent: percent,
		Message: fmt.Sprintf("Preparing upload... %d%%", percent),
	}
}

func readyUpdate(c *models.UploadCandidate) ProgressUpdate {
	return ProgressUpdate{
		State:   Ready,
		Phase:   models.PhaseComplete,
		Percent: 100,
		Message: fmt.Sprintf("%s is ready to analyze", c.Name),
		Data:    c,
	}
}

func stagingFailedUpdate(err error) ProgressUpdate {
	return ProgressUpdate{
		State:   NoFile,
		Phase:   models.PhaseIdle,
		Message: fmt.Sprintf("Failed to read file: %v", err),
	}
}

func removedUpdate() ProgressUpdate {
	return ProgressUpdate{State: NoFile, Phase: models.PhaseIdle, Message: "File removed"}
}

func submittingUpdate(c *models.UploadCandidate) ProgressUpdate {
	return ProgressUpdate{
		State:   Submitting,
		Phase:   models.PhaseComplete,
		Percent: 100,
		Message: fmt.Sprintf("Analyzing %s...", c.Name),
	}
}

func succeededUpdate(result *models.AnalysisResult) ProgressUpdate {
	return ProgressUpdate{
		State:   Succeeded,
		Phase:   models.PhaseIdle,
		Message: AnalyzeSucceededMessage,
		Data:    result,
	}
}

func failedUpdate() ProgressUpdate {
	return ProgressUpdate{
		State:   Failed,
		Phase:   models.PhaseComplete,
		Percent: 100,
		Message: AnalyzeFailedMessage,
	}
}

// HumanSize formats a byte count as B, KB or MB.
func HumanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
