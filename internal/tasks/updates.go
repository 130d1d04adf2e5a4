package tasks

import (
	"fmt"

	"github.com/desertthunder/reelx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	GenerateScript Phase = iota
	ExtractScenes
	AnalyzeLocation
	ValidateScenes
	BuildTemplate
	UploadScenes
	SubmitRender
	PollRender
)

func (p Phase) String() string {
	switch p {
	case GenerateScript:
		return "generate_script"
	case ExtractScenes:
		return "extract_scenes"
	case AnalyzeLocation:
		return "analyze_location"
	case ValidateScenes:
		return "validate_scenes"
	case BuildTemplate:
		return "build_template"
	case UploadScenes:
		return "upload_scenes"
	case SubmitRender:
		return "submit_render"
	case PollRender:
		return "poll_render"
	default:
		return ""
	}
}

func generatingUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: GenerateScript, Step: 1, Total: 1, Message: "Generating content from prompt..."}
}

func extractedUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExtractScenes,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Extracted %d scenes from script", count),
	}
}

func analyzingUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: AnalyzeLocation, Step: 1, Total: 1, Message: "Analyzing location..."}
}

func validatedUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ValidateScenes,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("All %d scenes have videos", total),
	}
}

func buildingTemplateUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: BuildTemplate, Step: 1, Total: 2, Message: "Generating video template..."}
}

func templateReadyUpdate(bound int, tmpl *models.VideoTemplate) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BuildTemplate,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Template has %d scenes, %d need video", len(tmpl.Scenes), bound),
		Data:    tmpl,
	}
}

func uploadingUpdate(total int) ProgressUpdate {
	return ProgressUpdate{Phase: UploadScenes, Step: 0, Total: total, Message: "Uploading videos..."}
}

func uploadedUpdate(up models.UploadedScene, done, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadScenes,
		Step:    done,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ scene %d uploaded", done, total, up.SceneID),
		Data:    up,
	}
}

func submittingUpdate(scenes int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SubmitRender,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Creating final video from %d scenes...", scenes),
	}
}

func pollUpdate(ev PollEvent) ProgressUpdate {
	msg := fmt.Sprintf("Video status: %s", ev.State)
	switch ev.State {
	case PollProcessing:
		if ev.Attempt > 0 {
			msg = fmt.Sprintf("Video is still processing (check %d)...", ev.Attempt)
		} else {
			msg = "Waiting for render to start..."
		}
	case PollCompleted:
		msg = "✓ Video processing completed!"
	case PollFailed:
		msg = fmt.Sprintf("✗ Video processing failed: %v", ev.Err)
	}

	return ProgressUpdate{Phase: PollRender, Step: ev.Attempt, Message: msg, Data: ev}
}
