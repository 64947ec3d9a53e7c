package ports

import "context"

// ImportRequest asks for frames to be extracted from a batch of videos
type ImportRequest struct {
	Sources  []string
	DestRoot string
	Quality  int // ffmpeg -q:v, 2..31
	Threads  int // ffmpeg -threads
	Workers  int // videos extracted concurrently
}

// ImportEventKind classifies import events
type ImportEventKind int

const (
	ImportProgress ImportEventKind = iota
	ImportItemError
	ImportFinished
)

func (k ImportEventKind) String() string {
	switch k {
	case ImportProgress:
		return "progress"
	case ImportItemError:
		return "error"
	case ImportFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// ImportResult describes one successfully extracted video
type ImportResult struct {
	SourcePath string
	FramesDir  string // absolute
	FrameCount int
	FPS        *float64
}

// ImportEvent is emitted while a batch is processed. The Finished event is
// always last and carries the successful results in input order.
type ImportEvent struct {
	Kind    ImportEventKind
	Index   int // 1-based position of the video in the batch
	Total   int
	Source  string
	Message string
	Err     error
	Results []ImportResult
}

// FrameExtractor converts videos into frame directories
type FrameExtractor interface {
	// Check reports whether the extraction tools can be run
	Check() error

	// Import processes the batch in the background. The channel is closed
	// after the Finished event.
	Import(ctx context.Context, req ImportRequest) <-chan ImportEvent
}
