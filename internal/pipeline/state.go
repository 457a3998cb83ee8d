package pipeline

// ChapterState tracks a chapter through the run.
//
// Detected → Skipped (terminal)
// Detected → Queued → Extracting → Assembling → Validating → CommitPending → Committed (terminal)
// any working state → Failed (terminal)
// CommitPending → Discarded (terminal) when the run aborts first
//
// CommitPending → Committed is the sole transition gated by the global
// ordering constraint: a chapter may sit in CommitPending while
// earlier-indexed chapters are still mid-flight. A chapter in Discarded
// did nothing wrong; its finished result was thrown away because an
// earlier-indexed chapter failed, and it will be recomputed on resume.
type ChapterState string

const (
	StateDetected      ChapterState = "detected"
	StateSkipped       ChapterState = "skipped"
	StateQueued        ChapterState = "queued"
	StateExtracting    ChapterState = "extracting"
	StateAssembling    ChapterState = "assembling"
	StateValidating    ChapterState = "validating"
	StateCommitPending ChapterState = "commit_pending"
	StateCommitted     ChapterState = "committed"
	StateDiscarded     ChapterState = "discarded"
	StateFailed        ChapterState = "failed"
)
