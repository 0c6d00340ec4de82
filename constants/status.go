package constants

// JobStatus is the canonical status for rows in generation_jobs.
type JobStatus string

// Stable values (store these exact strings in the DB).
const (
	JobStatusQueued    JobStatus = "QUEUED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusSucceeded JobStatus = "SUCCEEDED"
	JobStatusFailed    JobStatus = "FAILED"
)

// GenerationKind names what a generation job produced.
type GenerationKind string

const (
	GenQuiz      GenerationKind = "quiz"
	GenStudyPlan GenerationKind = "study_plan"
	GenCode      GenerationKind = "code"
	GenAdhoc     GenerationKind = "adhoc"
)
