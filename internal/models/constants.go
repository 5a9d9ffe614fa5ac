package models

// Request lifecycle statuses. A request starts pending and moves to exactly
// one terminal status; terminal statuses never revert.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusError    = "error"
)

// Request types produced by the classifier.
const (
	TypeInfo        = "info"
	TypeReservation = "reservation"
	TypeStatusCheck = "status_check"
	TypeUnknown     = "unknown"
)

// Workflow node names, in the order they may appear in a trace.
const (
	NodeInitialize  = "initialize"
	NodeRouter      = "router"
	NodeRAG         = "rag"
	NodeCollection  = "collection"
	NodeStatusCheck = "status_check"
	NodeApproval    = "approval"
	NodeStorage     = "storage"
	NodeResponse    = "response"
)

const (
	// RequestIDPrefix prefixes every reservation request id.
	RequestIDPrefix = "REQ"

	// WorkflowIDPrefix prefixes every workflow run id.
	WorkflowIDPrefix = "FLOW"

	// ParseModeMarkdown for Telegram notifications.
	ParseModeMarkdown = "Markdown"

	// DefaultApprovalWaitSeconds bounds the in-request approval poll loop.
	// Deliberately short: a human approver answers via the status-check path.
	DefaultApprovalWaitSeconds = 2

	// DefaultApprovalPollMillis is the interval between polls inside the wait loop.
	DefaultApprovalPollMillis = 250

	// DefaultSimulatedDelayMillis is the simulated admin review delay.
	DefaultSimulatedDelayMillis = 1000

	// DefaultRetrievalTopK passages per query.
	DefaultRetrievalTopK = 3

	// DefaultCacheTTLMinutes for cached retrieval answers.
	DefaultCacheTTLMinutes = 30

	// DefaultWorkerIntervalSeconds between background decision pumps.
	DefaultWorkerIntervalSeconds = 5
)

// Reservation periods are normalized to fixed day boundaries.
const (
	PeriodStartHour = 10
	PeriodEndHour   = 12
)
