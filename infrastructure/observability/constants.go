package observability

// Metric name prefixes
const (
	MetricPrefix = "cagnotte"
)

// Metric names
const (
	// Lifecycle metrics
	PotsCreatedTotal         = MetricPrefix + ".pots.created_total"
	ContributionsTotal       = MetricPrefix + ".contributions.total"
	ResolutionsTotal         = MetricPrefix + ".resolutions.total"
	ResolutionConflictsTotal = MetricPrefix + ".resolutions.conflicts_total"
	AccessDeniedTotal        = MetricPrefix + ".access.denied_total"
	OperationDuration        = MetricPrefix + ".operation.duration"
	EventsEmittedTotal       = MetricPrefix + ".events.emitted_total"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"
)

// Label keys
const (
	LabelMode      = "mode"
	LabelOperation = "operation"
	LabelOutcome   = "outcome"
	LabelEventType = "event_type"
)

// Operation names
const (
	OperationCreate          = "create"
	OperationContribute      = "contribute"
	OperationResolveByDraw   = "resolve_by_draw"
	OperationResolveByPayout = "resolve_by_payout"
	OperationMakePublic      = "make_public"
	OperationGetPot          = "get_pot"
	OperationListVisible     = "list_visible"
	OperationListMine        = "list_mine"
	OperationDeadlineSweep   = "deadline_sweep"
)
