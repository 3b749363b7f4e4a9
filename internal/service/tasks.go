package service

// Asynq task types.
const (
	TaskTypeUpdateRates  = "rates:update"
	TaskTypePruneHistory = "rates:prune_history"
)

// Update triggers, recorded in the task payload for logging.
const (
	TriggerSchedule       = "schedule"
	TriggerSettingsChange = "settings_change"
	TriggerManual         = "manual"
)

// UpdateRatesPayload is the payload of TaskTypeUpdateRates tasks.
type UpdateRatesPayload struct {
	Trigger string `json:"trigger"`
}

// PruneHistoryPayload is the payload of TaskTypePruneHistory tasks.
type PruneHistoryPayload struct {
	RetentionDays int `json:"retention_days"`
}
