package models

import "time"

// BackupVersion is the format version written by ExportBackup.
const BackupVersion = 2

// Backup is the plaintext export file.
type Backup struct {
	Version    int                   `json:"version"`
	ExportDate time.Time             `json:"exportDate"`
	Cards      []Card                `json:"cards"`
	Settings   *NotificationSettings `json:"settings,omitempty"`
	AISettings *AISettings           `json:"aiSettings,omitempty"`
}

// ImportMode selects how a backup is merged into the current wallet.
type ImportMode string

const (
	// ImportAppend adds cards whose id is not already present and keeps the
	// current settings.
	ImportAppend ImportMode = "append"
	// ImportReplace overwrites the wallet with the backup contents.
	ImportReplace ImportMode = "replace"
)
