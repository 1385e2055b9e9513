package model

import "time"

// SyncMeta carries the cloud-linkage fields every syncable record embeds.
// CloudID is assigned exactly once, at first successful upload, and is
// immutable afterwards. A record is dirty until both fields are set.
type SyncMeta struct {
	CloudID      *string    `json:"cloud_id" gorm:"size:64;index"`
	LastSyncedAt *time.Time `json:"last_synced_at"`
}

// Dirty reports whether the record still needs an upload.
func (m *SyncMeta) Dirty() bool {
	return m.CloudID == nil || m.LastSyncedAt == nil
}

// MarkSynced stamps both cloud-linkage fields together. They are never set
// one without the other; a half-stamped record would be skipped or
// duplicated forever on retry.
func (m *SyncMeta) MarkSynced(cloudID string, at time.Time) {
	m.CloudID = &cloudID
	m.LastSyncedAt = &at
}

// MarkDirty clears the synced stamp so the next sync pass re-uploads the
// record. CloudID is kept: once assigned it never changes.
func (m *SyncMeta) MarkDirty() {
	m.LastSyncedAt = nil
}
