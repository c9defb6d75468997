package models

// ProgressRecord is one reading-position update, either pushed to the
// server directly or queued in the outbox while offline.
type ProgressRecord struct {
	SeriesID  int `json:"series_id"`
	VolumeID  int `json:"volume_id"`
	ChapterID int `json:"chapter_id"`
	Page      int `json:"page"`
}
