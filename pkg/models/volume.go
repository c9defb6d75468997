package models

// Volume is one volume of a series. ChapterID is the id of the first
// chapter inside the volume; page images are addressed by chapter.
// Read and Pages are absolute page counts.
type Volume struct {
	ID        int    `json:"volume_id"`
	SeriesID  int    `json:"series_id"`
	ChapterID int    `json:"chapter_id"`
	Title     string `json:"title"`
	Read      int    `json:"read"`
	Pages     int    `json:"pages"`
}
