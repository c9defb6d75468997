package models

// Series is a series as reported to callers. Read is a percentage in
// [0, 100]; it is 0 when the server reports zero total pages.
type Series struct {
	ID    int     `json:"id"`
	Title string  `json:"title"`
	Read  float64 `json:"read"`
	Pages int     `json:"pages"`
}

// ReadPercent computes the read percentage for pagesRead out of pages.
// A series with no pages counts as unread rather than dividing by zero.
func ReadPercent(pagesRead, pages int) float64 {
	if pages <= 0 {
		return 0
	}
	return float64(pagesRead) * 100 / float64(pages)
}
