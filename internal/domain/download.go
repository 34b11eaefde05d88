package domain

import "time"

// DownloadRecord is one delivered media item, kept only to compute the
// per-user daily count. Rows are append-only.
type DownloadRecord struct {
	ID           int64
	UserID       int64
	DownloadDate string
	CreatedAt    time.Time
}

// DateKey formats t as the calendar-date key used by download counters.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Stats is the aggregate snapshot rendered by the admin debug view.
type Stats struct {
	TotalUsers       int64
	ActiveVipCount   int64
	DownloadsToday   int64
	PaymentsByStatus map[PaymentStatus]int64
}
