package domain

import "time"

// Order is the retention-relevant view of a client order.
type Order struct {
	ID                 string     `json:"id"`
	OrderNumber        string     `json:"order_number"`
	ClientID           string     `json:"client_id"`
	RetentionExpiresAt time.Time  `json:"retention_expires_at"`
	Archived           bool       `json:"archived"`
	Items              []LineItem `json:"items"`
}

// LineItem references one deliverable media item of an order.
type LineItem struct {
	ID          string `json:"id"`
	OrderID     string `json:"order_id"`
	MediaItemID string `json:"media_item_id"`
}

// MediaItem is a gallery asset that orders deliver.
type MediaItem struct {
	ID        string    `json:"id"`
	GalleryID string    `json:"gallery_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// ReminderResult records one retention reminder that was handed to the
// email transport.
type ReminderResult struct {
	OrderNumber   string    `json:"orderNumber"`
	Email         string    `json:"email"`
	DaysRemaining int       `json:"daysRemaining"`
	ItemCount     int       `json:"itemCount"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// ScanSummary is the aggregate outcome of one retention scan.
type ScanSummary struct {
	Success       bool             `json:"success"`
	RemindersSent int              `json:"remindersSent"`
	Results       []ReminderResult `json:"results"`
	Error         string           `json:"error,omitempty"`
}
