package model

import "time"

// Side-effect kinds fired on task mutations.
const (
	KindNewAssignment = "new_assignment"
	KindCompletion    = "completion"
)

// Notification is an append-only per-recipient side-effect record.
// Writes are best-effort and never roll back the task mutation that
// produced them.
type Notification struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	RecipientID string    `gorm:"type:varchar(64);not null;index" json:"recipient_id"`
	TaskID      string    `gorm:"type:varchar(64);not null;index" json:"task_id"`
	Kind        string    `gorm:"type:varchar(32);not null" json:"kind"`
	Title       string    `gorm:"type:varchar(255)" json:"title"`
	Body        string    `gorm:"type:text" json:"body"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
}

// TableName sets the table name.
func (Notification) TableName() string {
	return "notifications"
}

// Post is the feed counterpart of a notification, keyed by author.
type Post struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	AuthorID  string    `gorm:"type:varchar(64);not null;index" json:"author_id"`
	TaskID    string    `gorm:"type:varchar(64);not null;index" json:"task_id"`
	Kind      string    `gorm:"type:varchar(32);not null" json:"kind"`
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

// TableName sets the table name.
func (Post) TableName() string {
	return "posts"
}
