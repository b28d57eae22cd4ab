package attendance

import "time"

const (
	KindCheckIn  = "check-in"
	KindCheckOut = "check-out"

	DateLayout      = "2006-01-02"
	RecentFeedLimit = 10

	// Multipart uploads above this are rejected before touching storage.
	MaxUploadBytes = 5 << 20
)

type UserRef struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type EventResponse struct {
	EventID        string    `json:"event_id"`
	UserID         string    `json:"user_id"`
	Type           string    `json:"type"`
	Location       string    `json:"location"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	Image          string    `json:"image"`
	IsInOffice     bool      `json:"isInOffice"`
	DistanceMeters float64   `json:"distance_meters"`
	Timestamp      time.Time `json:"timestamp"`
	User           *UserRef  `json:"user,omitempty"`
}

// LastEventResponse carries the toggle-inference sentinel: Type is null
// when the user has no events yet.
type LastEventResponse struct {
	Type      *string    `json:"type"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type MonthlySummaryResponse struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
}

type AdminSummaryResponse struct {
	TotalEmployees int64 `json:"totalEmployees"`
	PresentToday   int64 `json:"presentToday"`
	AbsentToday    int64 `json:"absentToday"`
}

type RecentEntry struct {
	EmployeeName string    `json:"employeeName"`
	Type         string    `json:"type"`
	Timestamp    time.Time `json:"timestamp"`
}

type AppendInput struct {
	UserID         string
	Kind           string
	Location       string
	Image          []byte
	IdempotencyKey string
}
