package itemradar

import "time"

// Location is a point with an optional resolved address.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// Item is a registered lost or found item.
type Item struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	Description   string            `json:"description"`
	AIDescription string            `json:"ai_description,omitempty"`
	Category      string            `json:"category,omitempty"`
	Subcategory   string            `json:"subcategory,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	Keywords      []string          `json:"keywords,omitempty"`
	Location      Location          `json:"location"`
	ContactEmail  string            `json:"contact_email"`
	Status        string            `json:"status"`
	MatchedWith   string            `json:"matched_with,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	ExpiresAt     time.Time         `json:"expires_at"`
}

// RegisterItemRequest describes one item to register.
type RegisterItemRequest struct {
	Type         string  `json:"type"`
	Description  string  `json:"description"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Address      string  `json:"address,omitempty"`
	ContactEmail string  `json:"contact_email"`
}

// ListItemsRequest selects a page of items by category.
type ListItemsRequest struct {
	Category string
	Status   string
	Offset   int
	Limit    int
}

// ItemList is one page of a category listing.
type ItemList struct {
	Items []Item `json:"items"`
	Total int    `json:"total"`
}

// BatchResult reports the outcome of one entry in a batch registration.
type BatchResult struct {
	ItemID string    `json:"item_id,omitempty"`
	Error  *APIError `json:"error,omitempty"`
}

// Match is one candidate pairing of a lost item with a found item.
type Match struct {
	ItemID       string            `json:"item_id"`
	Confidence   float64           `json:"confidence"`
	Description  string            `json:"description"`
	Category     string            `json:"category,omitempty"`
	Subcategory  string            `json:"subcategory,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	Keywords     []string          `json:"keywords,omitempty"`
	Address      string            `json:"address,omitempty"`
	DistanceKm   float64           `json:"distance_km"`
	ContactEmail string            `json:"contact_email,omitempty"`
}

// Session is the state of one lost-item search workflow.
type Session struct {
	SessionID       string    `json:"session_id"`
	Phase           string    `json:"phase"`
	LostItemID      string    `json:"lost_item_id,omitempty"`
	Matches         []Match   `json:"matches"`
	AskedQuestions  []string  `json:"asked_questions,omitempty"`
	CurrentQuestion string    `json:"current_question,omitempty"`
	Iterations      int       `json:"iterations"`
	Complete        bool      `json:"complete"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SearchRequest starts a lost-item search within a session.
type SearchRequest struct {
	Description  string `json:"description"`
	Location     string `json:"location"`
	ContactEmail string `json:"contact_email"`
}

// Question is a clarifying question, or the signal that none is available.
type Question struct {
	Question  string `json:"question,omitempty"`
	Available bool   `json:"available"`
}

// Result is the final outcome of a successfully narrowed session.
type Result struct {
	SessionID  string  `json:"session_id"`
	ItemID     string  `json:"item_id"`
	Confidence float64 `json:"confidence"`
	Message    string  `json:"message"`
}

// Health is the aggregated service health report.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// BudgetUsage describes one AI token budget period.
type BudgetUsage struct {
	Limit     int64 `json:"limit"`
	Used      int64 `json:"used"`
	Remaining int64 `json:"remaining"`
	Exhausted bool  `json:"exhausted"`
}

// Usage aggregates inventory counts and AI budget state.
type Usage struct {
	ItemsByStatus map[string]int `json:"items_by_status"`
	ItemsByType   map[string]int `json:"items_by_type"`
	Daily         BudgetUsage    `json:"daily"`
	Monthly       BudgetUsage    `json:"monthly"`
}
