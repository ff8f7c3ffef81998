package model

// Todo is the client's copy of a server-owned todo entry.
// The id is assigned by the server and never changes; only Done is
// mutable through this client.
type Todo struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// Stats is the server-computed snapshot. It is never derived locally.
type Stats struct {
	Total   int `json:"total"`
	Done    int `json:"done"`
	NotDone int `json:"not_done"`
}

// Session pairs a username with the API key the server issued for it.
type Session struct {
	Username string `json:"username"`
	APIKey   string `json:"api_key"`
}
