package storage

// Session is the persisted connection state: whether an account is active
// and which one. Saved under KeySession.
type Session struct {
	Connected bool   `json:"connected"`
	Address   string `json:"address"`
}
