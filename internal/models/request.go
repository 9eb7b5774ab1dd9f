package models

import "encoding/json"

// QueuedRequest is a mutating call deferred because the device was offline.
// Params holds only the business parameters of the call (bookmark_id, url);
// OAuth parameters are regenerated when the request is replayed.
type QueuedRequest struct {
	// Seq orders replay strictly FIFO. Assigned by the store.
	Seq       int64             `db:"seq" json:"seq"`
	ID        string            `db:"id" json:"id"`
	URL       string            `db:"url" json:"url"`
	Params    map[string]string `db:"-" json:"params"`
	CreatedAt int64             `db:"created_at" json:"created_at"`
}

// TableName returns the table name for QueuedRequest.
func (QueuedRequest) TableName() string {
	return "queued_requests"
}

// EncodeParams serializes the business parameters for durable storage.
func (r *QueuedRequest) EncodeParams() ([]byte, error) {
	return json.Marshal(r.Params)
}

// DecodeParams restores the business parameters from durable storage.
func (r *QueuedRequest) DecodeParams(data []byte) error {
	return json.Unmarshal(data, &r.Params)
}

// Credential holds the xAuth token pair for the signed-in user. The token
// secret is sealed before it reaches the store.
type Credential struct {
	Username          string `db:"username"`
	Token             string `db:"token"`
	TokenSecretSealed string `db:"token_secret_sealed"`
	CreatedAt         int64  `db:"created_at"`
}

// TableName returns the table name for Credential.
func (Credential) TableName() string {
	return "credentials"
}
