package spotify

// Playlist is a read-through snapshot of a playlist owned by the catalog
// service. Membership is not materialized here; it is queried on demand.
type Playlist struct {
	ID      string
	OwnerID string
	Name    string
}
