package document

import "time"

// Permission is the access level granted to a collaborator.
type Permission string

const (
	PermissionView Permission = "view"
	PermissionEdit Permission = "edit"
)

// Collaborator is a non-owner user granted access to a document.
// The collaborator list is ordered and unique per user.
type Collaborator struct {
	UserID     string     `bson:"userId" json:"userId"`
	Permission Permission `bson:"permission" json:"permission"`
}

// Document is the persistent document model. Content and Data are opaque
// payloads; the server never interprets edit semantics.
type Document struct {
	ID             string         `bson:"_id,omitempty" json:"id"`
	Title          string         `bson:"title" json:"title"`
	Content        string         `bson:"content" json:"content"`
	Data           string         `bson:"data" json:"data"`
	CurrentVersion int64          `bson:"currentVersion" json:"currentVersion"`
	Owner          string         `bson:"owner" json:"owner"`
	Collaborators  []Collaborator `bson:"collaborators" json:"collaborators"`
	// OnlineUsers is the durable mirror of the presence registry so presence
	// survives server restarts in a degraded form.
	OnlineUsers []string  `bson:"onlineUsers" json:"onlineUsers"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ParticipantIDs returns the owner plus every collaborator, in order.
func (d *Document) ParticipantIDs() []string {
	out := make([]string, 0, len(d.Collaborators)+1)
	out = append(out, d.Owner)
	for _, c := range d.Collaborators {
		out = append(out, c.UserID)
	}
	return out
}

// Version is an immutable full-content snapshot of a document.
// (docId, version) is unique; records are created once and never mutated.
type Version struct {
	DocID     string    `bson:"docId" json:"docId"`
	Version   int64     `bson:"version" json:"version"`
	Content   string    `bson:"content" json:"content"`
	CreatedBy string    `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
