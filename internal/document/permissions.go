package document

// Level is the resolved access level of a user on a document.
type Level int

const (
	LevelNone Level = iota
	LevelView
	LevelEdit
	LevelOwner
)

func (l Level) String() string {
	switch l {
	case LevelOwner:
		return "owner"
	case LevelEdit:
		return "edit"
	case LevelView:
		return "view"
	}
	return "none"
}

// CanRead reports whether the level grants read access.
func (l Level) CanRead() bool { return l != LevelNone }

// CanWrite reports whether the level grants write access
// (changes, saves, rollbacks).
func (l Level) CanWrite() bool { return l == LevelOwner || l == LevelEdit }

// Decide resolves a user's access level on a document. Pure function, no
// side effects; callers must re-evaluate it on every mutating event since
// collaborator grants can change mid-session.
func Decide(d *Document, userID string) Level {
	if d.Owner == userID {
		return LevelOwner
	}
	for _, c := range d.Collaborators {
		if c.UserID == userID {
			if c.Permission == PermissionEdit {
				return LevelEdit
			}
			return LevelView
		}
	}
	return LevelNone
}
