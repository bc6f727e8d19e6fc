package models

// Identity placeholders used when a source leaves a field unset.
const (
	DefaultStudentName = "الطالب"
	DefaultCourse      = "course"
)

// Identity is the resolved student for a portal session. All fields are always
// set; an empty ID means no student has been resolved yet.
type Identity struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Course string `json:"course"`
}

// HasID reports whether identity-keyed operations are allowed.
func (i Identity) HasID() bool {
	return i.ID != ""
}

type IdentityField string

const (
	FieldID     IdentityField = "id"
	FieldName   IdentityField = "name"
	FieldCourse IdentityField = "course"
)

func (f IdentityField) Valid() bool {
	switch f {
	case FieldID, FieldName, FieldCourse:
		return true
	}
	return false
}

// IdentitySource names what caused an identity change.
type IdentitySource string

const (
	SourceURL    IdentitySource = "url"
	SourceManual IdentitySource = "manual"
	SourceReader IdentitySource = "reader"
)

func (s IdentitySource) String() string {
	return string(s)
}

// IdentityChange is delivered to subscribers after every mutation.
type IdentityChange struct {
	Previous Identity
	Current  Identity
	Source   IdentitySource
}
