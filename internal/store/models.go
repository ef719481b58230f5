package store

// DefinitionKind tags the two variants of definitions and configurations:
// administrator-curated ("predefined") and user-created ("user").
type DefinitionKind string

const (
	KindPredefined DefinitionKind = "predefined"
	KindUser       DefinitionKind = "user"
)

// Definition holds the information required to retrieve a feed: the adapter
// kind selecting the retrieval mechanism and its string parameters (such as
// "url"). Predefined definitions additionally carry a functional name and the
// roles that receive the feed by default; user definitions carry their owner.
type Definition struct {
	ID           int64
	Kind         DefinitionKind
	AdapterKind  string
	Name         string
	FName        string // predefined only, unique functional name
	Owner        string // user definitions only
	Parameters   map[string]string
	DefaultRoles []string // predefined only
	CreatedAt    *string
}

// Predefined reports whether the definition is administrator-curated.
func (d *Definition) Predefined() bool {
	return d.Kind == KindPredefined
}

// Configuration links a definition into a news set. Exactly one definition
// and one set per configuration; Displayed is the user-toggleable visibility.
type Configuration struct {
	ID           int64
	SetID        int64
	DefinitionID int64
	Kind         DefinitionKind
	Displayed    bool
	Position     int
	Owner        string // user configurations only
}

// NewsSet is a named, per-user, ordered collection of configurations.
type NewsSet struct {
	ID        int64
	UserID    string
	Name      string
	CreatedAt *string
}
