package domain

import "context"

// CatalogReader lists category pages and runs scoped searches against the remote catalog.
type CatalogReader interface {
	// ListCategory returns one page of a category list
	ListCategory(ctx context.Context, category Category, page, pageSize int) (Page, error)

	// Search returns one page of results for query restricted to scope
	Search(ctx context.Context, query string, scope Category, page, pageSize int) (Page, error)
}

// PreferenceWriter applies like/dislike/undislike writes.
type PreferenceWriter interface {
	Mutate(ctx context.Context, action Action, pref Preference) error
}

// Catalog is everything the session needs from the remote side.
type Catalog interface {
	CatalogReader
	PreferenceWriter
}

// CredentialStore persists the session credential between runs.
type CredentialStore interface {
	LoadCredential() (Credential, bool)
	SaveCredential(cred Credential) error
	ClearCredential() error
}
