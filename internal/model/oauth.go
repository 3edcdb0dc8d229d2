package model

const (
	OAuthProviderGoogle = "google"

	// GoogleUserPrefix namespaces Google account ids in the users table.
	GoogleUserPrefix = "g:"
)

// OAuthUserProfile is a provider profile normalized for local storage. ID is
// already namespaced with the provider prefix.
type OAuthUserProfile struct {
	ID        string
	Email     string
	Name      string
	GivenName string
	Locale    string
	Avatar    string
}
