package model

// SignupParams contains the fields of a new account.
type SignupParams struct {
	Username string
	Email    string
	Password string
	Name     string
}

// AccountLookup identifies an account by username or email. Username is tried first.
type AccountLookup struct {
	Username string
	Email    string
}

// LoginParams contains login credentials.
type LoginParams struct {
	AccountLookup
	Password string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         User
}
