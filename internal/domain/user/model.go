package user

// Principal identifies the authenticated caller. The engine treats the id as
// opaque; identity lives in the external account service.
type Principal struct {
	UserID  string
	Email   string
	IsAdmin bool
}
