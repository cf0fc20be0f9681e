package entities

// AccessLevel is the outcome of an access policy check
type AccessLevel int

const (
	AccessDenied AccessLevel = iota
	AccessViewOnly
	AccessFull
)

func (l AccessLevel) String() string {
	switch l {
	case AccessViewOnly:
		return "view_only"
	case AccessFull:
		return "full_access"
	default:
		return "denied"
	}
}

// Allows reports whether the level grants at least viewing
func (l AccessLevel) Allows() bool {
	return l != AccessDenied
}
