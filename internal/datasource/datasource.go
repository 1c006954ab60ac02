package datasource

// Origin tells which resolution step produced a data source.
type Origin int

const (
	OriginNone Origin = iota
	OriginConfigured
	OriginKeyed
	OriginNested
	OriginMember
	OriginFallback
)

// String returns the origin name.
func (o Origin) String() string {
	switch o {
	case OriginConfigured:
		return "configured"
	case OriginKeyed:
		return "keyed"
	case OriginNested:
		return "nested"
	case OriginMember:
		return "member"
	case OriginFallback:
		return "fallback"
	default:
		return "none"
	}
}

// DataSource is how one target member is populated.
type DataSource struct {
	Value     Expr
	Condition Condition
	// Nested lists the nullable accesses Value dereferences.
	Nested []*Access
	// Found is false for the explicit "no data available" marker and for
	// rule set fallbacks.
	Found  bool
	Origin Origin
	Reason string
}

// None is the explicit marker for a member no source can populate.
func None(reason string) DataSource {
	return DataSource{Reason: reason}
}

// IsNone reports whether d carries no value at all.
func (d DataSource) IsNone() bool { return d.Value == nil }

// String describes the data source for plan renderings.
func (d DataSource) String() string {
	if d.Value == nil {
		return "none: " + d.Reason
	}

	s := d.Value.String()
	if d.Condition != nil {
		s += " if " + d.Condition.String()
	}

	return s
}
