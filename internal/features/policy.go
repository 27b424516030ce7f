package features

// PolicyKind selects what happens to a category with no learned code
type PolicyKind string

const (
	PolicyReject           PolicyKind = "reject"
	PolicyFallbackCategory PolicyKind = "fallback_category"
	PolicyUnknownCode      PolicyKind = "unknown_code"
)

// Policy is one row of the fallback decision table
type Policy struct {
	Kind     PolicyKind
	Category string // PolicyFallbackCategory
	Code     int    // PolicyUnknownCode
}

// DefaultHub is the location used for places the location encoder has never seen
const DefaultHub = "Colombo"

// Policies is the fixed fallback decision table, keyed by encoder table name.
// Tables not listed here reject unknown values.
var Policies = map[string]Policy{
	"location":    {Kind: PolicyFallbackCategory, Category: DefaultHub},
	"time_of_day": {Kind: PolicyUnknownCode, Code: 0},
}

// PolicyFor returns the policy of a table
func PolicyFor(table string) Policy {
	if p, ok := Policies[table]; ok {
		return p
	}
	return Policy{Kind: PolicyReject}
}
