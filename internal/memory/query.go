package memory

import "strings"

// queryBuilder assembles SQL text together with its positional arguments so
// variable-length clauses never interpolate values into the statement.
type queryBuilder struct {
	sb   strings.Builder
	args []any
}

// Write appends a SQL fragment and the arguments bound by its placeholders.
func (b *queryBuilder) Write(fragment string, args ...any) *queryBuilder {
	b.sb.WriteString(fragment)
	b.args = append(b.args, args...)
	return b
}

// In appends a parenthesized placeholder list, one "?" per value.
// An empty list renders "(NULL)" so the statement stays valid and matches nothing.
func (b *queryBuilder) In(values []string) *queryBuilder {
	if len(values) == 0 {
		b.sb.WriteString("(NULL)")
		return b
	}
	b.sb.WriteByte('(')
	for i, v := range values {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.sb.WriteByte('?')
		b.args = append(b.args, v)
	}
	b.sb.WriteByte(')')
	return b
}

func (b *queryBuilder) String() string { return b.sb.String() }

func (b *queryBuilder) Args() []any { return b.args }
