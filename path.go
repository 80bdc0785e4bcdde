package structcol

import (
	"fmt"
	"strings"
)

// Assignment is one SET item of an update statement: a dotted path targeting
// the aggregate root or one of its members, and the value to write. A nil
// value assigns NULL.
type Assignment struct {
	Path  string
	Value any
}

// Assign returns an Assignment for the given path and value.
func Assign(path string, value any) Assignment {
	return Assignment{Path: path, Value: value}
}

// Path is a parsed assignment path: a root attribute and an optional nested
// member ("root" or "root.member").
type Path struct {
	Root   string
	Member string
}

// ParsePath parses a dotted assignment path.
func ParsePath(s string) (Path, error) {
	root, member, nested := strings.Cut(s, ".")
	if root == "" || (nested && member == "") || strings.Contains(member, ".") {
		return Path{}, fmt.Errorf("structcol: invalid assignment path %q", s)
	}
	return Path{Root: root, Member: member}, nil
}

// MemberWrite is a resolved write to one sub-column of the structured type.
type MemberWrite struct {
	Attr  Attribute
	Value any
}

// ResolvedUpdate is the terminal result of resolving the assignment list of a
// single update statement: either a whole-value replacement or a merged set
// of sub-column writes that leaves every unassigned sibling untouched.
type ResolvedUpdate struct {
	// Root is the root path the assignments targeted.
	Root string
	// Replace reports a whole-aggregate write. Value is the replacement
	// instance, or nil for an aggregate NULL.
	Replace bool
	Value   any
	// Members holds the sub-column writes in physical column order when
	// Replace is false.
	Members []MemberWrite
}

// ResolveAssignments resolves the assignment list of one update statement
// against this descriptor. root names the structured column the paths hang
// off. Assignments to sibling members are merged into a single structured
// write; an assignment to the root itself is incompatible with any
// simultaneous member assignment and rejects the whole statement with a
// ConflictError, as does assigning the same path twice. Nothing is executed
// for a conflicting statement.
func (d *Descriptor) ResolveAssignments(root string, asgs []Assignment) (*ResolvedUpdate, error) {
	if len(asgs) == 0 {
		return nil, fmt.Errorf("structcol: update of %q has no assignments", root)
	}
	var (
		paths      = make([]string, 0, len(asgs))
		members    = make(map[string]any, len(asgs))
		rootValue  any
		rootAssign bool
	)
	for _, a := range asgs {
		p, err := ParsePath(a.Path)
		if err != nil {
			return nil, err
		}
		if p.Root != root {
			return nil, fmt.Errorf("structcol: assignment %q does not target %q", a.Path, root)
		}
		paths = append(paths, a.Path)
		if p.Member == "" {
			// Whole-aggregate write. Combining it with member writes in one
			// statement is contradictory.
			if rootAssign || len(members) > 0 {
				return nil, NewConflictError(root, paths...)
			}
			rootAssign, rootValue = true, a.Value
			continue
		}
		attr, ok := d.Attribute(p.Member)
		if !ok {
			return nil, NewDescriptorError(d.dbType, "path %q references unknown attribute %q", a.Path, p.Member)
		}
		if _, dup := members[attr.Name]; rootAssign || dup {
			return nil, NewConflictError(root, paths...)
		}
		members[attr.Name] = a.Value
	}
	if rootAssign {
		if rootValue != nil {
			// Validate the replacement up front so the statement fails
			// before execution, not during encoding.
			if _, err := d.Decompose(rootValue); err != nil {
				return nil, err
			}
		}
		return &ResolvedUpdate{Root: root, Replace: true, Value: rootValue}, nil
	}
	resolved := &ResolvedUpdate{Root: root}
	for p := range d.phys {
		attr := d.physicalAttr(p)
		if v, ok := members[attr.Name]; ok {
			resolved.Members = append(resolved.Members, MemberWrite{Attr: attr, Value: v})
		}
	}
	return resolved, nil
}
