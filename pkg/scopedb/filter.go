package scopedb

import (
	"fmt"
	"maps"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// scopeFilter returns a copy of filter with the organization constraint
// merged in. A nil filter scopes to the whole tenant. If the caller's filter
// explicitly names a different organization anywhere in its tree, the
// operation fails with ErrCrossTenant rather than silently overriding the
// value.
func scopeFilter(filter bson.M, orgID string) (bson.M, error) {
	if filter == nil {
		return bson.M{FieldOrganizationID: orgID}, nil
	}
	if err := verifyScope(filter, orgID); err != nil {
		return nil, err
	}
	scoped := make(bson.M, len(filter)+1)
	maps.Copy(scoped, filter)
	scoped[FieldOrganizationID] = orgID
	return scoped, nil
}

// verifyScope walks the filter tree, including $and/$or/$nor branches, and
// rejects any explicit organization_id constraint that does not equal orgID.
// A matching constraint is permitted (and later normalized by scopeFilter);
// anything else is treated as a cross-tenant attempt.
func verifyScope(filter bson.M, orgID string) error {
	for key, val := range filter {
		switch key {
		case FieldOrganizationID:
			if !matchesOrg(val, orgID) {
				return fmt.Errorf("%w: filter pins %s to %v", ErrCrossTenant, FieldOrganizationID, val)
			}
		case "$and", "$or", "$nor":
			clauses, err := asClauses(val)
			if err != nil {
				return err
			}
			for _, clause := range clauses {
				if err := verifyScope(clause, orgID); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// matchesOrg accepts the two representations call sites legitimately use for
// an organization ID. Any other shape (operator documents, regexes, foreign
// values) fails the check: suspicious input fails loud.
func matchesOrg(val any, orgID string) bool {
	switch v := val.(type) {
	case string:
		return v == orgID
	case uuid.UUID:
		return v.String() == orgID
	default:
		return false
	}
}

func asClauses(val any) ([]bson.M, error) {
	switch v := val.(type) {
	case []bson.M:
		return v, nil
	case bson.A:
		return mapClauses(v)
	case []any:
		return mapClauses(v)
	default:
		return nil, fmt.Errorf("%w: unsupported logical clause %T", ErrCrossTenant, val)
	}
}

func mapClauses[S ~[]any](vals S) ([]bson.M, error) {
	clauses := make([]bson.M, 0, len(vals))
	for _, raw := range vals {
		clause, ok := raw.(bson.M)
		if !ok {
			return nil, fmt.Errorf("%w: unsupported logical clause element %T", ErrCrossTenant, raw)
		}
		clauses = append(clauses, clause)
	}
	return clauses, nil
}

// verifyUpdate rejects update documents that touch the organization field,
// whether as a key inside an operator document ($set, $inc, $unset) or as a
// field of a replacement document. All in-tree call sites build updates from
// fixed field lists, so any hit here means caller-controlled input reached
// the update path.
func verifyUpdate(update any) error {
	doc, ok := update.(bson.M)
	if !ok {
		return nil
	}
	for key, val := range doc {
		if key == FieldOrganizationID {
			return fmt.Errorf("%w: update names %s", ErrCrossTenant, FieldOrganizationID)
		}
		if !strings.HasPrefix(key, "$") {
			continue
		}
		if fields, ok := val.(bson.M); ok {
			if _, found := fields[FieldOrganizationID]; found {
				return fmt.Errorf("%w: update names %s", ErrCrossTenant, FieldOrganizationID)
			}
		}
	}
	return nil
}

// toDocument converts an insert payload into a mutable bson.M so the
// organization field can be set. bson.M payloads are shallow-copied; typed
// structs round-trip through BSON marshaling, which preserves their bson
// struct tags.
func toDocument(doc any) (bson.M, error) {
	if m, ok := doc.(bson.M); ok {
		out := make(bson.M, len(m)+1)
		maps.Copy(out, m)
		return out, nil
	}

	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out bson.M
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
