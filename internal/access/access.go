// Package access decides which documents a caller may see or change.
package access

import "docarchive/internal/model"

// VisibleLevels returns the security levels the caller may see.
//   - superuser: every level
//   - authenticated: public and internal
//   - anonymous: public only
func VisibleLevels(c model.Caller) []model.SecurityLevel {
	switch {
	case c.IsSuperuser:
		return []model.SecurityLevel{model.LevelPublic, model.LevelInternal, model.LevelSecret}
	case c.Authenticated():
		return []model.SecurityLevel{model.LevelPublic, model.LevelInternal}
	default:
		return []model.SecurityLevel{model.LevelPublic}
	}
}

// CanView reports whether the document is inside the caller's visible set.
func CanView(c model.Caller, doc *model.Document) bool {
	if doc == nil {
		return false
	}
	for _, l := range VisibleLevels(c) {
		if doc.SecurityLevel == l {
			return true
		}
	}
	return false
}

// CanModify reports whether the caller may edit, delete or share the document.
func CanModify(c model.Caller, doc *model.Document) bool {
	if doc == nil || !c.Authenticated() {
		return false
	}
	return c.IsSuperuser || doc.OwnerID == c.UserID
}
