package blog

import "strings"

const fallbackPath = "/"

// DocumentLink identifies a document for link resolution.
type DocumentLink struct {
	ID   string
	UID  string
	Type string
}

// ResolveLink maps a document to its canonical root-relative path. Unknown
// types resolve to the site root so static path generation never fails.
func ResolveLink(link DocumentLink) string {
	uid := strings.TrimSpace(link.UID)

	switch link.Type {
	case PostType:
		if uid == "" {
			return fallbackPath
		}
		return "/post/" + uid
	default:
		return fallbackPath
	}
}
