package badges

// BadgeSet is a named group of badge versions, e.g. set 'subscriber' with versions
// '0', '3', '6', etc.
type BadgeSet struct {
	SetID    string
	Versions []BadgeVersion
}

// BadgeVersion is a single displayable badge within a set
type BadgeVersion struct {
	ID       string
	ImageURL string
}

// Catalog maps badge set ID to version ID to icon URL. A Catalog is never modified
// after it's been built; build a new one to pick up changes.
type Catalog map[string]map[string]string

// Lookup returns the icon URL for the given badge, if the catalog has one
func (c Catalog) Lookup(setID, versionID string) (string, bool) {
	versions, ok := c[setID]
	if !ok {
		return "", false
	}
	url, ok := versions[versionID]
	return url, ok
}

// Resolve flattens global and channel-specific badge sets into a single Catalog.
// Global badges are applied first, then channel badges, so that a channel's custom
// version of a badge replaces the global one. A nil list is treated as empty, and
// sets or versions lacking an ID or image URL are skipped.
func Resolve(global, channel []BadgeSet) Catalog {
	c := make(Catalog)
	c.merge(global)
	c.merge(channel)
	return c
}

func (c Catalog) merge(sets []BadgeSet) {
	for _, set := range sets {
		if set.SetID == "" {
			continue
		}
		for _, version := range set.Versions {
			if version.ID == "" || version.ImageURL == "" {
				continue
			}
			versions, ok := c[set.SetID]
			if !ok {
				versions = make(map[string]string)
				c[set.SetID] = versions
			}
			versions[version.ID] = version.ImageURL
		}
	}
}
