package revalidation

// ContentType is a CMS post type the storefront renders.
type ContentType string

const (
	TypePost    ContentType = "post"
	TypePage    ContentType = "page"
	TypeProduct ContentType = "product"
)

// StatusPublish is the only status that makes content visible on the frontend.
const StatusPublish = "publish"

// Content is the subset of a CMS entry needed to derive its rendered paths.
type Content struct {
	ID         int
	Type       ContentType
	Slug       string
	Status     string
	Categories []string // product category slugs
}

// Deriver maps content mutations to the frontend paths they make stale.
type Deriver struct {
	// FrontPageID is the page configured as the site's front page (0 if none).
	FrontPageID int
}

// ContentPaths returns the detail path(s) of a single entry without listings.
func (d Deriver) ContentPaths(c Content) []string {
	switch c.Type {
	case TypePost:
		return []string{"/blog/" + c.Slug}
	case TypePage:
		if d.FrontPageID != 0 && c.ID == d.FrontPageID {
			return []string{"/"}
		}
		return []string{"/" + c.Slug}
	case TypeProduct:
		paths := []string{"/shop/" + c.Slug}
		for _, cat := range c.Categories {
			paths = append(paths, "/shop/category/"+cat)
		}
		return paths
	}
	return nil
}

// StatusChanged handles publish, update and unpublish. Transitions that never
// touch the published state (draft to pending, for example) produce nothing.
func (d Deriver) StatusChanged(c Content, oldStatus, newStatus string) (Request, bool) {
	if oldStatus != StatusPublish && newStatus != StatusPublish {
		return Request{}, false
	}
	paths := d.ContentPaths(c)
	switch c.Type {
	case TypePost:
		paths = append(paths, "/blog", "/")
	case TypePage:
		paths = append(paths, "/")
	case TypeProduct:
		paths = append([]string{"/shop"}, paths...)
	default:
		return Request{}, false
	}
	return PathsRequest(paths...)
}

// ProductSaved handles product create/update hooks that fire outside a status
// transition; only published products are visible.
func (d Deriver) ProductSaved(c Content) (Request, bool) {
	if c.Type != TypeProduct || c.Status != StatusPublish {
		return Request{}, false
	}
	return PathsRequest(append([]string{"/shop"}, d.ContentPaths(c)...)...)
}

// Deleted handles permanent deletion of posts and pages. The entry's own path
// is gone, so only listings are refreshed.
func (d Deriver) Deleted(c Content) (Request, bool) {
	switch c.Type {
	case TypePost:
		return PathsRequest("/", "/blog")
	case TypePage:
		return PathsRequest("/")
	}
	return Request{}, false
}

// CommentChanged resolves a comment event to its parent entry's paths.
func (d Deriver) CommentChanged(parent *Content) (Request, bool) {
	if parent == nil {
		return Request{}, false
	}
	return PathsRequest(d.ContentPaths(*parent)...)
}

// CategoryChanged handles creation or edit of a product category.
func (d Deriver) CategoryChanged(slug string) (Request, bool) {
	if slug == "" {
		return Request{}, false
	}
	return PathsRequest("/shop", "/shop/category/"+slug)
}

// CategoryDeleted refreshes the shop and every published product that was in
// the deleted category.
func (d Deriver) CategoryDeleted(products []Content) (Request, bool) {
	paths := []string{"/shop"}
	for _, p := range products {
		if p.Status == StatusPublish {
			paths = append(paths, "/shop/"+p.Slug)
		}
	}
	return PathsRequest(paths...)
}

// SiteChanged covers menus and global settings, which affect every layout.
func (d Deriver) SiteChanged() Request {
	return AllRequest()
}
