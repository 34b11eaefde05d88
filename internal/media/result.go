// Package media fetches TikTok and Instagram posts through an ordered
// chain of download strategies.
package media

// Type tags what a successful fetch produced.
type Type string

const (
	TypeVideo Type = "video"
	TypePhoto Type = "photo"
)

// Result is a successful fetch. Video results carry FilePath; photo
// results carry FilePaths, one per carousel item. Files are temporary
// and deleted by the caller after delivery.
type Result struct {
	Type      Type
	FilePath  string
	FilePaths []string
	Caption   string
}

// Items returns the number of deliverable media items, one download
// record each.
func (r *Result) Items() int {
	if r == nil {
		return 0
	}

	if r.Type == TypePhoto {
		return len(r.FilePaths)
	}

	return 1
}
