package proxmox

import "fmt"

// ContentKind enumerates the artifact kinds the download-url endpoint
// accepts. It is a closed set; anything else is rejected client-side.
type ContentKind string

const (
	ContentISO      ContentKind = "iso"
	ContentTemplate ContentKind = "vztmpl"
	ContentImport   ContentKind = "import"
)

var contentKinds = []string{string(ContentISO), string(ContentTemplate), string(ContentImport)}

// ContentItem is the metadata for a stored artifact (ISO, template or disk
// import). Fields are passed through as the API reports them.
type ContentItem struct {
	VolID   string `json:"volid"`
	Format  string `json:"format"`
	Size    int64  `json:"size"`
	Content string `json:"content"`
	CTime   int64  `json:"ctime"`
	Notes   string `json:"notes,omitempty"`
}

// ListContent returns the artifacts stored in a pool on a node.
func (s *Session) ListContent(node, storage string) ([]ContentItem, error) {
	var items []ContentItem
	if err := s.get(fmt.Sprintf("/nodes/%s/storage/%s/content", node, storage), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetContent returns the artifact whose volume id matches exactly.
func (s *Session) GetContent(node, storage, volid string) (ContentItem, error) {
	items, err := s.ListContent(node, storage)
	if err != nil {
		return ContentItem{}, err
	}
	for _, item := range items {
		if item.VolID == volid {
			return item, nil
		}
	}
	return ContentItem{}, &NotFoundError{Host: s.Host, Resource: "content", Name: volid}
}

// AddContent asks a node to download an artifact from a URL into a storage
// pool. The download runs asynchronously server-side; the returned string is
// the task handle the server acknowledged with, not a completion signal.
func (s *Session) AddContent(node, storage string, kind ContentKind, filename, sourceURL string) (string, error) {
	if !oneOf(string(kind), contentKinds) {
		return "", &ValidationError{Param: "content kind", Value: string(kind), Allowed: contentKinds}
	}

	body := map[string]any{
		"content":  string(kind),
		"filename": filename,
		"node":     node,
		"storage":  storage,
		"url":      sourceURL,
	}

	var upid string
	if err := s.post(fmt.Sprintf("/nodes/%s/storage/%s/download-url", node, storage), body, &upid); err != nil {
		return "", err
	}
	return upid, nil
}
