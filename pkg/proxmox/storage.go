package proxmox

import "fmt"

// Storage is a storage pool on a node, projected to the fields this module
// exposes. ContentTypes is the comma-separated list of content kinds the
// pool accepts, as the API reports it.
type Storage struct {
	Name         string  `json:"storage"`
	ContentTypes string  `json:"content"`
	UsedFraction float64 `json:"used_fraction"`
	Available    int64   `json:"avail"`
}

// ListStorage returns all storage pools visible on a node.
func (s *Session) ListStorage(node string) ([]Storage, error) {
	var pools []Storage
	if err := s.get(fmt.Sprintf("/nodes/%s/storage", node), &pools); err != nil {
		return nil, err
	}
	return pools, nil
}

// GetStorage returns the storage pool on node whose name matches exactly.
func (s *Session) GetStorage(node, name string) (Storage, error) {
	pools, err := s.ListStorage(node)
	if err != nil {
		return Storage{}, err
	}
	for _, pool := range pools {
		if pool.Name == name {
			return pool, nil
		}
	}
	return Storage{}, &NotFoundError{Host: s.Host, Resource: "storage", Name: name}
}
