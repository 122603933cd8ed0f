package proxmox

// Node is a cluster member as reported by the nodes listing, projected to
// the fields this module exposes.
type Node struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Name   string `json:"node"`
}

// ListNodes returns all nodes in the cluster.
func (s *Session) ListNodes() ([]Node, error) {
	var nodes []Node
	if err := s.get("/nodes", &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// GetNode returns the node whose name matches exactly. A miss is a
// NotFoundError, never an empty result.
func (s *Session) GetNode(name string) (Node, error) {
	nodes, err := s.ListNodes()
	if err != nil {
		return Node{}, err
	}
	for _, node := range nodes {
		if node.Name == name {
			return node, nil
		}
	}
	return Node{}, &NotFoundError{Host: s.Host, Resource: "node", Name: name}
}
