package proxmox

import "fmt"

// VirtualMachine is a guest entry from the qemu listing. The numeric VMID is
// the identity; Name is a secondary lookup key resolved at call time. The
// remaining fields are carried as the API reports them.
type VirtualMachine struct {
	VMID     int    `json:"vmid"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	CPUs     int    `json:"cpus"`
	MaxMem   int64  `json:"maxmem"`
	Mem      int64  `json:"mem"`
	MaxDisk  int64  `json:"maxdisk"`
	Uptime   int64  `json:"uptime"`
	Template int    `json:"template"`
	Tags     string `json:"tags,omitempty"`
}

const (
	// firstVMID is assigned when a node has no guests yet. Proxmox
	// reserves ids below 100 for internal use.
	firstVMID = 100

	defaultBridge = "vmbr0"
	defaultSCSIHW = "virtio-scsi-single"
)

// Permitted values for the closed CreateVM enumerations.
var (
	cpuTypes = []string{"x86-64-v2-AES"}
	osTypes  = []string{"l26"}
)

// CreateVMRequest describes a guest to create. MemoryGB is converted to
// megabytes on the wire; DiskGB sizes a single primary disk on Storage; ISO
// is a volume reference mounted as a virtual CD-ROM.
type CreateVMRequest struct {
	Node     string
	Name     string
	MemoryGB int
	CPUType  string
	Sockets  int
	Cores    int
	OSType   string
	Storage  string
	DiskGB   int
	ISO      string
}

// ListVMs returns all qemu guests on a node.
func (s *Session) ListVMs(node string) ([]VirtualMachine, error) {
	var vms []VirtualMachine
	if err := s.get(fmt.Sprintf("/nodes/%s/qemu", node), &vms); err != nil {
		return nil, err
	}
	return vms, nil
}

// GetVM returns the guest on node whose name matches exactly. Names are not
// unique in Proxmox; the first match in server order wins.
func (s *Session) GetVM(node, name string) (VirtualMachine, error) {
	vms, err := s.ListVMs(node)
	if err != nil {
		return VirtualMachine{}, err
	}
	for _, vm := range vms {
		if vm.Name == name {
			return vm, nil
		}
	}
	return VirtualMachine{}, &NotFoundError{Host: s.Host, Resource: "vm", Name: name}
}

// CreateVM creates a guest with one primary disk, one NIC on the default
// bridge and the ISO mounted as a CD-ROM. The vmid is read-then-incremented
// from the node's current listing, which is not atomic: concurrent creations
// on the same node can collide, and callers must serialize them.
func (s *Session) CreateVM(req CreateVMRequest) (VirtualMachine, error) {
	if !oneOf(req.CPUType, cpuTypes) {
		return VirtualMachine{}, &ValidationError{Param: "cpu type", Value: req.CPUType, Allowed: cpuTypes}
	}
	if !oneOf(req.OSType, osTypes) {
		return VirtualMachine{}, &ValidationError{Param: "os type", Value: req.OSType, Allowed: osTypes}
	}

	vms, err := s.ListVMs(req.Node)
	if err != nil {
		return VirtualMachine{}, err
	}
	vmid := firstVMID
	for _, vm := range vms {
		if vm.VMID >= vmid {
			vmid = vm.VMID + 1
		}
	}

	body := map[string]any{
		"vmid":    vmid,
		"name":    req.Name,
		"memory":  req.MemoryGB * 1024,
		"cpu":     req.CPUType,
		"sockets": req.Sockets,
		"cores":   req.Cores,
		"ostype":  req.OSType,
		"scsihw":  defaultSCSIHW,
		"scsi0":   fmt.Sprintf("%s:%d,discard=on", req.Storage, req.DiskGB),
		"ide2":    req.ISO + ",media=cdrom",
		"net0":    "virtio,bridge=" + defaultBridge,
	}

	var upid string
	if err := s.post(fmt.Sprintf("/nodes/%s/qemu", req.Node), body, &upid); err != nil {
		return VirtualMachine{}, err
	}

	return VirtualMachine{VMID: vmid, Name: req.Name, Status: "stopped"}, nil
}

// DeleteVM resolves name to a vmid and deletes the guest. The resolution
// re-queries the server and can race with concurrent changes; a resolution
// miss aborts before any mutating request.
func (s *Session) DeleteVM(node, name string) error {
	vm, err := s.GetVM(node, name)
	if err != nil {
		return err
	}
	var upid string
	return s.delete(fmt.Sprintf("/nodes/%s/qemu/%d", node, vm.VMID), &upid)
}

// StartVM resolves name to a vmid and requests a start. It returns once the
// server accepts the request, not when the guest is running.
func (s *Session) StartVM(node, name string) error {
	vm, err := s.GetVM(node, name)
	if err != nil {
		return err
	}
	var upid string
	return s.post(fmt.Sprintf("/nodes/%s/qemu/%d/status/start", node, vm.VMID), nil, &upid)
}

// ShutdownVM resolves name to a vmid and requests a graceful shutdown, not a
// forced power-off. It returns once the server accepts the request.
func (s *Session) ShutdownVM(node, name string) error {
	vm, err := s.GetVM(node, name)
	if err != nil {
		return err
	}
	var upid string
	return s.post(fmt.Sprintf("/nodes/%s/qemu/%d/status/shutdown", node, vm.VMID), nil, &upid)
}
