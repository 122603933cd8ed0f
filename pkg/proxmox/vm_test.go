package proxmox

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// qemuMux serves a fixed guest listing and acknowledges mutations with UPIDs.
func qemuMux(vms []map[string]any) *http.ServeMux {
	if vms == nil {
		// A nil slice encodes as JSON null, but an empty guest listing on a
		// real server is {"data":[]}; null data is an error by design.
		vms = []map[string]any{}
	}
	mux := newTestMux()
	mux.HandleFunc("/api2/json/nodes/pve01/qemu", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeData(w, vms)
		case http.MethodPost:
			writeData(w, "UPID:pve01:0000BEEF:qmcreate:root@pam!ci:")
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api2/json/nodes/pve01/qemu/", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, "UPID:pve01:0000CAFE:qmop:root@pam!ci:")
	})
	return mux
}

func TestListVMs(t *testing.T) {
	s, _ := connectTest(t, qemuMux([]map[string]any{
		{"vmid": 100, "name": "web", "status": "running", "cpus": 4, "maxmem": 4294967296, "uptime": 86400, "tags": "prod"},
		{"vmid": 101, "name": "db", "status": "stopped", "cpus": 2, "maxmem": 8589934592},
	}))

	vms, err := s.ListVMs("pve01")
	require.NoError(t, err)
	require.Len(t, vms, 2)
	require.Equal(t, VirtualMachine{
		VMID:   100,
		Name:   "web",
		Status: "running",
		CPUs:   4,
		MaxMem: 4294967296,
		Uptime: 86400,
		Tags:   "prod",
	}, vms[0])
}

func TestGetVMMiss(t *testing.T) {
	s, _ := connectTest(t, qemuMux([]map[string]any{
		{"vmid": 100, "name": "web", "status": "running"},
	}))

	_, err := s.GetVM("pve01", "mail")

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "vm", notFound.Resource)
	require.Equal(t, "mail", notFound.Name)
}

func TestCreateVM(t *testing.T) {
	s, rt := connectTest(t, qemuMux([]map[string]any{
		{"vmid": 100, "name": "web", "status": "running"},
	}))

	vm, err := s.CreateVM(CreateVMRequest{
		Node:     "pve01",
		Name:     "test-vm",
		MemoryGB: 4,
		CPUType:  "x86-64-v2-AES",
		Sockets:  1,
		Cores:    2,
		OSType:   "l26",
		Storage:  "local-lvm",
		DiskGB:   20,
		ISO:      "local:iso/ubuntu.iso",
	})
	require.NoError(t, err)
	require.Equal(t, 101, vm.VMID)
	require.Equal(t, "test-vm", vm.Name)
	require.Equal(t, "stopped", vm.Status)

	body := rt.lastBody(t)
	require.EqualValues(t, 101, body["vmid"])
	require.EqualValues(t, 4096, body["memory"])
	require.Equal(t, "local-lvm:20,discard=on", body["scsi0"])
	require.Equal(t, "local:iso/ubuntu.iso,media=cdrom", body["ide2"])
	require.Equal(t, "x86-64-v2-AES", body["cpu"])
	require.Equal(t, "l26", body["ostype"])
	require.EqualValues(t, 1, body["sockets"])
	require.EqualValues(t, 2, body["cores"])
	require.Equal(t, "virtio-scsi-single", body["scsihw"])
	require.Equal(t, "virtio,bridge=vmbr0", body["net0"])
}

func TestCreateVMFirstGuest(t *testing.T) {
	s, rt := connectTest(t, qemuMux(nil))

	vm, err := s.CreateVM(CreateVMRequest{
		Node:     "pve01",
		Name:     "first",
		MemoryGB: 2,
		CPUType:  "x86-64-v2-AES",
		Sockets:  1,
		Cores:    1,
		OSType:   "l26",
		Storage:  "local-lvm",
		DiskGB:   10,
		ISO:      "local:iso/ubuntu.iso",
	})
	require.NoError(t, err)
	require.Equal(t, 100, vm.VMID)
	require.EqualValues(t, 100, rt.lastBody(t)["vmid"])
}

func TestCreateVMValidation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*CreateVMRequest)
		wantParam string
	}{
		{
			name:      "unsupported cpu type",
			mutate:    func(r *CreateVMRequest) { r.CPUType = "host" },
			wantParam: "cpu type",
		},
		{
			name:      "unsupported os type",
			mutate:    func(r *CreateVMRequest) { r.OSType = "win11" },
			wantParam: "os type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, rt := connectTest(t, qemuMux(nil))
			probes := len(rt.requests)

			req := CreateVMRequest{
				Node:     "pve01",
				Name:     "bad",
				MemoryGB: 2,
				CPUType:  "x86-64-v2-AES",
				Sockets:  1,
				Cores:    1,
				OSType:   "l26",
				Storage:  "local-lvm",
				DiskGB:   10,
				ISO:      "local:iso/ubuntu.iso",
			}
			tt.mutate(&req)

			_, err := s.CreateVM(req)

			var invalid *ValidationError
			require.ErrorAs(t, err, &invalid)
			require.Equal(t, tt.wantParam, invalid.Param)
			require.Len(t, rt.requests, probes)
		})
	}
}

func TestStartVM(t *testing.T) {
	s, rt := connectTest(t, qemuMux([]map[string]any{
		{"vmid": 105, "name": "web", "status": "stopped"},
	}))

	require.NoError(t, s.StartVM("pve01", "web"))

	starts := rt.requestsTo("/nodes/pve01/qemu/105/status/start")
	require.Len(t, starts, 1)
	require.Equal(t, http.MethodPost, starts[0].Method)
}

func TestShutdownVM(t *testing.T) {
	s, rt := connectTest(t, qemuMux([]map[string]any{
		{"vmid": 105, "name": "web", "status": "running"},
	}))

	require.NoError(t, s.ShutdownVM("pve01", "web"))

	stops := rt.requestsTo("/nodes/pve01/qemu/105/status/shutdown")
	require.Len(t, stops, 1)
	require.Equal(t, http.MethodPost, stops[0].Method)
}

func TestShutdownVMUnknownName(t *testing.T) {
	s, rt := connectTest(t, qemuMux([]map[string]any{
		{"vmid": 105, "name": "web", "status": "running"},
	}))

	err := s.ShutdownVM("pve01", "ghost")

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)

	// Resolution failed, so no shutdown request was issued.
	require.Empty(t, rt.requestsTo("/status/shutdown"))
}

func TestDeleteVM(t *testing.T) {
	s, rt := connectTest(t, qemuMux([]map[string]any{
		{"vmid": 107, "name": "old", "status": "stopped"},
	}))

	require.NoError(t, s.DeleteVM("pve01", "old"))

	deletes := rt.requestsTo("/nodes/pve01/qemu/107")
	require.Len(t, deletes, 1)
	require.Equal(t, http.MethodDelete, deletes[0].Method)
}
