package proxmox

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func contentMux() *http.ServeMux {
	mux := newTestMux()
	mux.HandleFunc("/api2/json/nodes/pve01/storage/local/content", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, []map[string]any{
			{"volid": "local:iso/ubuntu.iso", "format": "iso", "size": 2147483648, "content": "iso", "ctime": 1719400000},
			{"volid": "local:vztmpl/debian-12.tar.zst", "format": "tzst", "size": 134217728, "content": "vztmpl", "ctime": 1719500000, "notes": "golden image"},
		})
	})
	mux.HandleFunc("/api2/json/nodes/pve01/storage/local/download-url", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeData(w, "UPID:pve01:0000DEAD:download:root@pam!ci:")
	})
	return mux
}

func TestListContent(t *testing.T) {
	s, _ := connectTest(t, contentMux())

	items, err := s.ListContent("pve01", "local")
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, ContentItem{
		VolID:   "local:iso/ubuntu.iso",
		Format:  "iso",
		Size:    2147483648,
		Content: "iso",
		CTime:   1719400000,
	}, items[0])
	require.Equal(t, "golden image", items[1].Notes)
}

func TestGetContent(t *testing.T) {
	s, _ := connectTest(t, contentMux())

	item, err := s.GetContent("pve01", "local", "local:vztmpl/debian-12.tar.zst")
	require.NoError(t, err)
	require.Equal(t, "tzst", item.Format)
}

func TestGetContentMiss(t *testing.T) {
	s, _ := connectTest(t, contentMux())

	_, err := s.GetContent("pve01", "local", "local:iso/missing.iso")

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "content", notFound.Resource)
}

func TestAddContent(t *testing.T) {
	s, rt := connectTest(t, contentMux())

	upid, err := s.AddContent("pve01", "local", ContentISO, "ubuntu.iso", "https://releases.ubuntu.com/noble/ubuntu.iso")
	require.NoError(t, err)
	require.Equal(t, "UPID:pve01:0000DEAD:download:root@pam!ci:", upid)

	posts := rt.requestsTo("/nodes/pve01/storage/local/download-url")
	require.Len(t, posts, 1)
	require.Equal(t, http.MethodPost, posts[0].Method)
	require.Equal(t, "application/json", posts[0].Header.Get("Content-Type"))

	body := rt.lastBody(t)
	require.Equal(t, map[string]any{
		"content":  "iso",
		"filename": "ubuntu.iso",
		"node":     "pve01",
		"storage":  "local",
		"url":      "https://releases.ubuntu.com/noble/ubuntu.iso",
	}, body)
}

func TestAddContentInvalidKind(t *testing.T) {
	s, rt := connectTest(t, contentMux())
	probes := len(rt.requests)

	_, err := s.AddContent("pve01", "local", ContentKind("qcow2"), "disk.qcow2", "https://example.com/disk.qcow2")

	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, "content kind", invalid.Param)
	require.Equal(t, []string{"iso", "vztmpl", "import"}, invalid.Allowed)

	// Rejected client-side: nothing was sent beyond the connect probe.
	require.Len(t, rt.requests, probes)
}
