package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yourusername/pvekit/internal/history"
	"github.com/yourusername/pvekit/internal/ui"
	"github.com/yourusername/pvekit/internal/ui/components"
	"github.com/yourusername/pvekit/pkg/proxmox"
)

func runCommand(session *proxmox.Session, command string, args []string) error {
	switch command {
	case "nodes":
		return cmdNodes(session)
	case "storage":
		if len(args) != 1 {
			return fmt.Errorf("usage: pvekit storage <node>")
		}
		return cmdStorage(session, args[0])
	case "content":
		if len(args) != 2 {
			return fmt.Errorf("usage: pvekit content <node> <storage>")
		}
		return cmdContent(session, args[0], args[1])
	case "upload":
		if len(args) != 5 {
			return fmt.Errorf("usage: pvekit upload <node> <storage> <kind> <filename> <url>")
		}
		return cmdUpload(session, args[0], args[1], args[2], args[3], args[4])
	case "vms":
		if len(args) != 1 {
			return fmt.Errorf("usage: pvekit vms <node>")
		}
		return cmdVMs(session, args[0])
	case "create":
		return cmdCreate(session, args)
	case "start", "shutdown", "delete":
		if len(args) != 2 {
			return fmt.Errorf("usage: pvekit %s <node> <name>", command)
		}
		return cmdLifecycle(session, command, args[0], args[1])
	case "dashboard":
		return cmdDashboard(session)
	default:
		return fmt.Errorf("unknown command %q (run pvekit without arguments for usage)", command)
	}
}

func cmdNodes(session *proxmox.Session) error {
	nodes, err := session.ListNodes()
	if err != nil {
		return err
	}

	fmt.Printf("%-20s %-10s %s\n", "NAME", "STATUS", "ID")
	for _, node := range nodes {
		fmt.Printf("%-20s %-10s %s\n", node.Name, node.Status, node.ID)
	}
	return nil
}

func cmdStorage(session *proxmox.Session, node string) error {
	pools, err := session.ListStorage(node)
	if err != nil {
		return err
	}

	fmt.Printf("%-16s %-8s %-12s %s\n", "NAME", "USED", "AVAILABLE", "CONTENT")
	for _, pool := range pools {
		fmt.Printf("%-16s %6.1f%% %-12s %s\n",
			pool.Name, pool.UsedFraction*100, components.FormatBytes(pool.Available), pool.ContentTypes)
	}
	return nil
}

func cmdContent(session *proxmox.Session, node, storage string) error {
	items, err := session.ListContent(node, storage)
	if err != nil {
		return err
	}

	fmt.Printf("%-48s %-8s %-10s %s\n", "VOLID", "FORMAT", "SIZE", "CREATED")
	for _, item := range items {
		created := "-"
		if item.CTime > 0 {
			created = time.Unix(item.CTime, 0).Format("2006-01-02 15:04")
		}
		fmt.Printf("%-48s %-8s %-10s %s\n",
			item.VolID, item.Format, components.FormatBytes(item.Size), created)
	}
	return nil
}

func cmdUpload(session *proxmox.Session, node, storage, kind, filename, url string) error {
	upid, err := session.AddContent(node, storage, proxmox.ContentKind(kind), filename, url)
	record(session.Host, node, "upload", filename, 0, err)
	if err != nil {
		return err
	}

	fmt.Printf("Download of %s accepted by %s (task %s)\n", filename, node, upid)
	fmt.Println("The node fetches the file in the background; check the task log for completion.")
	return nil
}

func cmdVMs(session *proxmox.Session, node string) error {
	vms, err := session.ListVMs(node)
	if err != nil {
		return err
	}

	fmt.Printf("%-6s %-24s %-10s %-5s %s\n", "VMID", "NAME", "STATUS", "CPUS", "MEMORY")
	for _, vm := range vms {
		fmt.Printf("%-6d %-24s %-10s %-5d %s\n",
			vm.VMID, vm.Name, vm.Status, vm.CPUs, components.FormatBytes(vm.MaxMem))
	}
	return nil
}

// parseCreateArgs accepts the node-first form `create <node> -name ... `.
// The node is split off before flag parsing because the flag package stops
// at the first positional argument.
func parseCreateArgs(args []string) (proxmox.CreateVMRequest, error) {
	usage := fmt.Errorf("usage: pvekit create <node> -name <name> -storage <pool> -iso <volid> [flags]")

	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return proxmox.CreateVMRequest{}, usage
	}
	node := args[0]

	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	name := fs.String("name", "", "VM name (required)")
	memory := fs.Int("memory", 2, "Memory in GB")
	cpuType := fs.String("cpu", "x86-64-v2-AES", "CPU type")
	sockets := fs.Int("sockets", 1, "CPU sockets")
	cores := fs.Int("cores", 1, "Cores per socket")
	osType := fs.String("ostype", "l26", "Guest OS type")
	storage := fs.String("storage", "", "Storage pool for the primary disk (required)")
	disk := fs.Int("disk", 20, "Primary disk size in GB")
	iso := fs.String("iso", "", "ISO volume reference to mount (required)")

	if err := fs.Parse(args[1:]); err != nil {
		return proxmox.CreateVMRequest{}, err
	}
	if fs.NArg() != 0 {
		return proxmox.CreateVMRequest{}, usage
	}
	if *name == "" || *storage == "" || *iso == "" {
		return proxmox.CreateVMRequest{}, fmt.Errorf("create requires -name, -storage and -iso")
	}

	return proxmox.CreateVMRequest{
		Node:     node,
		Name:     *name,
		MemoryGB: *memory,
		CPUType:  *cpuType,
		Sockets:  *sockets,
		Cores:    *cores,
		OSType:   *osType,
		Storage:  *storage,
		DiskGB:   *disk,
		ISO:      *iso,
	}, nil
}

func cmdCreate(session *proxmox.Session, args []string) error {
	req, err := parseCreateArgs(args)
	if err != nil {
		return err
	}

	vm, err := session.CreateVM(req)
	record(session.Host, req.Node, "create", req.Name, vm.VMID, err)
	if err != nil {
		return err
	}

	fmt.Printf("Created VM %s with vmid %d on %s\n", vm.Name, vm.VMID, req.Node)
	return nil
}

func cmdLifecycle(session *proxmox.Session, action, node, name string) error {
	var err error
	switch action {
	case "start":
		err = session.StartVM(node, name)
	case "shutdown":
		err = session.ShutdownVM(node, name)
	case "delete":
		err = session.DeleteVM(node, name)
	}
	record(session.Host, node, action, name, 0, err)
	if err != nil {
		return err
	}

	switch action {
	case "delete":
		fmt.Printf("Deleted VM %s on %s\n", name, node)
	default:
		// The server acknowledges and runs the transition asynchronously
		fmt.Printf("%s requested for VM %s on %s\n", action, name, node)
	}
	return nil
}

func cmdDashboard(session *proxmox.Session) error {
	p := tea.NewProgram(ui.NewModel(session), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	return nil
}

func cmdHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := fs.Int("n", 20, "Number of entries to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	hist, err := history.Open(history.DefaultPath())
	if err != nil {
		return err
	}
	defer hist.Close()

	entries, err := hist.Recent(*limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No operations recorded yet")
		return nil
	}

	fmt.Printf("%-17s %-12s %-10s %-24s %s\n", "TIME", "NODE", "ACTION", "TARGET", "OUTCOME")
	for _, e := range entries {
		fmt.Printf("%-17s %-12s %-10s %-24s %s\n",
			e.Time.Format("2006-01-02 15:04"), e.Node, e.Action, e.Target, e.Outcome)
	}
	return nil
}

// record appends a mutating operation to the local history log. History is
// best-effort: a failure to record never fails the operation itself.
func record(host, node, action, target string, vmid int, opErr error) {
	outcome := "ok"
	if opErr != nil {
		outcome = opErr.Error()
	}

	hist, err := history.Open(history.DefaultPath())
	if err != nil {
		log.Printf("history unavailable: %v", err)
		return
	}
	defer hist.Close()

	if err := hist.Prune(); err != nil {
		log.Printf("history prune failed: %v", err)
	}
	if err := hist.Record(history.Entry{
		Host: host, Node: node, Action: action, Target: target, VMID: vmid, Outcome: outcome,
	}); err != nil {
		log.Printf("failed to record history entry: %v", err)
	}
}
