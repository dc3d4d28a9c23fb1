// Package monitoring serves the state of the simulated MMUs over HTTP.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/segmmu/mem/vm"
	"github.com/sarchlab/segmmu/mem/vm/mmu"
	"github.com/sarchlab/segmmu/mem/vm/tlb"
	"github.com/sarchlab/segmmu/monitoring/web"
	"github.com/sarchlab/segmmu/sim"
)

// Monitor turns a simulation into a server so that the MMUs can be inspected
// while and after they run.
type Monitor struct {
	lock sync.Mutex

	components  []sim.Component
	owners      map[sim.Component]*mmu.Comp
	mmus        []*mmu.Comp
	portNumber  int
	openBrowser bool

	profileDuration time.Duration
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		owners:          make(map[sim.Component]*mmu.Comp),
		profileDuration: time.Second,
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes the monitor open the web page in a browser when the
// server starts.
func (m *Monitor) WithBrowser() *Monitor {
	m.openBrowser = true
	return m
}

// RegisterComponent register a component to be monitored.
func (m *Monitor) RegisterComponent(c sim.Component) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.components = append(m.components, c)
}

// RegisterMMU registers an MMU and all the components that it owns. The
// state of the MMU is only read between translations.
func (m *Monitor) RegisterMMU(c *mmu.Comp) {
	for _, comp := range c.Components() {
		m.RegisterComponent(comp)
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	for _, comp := range c.Components() {
		m.owners[comp] = c
	}

	m.mmus = append(m.mmus, c)
}

// Handler returns the HTTP handler that serves the API and the web page.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/list_components", m.listComponents)
	r.HandleFunc("/api/list_mmus", m.listMMUs)
	r.HandleFunc("/api/component/{name}", m.listComponentDetails)
	r.HandleFunc("/api/stats/{name}", m.reportStats)
	r.HandleFunc("/api/tlb/{name}", m.reportTLB)
	r.HandleFunc("/api/frames/{name}", m.reportFrames)
	r.HandleFunc("/api/segments/{name}", m.reportSegments)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(web.Handler())

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() string {
	actualPort := ":" + strconv.Itoa(m.portNumber)

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	handler := m.Handler()
	go func() {
		err := http.Serve(listener, handler)
		dieOnErr(err)
	}()

	if m.openBrowser {
		err = browser.OpenURL(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %v\n", err)
		}
	}

	return url
}

func (m *Monitor) listComponents(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	names := make([]string, 0, len(m.components))
	for _, c := range m.components {
		names = append(names, c.Name())
	}
	m.lock.Unlock()

	writeJSON(w, names)
}

func (m *Monitor) listMMUs(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	names := make([]string, 0, len(m.mmus))
	for _, c := range m.mmus {
		names = append(names, c.Name())
	}
	m.lock.Unlock()

	writeJSON(w, names)
}

func (m *Monitor) listComponentDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	component := m.findComponentOr404(w, name)
	if component == nil {
		return
	}

	buf := bytes.NewBuffer(nil)
	serialize := func() {
		serializer := goseth.NewSerializer()
		serializer.SetRoot(component)
		serializer.SetMaxDepth(1)
		err := serializer.Serialize(buf)
		dieOnErr(err)
	}

	m.lock.Lock()
	owner := m.owners[component]
	m.lock.Unlock()

	if owner != nil {
		owner.Inspect(serialize)
	} else {
		serialize()
	}

	_, err := w.Write(buf.Bytes())
	dieOnErr(err)
}

func (m *Monitor) reportStats(w http.ResponseWriter, r *http.Request) {
	c := m.findMMUOr404(w, mux.Vars(r)["name"])
	if c == nil {
		return
	}

	writeJSON(w, c.Stats())
}

type tlbEntryRsp struct {
	Way       int    `json:"way"`
	Rank      int    `json:"rank"`
	Valid     bool   `json:"valid"`
	SP        uint32 `json:"sp"`
	FrameBase uint64 `json:"frame_base"`
}

func (m *Monitor) reportTLB(w http.ResponseWriter, r *http.Request) {
	c := m.findMMUOr404(w, mux.Vars(r)["name"])
	if c == nil {
		return
	}

	var entries []tlb.Entry
	c.Inspect(func() { entries = c.TLB().Entries() })

	rsp := make([]tlbEntryRsp, 0, len(entries))
	for _, e := range entries {
		rsp = append(rsp, tlbEntryRsp{
			Way:       e.WayID,
			Rank:      e.Rank,
			Valid:     e.Valid,
			SP:        e.SP,
			FrameBase: uint64(e.FrameBase),
		})
	}

	writeJSON(w, rsp)
}

type framesRsp struct {
	NumFrames int   `json:"num_frames"`
	NumUsed   int   `json:"num_used"`
	Used      []int `json:"used"`
}

func (m *Monitor) reportFrames(w http.ResponseWriter, r *http.Request) {
	c := m.findMMUOr404(w, mux.Vars(r)["name"])
	if c == nil {
		return
	}

	rsp := framesRsp{Used: []int{}}
	c.Inspect(func() {
		frames := c.Translator().FrameAllocator()
		rsp.NumFrames = frames.NumFrames()
		rsp.NumUsed = frames.NumUsed()

		for i := 0; i < frames.NumFrames(); i++ {
			if frames.IsUsed(i) {
				rsp.Used = append(rsp.Used, i)
			}
		}
	})

	writeJSON(w, rsp)
}

type segmentRsp struct {
	Segment uint32 `json:"segment"`
	Entry   string `json:"entry"`
	Pages   int    `json:"pages"`
}

func (m *Monitor) reportSegments(w http.ResponseWriter, r *http.Request) {
	c := m.findMMUOr404(w, mux.Vars(r)["name"])
	if c == nil {
		return
	}

	rsp := []segmentRsp{}
	c.Inspect(func() { rsp = listSegments(c, rsp) })

	writeJSON(w, rsp)
}

func listSegments(c *mmu.Comp, rsp []segmentRsp) []segmentRsp {
	translator := c.Translator()

	for s := uint32(0); s < vm.SegmentTableSize; s++ {
		entry := translator.SegmentEntry(s)
		if entry.Kind == vm.Unmapped {
			continue
		}

		seg := segmentRsp{Segment: s, Entry: entry.String()}
		if entry.IsMapped() {
			for p := uint32(0); p < vm.PageTableSize; p++ {
				slot, err := translator.Storage().Get(entry.Base + vm.PAddr(p))
				dieOnErr(err)

				if slot.IsMapped() {
					seg.Pages++
				}
			}
		}

		rsp = append(rsp, seg)
	}

	return rsp
}

func (m *Monitor) findComponentOr404(
	w http.ResponseWriter,
	name string,
) sim.Component {
	m.lock.Lock()
	defer m.lock.Unlock()

	for _, c := range m.components {
		if c.Name() == name {
			return c
		}
	}

	notFound(w, "Component not found")

	return nil
}

func (m *Monitor) findMMUOr404(w http.ResponseWriter, name string) *mmu.Comp {
	m.lock.Lock()
	defer m.lock.Unlock()

	for _, c := range m.mmus {
		if c.Name() == name {
			return c
		}
	}

	notFound(w, "MMU not found")

	return nil
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	time.Sleep(m.profileDuration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func notFound(w http.ResponseWriter, msg string) {
	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte(msg))
	dieOnErr(err)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
