package bridgetest

import (
	"fmt"
	"sort"
	"sync"

	"github.com/allbin/mcp2serial"
	"github.com/allbin/mcp2serial/internal/bridge"
	"github.com/allbin/mcp2serial/internal/config"
)

// Devices is a fake /dev: a set of links addressable by path.
type Devices struct {
	mu    sync.Mutex
	links map[string]*Link
	errs  map[string]error
	opens map[string]int
	gate  chan struct{}
}

// NewDevices returns a fake device tree containing links.
func NewDevices(links ...*Link) *Devices {
	d := &Devices{
		links: make(map[string]*Link),
		errs:  make(map[string]error),
		opens: make(map[string]int),
	}
	for _, l := range links {
		d.links[l.Path()] = l
	}
	return d
}

// Fail makes opening path return err.
func (d *Devices) Fail(path string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errs[path] = err
}

// Hold blocks every Open until the returned function is called.
func (d *Devices) Hold() (release func()) {
	gate := make(chan struct{})
	d.mu.Lock()
	d.gate = gate
	d.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// Open implements bridge.Opener.
func (d *Devices) Open(path string, _ config.Settings) (bridge.Link, error) {
	d.mu.Lock()
	gate := d.gate
	d.mu.Unlock()
	if gate != nil {
		<-gate
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.opens[path]++
	if err := d.errs[path]; err != nil {
		return nil, err
	}
	l, ok := d.links[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", serial.ErrDeviceNotFound, path)
	}
	l.reopen()
	return l, nil
}

// Opens returns how many times path was opened.
func (d *Devices) Opens(path string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens[path]
}

// Paths lists every known path, failing ones included, sorted.
func (d *Devices) Paths() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	seen := make(map[string]bool)
	for p := range d.links {
		seen[p] = true
	}
	for p := range d.errs {
		seen[p] = true
	}
	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}
