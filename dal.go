// ABOUTME: Data access layer: owns the backing file and positional page I/O
// ABOUTME: (De)serializes nodes, meta, and the free list; computes fill thresholds

package pagedb

import (
	"errors"
	"os"

	"github.com/nainya/pagedb/internal/logger"
	"github.com/nainya/pagedb/internal/metrics"
)

// dal owns the backing file: allocation and reuse of pages through the
// free list, (de)serialization of nodes/meta/free list, and the fill
// thresholds that drive split/rebalance decisions (spec.md §4.2).
type dal struct {
	file *os.File

	pageSize       int
	minFillPercent float64
	maxFillPercent float64

	meta     meta
	freeList *freeList

	log *logger.Logger
	met *metrics.Metrics
}

func openDAL(path string, opts Options) (*dal, error) {
	opts = opts.withDefaults()
	d := &dal{
		pageSize:       opts.PageSize,
		minFillPercent: opts.MinFillPercent,
		maxFillPercent: opts.MaxFillPercent,
		log:            logger.GetGlobalLogger(),
		met:            metrics.Get(),
	}

	_, statErr := os.Stat(path)
	switch {
	case errors.Is(statErr, os.ErrNotExist):
		if err := d.create(path); err != nil {
			return nil, err
		}
		d.log.LogDbOpen(path, true)
	case statErr == nil:
		if err := d.openExisting(path); err != nil {
			return nil, err
		}
		d.log.LogDbOpen(path, false)
	default:
		return nil, statErr
	}

	return d, nil
}

func (d *dal) create(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	d.file = f

	d.freeList = &freeList{}
	d.meta.freeListPage = d.freeList.getNextPage()
	if err := d.writeFreeList(); err != nil {
		return err
	}

	root := &Node{pageNum: d.freeList.getNextPage()}
	if err := d.writeNodeRaw(root); err != nil {
		return err
	}
	d.meta.root = root.pageNum

	return d.writeMeta(&d.meta)
}

func (d *dal) openExisting(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	d.file = f

	m, err := d.readMeta()
	if err != nil {
		return err
	}
	d.meta = *m

	fl, err := d.readFreeList()
	if err != nil {
		return err
	}
	d.freeList = fl
	return nil
}

func (d *dal) close() error {
	if d.file == nil {
		return nil
	}
	return d.file.Close()
}

// readPage allocates a zeroed buffer of length page_size and reads page n
// into it via a positional read.
func (d *dal) readPage(n uint64) (*Page, error) {
	buf := make([]byte, d.pageSize)
	if _, err := d.file.ReadAt(buf, int64(n)*int64(d.pageSize)); err != nil {
		return nil, err
	}
	return &Page{Num: n, Data: buf}, nil
}

// writePage writes the full page buffer via a positional write.
func (d *dal) writePage(p *Page) error {
	_, err := d.file.WriteAt(p.Data, int64(p.Num)*int64(d.pageSize))
	return err
}

func (d *dal) readNode(n uint64) (*Node, error) {
	d.met.NodeReads.Inc()
	p, err := d.readPage(n)
	if err != nil {
		return nil, err
	}
	node := &Node{pageNum: n}
	node.deserialize(p.Data)
	return node, nil
}

// writeNodeRaw assigns a fresh page number if node.pageNum is 0, then
// serializes and writes it. Called during database creation and by
// Transaction.Commit for every dirty node; nodes reached through a
// Transaction already have a page number by then (assigned by
// Transaction.newNode).
func (d *dal) writeNodeRaw(node *Node) error {
	if node.pageNum == 0 {
		node.pageNum = d.freeList.getNextPage()
	}
	d.met.NodeWrites.Inc()
	buf := make([]byte, d.pageSize)
	node.serialize(buf)
	return d.writePage(&Page{Num: node.pageNum, Data: buf})
}

func (d *dal) deleteNode(n uint64) {
	d.freeList.releasePage(n)
}

func (d *dal) readMeta() (*meta, error) {
	p, err := d.readPage(0)
	if err != nil {
		return nil, err
	}
	m := &meta{}
	if err := m.deserialize(p.Data); err != nil {
		d.log.LogCorruption(err.Error())
		return nil, err
	}
	return m, nil
}

func (d *dal) writeMeta(m *meta) error {
	buf := make([]byte, d.pageSize)
	m.serialize(buf)
	return d.writePage(&Page{Num: 0, Data: buf})
}

func (d *dal) readFreeList() (*freeList, error) {
	p, err := d.readPage(d.meta.freeListPage)
	if err != nil {
		return nil, err
	}
	fl := &freeList{}
	fl.deserialize(p.Data)
	return fl, nil
}

func (d *dal) writeFreeList() error {
	buf := make([]byte, d.pageSize)
	d.freeList.serialize(buf)
	if err := d.writePage(&Page{Num: d.meta.freeListPage, Data: buf}); err != nil {
		return err
	}
	d.met.FreeListSize.Set(float64(len(d.freeList.released)))
	return nil
}

func (d *dal) maxThreshold() float64 {
	return d.maxFillPercent * float64(d.pageSize)
}

func (d *dal) minThreshold() float64 {
	return d.minFillPercent * float64(d.pageSize)
}

func (d *dal) isOverPopulated(n *Node) bool {
	return float64(nodeByteSize(n)) > d.maxThreshold()
}

func (d *dal) isUnderPopulated(n *Node) bool {
	return float64(nodeByteSize(n)) < d.minThreshold()
}

// getSplitIndex walks n's element sizes and returns the first index i+1
// such that the running prefix size (including the header) exceeds
// min_threshold() and i is not the last item; otherwise it reports no
// split point (spec.md §4.2).
func (d *dal) getSplitIndex(n *Node) (int, bool) {
	size := nodeHeaderSize
	for i, it := range n.items {
		size += elementSize(it)
		if float64(size) > d.minThreshold() && i != len(n.items)-1 {
			return i + 1, true
		}
	}
	return 0, false
}
