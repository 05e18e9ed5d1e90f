package solver

import (
	"sync"

	"github.com/san-kum/liquidlab/internal/field"
)

// snapshotPool recycles dye-field copies handed out to renderers and
// stream subscribers, keeping copy-on-read cheap at interactive rates.
type snapshotPool struct {
	pool sync.Pool
	grid field.Grid
}

func newSnapshotPool(g field.Grid) *snapshotPool {
	return &snapshotPool{
		grid: g,
		pool: sync.Pool{
			New: func() interface{} {
				return field.NewDye(g)
			},
		},
	}
}

func (p *snapshotPool) Get() *field.Dye {
	return p.pool.Get().(*field.Dye)
}

func (p *snapshotPool) Put(d *field.Dye) {
	if d != nil && d.Grid() == p.grid {
		p.pool.Put(d)
	}
}
