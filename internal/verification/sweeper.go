package verification

import (
	"log"
	"time"
)

// Sweepable — хранилище, умеющее зачищать протухшие записи.
type Sweepable interface {
	SweepExpired(now time.Time) int
}

// Sweeper — фоновая зачистка по фиксированному периоду. Держит ссылки на
// хранилища, а не наоборот: хранилища про него не знают.
type Sweeper struct {
	interval time.Duration
	stores   []Sweepable
	stop     chan struct{}
	done     chan struct{}
}

func NewSweeper(interval time.Duration, stores ...Sweepable) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{
		interval: interval,
		stores:   stores,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (sw *Sweeper) Start() {
	go sw.run()
}

func (sw *Sweeper) run() {
	defer close(sw.done)

	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			if removed := sw.SweepOnce(now); removed > 0 {
				log.Printf("[sweeper] removed %d expired entries", removed)
			}
		case <-sw.stop:
			return
		}
	}
}

// SweepOnce — один проход по всем хранилищам; вынесен отдельно для тестов.
func (sw *Sweeper) SweepOnce(now time.Time) int {
	total := 0
	for _, st := range sw.stores {
		total += st.SweepExpired(now)
	}
	return total
}

func (sw *Sweeper) Stop() {
	close(sw.stop)
	<-sw.done
}
