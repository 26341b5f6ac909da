// Package routing simulates the external venue a Routable plugin
// routes matches to: spec.md explicitly draws the line around "the
// specific transport that delivers routing requests" as an external
// collaborator the core never models, so this is that collaborator's
// stand-in for the demo harness. Adapted from internal/worker.go and
// internal/server.go's worker-pool shape (this repo, pre-transform).
package routing

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"fenrir/internal/book/plugins"
)

const (
	defaultWorkers = 4
	taskChanSize   = 100
)

// Result is a venue's answer to one RoutingRequest. Delivered over
// Results() rather than called back directly, so a single consumer
// goroutine can serialize it against whatever else is driving the
// owning OrderBook.
type Result struct {
	SymbolID  uint32
	RequestID uint64
	Success   bool
}

// Dispatcher accepts plugins.RoutingRequest values (satisfying
// plugins.RoutingHandler) and resolves each after a simulated RTT on
// a tomb-supervised worker pool.
type Dispatcher struct {
	tasks     chan plugins.RoutingRequest
	responses chan Result

	minRTT, maxRTT time.Duration
	failureRate    float64
}

// NewDispatcher builds a Dispatcher that resolves requests after an
// RTT uniformly distributed in [minRTT, maxRTT), failing a request
// with probability failureRate.
func NewDispatcher(minRTT, maxRTT time.Duration, failureRate float64) *Dispatcher {
	return &Dispatcher{
		tasks:       make(chan plugins.RoutingRequest, taskChanSize),
		responses:   make(chan Result, taskChanSize),
		minRTT:      minRTT,
		maxRTT:      maxRTT,
		failureRate: failureRate,
	}
}

// OnRoutingRequest satisfies plugins.RoutingHandler: it hands the
// request to the worker pool and returns immediately.
func (d *Dispatcher) OnRoutingRequest(req plugins.RoutingRequest) {
	d.tasks <- req
}

// Results is where resolved requests arrive. The caller is expected
// to be the same goroutine driving the owning OrderBook, so it can
// call Routable.OnRoutingSuccess/OnRoutingFailure without racing
// whatever else touches the book.
func (d *Dispatcher) Results() <-chan Result {
	return d.responses
}

// Run drives the worker pool until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	t, ctx := tomb.WithContext(ctx)

	for i := 0; i < defaultWorkers; i++ {
		// Each worker gets its own rand.Source: math/rand.Rand is not
		// safe for concurrent use, and sharing one across the pool
		// would race resolve's Int63n/Float64 calls.
		rng := rand.New(rand.NewSource(int64(i) + 1))
		t.Go(func() error { return d.worker(t, rng) })
	}

	<-ctx.Done()
	t.Kill(nil)
	t.Wait()
}

// worker resolves routing requests after a simulated RTT.
func (d *Dispatcher) worker(t *tomb.Tomb, rng *rand.Rand) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case req := <-d.tasks:
			d.resolve(t, req, rng)
		}
	}
}

func (d *Dispatcher) resolve(t *tomb.Tomb, req plugins.RoutingRequest, rng *rand.Rand) {
	rtt := d.minRTT
	if d.maxRTT > d.minRTT {
		rtt += time.Duration(rng.Int63n(int64(d.maxRTT - d.minRTT)))
	}

	select {
	case <-t.Dying():
		return
	case <-time.After(rtt):
	}

	success := rng.Float64() >= d.failureRate
	log.Debug().
		Uint64("requestID", req.RequestID).
		Uint32("symbolID", req.SymbolID).
		Bool("success", success).
		Msg("routing request resolved")

	result := Result{SymbolID: req.SymbolID, RequestID: req.RequestID, Success: success}
	select {
	case <-t.Dying():
	case d.responses <- result:
	}
}
