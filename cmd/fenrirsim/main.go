// Command fenrirsim drives a single-symbol OrderBook through a
// scripted scenario: one user crosses a market maker's resting ask,
// which gets routed to a simulated external venue, a second user rests
// a bid below it,
// and the resulting callback stream is logged. It exists to exercise
// the core's documented external interfaces end to end, not to front
// a real gateway — spec.md explicitly leaves the wire protocol and
// session layer out of scope.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"fenrir/internal/book"
	"fenrir/internal/book/plugins"
	"fenrir/internal/depth"
	"fenrir/internal/routing"
)

func main() {
	base := flag.Uint("base", 1, "base asset id")
	quote := flag.Uint("quote", 0, "quote asset id")
	depthSize := flag.Int("depth", 10, "number of in-window depth levels per side")
	failureRate := flag.Float64("routing-failure-rate", 0.0, "probability a routed match is rejected by the simulated venue")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	symbolID := book.PackSymbolID(uint32(*base), uint32(*quote))
	projection := depth.New(*depthSize)

	positions := plugins.NewPositions()
	reduceOnly := plugins.NewReduceOnly(positions)
	stopOrders := plugins.NewStopOrders()

	dispatcher := routing.NewDispatcher(5*time.Millisecond, 20*time.Millisecond, *failureRate)
	routable := plugins.NewRoutable(dispatcher)

	sink := func(cbs []book.Callback) {
		for _, cb := range cbs {
			applyToDepth(projection, cb)
			if cb.Scope == book.ScopeSuppress {
				continue
			}
			log.Info().Uint32("symbolID", symbolID).Msg(cb.String())
		}
	}

	ob := book.NewOrderBook(symbolID, sink,
		&plugins.SelfTradePolicy{},
		&plugins.PostOnly{},
		reduceOnly,
		positions,
		stopOrders,
		routable,
	)

	const mmUserID = uint64(1)
	routable.RegisterMarketMaker(mmUserID, 101)

	dispatchCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dispatcher.Run(dispatchCtx)

	commands := make(chan func(*book.OrderBook))
	go scriptScenario(commands, mmUserID)

	runLoop(ob, routable, dispatcher, commands)

	log.Info().
		Interface("bids", projection.Levels(true)).
		Interface("asks", projection.Levels(false)).
		Msg("final depth snapshot")
}

// runLoop is the only goroutine allowed to touch ob: scripted
// commands and asynchronous routing results are both serialized
// through this select, so the core's single-threaded cooperative
// model (spec.md §5) is never re-entered concurrently.
func runLoop(ob *book.OrderBook, routable *plugins.Routable, dispatcher *routing.Dispatcher, commands <-chan func(*book.OrderBook)) {
	idle := time.NewTimer(200 * time.Millisecond)
	defer idle.Stop()

	for {
		select {
		case cmd, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			cmd(ob)
			idle.Reset(200 * time.Millisecond)
		case res := <-dispatcher.Results():
			if res.SymbolID == ob.SymbolID() {
				if res.Success {
					routable.OnRoutingSuccess(ob, res.RequestID)
				} else {
					routable.OnRoutingFailure(ob, res.RequestID)
				}
			}
			idle.Reset(200 * time.Millisecond)
		case <-idle.C:
			return
		}
	}
}

// applyToDepth feeds one callback into the depth projection, mirroring
// the way a real gateway's market-data publisher would consume the
// same stream the user-facing connections see. Within one operation's
// batch the accept callback always precedes the trades it produced
// (book.go's ordering guarantee), so adding the order's full qty on
// accept and letting the following fills decrement it nets out to the
// correct resting qty — except when the order matched entirely on
// entry, where adding it at all would create a level that never truly
// rested; SkipFill arms the projection to absorb that case instead.
func applyToDepth(d *depth.Depth, cb book.Callback) {
	switch cb.Type {
	case book.CbAccept:
		if cb.Order.Price == 0 {
			return
		}
		if cb.Qty == cb.Order.Qty {
			if err := d.SkipFill(cb.Qty, cb.Order.IsBid); err != nil {
				log.Error().Err(err).Msg("depth skip_fill already pending")
			}
		} else {
			d.AddOrder(cb.Order.Price, cb.Order.Qty, cb.Order.IsBid)
		}
	case book.CbTrade:
		if cb.MakerOrder.Price != 0 {
			d.FillOrder(cb.MakerOrder.Price, cb.Qty, cb.Flags&book.MakerFilled != 0, cb.MakerOrder.IsBid)
		}
		if cb.Order.Price != 0 {
			d.FillOrder(cb.Order.Price, cb.Qty, cb.Flags&book.TakerFilled != 0, cb.Order.IsBid)
		}
	case book.CbCancel:
		if cb.Order.Price != 0 {
			d.CloseOrder(cb.Order.Price, cb.Generic1, cb.Order.IsBid)
		}
	case book.CbReplace:
		d.ChangeQtyOrder(cb.Order.Price, cb.Generic1, cb.Order.IsBid)
	}
}

func mintOrderID() book.OrderID {
	id := uuid.New()
	var hi, lo uint64
	for i := 0; i < 8; i++ {
		hi = hi<<8 | uint64(id[i])
	}
	for i := 8; i < 16; i++ {
		lo = lo<<8 | uint64(id[i])
	}
	return book.NewOrderID(hi, lo)
}

// scriptScenario plays a small fixed sequence of orders, each as a
// command the owning goroutine runs on its own turn, then closes the
// channel: a market maker quotes an ask, a user crosses it and routes
// to the simulated venue, and a second user rests a bid below the ask.
func scriptScenario(commands chan<- func(*book.OrderBook), mmUserID uint64) {
	defer close(commands)

	orders := []book.Order{
		{OrderID: mintOrderID(), UserID: mmUserID, IsBid: false, Price: 100, Qty: 5},
		{OrderID: mintOrderID(), UserID: 2, IsBid: true, Price: 100, Qty: 2},
		{OrderID: mintOrderID(), UserID: 3, IsBid: true, Price: 99, Qty: 3},
	}

	for _, order := range orders {
		o := order
		commands <- func(ob *book.OrderBook) { ob.Add(o) }
		time.Sleep(30 * time.Millisecond)
	}
}
