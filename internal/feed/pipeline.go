package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/almarsh/edtrader/internal/config"
	"github.com/almarsh/edtrader/internal/refdata"
	"github.com/almarsh/edtrader/internal/store"
)

// RebuildFunc produces a fresh reference snapshot. The pipeline calls it once
// at startup and again whenever the refresh interval has elapsed.
type RebuildFunc func(ctx context.Context) (*refdata.Snapshot, error)

// Stats are the pipeline's running counters.
type Stats struct {
	Processed         int64 // Documents handled to completion
	DroppedQueueFull  int64 // Decoded documents dropped at the queue high watermark
	DroppedRebuilding int64 // Documents dropped while a rebuild was in progress
	DroppedUnresolved int64 // Documents whose system or station was unknown
	RecordsAppended   int64 // Normalized records written to the record file
}

// Pipeline turns raw feed frames into normalized trade records.
type Pipeline struct {
	cfg        config.FeedConfig
	recordFile string
	rebuild    RebuildFunc
	logger     *slog.Logger

	// newClient is swappable so tests can feed canned frames.
	newClient func() Client

	queue chan []byte

	mu          sync.RWMutex
	snap        *refdata.Snapshot
	lastRebuild time.Time

	rebuilding        atomic.Bool
	consecutiveErrors atomic.Int64

	processed         atomic.Int64
	droppedQueueFull  atomic.Int64
	droppedRebuilding atomic.Int64
	droppedUnresolved atomic.Int64
	recordsAppended   atomic.Int64
}

// NewPipeline creates a pipeline writing normalized records to recordFile.
func NewPipeline(cfg config.FeedConfig, recordFile string, rebuild RebuildFunc, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		cfg:        cfg,
		recordFile: recordFile,
		rebuild:    rebuild,
		logger:     logger,
		queue:      make(chan []byte, cfg.HighWatermark),
	}
	p.newClient = func() Client {
		return NewClient(ClientConfig{URL: cfg.URL, HighWatermark: cfg.HighWatermark}, logger)
	}
	return p
}

// Stats returns a snapshot of the running counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Processed:         p.processed.Load(),
		DroppedQueueFull:  p.droppedQueueFull.Load(),
		DroppedRebuilding: p.droppedRebuilding.Load(),
		DroppedUnresolved: p.droppedUnresolved.Load(),
		RecordsAppended:   p.recordsAppended.Load(),
	}
}

// Run streams with a decoupled handler: the receive loop decodes frames into
// a bounded queue and the drain loop normalizes them. Blocks until the
// context is cancelled or the stop file appears.
func (p *Pipeline) Run(ctx context.Context) error {
	return p.run(ctx, true)
}

// RunInline streams without the queue, handling each document on the receive
// path. Slower under load but simpler to reason about; the lightweight mode
// for low-traffic hours.
func (p *Pipeline) RunInline(ctx context.Context) error {
	return p.run(ctx, false)
}

func (p *Pipeline) run(ctx context.Context, queued bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := p.refresh(ctx); err != nil {
		return fmt.Errorf("initial snapshot: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.watchStopFile(ctx, cancel) })
	if queued {
		g.Go(func() error { return p.drainLoop(ctx) })
	}
	g.Go(func() error { return p.receiveLoop(ctx, queued) })

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// receiveLoop owns the connection lifecycle: connect, stream until the
// connection dies or the error threshold trips, back off, reconnect.
func (p *Pipeline) receiveLoop(ctx context.Context, queued bool) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		client := p.newClient()
		if err := client.Connect(ctx); err != nil {
			p.logger.Warn("feed connect failed", "error", err)
			if !sleepCtx(ctx, p.cfg.ReconnectDelay) {
				return ctx.Err()
			}
			continue
		}
		p.logger.Info("streaming", "url", p.cfg.URL)

		p.stream(ctx, client, queued)
		client.Close()

		if !sleepCtx(ctx, p.cfg.ReconnectDelay) {
			return ctx.Err()
		}
	}
}

// stream consumes one connection until it fails or accumulates too many
// consecutive handler errors.
func (p *Pipeline) stream(ctx context.Context, client Client, queued bool) {
	for {
		select {
		case <-ctx.Done():
			return

		case err := <-client.Errors():
			p.logger.Warn("feed connection lost", "error", err)
			return

		case frame := <-client.Frames():
			doc, ok := decodeFrame(frame.Data)
			if !ok {
				continue
			}
			// Admission check: documents arriving mid-rebuild are dropped
			// here, never queued for later.
			if p.rebuilding.Load() {
				p.droppedRebuilding.Add(1)
				continue
			}
			if queued {
				select {
				case p.queue <- doc:
				default:
					p.droppedQueueFull.Add(1)
				}
			} else {
				p.maybeRefresh(ctx)
				p.handle(doc)
			}

			if n := p.consecutiveErrors.Load(); n >= int64(p.cfg.ErrorThreshold) {
				p.logger.Warn("error threshold reached, tearing connection down", "errors", n)
				p.consecutiveErrors.Store(0)
				return
			}
		}
	}
}

// drainLoop normalizes queued documents and keeps the snapshot fresh even
// when the feed goes quiet.
func (p *Pipeline) drainLoop(ctx context.Context) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case doc := <-p.queue:
			p.maybeRefresh(ctx)
			p.handle(doc)
		case <-ticker.C:
			p.maybeRefresh(ctx)
		}
	}
}

// watchStopFile polls for the stop file and cancels the run when it appears.
func (p *Pipeline) watchStopFile(ctx context.Context, cancel context.CancelFunc) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := os.Stat(p.cfg.StopFile); err == nil {
				p.logger.Info("stop file found, shutting down", "file", p.cfg.StopFile)
				cancel()
				return nil
			}
		}
	}
}

// maybeRefresh rebuilds the snapshot when the refresh interval has elapsed.
// A failed rebuild keeps the previous snapshot and retries next cycle.
func (p *Pipeline) maybeRefresh(ctx context.Context) {
	p.mu.RLock()
	due := time.Since(p.lastRebuild) >= p.cfg.RefreshInterval
	p.mu.RUnlock()
	if !due {
		return
	}
	if err := p.refresh(ctx); err != nil {
		p.logger.Error("snapshot rebuild failed, keeping previous", "error", err)
	}
}

func (p *Pipeline) refresh(ctx context.Context) error {
	p.rebuilding.Store(true)
	defer p.rebuilding.Store(false)

	snap, err := p.rebuild(ctx)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.snap = snap
	p.lastRebuild = time.Now()
	p.mu.Unlock()
	return nil
}

func (p *Pipeline) snapshot() *refdata.Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap
}

// handle normalizes one decoded document and appends the resulting records.
// Documents arriving mid-rebuild are dropped rather than queued against a
// snapshot that is about to be replaced.
func (p *Pipeline) handle(doc []byte) {
	if p.rebuilding.Load() {
		p.droppedRebuilding.Add(1)
		return
	}
	snap := p.snapshot()
	if snap == nil {
		p.droppedRebuilding.Add(1)
		return
	}

	var msg commodityMessage
	if err := json.Unmarshal(doc, &msg); err != nil {
		p.consecutiveErrors.Add(1)
		p.logger.Debug("skipping malformed document", "error", err)
		return
	}

	// Only current-era clients report volumes worth recording; legacy
	// documents and incomplete ones are dropped.
	m := msg.Message
	if !m.Odyssey || m.SystemName == "" || m.StationName == "" || len(m.Commodities) == 0 {
		p.consecutiveErrors.Store(0)
		return
	}

	system, ok := snap.SystemByName(m.SystemName)
	if !ok {
		p.droppedUnresolved.Add(1)
		p.logger.Warn("unknown system", "system", m.SystemName)
		return
	}
	station, ok := snap.StationByName(m.StationName, system.Name)
	if !ok {
		p.droppedUnresolved.Add(1)
		p.logger.Warn("unknown station", "station", m.StationName, "system", m.SystemName)
		return
	}

	collectedAt, err := parseTimestamp(m.Timestamp)
	if err != nil {
		p.consecutiveErrors.Add(1)
		p.logger.Debug("skipping document with bad timestamp", "timestamp", m.Timestamp)
		return
	}

	records := make([]store.Record, 0, len(m.Commodities))
	for _, entry := range m.Commodities {
		if entry.negligible() {
			continue
		}
		commodity, ok := snap.CommodityByName(entry.Name)
		if !ok {
			p.logger.Debug("unknown commodity", "commodity", entry.Name)
			continue
		}
		records = append(records, store.Record{
			StationID:   station.ID,
			CommodityID: commodity.ID,
			Supply:      entry.Stock,
			Demand:      entry.Demand,
			BuyPrice:    entry.BuyPrice,
			SellPrice:   entry.SellPrice,
			CollectedAt: collectedAt.Unix(),
		})
	}

	if len(records) > 0 {
		store.AppendRecords(p.recordFile, records, p.logger)
		p.recordsAppended.Add(int64(len(records)))
		p.logger.Info("market update",
			"system", system.Name,
			"station", station.Name,
			"records", len(records),
		)
	}

	p.processed.Add(1)
	p.consecutiveErrors.Store(0)
}

// sleepCtx waits for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
