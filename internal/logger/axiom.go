package logger

import (
    "context"
    "encoding/json"
    "fmt"
    "os"
    "sync"
    "sync/atomic"
    "time"

    "github.com/axiomhq/axiom-go/axiom"
    "github.com/axiomhq/axiom-go/axiom/ingest"
)

const (
    axiomBatchSize  = 200
    axiomBufferSize = 1000
)

type eventSender interface{ Send(ev axiom.Event) }

// axiomWriter turns zerolog JSON lines into Axiom events. Debug lines stay local.
type axiomWriter struct{ client eventSender }

func (w *axiomWriter) Write(p []byte) (int, error) {
    var ev map[string]any
    if err := json.Unmarshal(p, &ev); err != nil {
        ev = map[string]any{"message": string(p), "level": "info"}
    }
    if lvl, _ := ev["level"].(string); lvl == "debug" || lvl == "trace" {
        return len(p), nil
    }
    ev["service"] = ServiceName
    if _, ok := ev[ingest.TimestampField]; !ok {
        ev[ingest.TimestampField] = time.Now()
    }
    w.client.Send(axiom.Event(ev))
    return len(p), nil
}

type ingester interface {
    IngestEvents(ctx context.Context, id string, events []axiom.Event, options ...ingest.Option) (*ingest.Status, error)
}

// axiomShipper batches events in the background and ships them every flush
// interval or once a batch is full. A full buffer drops events.
type axiomShipper struct {
    client  ingester
    dataset string
    ch      chan axiom.Event
    done    chan struct{}
    wg      sync.WaitGroup
    dropped atomic.Int64
    once    sync.Once
}

func newAxiomShipper(token, orgID, dataset string, flushEvery time.Duration) (*axiomShipper, error) {
    opts := []axiom.Option{axiom.SetToken(token)}
    if orgID != "" { opts = append(opts, axiom.SetOrganizationID(orgID)) }
    c, err := axiom.NewClient(opts...)
    if err != nil { return nil, err }
    return startShipper(c, dataset, flushEvery), nil
}

func startShipper(c ingester, dataset string, flushEvery time.Duration) *axiomShipper {
    if dataset == "" { dataset = "dev_" + ServiceName }
    if flushEvery <= 0 { flushEvery = 10 * time.Second }
    s := &axiomShipper{
        client:  c,
        dataset: dataset,
        ch:      make(chan axiom.Event, axiomBufferSize),
        done:    make(chan struct{}),
    }
    s.wg.Add(1)
    go s.run(flushEvery)
    return s
}

func (s *axiomShipper) Send(ev axiom.Event) {
    select {
    case s.ch <- ev:
    default:
        s.dropped.Add(1)
    }
}

func (s *axiomShipper) Dropped() int64 { return s.dropped.Load() }

func (s *axiomShipper) run(flushEvery time.Duration) {
    defer s.wg.Done()
    ticker := time.NewTicker(flushEvery)
    defer ticker.Stop()

    batch := make([]axiom.Event, 0, axiomBatchSize)
    flush := func() {
        if len(batch) == 0 { return }
        ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
        defer cancel()
        if _, err := s.client.IngestEvents(ctx, s.dataset, batch); err != nil {
            fmt.Fprintf(os.Stderr, "axiom ingest failed (%d events): %v\n", len(batch), err)
        }
        batch = batch[:0]
    }

    for {
        select {
        case <-s.done:
            for {
                select {
                case ev := <-s.ch:
                    batch = append(batch, ev)
                    if len(batch) >= axiomBatchSize { flush() }
                default:
                    flush()
                    return
                }
            }
        case <-ticker.C:
            flush()
        case ev := <-s.ch:
            batch = append(batch, ev)
            if len(batch) >= axiomBatchSize { flush() }
        }
    }
}

// Close ships whatever is buffered and stops the background loop.
func (s *axiomShipper) Close() {
    s.once.Do(func() { close(s.done) })
    s.wg.Wait()
}
