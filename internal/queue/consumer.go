package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strconv"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/auction-marketplace/internal/logging"
)

// ListingLogFile is the file, relative to the consumer's log directory,
// that receives one line per listed item.
const ListingLogFile = "listing.log"

const maxBackoff = 30 * time.Second

// ListingConsumer appends item.listed events to a log file.
type ListingConsumer struct {
    URL    string
    LogDir string
    Log    logging.Logger
}

// NewListingConsumer returns a consumer writing to logDir/listing.log.
func NewListingConsumer(url, logDir string, log logging.Logger) *ListingConsumer {
    if log == nil {
        log = logging.Discard()
    }
    return &ListingConsumer{URL: url, LogDir: logDir, Log: log}
}

// Run connects to the broker, declares the item.listed queue and
// consumes until ctx is cancelled.  Lost connections are redialled with
// exponential backoff.  Run returns ctx.Err() once cancelled.
func (lc *ListingConsumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if err := ctx.Err(); err != nil {
            return err
        }
        conn, err := amqp.Dial(lc.URL)
        if err != nil {
            lc.Log.Warn(ctx, "listing consumer dial failed", "error", err, "retry_in", backoff.String())
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < maxBackoff {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = lc.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        lc.Log.Warn(ctx, "listing consumer loop ended; reconnecting", "error", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (lc *ListingConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        lc.Log.Warn(ctx, "listing consumer qos failed", "error", err)
    }
    if _, err := ch.QueueDeclare(ItemListedQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(ItemListedQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    lc.Log.Info(ctx, "listing consumer started", "queue", ItemListedQueue)
    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := lc.HandleMessage(d.Body); err != nil {
                lc.Log.Error(ctx, "listing consumer handle failed", "error", err)
                // rejected without requeue so a bad payload cannot spin
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// HandleMessage decodes one event and appends its line to the log file.
func (lc *ListingConsumer) HandleMessage(body []byte) error {
    var ev ItemListedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.ItemID == "" {
        return errors.New("event without item_id")
    }
    if err := os.MkdirAll(lc.LogDir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", lc.LogDir, err)
    }
    f, err := os.OpenFile(filepath.Join(lc.LogDir, ListingLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatListing(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatListing renders ev as a single newline-terminated log line.
func FormatListing(ev ItemListedEvent) string {
    line := fmt.Sprintf("[%s] Item listed | item_id=%s | user_id=%s | sale_type=%s | title=%s",
        ev.ListedAt, ev.ItemID, ev.UserID, ev.SaleType, strconv.Quote(ev.Title))
    if ev.ReservePrice != nil {
        line += " | reserve=" + strconv.FormatFloat(*ev.ReservePrice, 'f', 2, 64)
    }
    if ev.BuyNowPrice != nil {
        line += " | buy_now=" + strconv.FormatFloat(*ev.BuyNowPrice, 'f', 2, 64)
    }
    if ev.AuctionEnd != "" {
        line += " | ends=" + ev.AuctionEnd
    }
    return line + "\n"
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
