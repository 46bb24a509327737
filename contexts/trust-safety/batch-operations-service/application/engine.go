package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"warden/contexts/trust-safety/batch-operations-service/domain/entities"
	domainerrors "warden/contexts/trust-safety/batch-operations-service/domain/errors"
	"warden/contexts/trust-safety/batch-operations-service/ports"
	"warden/internal/shared/events"
)

const (
	moduleName = "trust-safety/batch-operations-service"

	TopicOperationProgress = "batch.operation.progress"
	TopicOperationFinished = "batch.operation.finished"
)

// StartInput carries everything needed to launch one batch operation.
type StartInput struct {
	Kind        string
	ItemIDs     []string
	Executor    ports.ItemExecutor
	Eligibility ports.EligibilityFilter
	RateLimit   entities.RateLimitPolicy
	Retry       entities.RetryConfig
}

// Snapshot is an immutable copy of an operation plus derived progress.
// Stats is populated once the operation reaches a terminal state.
type Snapshot struct {
	Operation entities.Operation
	Progress  Progress
	Stats     *entities.OperationStats
}

// Engine owns the canonical state of every batch operation and drives each
// item through a rate-limited, retryable pipeline. All transitions for one
// operation are serialized under that operation's lock; scheduled callbacks
// carry the epoch current at schedule time and are ignored once pause or
// cancel has bumped it.
type Engine struct {
	history   ports.HistoryRepository
	publisher ports.EventPublisher
	clock     ports.Clock
	idgen     ports.IDGenerator
	logger    *slog.Logger
	source    string

	mu  sync.Mutex
	ops map[string]*runningOperation
}

type EngineDeps struct {
	History     ports.HistoryRepository
	Publisher   ports.EventPublisher
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	ServiceName string
	Logger      *slog.Logger
}

func NewEngine(deps EngineDeps) *Engine {
	source := strings.TrimSpace(deps.ServiceName)
	if source == "" {
		source = "warden"
	}
	return &Engine{
		history:   deps.History,
		publisher: deps.Publisher,
		clock:     deps.Clock,
		idgen:     deps.IDGenerator,
		logger:    resolveLogger(deps.Logger),
		source:    source,
		ops:       make(map[string]*runningOperation),
	}
}

// runningOperation is the engine-owned runtime record for one operation.
// External readers only ever receive snapshots built under mu.
type runningOperation struct {
	mu       sync.Mutex
	op       entities.Operation
	epoch    uint64
	executor ports.ItemExecutor
	eligible ports.EligibilityFilter
	rate     entities.RateLimitPolicy
	retry    entities.RetryConfig
	timers   []*time.Timer
	watchers []chan Snapshot
	stats    *entities.OperationStats
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// Start validates the request, creates the operation in pending state,
// promotes it to in_progress and schedules every item on the rate-limit
// curve. The returned id is the control handle for pause/resume/cancel.
func (e *Engine) Start(ctx context.Context, input StartInput) (string, error) {
	kind := strings.TrimSpace(input.Kind)
	if kind == "" {
		return "", fmt.Errorf("%w: operation kind is required", domainerrors.ErrInvalidArgument)
	}
	if len(input.ItemIDs) == 0 {
		return "", fmt.Errorf("%w: item selection is empty", domainerrors.ErrInvalidArgument)
	}
	for _, id := range input.ItemIDs {
		if strings.TrimSpace(id) == "" {
			return "", fmt.Errorf("%w: blank item id in selection", domainerrors.ErrInvalidArgument)
		}
	}
	if input.Executor == nil {
		return "", fmt.Errorf("%w: executor is required", domainerrors.ErrInvalidArgument)
	}
	if input.RateLimit.Enabled && input.RateLimit.MaxRequests < 1 {
		return "", fmt.Errorf("%w: max requests must be at least 1", domainerrors.ErrInvalidArgument)
	}
	if input.RateLimit.TimeWindow < 0 {
		return "", fmt.Errorf("%w: time window must not be negative", domainerrors.ErrInvalidArgument)
	}
	if input.Retry.MaxRetries < 0 {
		return "", fmt.Errorf("%w: max retries must not be negative", domainerrors.ErrInvalidArgument)
	}
	if input.Retry.RetryDelay < 0 {
		return "", fmt.Errorf("%w: retry delay must not be negative", domainerrors.ErrInvalidArgument)
	}
	if e.idgen == nil {
		return "", errors.New("id generator is required")
	}

	operationID, err := e.idgen.NewID(ctx)
	if err != nil {
		return "", fmt.Errorf("generate operation id: %w", err)
	}

	items := make([]entities.WorkItem, 0, len(input.ItemIDs))
	for _, id := range input.ItemIDs {
		items = append(items, entities.WorkItem{ItemID: id, State: entities.ItemPending})
	}

	opCtx, opCancel := context.WithCancel(context.Background())
	o := &runningOperation{
		op: entities.Operation{
			OperationID: operationID,
			Kind:        kind,
			State:       entities.OperationInProgress,
			Items:       items,
			StartedAt:   e.now(),
		},
		executor: input.Executor,
		eligible: input.Eligibility,
		rate:     input.RateLimit,
		retry:    input.Retry,
		ctx:      opCtx,
		cancel:   opCancel,
		done:     make(chan struct{}),
	}

	e.mu.Lock()
	e.ops[operationID] = o
	e.mu.Unlock()

	o.mu.Lock()
	for i := range o.op.Items {
		e.scheduleDispatchLocked(o, i, o.rate.DelayFor(i))
	}
	e.notifyLocked(o)
	o.mu.Unlock()

	e.logger.Info("batch operation started",
		"event", "batch_operation_started",
		"module", moduleName,
		"layer", "application",
		"operation_id", operationID,
		"kind", kind,
		"total_items", len(items),
	)
	return operationID, nil
}

// Pause stops scheduling new dispatches. Items already processing run to
// completion and their results still apply. Pausing a paused operation is a
// no-op.
func (e *Engine) Pause(operationID string) error {
	o, err := e.lookup(operationID)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.op.State {
	case entities.OperationPaused:
		return nil
	case entities.OperationInProgress:
	default:
		return domainerrors.ErrInvalidTransition
	}

	o.op.State = entities.OperationPaused
	e.invalidateTimersLocked(o)
	e.notifyLocked(o)
	e.logger.Info("batch operation paused",
		"event", "batch_operation_paused",
		"module", moduleName,
		"layer", "application",
		"operation_id", operationID,
	)
	return nil
}

// Resume restarts dispatch over the items still pending, on a fresh
// rate-limit schedule starting at position 0 of that subset.
func (e *Engine) Resume(operationID string) error {
	o, err := e.lookup(operationID)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.op.State != entities.OperationPaused {
		return domainerrors.ErrInvalidTransition
	}
	o.op.State = entities.OperationInProgress

	position := 0
	for i := range o.op.Items {
		if o.op.Items[i].State != entities.ItemPending {
			continue
		}
		e.scheduleDispatchLocked(o, i, o.rate.DelayFor(position))
		position++
	}
	e.notifyLocked(o)
	e.maybeCompleteLocked(o)
	e.logger.Info("batch operation resumed",
		"event", "batch_operation_resumed",
		"module", moduleName,
		"layer", "application",
		"operation_id", operationID,
		"rescheduled_items", position,
	)
	return nil
}

// Cancel is terminal. Once it returns, no further item transitions occur:
// pending dispatch and retry timers are invalidated and results from
// executor calls already in flight are discarded. Items keep their last
// recorded state for the audit archive.
func (e *Engine) Cancel(operationID string) error {
	o, err := e.lookup(operationID)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.op.State {
	case entities.OperationPending, entities.OperationInProgress, entities.OperationPaused:
	default:
		return domainerrors.ErrInvalidTransition
	}
	e.finishLocked(o, entities.OperationCancelled)
	return nil
}

// Snapshot returns a read-only copy of the operation, its derived progress
// and, once terminal, its final stats.
func (e *Engine) Snapshot(operationID string) (Snapshot, error) {
	o, err := e.lookup(operationID)
	if err != nil {
		return Snapshot{}, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return e.snapshotLocked(o), nil
}

// Watch subscribes to snapshot updates for one operation. The channel closes
// after the final snapshot. Subscribing to a terminal operation yields that
// final snapshot immediately.
func (e *Engine) Watch(operationID string) (<-chan Snapshot, error) {
	o, err := e.lookup(operationID)
	if err != nil {
		return nil, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	ch := make(chan Snapshot, 16)
	if o.op.State.Terminal() {
		ch <- e.snapshotLocked(o)
		close(ch)
		return ch, nil
	}
	o.watchers = append(o.watchers, ch)
	return ch, nil
}

// Wait blocks until the operation is terminal or ctx expires.
func (e *Engine) Wait(ctx context.Context, operationID string) error {
	o, err := e.lookup(operationID)
	if err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-o.done:
		return nil
	}
}

// ListActive returns snapshots of every operation the engine still holds in
// memory, newest items in map order (callers sort as needed).
func (e *Engine) ListActive() []Snapshot {
	e.mu.Lock()
	ops := make([]*runningOperation, 0, len(e.ops))
	for _, o := range e.ops {
		ops = append(ops, o)
	}
	e.mu.Unlock()

	out := make([]Snapshot, 0, len(ops))
	for _, o := range ops {
		o.mu.Lock()
		out = append(out, e.snapshotLocked(o))
		o.mu.Unlock()
	}
	return out
}

func (e *Engine) lookup(operationID string) (*runningOperation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	o, ok := e.ops[strings.TrimSpace(operationID)]
	if !ok {
		return nil, domainerrors.ErrOperationNotFound
	}
	return o, nil
}

func (e *Engine) now() time.Time {
	if e.clock != nil {
		return e.clock.Now().UTC()
	}
	return time.Now().UTC()
}

// scheduleDispatchLocked arms one dispatch timer. The callback re-checks the
// epoch under the lock, so a timer that fires after pause or cancel is inert.
func (e *Engine) scheduleDispatchLocked(o *runningOperation, idx int, delay time.Duration) {
	epoch := o.epoch
	timer := time.AfterFunc(delay, func() {
		e.dispatch(o, idx, epoch)
	})
	o.timers = append(o.timers, timer)
}

func (e *Engine) invalidateTimersLocked(o *runningOperation) {
	o.epoch++
	for _, timer := range o.timers {
		timer.Stop()
	}
	o.timers = o.timers[:0]
}

func (e *Engine) dispatch(o *runningOperation, idx int, epoch uint64) {
	o.mu.Lock()
	if o.epoch != epoch || o.op.State != entities.OperationInProgress {
		o.mu.Unlock()
		return
	}
	item := &o.op.Items[idx]
	if item.State != entities.ItemPending {
		o.mu.Unlock()
		return
	}
	item.State = entities.ItemProcessing
	itemID := item.ItemID
	eligible := o.eligible
	e.notifyLocked(o)
	o.mu.Unlock()

	if eligible != nil && !eligible(itemID) {
		e.applySkip(o, idx)
		return
	}
	e.applyResult(o, idx, o.executor(o.ctx, itemID))
}

// applySkip marks an ineligible item skipped. Skips consume no retry and are
// discarded only if the operation was cancelled while the check ran.
func (e *Engine) applySkip(o *runningOperation, idx int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.op.State == entities.OperationCancelled {
		return
	}
	item := &o.op.Items[idx]
	if item.State != entities.ItemProcessing {
		return
	}
	item.State = entities.ItemSkipped
	e.notifyLocked(o)
	e.maybeCompleteLocked(o)
}

// applyResult applies one executor outcome. Results arriving after cancel are
// discarded; results arriving while paused still apply, because the item was
// already in flight when the pause landed.
func (e *Engine) applyResult(o *runningOperation, idx int, execErr error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.op.State == entities.OperationCancelled {
		e.logger.Debug("discarding result for cancelled operation",
			"event", "batch_item_result_discarded",
			"module", moduleName,
			"layer", "application",
			"operation_id", o.op.OperationID,
			"item_id", o.op.Items[idx].ItemID,
		)
		return
	}
	item := &o.op.Items[idx]
	if item.State != entities.ItemProcessing {
		return
	}

	switch {
	case execErr == nil:
		item.State = entities.ItemSuccess
	case item.RetryCount < o.retry.MaxRetries:
		item.RetryCount++
		item.LastError = execErr.Error()
		item.State = entities.ItemPending
		if o.op.State == entities.OperationInProgress {
			e.scheduleDispatchLocked(o, idx, o.retry.RetryDelay)
		}
	default:
		item.State = entities.ItemError
		item.LastError = execErr.Error()
	}

	e.notifyLocked(o)
	e.maybeCompleteLocked(o)
}

func (e *Engine) maybeCompleteLocked(o *runningOperation) {
	if o.op.State != entities.OperationInProgress {
		return
	}
	counts := o.op.CountItems()
	if counts.Total == 0 || counts.Terminal() != counts.Total {
		return
	}
	e.finishLocked(o, entities.OperationCompleted)
}

// finishLocked moves the operation to a terminal state, emits the one-shot
// stats summary, archives the result and releases every watcher.
func (e *Engine) finishLocked(o *runningOperation, state entities.OperationState) {
	o.op.State = state
	o.op.EndedAt = e.now()
	e.invalidateTimersLocked(o)
	o.cancel()

	counts := o.op.CountItems()
	stats := entities.OperationStats{
		OperationID:    o.op.OperationID,
		Kind:           o.op.Kind,
		State:          state,
		TotalProcessed: counts.Total,
		Succeeded:      counts.Succeeded,
		Failed:         counts.Failed,
		Skipped:        counts.Skipped,
		TimeElapsed:    o.op.EndedAt.Sub(o.op.StartedAt),
	}
	o.stats = &stats

	snapshot := e.snapshotLocked(o)
	for _, watcher := range o.watchers {
		select {
		case watcher <- snapshot:
		default:
		}
		close(watcher)
	}
	o.watchers = nil
	close(o.done)

	e.publishLocked(o, TopicOperationFinished, map[string]any{
		"operation_id":    stats.OperationID,
		"kind":            stats.Kind,
		"state":           string(stats.State),
		"total_processed": stats.TotalProcessed,
		"succeeded":       stats.Succeeded,
		"failed":          stats.Failed,
		"skipped":         stats.Skipped,
		"elapsed_ms":      stats.TimeElapsed.Milliseconds(),
	})
	e.archive(snapshot.Operation)

	e.logger.Info("batch operation finished",
		"event", "batch_operation_finished",
		"module", moduleName,
		"layer", "application",
		"operation_id", stats.OperationID,
		"state", string(state),
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
		"elapsed", stats.TimeElapsed.String(),
	)
}

func (e *Engine) snapshotLocked(o *runningOperation) Snapshot {
	op := o.op
	op.Items = slices.Clone(o.op.Items)
	snapshot := Snapshot{
		Operation: op,
		Progress:  ComputeProgress(op, e.now()),
	}
	if o.stats != nil {
		stats := *o.stats
		snapshot.Stats = &stats
	}
	return snapshot
}

// notifyLocked fans the current snapshot out to watchers; slow watchers miss
// intermediate snapshots rather than block the engine.
func (e *Engine) notifyLocked(o *runningOperation) {
	snapshot := e.snapshotLocked(o)
	for _, watcher := range o.watchers {
		select {
		case watcher <- snapshot:
		default:
		}
	}
	counts := snapshot.Progress.Counts
	e.publishLocked(o, TopicOperationProgress, map[string]any{
		"operation_id": o.op.OperationID,
		"state":        string(o.op.State),
		"percent":      snapshot.Progress.Percent,
		"succeeded":    counts.Succeeded,
		"failed":       counts.Failed,
		"skipped":      counts.Skipped,
		"total":        counts.Total,
	})
}

func (e *Engine) publishLocked(o *runningOperation, topic string, payload map[string]any) {
	if e.publisher == nil {
		return
	}
	eventID, err := e.idgen.NewID(context.Background())
	if err != nil {
		e.logger.Error("event id generation failed",
			"event", "batch_event_id_failed",
			"module", moduleName,
			"layer", "application",
			"operation_id", o.op.OperationID,
			"error", err.Error(),
		)
		return
	}
	envelope := events.Envelope{
		EventID:        eventID,
		EventType:      topic,
		SourceService:  e.source,
		OccurredAtUTC:  e.now(),
		EntityType:     "batch_operation",
		EntityID:       o.op.OperationID,
		PayloadVersion: 1,
		Payload:        payload,
	}
	if err := e.publisher.Publish(context.Background(), topic, envelope); err != nil {
		e.logger.Error("event publish failed",
			"event", "batch_event_publish_failed",
			"module", moduleName,
			"layer", "application",
			"operation_id", o.op.OperationID,
			"topic", topic,
			"error", err.Error(),
		)
	}
}

// archive persists the terminal record off the lock path. Archival failure is
// logged, not surfaced; the in-memory result stays available either way.
func (e *Engine) archive(op entities.Operation) {
	if e.history == nil {
		return
	}
	counts := op.CountItems()
	row := ports.ArchivedOperation{
		OperationID: op.OperationID,
		Kind:        op.Kind,
		State:       string(op.State),
		StartedAt:   op.StartedAt,
		EndedAt:     op.EndedAt,
		Total:       counts.Total,
		Succeeded:   counts.Succeeded,
		Failed:      counts.Failed,
		Skipped:     counts.Skipped,
		Items:       make([]ports.ArchivedItem, 0, len(op.Items)),
	}
	for _, item := range op.Items {
		row.Items = append(row.Items, ports.ArchivedItem{
			ItemID:     item.ItemID,
			State:      string(item.State),
			RetryCount: item.RetryCount,
			LastError:  item.LastError,
		})
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.history.ArchiveOperation(ctx, row); err != nil {
			e.logger.Error("operation archive failed",
				"event", "batch_operation_archive_failed",
				"module", moduleName,
				"layer", "application",
				"operation_id", row.OperationID,
				"error", err.Error(),
			)
		}
	}()
}
