package classifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/metabridge-io/metabridge/services/exchange-service/internal/karma"
	"github.com/metabridge-io/metabridge/services/exchange-service/internal/omrs"
	"github.com/metabridge-io/metabridge/services/exchange-service/internal/outbound"
	"github.com/metabridge-io/metabridge/services/exchange-service/internal/typeoracle"
)

// eventKinds is the fixed notification-kind to event-kind table. Purged and
// deleted entities are merged into a single deleted event; the identity/type/
// home changes are forward-looking signals about the new instance state.
var eventKinds = map[omrs.Kind]outbound.EventKind{
	omrs.KindNew:          outbound.KindCreated,
	omrs.KindRefresh:      outbound.KindRefreshed,
	omrs.KindUpdated:      outbound.KindUpdated,
	omrs.KindClassified:   outbound.KindClassified,
	omrs.KindDeclassified: outbound.KindDeclassified,
	omrs.KindReclassified: outbound.KindReclassified,
	omrs.KindDeleted:      outbound.KindDeleted,
	omrs.KindPurged:       outbound.KindDeleted,
	omrs.KindReIdentified: outbound.KindGUIDChanged,
	omrs.KindReTyped:      outbound.KindTypeChanged,
	omrs.KindReHomed:      outbound.KindHomeChanged,
}

// Awarder is the slice of the karma service the engine needs.
type Awarder interface {
	AwardForChange(ctx context.Context, userID string) (*karma.PlateauCrossing, error)
}

// Engine translates each notification into at most one outbound event.
// Karma accounting and event translation are isolated from each other: a
// failure in either is logged and never aborts the other, and Process never
// returns an error to the dispatch loop.
type Engine struct {
	oracle    typeoracle.Oracle
	ledger    Awarder
	publisher outbound.Publisher
	filter    *Filter
	logger    *slog.Logger
}

func NewEngine(oracle typeoracle.Oracle, ledger Awarder, publisher outbound.Publisher, filter *Filter, logger *slog.Logger) *Engine {
	return &Engine{
		oracle:    oracle,
		ledger:    ledger,
		publisher: publisher,
		filter:    filter,
		logger:    logger,
	}
}

// Process handles one notification: entity changes are credited to their
// contributor, then the notification is translated if its type passes the
// gate. Karma runs before the gate, so awards happen even for notifications
// that produce no event.
func (e *Engine) Process(ctx context.Context, n omrs.Notification) {
	if n.Category == omrs.CategoryEntity {
		e.award(ctx, n)
	}
	e.translate(ctx, n)
}

func (e *Engine) award(ctx context.Context, n omrs.Notification) {
	userID := n.Contributor()
	if userID == "" {
		return
	}

	crossing, err := e.ledger.AwardForChange(ctx, userID)
	if err != nil {
		e.logger.Error("karma award failed", "user_id", userID, "err", err)
		return
	}
	if crossing == nil {
		return
	}

	env, err := outbound.PlateauEnvelope(*crossing)
	if err != nil {
		e.logger.Error("plateau event build failed", "user_id", userID, "err", err)
		return
	}
	if err := e.publisher.Publish(ctx, env); err != nil {
		e.logger.Error("plateau event publish failed", "user_id", userID, "err", err)
	}
}

func (e *Engine) translate(ctx context.Context, n omrs.Notification) {
	summary, err := n.Summary()
	if err != nil {
		e.logger.Error("notification has no usable payload", "kind", n.Kind, "err", err)
		return
	}
	guid := summary.InstanceGUID()
	typeName := summary.InstanceTypeName()

	allowed, err := e.typeAllowed(ctx, n.Category, typeName)
	if err != nil {
		e.logger.Error("type gate check failed",
			"guid", guid, "type", typeName, "err", err)
		return
	}
	if !allowed {
		return
	}

	event, err := buildEvent(n, summary)
	if err != nil {
		e.logger.Error("outbound event build failed",
			"guid", guid, "type", typeName, "err", err)
		return
	}
	env, err := event.Envelope()
	if err != nil {
		e.logger.Error("outbound event encode failed",
			"guid", guid, "type", typeName, "err", err)
		return
	}
	if err := e.publisher.Publish(ctx, env); err != nil {
		e.logger.Error("outbound event publish failed",
			"guid", guid, "type", typeName, "err", err)
	}
}

func (e *Engine) typeAllowed(ctx context.Context, category omrs.InstanceCategory, typeName string) (bool, error) {
	for _, ref := range e.filter.ReferenceTypes(category) {
		ok, err := e.oracle.IsSubtypeOf(ctx, e.filter.SourceName, typeName, ref)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func buildEvent(n omrs.Notification, summary omrs.InstanceSummary) (outbound.Event, error) {
	kind, ok := eventKinds[n.Kind]
	if !ok {
		return outbound.Event{}, fmt.Errorf("no event kind for notification kind %q", n.Kind)
	}

	event := outbound.Event{
		Kind:     kind,
		Category: string(n.Category),
		Instance: outbound.InstanceSummary{
			GUID:        summary.InstanceGUID(),
			DisplayName: summary.DisplayName(),
			TypeName:    summary.InstanceTypeName(),
		},
		ClassificationName: n.ClassificationName,
	}

	if n.Category == omrs.CategoryRelationship {
		endOne, err := endSummary(n.Relationship.EndOne, "end one")
		if err != nil {
			return outbound.Event{}, err
		}
		endTwo, err := endSummary(n.Relationship.EndTwo, "end two")
		if err != nil {
			return outbound.Event{}, err
		}
		event.EndOne = endOne
		event.EndTwo = endTwo
	}
	return event, nil
}

// endSummary projects a relationship end the same way as the main affected
// instance; an end that cannot be summarized fails the whole event build.
func endSummary(proxy omrs.EntityProxy, which string) (*outbound.InstanceSummary, error) {
	if proxy.GUID == "" || proxy.TypeName == "" {
		return nil, fmt.Errorf("relationship %s proxy is incomplete", which)
	}
	return &outbound.InstanceSummary{
		GUID:        proxy.GUID,
		DisplayName: proxy.DisplayName(),
		TypeName:    proxy.TypeName,
	}, nil
}
