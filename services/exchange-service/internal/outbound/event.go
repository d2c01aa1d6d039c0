// Package outbound defines the domain events republished to subscribers and
// the Kafka publisher that delivers them.
package outbound

import (
	"encoding/json"
	"fmt"

	"github.com/metabridge-io/metabridge/services/exchange-service/internal/karma"
)

type EventKind string

const (
	KindCreated      EventKind = "created"
	KindUpdated      EventKind = "updated"
	KindDeleted      EventKind = "deleted"
	KindRefreshed    EventKind = "refreshed"
	KindClassified   EventKind = "classified"
	KindDeclassified EventKind = "declassified"
	KindReclassified EventKind = "reclassified"
	KindGUIDChanged  EventKind = "guid-changed"
	KindTypeChanged  EventKind = "type-changed"
	KindHomeChanged  EventKind = "home-changed"
)

// InstanceSummary is the external projection of an affected instance.
type InstanceSummary struct {
	GUID        string `json:"guid"`
	DisplayName string `json:"displayName"`
	TypeName    string `json:"typeName"`
}

// Event is one domain outbound event. It is built once per accepted
// notification and not modified afterwards.
type Event struct {
	Kind               EventKind        `json:"kind"`
	Category           string           `json:"category"`
	Instance           InstanceSummary  `json:"instance"`
	ClassificationName string           `json:"classificationName,omitempty"`
	EndOne             *InstanceSummary `json:"endOne,omitempty"`
	EndTwo             *InstanceSummary `json:"endTwo,omitempty"`
}

// EventType is the versioned event name; it doubles as the topic name
// (one event type per topic).
func (e Event) EventType() string {
	return fmt.Sprintf("metadata.%s.%s.v1", e.Category, e.Kind)
}

// Envelope is the publishable form of an event: type, partition key and
// marshaled payload.
type Envelope struct {
	EventType   string
	AggregateID string
	Payload     []byte
}

func (e Event) Envelope() (Envelope, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventType:   e.EventType(),
		AggregateID: e.Instance.GUID,
		Payload:     payload,
	}, nil
}

const plateauEventType = "community.karma.plateau.v1"

// plateauEvent is the payload announcing a karma plateau crossing.
type plateauEvent struct {
	ActorGUID     string `json:"actorGuid"`
	UserID        string `json:"userId"`
	QualifiedName string `json:"qualifiedName"`
	IsPublic      bool   `json:"isPublic"`
	Plateau       int64  `json:"plateau"`
	TotalPoints   int64  `json:"totalPoints"`
}

func PlateauEnvelope(crossing karma.PlateauCrossing) (Envelope, error) {
	payload, err := json.Marshal(plateauEvent{
		ActorGUID:     crossing.ActorGUID,
		UserID:        crossing.UserID,
		QualifiedName: crossing.QualifiedName,
		IsPublic:      crossing.Public,
		Plateau:       crossing.Plateau,
		TotalPoints:   crossing.TotalPoints,
	})
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventType:   plateauEventType,
		AggregateID: crossing.ActorGUID,
		Payload:     payload,
	}, nil
}
