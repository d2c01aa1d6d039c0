package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

func main() {
	var (
		brokers  = flag.String("brokers", getenv("KAFKA_BROKERS", "localhost:9092"), "kafka brokers, comma separated")
		topic    = flag.String("topic", getenv("KAFKA_TOPIC", "cohort.repository.instance.v1"), "cohort instance topic")
		kind     = flag.String("kind", "updated", "notification kind")
		category = flag.String("category", "entity", "instance category (entity or relationship)")
		typeName = flag.String("type-name", "GlossaryTerm", "instance type name")
		guid     = flag.String("guid", "", "instance guid (random when empty)")
		name     = flag.String("display-name", "Customer Lifetime Value", "entity displayName property")
		user     = flag.String("updated-by", "jules.keeper", "updatedBy on the entity")
		class    = flag.String("classification", "", "classification name for (de|re)classified kinds")
		source   = flag.String("source", "metabridge", "metadata source name")
	)
	flag.Parse()

	instanceGUID := *guid
	if instanceGUID == "" {
		instanceGUID = uuid.NewString()
	}

	payload, err := buildNotificationJSON(*kind, *category, *source, instanceGUID, *typeName, *name, *user, *class)
	if err != nil {
		fatal(err.Error())
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(strings.Split(*brokers, ",")...),
		Topic:    *topic,
		Balancer: &kafka.Hash{},
	}
	defer writer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(instanceGUID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(uuid.NewString())},
			{Key: "event_type", Value: []byte(*kind + "-" + *category + "-instance")},
		},
	})
	if err != nil {
		fatal(err.Error())
	}

	fmt.Printf("published kind=%s category=%s guid=%s topic=%s\n", *kind, *category, instanceGUID, *topic)
}

func buildNotificationJSON(kind, category, source, guid, typeName, displayName, updatedBy, classification string) ([]byte, error) {
	notification := map[string]any{
		"kind":       kind,
		"category":   category,
		"sourceName": source,
	}

	switch category {
	case "entity":
		entity := map[string]any{
			"guid":                 guid,
			"typeName":             typeName,
			"metadataCollectionId": uuid.NewString(),
			"status":               "ACTIVE",
			"createdBy":            updatedBy,
			"updatedBy":            updatedBy,
			"version":              2,
			"properties": map[string]any{
				"displayName":   displayName,
				"qualifiedName": strings.ToLower(strings.ReplaceAll(displayName, " ", ".")),
			},
		}
		switch kind {
		case "classified", "declassified", "reclassified":
			if classification == "" {
				classification = "Confidentiality"
			}
			notification["classificationName"] = classification
			entity["classifications"] = []map[string]any{
				{"name": classification, "properties": map[string]any{"level": "internal"}},
			}
		}
		notification["entity"] = entity
	case "relationship":
		notification["relationship"] = map[string]any{
			"guid":                 uuid.NewString(),
			"typeName":             typeName,
			"metadataCollectionId": uuid.NewString(),
			"status":               "ACTIVE",
			"updatedBy":            updatedBy,
			"endOne": map[string]any{
				"guid":     guid,
				"typeName": "RelationalColumn",
			},
			"endTwo": map[string]any{
				"guid":     uuid.NewString(),
				"typeName": "GlossaryTerm",
			},
		}
	default:
		return nil, fmt.Errorf("unsupported instance category: %s", category)
	}

	return json.Marshal(notification)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
