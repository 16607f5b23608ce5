package qanary

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

const (
	KeyEndpoint = "urn:qanary#endpoint"
	KeyInGraph  = "urn:qanary#inGraph"
	KeyOutGraph = "urn:qanary#outGraph"
)

// Message is the body the pipeline posts to a component. It names the
// triplestore endpoint and the graphs holding the current question.
type Message struct {
	Values map[string]interface{} `json:"values"`
}

// ParseMessage decodes and validates a pipeline message.
func ParseMessage(body []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return Message{}, fmt.Errorf("invalid pipeline message: %w", err)
	}
	if err := msg.Validate(); err != nil {
		return Message{}, err
	}
	return msg, nil
}

func NewMessage(endpoint, inGraph, outGraph string) Message {
	return Message{Values: map[string]interface{}{
		KeyEndpoint: endpoint,
		KeyInGraph:  inGraph,
		KeyOutGraph: outGraph,
	}}
}

func (m Message) value(key string) string {
	return strings.TrimSpace(cast.ToString(m.Values[key]))
}

func (m Message) Endpoint() string { return m.value(KeyEndpoint) }
func (m Message) InGraph() string  { return m.value(KeyInGraph) }

// OutGraph is the graph new annotations go to, the in-graph if none given.
func (m Message) OutGraph() string {
	if g := m.value(KeyOutGraph); g != "" {
		return g
	}
	return m.InGraph()
}

func (m Message) Validate() error {
	if m.Endpoint() == "" {
		return fmt.Errorf("pipeline message lacks %s", KeyEndpoint)
	}
	if m.InGraph() == "" {
		return fmt.Errorf("pipeline message lacks %s", KeyInGraph)
	}
	return nil
}
