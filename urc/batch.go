package urc

import "slices"

// Batch holds the latest payload per topic seen during one pass.
type Batch map[string]string

// NewBatch returns an empty Batch.
func NewBatch() Batch {
	return make(Batch)
}

// Put records rec, replacing any earlier payload for the same topic.
func (b Batch) Put(rec Record) {
	b[rec.Topic] = rec.Payload
}

// Topics returns the topics in the batch in lexical order.
func (b Batch) Topics() []string {
	topics := make([]string, 0, len(b))
	for topic := range b {
		topics = append(topics, topic)
	}
	slices.Sort(topics)
	return topics
}
