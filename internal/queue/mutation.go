package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Mutation is one queued write operation awaiting replay.
//
// Mutations are owned exclusively by the queue's persisted list: they are
// created by Enqueue, mutated only by the drain routine (attempt counting),
// and destroyed on success or ceiling breach.
type Mutation struct {
	// ID uniquely identifies the mutation (UUIDv7, time-ordered).
	ID string `json:"id"`

	// Handler names the registered function that replays this mutation.
	Handler string `json:"handler"`

	// Args is the opaque JSON payload passed to the handler verbatim.
	Args json.RawMessage `json:"args"`

	// Attempts counts failed replay attempts. Strictly increases only when
	// a replay fails; never reset.
	Attempts int `json:"attempts"`

	// CreatedAt records when the mutation was enqueued (UTC).
	CreatedAt time.Time `json:"created_at"`
}

// encodeMutations serializes the queue list as a JSON array.
// An empty list serializes as [] rather than null.
func encodeMutations(items []Mutation) ([]byte, error) {
	if items == nil {
		items = []Mutation{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode mutation list: %w", err)
	}
	return data, nil
}

// decodeMutations parses a persisted queue blob.
func decodeMutations(data []byte) ([]Mutation, error) {
	var items []Mutation
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode mutation list: %w", err)
	}
	return items, nil
}
