package types

// Event is the wire form of a typed event emitted by the accounting engine
// and its collaborators. Attribute values are decimal or bech32 strings so
// subscribers never parse big integers out of binary payloads.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
