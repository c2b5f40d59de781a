// Package decoder provides discriminators and decoders for Anchor-style program data.
//
// Accounts, instructions and events of the pool program are prefixed with an
// 8-byte discriminator derived from a namespace and a type name:
//
//	sha256("account:LiquidityPool")[:8]
//	sha256("global:swap_token_for_native")[:8]
//	sha256("event:Swapped")[:8]
//
// Example usage:
//
//	registry := decoder.NewRegistry()
//	registry.Register(decoder.NewAnchorDecoder("Swapped", programID,
//	    decoder.ComputeDiscriminator(decoder.NamespaceEvent, "Swapped"), decodeSwapped))
//
//	event, err := registry.Decode(data, &programID)
package decoder

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// Discriminator namespaces.
const (
	NamespaceAccount = "account"
	NamespaceGlobal  = "global"
	NamespaceEvent   = "event"
)

// DiscriminatorSize is the length of the prefix every payload starts with.
const DiscriminatorSize = 8

type AnchorDiscriminator [DiscriminatorSize]byte

// ComputeDiscriminator returns sha256("<namespace>:<name>")[:8].
func ComputeDiscriminator(namespace, name string) AnchorDiscriminator {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	return AnchorDiscriminator(sum[:DiscriminatorSize])
}

// NewAnchorDiscriminator reads the prefix of data. Short data yields the zero
// discriminator.
func NewAnchorDiscriminator(data []byte) AnchorDiscriminator {
	if len(data) < DiscriminatorSize {
		return AnchorDiscriminator{}
	}
	return AnchorDiscriminator(data[:DiscriminatorSize])
}

// Matches reports whether data starts with d.
func (d AnchorDiscriminator) Matches(data []byte) bool {
	return len(data) >= DiscriminatorSize && AnchorDiscriminator(data[:DiscriminatorSize]) == d
}

func (d AnchorDiscriminator) Bytes() []byte {
	out := make([]byte, DiscriminatorSize)
	copy(out, d[:])
	return out
}

func (d AnchorDiscriminator) String() string {
	return hex.EncodeToString(d[:])
}

// Event is a decoded payload and where it came from.
type Event struct {
	Name          string
	Data          any
	Raw           []byte
	ProgramID     solana.PublicKey
	Discriminator AnchorDiscriminator
}

// DecodeFunc decodes the bytes that follow the discriminator.
type DecodeFunc func(body []byte) (any, error)

// AnchorDecoder decodes one discriminated payload type of one program.
type AnchorDecoder struct {
	name          string
	programID     solana.PublicKey
	discriminator AnchorDiscriminator
	decode        DecodeFunc
}

func NewAnchorDecoder(name string, programID solana.PublicKey, disc AnchorDiscriminator, decode DecodeFunc) *AnchorDecoder {
	return &AnchorDecoder{name: name, programID: programID, discriminator: disc, decode: decode}
}

func (d *AnchorDecoder) Name() string                       { return d.name }
func (d *AnchorDecoder) ProgramID() solana.PublicKey        { return d.programID }
func (d *AnchorDecoder) Discriminator() AnchorDiscriminator { return d.discriminator }

// Decode checks the prefix of data and decodes the rest.
func (d *AnchorDecoder) Decode(data []byte) (*Event, error) {
	if !d.discriminator.Matches(data) {
		return nil, fmt.Errorf("discriminator mismatch for %s", d.name)
	}

	decoded, err := d.decode(data[DiscriminatorSize:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", d.name, err)
	}

	return &Event{
		Name:          d.name,
		Data:          decoded,
		Raw:           data,
		ProgramID:     d.programID,
		Discriminator: d.discriminator,
	}, nil
}

type registryKey struct {
	program solana.PublicKey
	disc    AnchorDiscriminator
}

// Registry looks decoders up by program and discriminator. It is safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	exact  map[registryKey]*AnchorDecoder
	byDisc map[AnchorDiscriminator][]*AnchorDecoder
	names  map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		exact:  make(map[registryKey]*AnchorDecoder),
		byDisc: make(map[AnchorDiscriminator][]*AnchorDecoder),
		names:  make(map[string]struct{}),
	}
}

// Register adds d. A later decoder for the same program and discriminator
// replaces the earlier one.
func (r *Registry) Register(d *AnchorDecoder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := registryKey{program: d.programID, disc: d.discriminator}
	if prev, ok := r.exact[key]; ok {
		list := r.byDisc[d.discriminator]
		for i, candidate := range list {
			if candidate == prev {
				r.byDisc[d.discriminator] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	}
	r.exact[key] = d
	r.byDisc[d.discriminator] = append(r.byDisc[d.discriminator], d)
	r.names[d.name] = struct{}{}
}

// Decode decodes data with the decoder registered for programID. With a nil
// programID the first decoder registered for the discriminator is used.
func (r *Registry) Decode(data []byte, programID *solana.PublicKey) (*Event, error) {
	if len(data) < DiscriminatorSize {
		return nil, fmt.Errorf("payload too short for a discriminator (length: %d)", len(data))
	}
	disc := NewAnchorDiscriminator(data)

	r.mu.RLock()
	var d *AnchorDecoder
	if programID != nil && !programID.IsZero() {
		d = r.exact[registryKey{program: *programID, disc: disc}]
	} else if list := r.byDisc[disc]; len(list) > 0 {
		d = list[0]
	}
	r.mu.RUnlock()

	if d == nil {
		return nil, fmt.Errorf("no decoder for discriminator %s", disc)
	}
	return d.Decode(data)
}

// DecodeAll decodes every payload it can, skipping unknown data.
func (r *Registry) DecodeAll(payloads [][]byte, programID *solana.PublicKey) []*Event {
	out := make([]*Event, 0, len(payloads))
	for _, data := range payloads {
		if ev, err := r.Decode(data, programID); err == nil {
			out = append(out, ev)
		}
	}
	return out
}

// ListDecoders returns the registered decoder names, sorted.
func (r *Registry) ListDecoders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.names))
	for name := range r.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
