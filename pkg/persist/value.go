package persist

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"slices"

	"github.com/mesh-intelligence/tablecontrols/pkg/types"
)

// Strategy names the storage location backing a Value.
type Strategy string

// Persistence strategies.
const (
	StrategyState          Strategy = "state"
	StrategyURLParams      Strategy = "urlParams"
	StrategyLocalStorage   Strategy = "localStorage"
	StrategySessionStorage Strategy = "sessionStorage"
	StrategyProvider       Strategy = "provider"
)

// Valid reports whether s is one of the declared strategies. The empty
// strategy is valid and means StrategyState.
func (s Strategy) Valid() bool {
	switch s {
	case "", StrategyState, StrategyURLParams, StrategyLocalStorage, StrategySessionStorage, StrategyProvider:
		return true
	default:
		return false
	}
}

// Provider relays a value to state owned by the caller. Deserialize reports
// ok == false when the caller holds no value, in which case the default is
// used.
type Provider[T any] struct {
	Serialize   func(T)
	Deserialize func() (value T, ok bool)
}

// Options configures a Value. Which fields are required depends on PersistTo.
type Options[T any] struct {
	PersistTo Strategy
	Default   T

	// Disabled forces the default value and a no-op setter regardless of
	// strategy.
	Disabled bool

	// KeyPrefix namespaces URL parameters and storage keys as
	// "<prefix>:<key>".
	KeyPrefix string

	// URL parameters.
	Location    Location
	URLKeys     []string
	Serialize   func(T) url.Values
	Deserialize func(url.Values) T

	// Local and session storage.
	Storage Storage
	Key     string

	Provider Provider[T]

	Logger *slog.Logger
}

// Value is one persisted cell of state.
type Value[T any] struct {
	strategy Strategy
	backend  backend[T]
}

// backend is the storage behind a Value.
type backend[T any] interface {
	load() T
	store(T)
}

// New validates opts and returns a Value bound to exactly one backend.
func New[T any](opts Options[T]) (*Value[T], error) {
	strategy := opts.PersistTo
	if strategy == "" {
		strategy = StrategyState
	}
	if !strategy.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownStrategy, string(strategy))
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("strategy", string(strategy))

	if opts.Disabled {
		return &Value[T]{strategy: strategy, backend: disabledBackend[T]{def: opts.Default}}, nil
	}

	var b backend[T]
	switch strategy {
	case StrategyState:
		b = &stateBackend[T]{current: opts.Default}
	case StrategyURLParams:
		if opts.Location == nil {
			return nil, types.ErrMissingLocation
		}
		if opts.Serialize == nil || opts.Deserialize == nil {
			return nil, fmt.Errorf("%w: url parameters", types.ErrMissingSerializer)
		}
		if len(opts.URLKeys) == 0 {
			return nil, fmt.Errorf("%w: url parameters need at least one key", types.ErrMissingKey)
		}
		b = &urlBackend[T]{
			location:    opts.Location,
			prefix:      opts.KeyPrefix,
			keys:        slices.Clone(opts.URLKeys),
			def:         opts.Default,
			serialize:   opts.Serialize,
			deserialize: opts.Deserialize,
			logger:      logger,
		}
	case StrategyLocalStorage, StrategySessionStorage:
		if opts.Storage == nil {
			return nil, types.ErrMissingStorage
		}
		if opts.Key == "" {
			return nil, types.ErrMissingKey
		}
		b = &storageBackend[T]{
			storage: opts.Storage,
			key:     PrefixedKey(opts.KeyPrefix, opts.Key),
			def:     opts.Default,
			logger:  logger,
		}
	case StrategyProvider:
		if opts.Provider.Serialize == nil || opts.Provider.Deserialize == nil {
			return nil, fmt.Errorf("%w: provider", types.ErrMissingSerializer)
		}
		b = providerBackend[T]{provider: opts.Provider, def: opts.Default}
	}

	return &Value[T]{strategy: strategy, backend: b}, nil
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	return v.backend.load()
}

// Set stores value synchronously in the backing location.
func (v *Value[T]) Set(value T) {
	v.backend.store(value)
}

// Strategy returns the strategy chosen at construction.
func (v *Value[T]) Strategy() Strategy {
	return v.strategy
}

// PrefixedKey returns "<prefix>:<key>", or key alone when prefix is empty.
func PrefixedKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + ":" + key
}

type disabledBackend[T any] struct {
	def T
}

func (b disabledBackend[T]) load() T { return b.def }
func (b disabledBackend[T]) store(T) {}

type stateBackend[T any] struct {
	current T
}

func (b *stateBackend[T]) load() T { return b.current }
func (b *stateBackend[T]) store(value T) { b.current = value }

type providerBackend[T any] struct {
	provider Provider[T]
	def      T
}

func (b providerBackend[T]) load() T {
	value, ok := b.provider.Deserialize()
	if !ok {
		return b.def
	}
	return value
}

func (b providerBackend[T]) store(value T) {
	b.provider.Serialize(value)
}

// urlBackend keeps the value in query parameters. It always reads through to
// the location so that history navigation is reflected immediately.
type urlBackend[T any] struct {
	location    Location
	prefix      string
	keys        []string
	def         T
	serialize   func(T) url.Values
	deserialize func(url.Values) T
	logger      *slog.Logger
}

func (b *urlBackend[T]) load() T {
	query := b.location.Query()
	owned := make(url.Values, len(b.keys))
	for _, key := range b.keys {
		values := query[PrefixedKey(b.prefix, key)]
		if len(values) == 0 {
			continue
		}
		owned[key] = slices.Clone(values)
	}
	if len(owned) == 0 {
		return b.def
	}
	return b.deserialize(owned)
}

func (b *urlBackend[T]) store(value T) {
	query := b.location.Query()
	for _, key := range b.keys {
		query.Del(PrefixedKey(b.prefix, key))
	}
	for key, values := range b.serialize(value) {
		if !slices.Contains(b.keys, key) {
			b.logger.Debug("dropping undeclared url parameter", "key", key)
			continue
		}
		for _, v := range values {
			query.Add(PrefixedKey(b.prefix, key), v)
		}
	}
	b.location.Push(query)
}

// storageBackend keeps the value as one JSON blob. The blob is read once,
// on first access, and the cached copy tracks every write.
type storageBackend[T any] struct {
	storage Storage
	key     string
	def     T
	logger  *slog.Logger

	loaded  bool
	current T
}

func (b *storageBackend[T]) load() T {
	if !b.loaded {
		b.current = b.read()
		b.loaded = true
	}
	return b.current
}

func (b *storageBackend[T]) read() T {
	raw, ok, err := b.storage.GetItem(b.key)
	if err != nil {
		b.logger.Debug("storage read failed, using default", "key", b.key, "error", err)
		return b.def
	}
	if !ok {
		return b.def
	}
	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		b.logger.Debug("corrupt stored value, using default", "key", b.key, "error", err)
		return b.def
	}
	return value
}

func (b *storageBackend[T]) store(value T) {
	b.current = value
	b.loaded = true

	data, err := json.Marshal(value)
	if err != nil {
		b.logger.Warn("encode stored value", "key", b.key, "error", err)
		return
	}
	if err := b.storage.SetItem(b.key, string(data)); err != nil {
		b.logger.Warn("write stored value", "key", b.key, "error", err)
	}
}
