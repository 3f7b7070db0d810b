package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jengzang/webgis-dashboard/internal/view"
)

// ErrStaleRecord is returned by Save when the store already holds a record
// with the same or a later sequence number
var ErrStaleRecord = errors.New("stale session record")

// Record is the persisted form of one session's controller state
type Record struct {
	State     view.State `json:"state"`
	Seq       uint64     `json:"seq"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Store persists session state so it survives a restart or can be shared
// between instances. Save must only replace a record with a higher Seq.
type Store interface {
	Save(ctx context.Context, id string, rec Record, ttl time.Duration) error
	Load(ctx context.Context, id string) (Record, bool, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps records in process
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	rec     Record
	expires time.Time
}

// NewMemoryStore creates an empty in-process store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]memoryEntry), now: time.Now}
}

// Save implements Store
func (m *MemoryStore) Save(ctx context.Context, id string, rec Record, ttl time.Duration) error {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.records[id]; ok && !now.After(e.expires) && e.rec.Seq >= rec.Seq {
		return fmt.Errorf("%w: have %d, got %d", ErrStaleRecord, e.rec.Seq, rec.Seq)
	}
	m.records[id] = memoryEntry{rec: rec, expires: now.Add(ttl)}
	return nil
}

// Load implements Store
func (m *MemoryStore) Load(ctx context.Context, id string) (Record, bool, error) {
	m.mu.RLock()
	e, ok := m.records[id]
	m.mu.RUnlock()
	if !ok || m.now().After(e.expires) {
		return Record{}, false, nil
	}
	return e.rec, true, nil
}

// Delete implements Store
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.records, id)
	m.mu.Unlock()
	return nil
}

// RedisStore keeps records in Redis as JSON with a TTL
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a store on an existing client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "webgis:session:"}
}

// OpenRedis connects to Redis and checks the connection
func OpenRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}

// saveScript writes ARGV[1] unless the stored record's seq is at least
// ARGV[2]. ARGV[3] is the TTL in milliseconds, 0 for none.
var saveScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if cur then
	local ok, rec = pcall(cjson.decode, cur)
	if ok and type(rec) == "table" and tonumber(rec.seq) and tonumber(rec.seq) >= tonumber(ARGV[2]) then
		return 0
	end
end
if tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
else
	redis.call("SET", KEYS[1], ARGV[1])
end
return 1
`)

// Save implements Store. The sequence check and the write run as one script
// so concurrent writers cannot move a record backwards.
func (r *RedisStore) Save(ctx context.Context, id string, rec Record, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	written, err := saveScript.Run(ctx, r.client, []string{r.key(id)}, data, rec.Seq, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if written == 0 {
		return fmt.Errorf("%w: seq %d", ErrStaleRecord, rec.Seq)
	}
	return nil
}

// Load implements Store
func (r *RedisStore) Load(ctx context.Context, id string) (Record, bool, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("failed to load session: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, false, fmt.Errorf("failed to decode session: %w", err)
	}
	return rec, true, nil
}

// Delete implements Store
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
