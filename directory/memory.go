package directory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/andre-2112/cloud-cli-access/token"
)

// Memory is an in-process directory keyed by username. It backs tests and
// the server's dry-run mode, where no Identity Store is configured.
type Memory struct {
	mu      sync.Mutex
	users   map[string]string   // username -> userID
	groups  map[string][]string // groupID -> userIDs
	records map[string]token.Payload
}

func NewMemory() *Memory {
	return &Memory{
		users:   make(map[string]string),
		groups:  make(map[string][]string),
		records: make(map[string]token.Payload),
	}
}

func (m *Memory) LookupUser(ctx context.Context, username string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.users[username]
	return id, ok, nil
}

func (m *Memory) CreateUser(ctx context.Context, p token.Payload) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[p.Username]; ok {
		return "", fmt.Errorf("user %q already exists", p.Username)
	}

	id := uuid.NewString()
	m.users[p.Username] = id
	m.records[id] = p
	return id, nil
}

func (m *Memory) AddToGroup(ctx context.Context, userID, groupID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[userID]; !ok {
		return fmt.Errorf("unknown user %q", userID)
	}

	m.groups[groupID] = append(m.groups[groupID], userID)
	return nil
}

// GroupMembers returns the user IDs attached to groupID.
func (m *Memory) GroupMembers(groupID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.groups[groupID]...)
}
