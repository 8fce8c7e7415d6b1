package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"sodalis/auth"
	"sodalis/model"

	"github.com/google/uuid"
)

// MemoryStore keeps every table in process memory. It backs DB_DRIVER=memory for
// local runs without Postgres and the HTTP tests. Data is lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]model.User
	roles   map[string]model.Role
	tokens  map[uuid.UUID]model.RefreshToken
	goals   map[uuid.UUID]model.Goal
	friends map[uuid.UUID]model.Friend
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[uuid.UUID]model.User),
		roles:   make(map[string]model.Role),
		tokens:  make(map[uuid.UUID]model.RefreshToken),
		goals:   make(map[uuid.UUID]model.Goal),
		friends: make(map[uuid.UUID]model.Friend),
	}
}

func (s *MemoryStore) Users() UserRepository                 { return &memUserRepo{s} }
func (s *MemoryStore) Roles() RoleRepository                 { return &memRoleRepo{s} }
func (s *MemoryStore) RefreshTokens() RefreshTokenRepository { return &memRefreshTokenRepo{s} }
func (s *MemoryStore) Goals() GoalRepository                 { return &memGoalRepo{s} }
func (s *MemoryStore) Friends() FriendRepository             { return &memFriendRepo{s} }

// cloneUser copies the slices too, so callers never share state with the store
func cloneUser(u model.User) *model.User {
	u.Roles = slices.Clone(u.Roles)
	u.Credentials = slices.Clone(u.Credentials)
	u.RefreshTokens = nil
	return &u
}

type memUserRepo struct {
	s *MemoryStore
}

func (r *memUserRepo) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}
	for i := range user.Credentials {
		if err := user.Credentials[i].Validate(); err != nil {
			return err
		}
	}

	now := time.Now()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt, user.UpdatedAt = now, now
	for i := range user.Credentials {
		c := &user.Credentials[i]
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		c.UserID = user.ID
		c.CreatedAt, c.UpdatedAt = now, now
	}

	r.s.users[user.ID] = *cloneUser(*user)
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (r *memUserRepo) LookupCredential(ctx context.Context, identifier string) (*auth.StoredCredential, error) {
	u, err := r.GetByEmail(ctx, identifier)
	if err != nil {
		return nil, auth.ErrCredentialNotFound
	}

	cred := u.PasswordCredential()
	if cred == nil {
		return nil, auth.ErrCredentialNotFound
	}

	return &auth.StoredCredential{
		UserID:       u.ID.String(),
		Email:        u.Email,
		PasswordHash: cred.Value,
		Roles:        u.RoleCodes(),
		Claims:       map[string]string{"name": u.Name},
	}, nil
}

type memRoleRepo struct {
	s *MemoryStore
}

func (r *memRoleRepo) GetByCode(_ context.Context, code string) (*model.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	role, ok := r.s.roles[code]
	if !ok {
		return nil, ErrNotFound
	}
	return &role, nil
}

func (r *memRoleRepo) EnsureRole(_ context.Context, role *model.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if existing, ok := r.s.roles[role.Code]; ok {
		*role = existing
		return nil
	}
	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}
	role.CreatedAt = time.Now()
	role.UpdatedAt = role.CreatedAt
	r.s.roles[role.Code] = *role
	return nil
}

type memRefreshTokenRepo struct {
	s *MemoryStore
}

func (r *memRefreshTokenRepo) Create(_ context.Context, rt *model.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.insert(rt)
}

func (r *memRefreshTokenRepo) insert(rt *model.RefreshToken) error {
	for _, t := range r.s.tokens {
		if t.TokenHash == rt.TokenHash {
			return ErrDuplicate
		}
	}
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	rt.CreatedAt = time.Now()
	stored := *rt
	stored.User = model.User{}
	r.s.tokens[rt.ID] = stored
	return nil
}

func (r *memRefreshTokenRepo) GetByTokenHash(_ context.Context, hash string) (*model.RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, t := range r.s.tokens {
		if t.TokenHash == hash {
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memRefreshTokenRepo) Rotate(_ context.Context, old *model.RefreshToken, next *model.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.tokens[old.ID]
	if !ok || stored.ReplacedAt != nil || stored.RevokedAt != nil {
		return ErrNotFound
	}
	if err := r.insert(next); err != nil {
		return err
	}

	replacedAt := time.Now()
	if old.ReplacedAt != nil {
		replacedAt = *old.ReplacedAt
	}
	nextID := next.ID
	stored.ReplacedAt = &replacedAt
	stored.ReplacedByTokenID = &nextID
	r.s.tokens[old.ID] = stored
	return nil
}

func (r *memRefreshTokenRepo) RevokeByID(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if t, ok := r.s.tokens[id]; ok && t.RevokedAt == nil {
		now := time.Now()
		t.RevokedAt = &now
		r.s.tokens[id] = t
	}
	return nil
}

func (r *memRefreshTokenRepo) RevokeAllForUser(_ context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	for id, t := range r.s.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			r.s.tokens[id] = t
		}
	}
	return nil
}

func (r *memRefreshTokenRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var deleted int64
	for id, t := range r.s.tokens {
		if t.ExpiresAt.Before(before) {
			delete(r.s.tokens, id)
			deleted++
		}
	}
	return deleted, nil
}

type memGoalRepo struct {
	s *MemoryStore
}

func (r *memGoalRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Goal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	g, ok := r.s.goals[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &g, nil
}

func (r *memGoalRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Goal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	goals := []model.Goal{}
	for _, g := range r.s.goals {
		if g.UserID == userID {
			goals = append(goals, g)
		}
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].CreatedAt.Before(goals[j].CreatedAt) })
	return goals, nil
}

func (r *memGoalRepo) Create(_ context.Context, goal *model.Goal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[goal.UserID]; !ok {
		return ErrNotFound
	}
	if goal.ID == uuid.Nil {
		goal.ID = uuid.New()
	}
	goal.CreatedAt = time.Now()
	goal.UpdatedAt = goal.CreatedAt

	stored := *goal
	stored.User = model.User{}
	r.s.goals[goal.ID] = stored
	return nil
}

func (r *memGoalRepo) Update(_ context.Context, goal *model.Goal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.goals[goal.ID]; !ok {
		return ErrNotFound
	}
	goal.UpdatedAt = time.Now()

	stored := *goal
	stored.User = model.User{}
	r.s.goals[goal.ID] = stored
	return nil
}

func (r *memGoalRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.goals[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.goals, id)
	return nil
}

type memFriendRepo struct {
	s *MemoryStore
}

// withFriendUser mimics Preload("FriendUser")
func (r *memFriendRepo) withFriendUser(f model.Friend) model.Friend {
	if u, ok := r.s.users[f.FriendUserID]; ok {
		f.FriendUser = *cloneUser(u)
	}
	return f
}

func (r *memFriendRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Friend, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	f, ok := r.s.friends[id]
	if !ok {
		return nil, ErrNotFound
	}
	f = r.withFriendUser(f)
	return &f, nil
}

func (r *memFriendRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Friend, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	friends := []model.Friend{}
	for _, f := range r.s.friends {
		if f.UserID == userID {
			friends = append(friends, r.withFriendUser(f))
		}
	}
	sort.Slice(friends, func(i, j int) bool { return friends[i].CreatedAt.Before(friends[j].CreatedAt) })
	return friends, nil
}

func (r *memFriendRepo) Create(_ context.Context, friend *model.Friend) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, f := range r.s.friends {
		if f.UserID == friend.UserID && f.FriendUserID == friend.FriendUserID {
			return ErrDuplicate
		}
	}
	if friend.ID == uuid.Nil {
		friend.ID = uuid.New()
	}
	friend.CreatedAt = time.Now()
	friend.UpdatedAt = friend.CreatedAt

	stored := *friend
	stored.User = model.User{}
	stored.FriendUser = model.User{}
	r.s.friends[friend.ID] = stored
	return nil
}

func (r *memFriendRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.friends[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.friends, id)
	return nil
}
