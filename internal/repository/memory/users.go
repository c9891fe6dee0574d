package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/spec-kit/employee-service/internal/domain"
	"github.com/spec-kit/employee-service/internal/repository"
	"github.com/spec-kit/employee-service/internal/visibility"
)

type userRepository struct{ s *Store }

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.usernameTaken(user.Username, "") {
		return conflict("users_username_unique")
	}
	if !s.companyExists(user.CompanyID) {
		return missingReference("users_company_id_fkey")
	}
	id, now := s.stamp()
	user.ID, user.CreatedAt, user.UpdatedAt = id, now, now
	s.users[id] = cloneUser(*user)
	return nil
}

func (r *userRepository) Update(_ context.Context, user *domain.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if s.usernameTaken(user.Username, user.ID) {
		return conflict("users_username_unique")
	}
	if !s.companyExists(user.CompanyID) {
		return missingReference("users_company_id_fkey")
	}
	updated := cloneUser(*user)
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = s.now()
	s.users[user.ID] = updated
	user.UpdatedAt = updated.UpdatedAt
	return nil
}

func (r *userRepository) Delete(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.users, id)
	delete(s.order, id)
	s.deleteEmployeesWhere(func(e domain.Employee) bool { return e.UserID == id })
	for i, h := range s.history {
		if h.ActorID != nil && *h.ActorID == id {
			s.history[i].ActorID = nil
		}
	}
	return nil
}

func (r *userRepository) GetByID(_ context.Context, scope visibility.Scope, id string) (*domain.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok || !scope.Allows(user) {
		return nil, repository.ErrNotFound
	}
	clone := cloneUser(user)
	return &clone, nil
}

func (r *userRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			clone := cloneUser(user)
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *domain.User
	for _, user := range s.users {
		if !strings.EqualFold(user.Email, email) {
			continue
		}
		if found == nil || s.order[user.ID] < s.order[found.ID] {
			clone := cloneUser(user)
			found = &clone
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (r *userRepository) List(_ context.Context, scope visibility.Scope) ([]domain.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, cloneUser(u))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })
	return visibility.Filter(scope, all), nil
}
