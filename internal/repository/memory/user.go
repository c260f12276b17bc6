package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Kerhoff/wishfund/internal/models"
	"github.com/Kerhoff/wishfund/internal/repository"
)

type userRepository struct {
	s viewer
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	var err error
	r.s.view(func(d *dataset) {
		if taken(d, user.Username, user.Email, 0) {
			err = repository.ErrDuplicate
			return
		}
		d.nextUser++
		now := time.Now()
		user.ID = d.nextUser
		user.CreatedAt = now
		user.UpdatedAt = now
		d.users[user.ID] = copyUser(user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user *models.User
	r.s.view(func(d *dataset) {
		if u, ok := d.users[id]; ok {
			user = copyUser(u)
		}
	})
	return user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.User, error) {
	var users []*models.User
	r.s.view(func(d *dataset) {
		for _, id := range ids {
			if u, ok := d.users[id]; ok {
				users = append(users, copyUser(u))
			}
		}
	})
	return users, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user *models.User
	r.s.view(func(d *dataset) {
		for _, u := range d.users {
			if u.Username == username {
				user = copyUser(u)
				return
			}
		}
	})
	return user, nil
}

func (r *userRepository) FindTaken(ctx context.Context, username, email string, excludeID int64) (*models.User, error) {
	var user *models.User
	r.s.view(func(d *dataset) {
		for _, u := range sortedUsers(d) {
			if u.ID != excludeID && (u.Username == username || u.Email == email) {
				user = copyUser(u)
				return
			}
		}
	})
	return user, nil
}

func (r *userRepository) Search(ctx context.Context, query string) ([]*models.User, error) {
	var users []*models.User
	r.s.view(func(d *dataset) {
		for _, u := range sortedUsers(d) {
			if u.Username == query || u.Email == query {
				users = append(users, copyUser(u))
			}
		}
	})
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	var (
		found bool
		err   error
	)
	r.s.view(func(d *dataset) {
		if _, found = d.users[user.ID]; !found {
			return
		}
		if taken(d, user.Username, user.Email, user.ID) {
			err = repository.ErrDuplicate
			return
		}
		user.UpdatedAt = time.Now()
		d.users[user.ID] = copyUser(user)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if !found {
		return nil, nil
	}
	return user, nil
}

func taken(d *dataset, username, email string, excludeID int64) bool {
	for _, u := range d.users {
		if u.ID != excludeID && (u.Username == username || u.Email == email) {
			return true
		}
	}
	return false
}

func sortedUsers(d *dataset) []*models.User {
	users := make([]*models.User, 0, len(d.users))
	for _, u := range d.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}
