package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"shareplace_backend/internal/models"
	"shareplace_backend/internal/repositories"
)

type placeRepository struct {
	view view
}

func (r *placeRepository) FindByID(ctx context.Context, id string) (*models.Place, error) {
	var out *models.Place
	err := r.view.do(func(st *state, _ *clock) error {
		p, ok := st.places[id]
		if !ok {
			return repositories.ErrPlaceNotFound
		}
		out = p.Clone()
		return nil
	})
	return out, err
}

func (r *placeRepository) FindAll(ctx context.Context) ([]*models.Place, error) {
	return r.filter(func(*models.Place) bool { return true })
}

func (r *placeRepository) FindByCreator(ctx context.Context, creatorID string) ([]*models.Place, error) {
	return r.filter(func(p *models.Place) bool { return p.CreatorID == creatorID })
}

func (r *placeRepository) Search(ctx context.Context, term string) ([]*models.Place, error) {
	return r.filter(func(p *models.Place) bool {
		return containsFold(p.Title, term) || containsFold(p.Description, term) || containsFold(p.Address, term)
	})
}

func (r *placeRepository) ExistsByImageKey(ctx context.Context, key string) (bool, error) {
	places, err := r.filter(func(p *models.Place) bool { return p.ImageKey == key })
	return len(places) > 0, err
}

func (r *placeRepository) filter(match func(*models.Place) bool) ([]*models.Place, error) {
	out := []*models.Place{}
	err := r.view.do(func(st *state, _ *clock) error {
		for _, p := range st.places {
			if match(p) {
				out = append(out, p.Clone())
			}
		}
		return nil
	})
	sortByCreated(out, func(p *models.Place) (time.Time, string) { return p.CreatedAt, p.ID })
	return out, err
}

func (r *placeRepository) Save(ctx context.Context, p *models.Place) error {
	return r.view.do(func(st *state, c *clock) error {
		if _, ok := st.users[p.CreatorID]; !ok {
			return fmt.Errorf("place creator %s: %w", p.CreatorID, repositories.ErrUserNotFound)
		}

		now := c.tick()
		if existing, ok := st.places[p.ID]; ok && p.ID != "" {
			p.CreatedAt = existing.CreatedAt
		} else {
			if p.ID == "" {
				p.ID = newID()
			}
			p.CreatedAt = now
		}
		p.UpdatedAt = now

		st.places[p.ID] = p.Clone()
		return nil
	})
}

func (r *placeRepository) UpdateDetails(ctx context.Context, id, title, description string) error {
	return r.view.do(func(st *state, c *clock) error {
		existing, ok := st.places[id]
		if !ok {
			return repositories.ErrPlaceNotFound
		}
		p := existing.Clone()
		p.Title = title
		p.Description = description
		p.UpdatedAt = c.tick()
		st.places[id] = p
		return nil
	})
}

func (r *placeRepository) Delete(ctx context.Context, id string) error {
	return r.view.do(func(st *state, _ *clock) error {
		if _, ok := st.places[id]; !ok {
			return repositories.ErrPlaceNotFound
		}
		delete(st.places, id)
		return nil
	})
}

type userRepository struct {
	view view
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var out *models.User
	err := r.view.do(func(st *state, _ *clock) error {
		u, ok := st.users[id]
		if !ok {
			return repositories.ErrUserNotFound
		}
		out = u.Clone()
		return nil
	})
	return out, err
}

// LockByID is FindByID: transactions are already serialized.
func (r *userRepository) LockByID(ctx context.Context, id string) (*models.User, error) {
	return r.FindByID(ctx, id)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var out *models.User
	err := r.view.do(func(st *state, _ *clock) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, email) {
				out = u.Clone()
				return nil
			}
		}
		return repositories.ErrUserNotFound
	})
	return out, err
}

func (r *userRepository) FindAll(ctx context.Context) ([]*models.User, error) {
	out := []*models.User{}
	err := r.view.do(func(st *state, _ *clock) error {
		for _, u := range st.users {
			out = append(out, u.Clone())
		}
		return nil
	})
	sortByCreated(out, func(u *models.User) (time.Time, string) { return u.CreatedAt, u.ID })
	return out, err
}

func (r *userRepository) ExistsByImageKey(ctx context.Context, key string) (bool, error) {
	found := false
	err := r.view.do(func(st *state, _ *clock) error {
		for _, u := range st.users {
			if u.ImageKey == key {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r *userRepository) Save(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(u.Email)

	return r.view.do(func(st *state, c *clock) error {
		for id, other := range st.users {
			if id != u.ID && other.Email == u.Email {
				return repositories.ErrUserAlreadyExists
			}
		}

		now := c.tick()
		if existing, ok := st.users[u.ID]; ok && u.ID != "" {
			u.CreatedAt = existing.CreatedAt
		} else {
			if u.ID == "" {
				u.ID = newID()
			}
			u.CreatedAt = now
		}
		u.UpdatedAt = now

		st.users[u.ID] = u.Clone()
		return nil
	})
}

type orphanedAssetRepository struct {
	view view
}

func (r *orphanedAssetRepository) Add(ctx context.Context, key, reason, lastErr string) error {
	return r.view.do(func(st *state, c *clock) error {
		now := c.tick()
		for _, o := range st.orphans {
			if o.Key == key {
				o.LastError = lastErr
				o.UpdatedAt = now
				return nil
			}
		}

		o := &models.OrphanedAsset{Key: key, Reason: reason, LastError: lastErr}
		o.ID = newID()
		o.CreatedAt = now
		o.UpdatedAt = now
		st.orphans[o.ID] = o
		return nil
	})
}

func (r *orphanedAssetRepository) List(ctx context.Context, limit int) ([]*models.OrphanedAsset, error) {
	out := []*models.OrphanedAsset{}
	err := r.view.do(func(st *state, _ *clock) error {
		for _, o := range st.orphans {
			oc := *o
			out = append(out, &oc)
		}
		return nil
	})
	sortByCreated(out, func(o *models.OrphanedAsset) (time.Time, string) { return o.CreatedAt, o.ID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Attempts < out[j].Attempts })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (r *orphanedAssetRepository) MarkAttempt(ctx context.Context, id, lastErr string) error {
	return r.view.do(func(st *state, c *clock) error {
		if o, ok := st.orphans[id]; ok {
			o.Attempts++
			o.LastError = lastErr
			o.UpdatedAt = c.tick()
		}
		return nil
	})
}

func (r *orphanedAssetRepository) Delete(ctx context.Context, id string) error {
	return r.view.do(func(st *state, _ *clock) error {
		delete(st.orphans, id)
		return nil
	})
}
