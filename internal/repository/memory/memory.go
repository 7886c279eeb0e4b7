// Package memory keeps all shop data in process. It backs local development
// and the service tests, and enforces the same overlap guard as the
// PostgreSQL exclusion constraint.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/repository"
)

type state struct {
	mu sync.RWMutex

	shops     map[int32]*domain.Shop
	vehicles  map[int32]*domain.Vehicle
	customers map[int32]*domain.Customer
	bookings  map[int32]*domain.Booking
	payments  []domain.Payment
	overrides map[int32]map[string]domain.AvailabilityOverride

	vehicleSeq, customerSeq, bookingSeq, paymentSeq int32
}

// NewStore returns a Store whose repositories share one in-memory state.
func NewStore() *repository.Store {
	s := &state{
		shops:     make(map[int32]*domain.Shop),
		vehicles:  make(map[int32]*domain.Vehicle),
		customers: make(map[int32]*domain.Customer),
		bookings:  make(map[int32]*domain.Booking),
		overrides: make(map[int32]map[string]domain.AvailabilityOverride),
	}
	return &repository.Store{
		Shops:        &shopRepository{s},
		Vehicles:     &vehicleRepository{s},
		Customers:    &customerRepository{s},
		Bookings:     &bookingRepository{s},
		Availability: &availabilityRepository{s},
	}
}

// AddShop registers a shop. Shops are provisioned outside the API, so only
// the in-memory store exposes this.
func AddShop(store *repository.Store, shop domain.Shop) {
	repo := store.Shops.(*shopRepository)
	repo.mu.Lock()
	defer repo.mu.Unlock()
	s := shop
	repo.shops[s.ID] = &s
}

type shopRepository struct{ *state }

func (r *shopRepository) GetByID(ctx context.Context, id int32) (*domain.Shop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.shops[id]
	if !ok {
		return nil, domain.NotFound("shop", id)
	}
	c := *s
	return &c, nil
}

func (r *shopRepository) List(ctx context.Context) ([]domain.Shop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Shop, 0, len(r.shops))
	for _, s := range r.shops {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type vehicleRepository struct{ *state }

func cloneVehicle(v *domain.Vehicle) domain.Vehicle {
	c := *v
	c.Damages = append([]domain.Damage(nil), v.Damages...)
	if v.LastOdometer != nil {
		odo := *v.LastOdometer
		c.LastOdometer = &odo
	}
	return c
}

func (r *vehicleRepository) Create(ctx context.Context, v *domain.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.shops[v.ShopID]; !ok {
		return domain.NotFound("shop", v.ShopID)
	}
	for _, other := range r.vehicles {
		if other.ShopID == v.ShopID && strings.EqualFold(other.RegistrationNumber, v.RegistrationNumber) {
			return domain.Invalid("registration_number", "%s is already registered", v.RegistrationNumber)
		}
	}
	r.vehicleSeq++
	now := time.Now()
	v.ID, v.CreatedOn, v.UpdatedOn = r.vehicleSeq, now, now
	c := cloneVehicle(v)
	r.vehicles[v.ID] = &c
	return nil
}

func (r *vehicleRepository) get(shopID, id int32) (*domain.Vehicle, error) {
	v, ok := r.vehicles[id]
	if !ok || v.ShopID != shopID {
		return nil, domain.NotFound("vehicle", id)
	}
	return v, nil
}

func (r *vehicleRepository) GetByID(ctx context.Context, shopID, id int32) (*domain.Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, err := r.get(shopID, id)
	if err != nil {
		return nil, err
	}
	c := cloneVehicle(v)
	return &c, nil
}

func (r *vehicleRepository) GetMany(ctx context.Context, shopID int32, ids []int32) ([]domain.Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Vehicle, 0, len(ids))
	for _, id := range ids {
		v, err := r.get(shopID, id)
		if err != nil {
			return nil, err
		}
		out = append(out, cloneVehicle(v))
	}
	return out, nil
}

func (r *vehicleRepository) Update(ctx context.Context, v *domain.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, err := r.get(v.ShopID, v.ID)
	if err != nil {
		return err
	}
	for _, other := range r.vehicles {
		if other.ID != v.ID && other.ShopID == v.ShopID && strings.EqualFold(other.RegistrationNumber, v.RegistrationNumber) {
			return domain.Invalid("registration_number", "%s is already registered", v.RegistrationNumber)
		}
	}
	v.UpdatedOn = time.Now()
	c := cloneVehicle(v)
	c.Damages = cur.Damages
	c.CreatedOn = cur.CreatedOn
	r.vehicles[v.ID] = &c
	return nil
}

func (r *vehicleRepository) List(ctx context.Context, shopID int32, includeArchived bool) ([]domain.Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Vehicle
	for _, v := range r.vehicles {
		if v.ShopID != shopID || (v.Archived && !includeArchived) {
			continue
		}
		c := cloneVehicle(v)
		c.Damages = nil
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *vehicleRepository) AddDamage(ctx context.Context, shopID int32, d *domain.Damage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, err := r.get(shopID, d.VehicleID)
	if err != nil {
		return err
	}
	v.Damages = append(v.Damages, *d)
	return nil
}

type customerRepository struct{ *state }

func (r *customerRepository) insert(c *domain.Customer) {
	r.customerSeq++
	now := time.Now()
	c.ID, c.CreatedOn, c.UpdatedOn = r.customerSeq, now, now
	cp := *c
	r.customers[c.ID] = &cp
}

func (r *customerRepository) Create(ctx context.Context, c *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.shops[c.ShopID]; !ok {
		return domain.NotFound("shop", c.ShopID)
	}
	r.insert(c)
	return nil
}

func (r *customerRepository) GetByID(ctx context.Context, shopID, id int32) (*domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.customers[id]
	if !ok || c.ShopID != shopID {
		return nil, domain.NotFound("customer", id)
	}
	cp := *c
	return &cp, nil
}

func (r *customerRepository) Update(ctx context.Context, c *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.customers[c.ID]
	if !ok || cur.ShopID != c.ShopID {
		return domain.NotFound("customer", c.ID)
	}
	c.CreatedOn = cur.CreatedOn
	c.UpdatedOn = time.Now()
	cp := *c
	r.customers[c.ID] = &cp
	return nil
}

func (r *customerRepository) List(ctx context.Context, shopID int32, query string, page, pageSize int32) ([]domain.Customer, int32, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q := strings.ToLower(query)
	var matched []domain.Customer
	for _, c := range r.customers {
		if c.ShopID != shopID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(c.Name), q) && !strings.Contains(c.Phone, query) {
			continue
		}
		matched = append(matched, *c)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID < matched[j].ID
	})
	return paginate(matched, page, pageSize), int32(len(matched)), nil
}

func paginate[T any](items []T, page, pageSize int32) []T {
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	if page <= 0 {
		page = 1
	}
	start := int((page - 1) * pageSize)
	if start >= len(items) {
		return nil
	}
	end := start + int(pageSize)
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
