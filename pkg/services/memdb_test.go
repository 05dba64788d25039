package services

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/orderdesk/pkg/apperrors"
	"github.com/ekaya-inc/orderdesk/pkg/database"
	"github.com/ekaya-inc/orderdesk/pkg/integrity"
	"github.com/ekaya-inc/orderdesk/pkg/models"
	"github.com/ekaya-inc/orderdesk/pkg/repositories"
)

// passthroughTx runs fn directly. Transactions are covered by the
// integration tests.
type passthroughTx struct{ calls int }

func (p *passthroughTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++
	return fn(ctx)
}

func (p *passthroughTx) Scoped(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var _ database.Transactor = (*passthroughTx)(nil)

// memDB is an in-memory stand-in for the tables the services touch.
type memDB struct {
	countries map[int64]*models.Country
	cities    map[int64]*models.City
	customers map[int64]*models.Customer
	suppliers map[int64]*models.Supplier
	products  map[int64]*models.Product
	orders    map[int64]*models.Order
	items     map[int64]*models.OrderItem
	nextID    int64
}

func newMemDB() *memDB {
	return &memDB{
		countries: map[int64]*models.Country{},
		cities:    map[int64]*models.City{},
		customers: map[int64]*models.Customer{},
		suppliers: map[int64]*models.Supplier{},
		products:  map[int64]*models.Product{},
		orders:    map[int64]*models.Order{},
		items:     map[int64]*models.OrderItem{},
	}
}

func (m *memDB) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memDB) addCountry(name string) int64 {
	id := m.id()
	m.countries[id] = &models.Country{ID: id, Name: name, Version: 1}
	return id
}

func (m *memDB) addCity(name string, countryID int64) int64 {
	id := m.id()
	m.cities[id] = &models.City{ID: id, Name: name, CountryID: countryID, Version: 1}
	return id
}

func (m *memDB) addCustomer(first, last string, cityID int64) int64 {
	id := m.id()
	m.customers[id] = &models.Customer{ID: id, FirstName: first, LastName: last, CityID: cityID, Version: 1}
	return id
}

func (m *memDB) addSupplier(company string, cityID int64) int64 {
	id := m.id()
	m.suppliers[id] = &models.Supplier{ID: id, CompanyName: company, CityID: cityID, Version: 1}
	return id
}

func (m *memDB) addProduct(name, price string) int64 {
	id := m.id()
	m.products[id] = &models.Product{ID: id, Name: name, UnitPrice: decimal.RequireFromString(price), Version: 1}
	return id
}

func (m *memDB) itemsOf(orderID int64) []*models.OrderItem {
	var out []*models.OrderItem
	for _, it := range m.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// foreignKeys maps child id to the value of column for kind.
func (m *memDB) foreignKeys(kind integrity.Kind, column string) map[int64]int64 {
	out := map[int64]int64{}
	switch kind {
	case integrity.KindCity:
		for id, c := range m.cities {
			out[id] = c.CountryID
		}
	case integrity.KindCustomer:
		for id, c := range m.customers {
			out[id] = c.CityID
		}
	case integrity.KindSupplier:
		for id, sup := range m.suppliers {
			out[id] = sup.CityID
		}
	case integrity.KindProduct:
		for id, p := range m.products {
			out[id] = p.SupplierID
		}
	case integrity.KindOrder:
		for id, o := range m.orders {
			out[id] = o.CustomerID
		}
	case integrity.KindOrderItem:
		for id, it := range m.items {
			if column == "order_id" {
				out[id] = it.OrderID
			} else {
				out[id] = it.ProductID
			}
		}
	}
	return out
}

func (m *memDB) Exists(_ context.Context, kind integrity.Kind, id int64, _ integrity.Lock) (bool, error) {
	var ok bool
	switch kind {
	case integrity.KindCountry:
		_, ok = m.countries[id]
	case integrity.KindCity:
		_, ok = m.cities[id]
	case integrity.KindCustomer:
		_, ok = m.customers[id]
	case integrity.KindSupplier:
		_, ok = m.suppliers[id]
	case integrity.KindProduct:
		_, ok = m.products[id]
	case integrity.KindOrder:
		_, ok = m.orders[id]
	case integrity.KindOrderItem:
		_, ok = m.items[id]
	}
	return ok, nil
}

func (m *memDB) ChildIDs(_ context.Context, edge integrity.Edge, parentID int64) ([]int64, error) {
	var ids []int64
	for id, parent := range m.foreignKeys(edge.Child, edge.Column) {
		if parent == parentID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *memDB) DeleteRows(_ context.Context, kind integrity.Kind, ids []int64) (int64, error) {
	for _, id := range ids {
		switch kind {
		case integrity.KindCountry:
			delete(m.countries, id)
		case integrity.KindCity:
			delete(m.cities, id)
		case integrity.KindCustomer:
			delete(m.customers, id)
		case integrity.KindSupplier:
			delete(m.suppliers, id)
		case integrity.KindProduct:
			delete(m.products, id)
		case integrity.KindOrder:
			delete(m.orders, id)
		case integrity.KindOrderItem:
			delete(m.items, id)
		}
	}
	return int64(len(ids)), nil
}

var _ integrity.Store = (*memDB)(nil)

func newTestEnforcer(t *testing.T, db *memDB) *integrity.Enforcer {
	t.Helper()
	e, err := integrity.NewEnforcer(integrity.Default(), db, zap.NewNop())
	require.NoError(t, err)
	return e
}

func memNotFound(kind integrity.Kind) error {
	return &apperrors.ReferenceError{Kind: string(kind)}
}

// --- countries ---

type memCountries struct{ db *memDB }

var _ repositories.CountryRepository = memCountries{}

func (r memCountries) List(context.Context) ([]*models.Country, error) {
	var out []*models.Country
	for _, c := range r.db.countries {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memCountries) GetByID(_ context.Context, id int64) (*models.Country, error) {
	c, ok := r.db.countries[id]
	if !ok {
		return nil, memNotFound(integrity.KindCountry)
	}
	cp := *c
	return &cp, nil
}

func (r memCountries) Create(_ context.Context, c *models.Country) error {
	c.ID, c.Version = r.db.id(), 1
	cp := *c
	r.db.countries[c.ID] = &cp
	return nil
}

func (r memCountries) Update(_ context.Context, c *models.Country, version int64) error {
	stored, ok := r.db.countries[c.ID]
	if !ok {
		return memNotFound(integrity.KindCountry)
	}
	if stored.Version != version {
		return &apperrors.VersionConflictError{Kind: "country", ID: c.ID, Expected: version}
	}
	c.Version = version + 1
	cp := *c
	r.db.countries[c.ID] = &cp
	return nil
}

// --- cities ---

type memCities struct{ db *memDB }

var _ repositories.CityRepository = memCities{}

func (r memCities) List(context.Context) ([]*models.City, error) {
	var out []*models.City
	for _, c := range r.db.cities {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (r memCities) GetByID(_ context.Context, id int64) (*models.City, error) {
	c, ok := r.db.cities[id]
	if !ok {
		return nil, memNotFound(integrity.KindCity)
	}
	cp := *c
	return &cp, nil
}

func (r memCities) Create(_ context.Context, c *models.City) error {
	c.ID, c.Version = r.db.id(), 1
	cp := *c
	r.db.cities[c.ID] = &cp
	return nil
}

func (r memCities) Update(_ context.Context, c *models.City, version int64) error {
	stored, ok := r.db.cities[c.ID]
	if !ok {
		return memNotFound(integrity.KindCity)
	}
	if stored.Version != version {
		return &apperrors.VersionConflictError{Kind: "city", ID: c.ID, Expected: version}
	}
	c.Version = version + 1
	cp := *c
	r.db.cities[c.ID] = &cp
	return nil
}

// --- orders ---

type memOrders struct{ db *memDB }

var _ repositories.OrderRepository = memOrders{}

func (r memOrders) List(context.Context) ([]*models.Order, error) {
	var out []*models.Order
	for _, o := range r.db.orders {
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func (r memOrders) GetByID(_ context.Context, id int64) (*models.Order, error) {
	o, ok := r.db.orders[id]
	if !ok {
		return nil, memNotFound(integrity.KindOrder)
	}
	cp := *o
	return &cp, nil
}

func (r memOrders) Create(_ context.Context, o *models.Order) error {
	o.ID, o.Version = r.db.id(), 1
	cp := *o
	r.db.orders[o.ID] = &cp
	return nil
}

func (r memOrders) Update(_ context.Context, o *models.Order, version int64) error {
	stored, ok := r.db.orders[o.ID]
	if !ok {
		return memNotFound(integrity.KindOrder)
	}
	if stored.Version != version {
		return &apperrors.VersionConflictError{Kind: "order", ID: o.ID, Expected: version}
	}
	o.Version = version + 1
	cp := *o
	r.db.orders[o.ID] = &cp
	return nil
}

func (r memOrders) Lock(_ context.Context, id int64) error {
	if _, ok := r.db.orders[id]; !ok {
		return memNotFound(integrity.KindOrder)
	}
	return nil
}

func (r memOrders) SetTotal(_ context.Context, id int64, total decimal.Decimal) (int64, error) {
	o, ok := r.db.orders[id]
	if !ok {
		return 0, memNotFound(integrity.KindOrder)
	}
	o.TotalAmount = total
	o.Version++
	return o.Version, nil
}

// --- order items ---

type memItems struct{ db *memDB }

var _ repositories.OrderItemRepository = memItems{}

func (r memItems) List(context.Context) ([]*models.OrderItem, error) {
	var out []*models.OrderItem
	for _, it := range r.db.items {
		cp := *it
		out = append(out, &cp)
	}
	return out, nil
}

func (r memItems) ListByOrder(_ context.Context, orderID int64) ([]*models.OrderItem, error) {
	var out []*models.OrderItem
	for _, it := range r.db.itemsOf(orderID) {
		cp := *it
		out = append(out, &cp)
	}
	return out, nil
}

func (r memItems) GetByID(_ context.Context, id int64) (*models.OrderItem, error) {
	it, ok := r.db.items[id]
	if !ok {
		return nil, memNotFound(integrity.KindOrderItem)
	}
	cp := *it
	return &cp, nil
}

func (r memItems) Create(_ context.Context, item *models.OrderItem) error {
	item.ID, item.Version = r.db.id(), 1
	cp := *item
	r.db.items[item.ID] = &cp
	return nil
}

func (r memItems) CreateBatch(ctx context.Context, items []*models.OrderItem) error {
	for _, it := range items {
		if err := r.Create(ctx, it); err != nil {
			return err
		}
	}
	return nil
}

func (r memItems) Update(_ context.Context, item *models.OrderItem, version int64) error {
	stored, ok := r.db.items[item.ID]
	if !ok {
		return memNotFound(integrity.KindOrderItem)
	}
	if stored.Version != version {
		return &apperrors.VersionConflictError{Kind: "order_item", ID: item.ID, Expected: version}
	}
	item.Version = version + 1
	cp := *item
	r.db.items[item.ID] = &cp
	return nil
}

func (r memItems) DeleteByOrder(_ context.Context, orderID int64) (int64, error) {
	var n int64
	for _, it := range r.db.itemsOf(orderID) {
		delete(r.db.items, it.ID)
		n++
	}
	return n, nil
}

// --- selection ---

type memSelection struct {
	db      *memDB
	queries int
	// afterCitiesRead runs once the city list has been read, before it is returned.
	afterCitiesRead func()
}

var _ repositories.SelectionRepository = (*memSelection)(nil)

func (r *memSelection) CitiesOf(_ context.Context, countryID int64) ([]models.Option, error) {
	r.queries++
	out := []models.Option{}
	for _, c := range r.db.cities {
		if c.CountryID == countryID {
			out = append(out, models.Option{ID: c.ID, Name: c.Name, Group: r.db.countries[countryID].Name})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if r.afterCitiesRead != nil {
		r.afterCitiesRead()
	}
	return out, nil
}

func (r *memSelection) UnitPriceOf(_ context.Context, productID int64) (decimal.Decimal, error) {
	p, ok := r.db.products[productID]
	if !ok {
		return decimal.Zero, memNotFound(integrity.KindProduct)
	}
	return p.UnitPrice, nil
}

func (r *memSelection) Options(_ context.Context, kind integrity.Kind) ([]models.Option, error) {
	r.queries++
	out := []models.Option{}
	if kind == integrity.KindCustomer {
		for _, c := range r.db.customers {
			out = append(out, models.Option{ID: c.ID, Name: c.DisplayName()})
		}
	}
	sort.Slice(out, func(i, j int) bool { return strings.Compare(out[i].Name, out[j].Name) < 0 })
	return out, nil
}

// recordingCache is a map-backed SelectionCache that remembers invalidations
// and applies the same generation rule as the Redis cache.
type recordingCache struct {
	entries     map[int64]cachedCities
	generations map[int64]int64
	invalidated []int64
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: map[int64]cachedCities{}, generations: map[int64]int64{}}
}

func (c *recordingCache) GetCities(_ context.Context, countryID int64) ([]models.Option, CitiesToken, bool) {
	token := CitiesToken{generation: c.generations[countryID], valid: true}
	entry, ok := c.entries[countryID]
	if !ok || entry.Generation != token.generation {
		return nil, token, false
	}
	return entry.Cities, token, true
}

func (c *recordingCache) SetCities(_ context.Context, countryID int64, token CitiesToken, cities []models.Option) {
	if !token.valid || token.generation != c.generations[countryID] {
		return
	}
	c.entries[countryID] = cachedCities{Generation: token.generation, Cities: cities}
}

func (c *recordingCache) InvalidateCities(_ context.Context, countryIDs ...int64) {
	for _, id := range countryIDs {
		c.generations[id]++
		delete(c.entries, id)
		c.invalidated = append(c.invalidated, id)
	}
}
