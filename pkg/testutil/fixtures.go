package testutil

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// UserFixture represents test user data
type UserFixture struct {
	ID           int64
	Username     string
	PasswordHash string
	RoleID       *int64
	CreatedAt    time.Time
}

// RoleFixture represents test role data
type RoleFixture struct {
	ID   int64
	Name string
}

// CategoryFixture represents test category data
type CategoryFixture struct {
	ID          int64
	Name        string
	Description *string
	IsActive    bool
	CreatedAt   time.Time
}

// UnitFixture represents test unit data
type UnitFixture struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// MedicineFixture represents test medicine data
type MedicineFixture struct {
	ID         int64
	Name       string
	Price      decimal.Decimal
	Supplier   *string
	CategoryID *int64
	UnitID     *int64
	IsActive   bool
	CreatedAt  time.Time
}

// BatchFixture represents test batch data
type BatchFixture struct {
	ID         int64
	MedicineID int64
	BatchNo    string
	Quantity   int
	ExpiryDate time.Time
	CreatedAt  time.Time
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// User creates a user fixture with defaults
func (f *FixtureFactory) User(opts ...func(*UserFixture)) UserFixture {
	seq := f.nextSeq()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)

	user := UserFixture{
		ID:           int64(seq),
		Username:     fmt.Sprintf("user%d", seq),
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	for _, opt := range opts {
		opt(&user)
	}

	return user
}

// WithUsername sets the username
func WithUsername(username string) func(*UserFixture) {
	return func(u *UserFixture) {
		u.Username = username
	}
}

// WithPassword sets the user password (hashed)
func WithPassword(password string) func(*UserFixture) {
	return func(u *UserFixture) {
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		u.PasswordHash = string(hash)
	}
}

// WithRoleID sets the user's role ID
func WithRoleID(roleID int64) func(*UserFixture) {
	return func(u *UserFixture) {
		u.RoleID = &roleID
	}
}

// Role creates a role fixture with defaults
func (f *FixtureFactory) Role(opts ...func(*RoleFixture)) RoleFixture {
	seq := f.nextSeq()

	role := RoleFixture{
		ID:   int64(seq),
		Name: fmt.Sprintf("role_%d", seq),
	}

	for _, opt := range opts {
		opt(&role)
	}

	return role
}

// Category creates a category fixture with defaults
func (f *FixtureFactory) Category(opts ...func(*CategoryFixture)) CategoryFixture {
	seq := f.nextSeq()

	category := CategoryFixture{
		ID:        int64(seq),
		Name:      fmt.Sprintf("Category %d", seq),
		IsActive:  true,
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(&category)
	}

	return category
}

// Unit creates a unit fixture with defaults
func (f *FixtureFactory) Unit(opts ...func(*UnitFixture)) UnitFixture {
	seq := f.nextSeq()

	unit := UnitFixture{
		ID:        int64(seq),
		Name:      fmt.Sprintf("Unit %d", seq),
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(&unit)
	}

	return unit
}

// Medicine creates a medicine fixture with defaults
func (f *FixtureFactory) Medicine(opts ...func(*MedicineFixture)) MedicineFixture {
	seq := f.nextSeq()

	medicine := MedicineFixture{
		ID:        int64(seq),
		Name:      fmt.Sprintf("Test Medicine %d", seq),
		Price:     decimal.NewFromFloat(9.99),
		IsActive:  true,
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(&medicine)
	}

	return medicine
}

// WithMedicineName sets the medicine name
func WithMedicineName(name string) func(*MedicineFixture) {
	return func(m *MedicineFixture) {
		m.Name = name
	}
}

// WithPrice sets the medicine price
func WithPrice(price decimal.Decimal) func(*MedicineFixture) {
	return func(m *MedicineFixture) {
		m.Price = price
	}
}

// WithCategoryID sets the medicine's category ID
func WithCategoryID(id int64) func(*MedicineFixture) {
	return func(m *MedicineFixture) {
		m.CategoryID = &id
	}
}

// WithUnitID sets the medicine's unit ID
func WithUnitID(id int64) func(*MedicineFixture) {
	return func(m *MedicineFixture) {
		m.UnitID = &id
	}
}

// Batch creates a batch fixture with defaults. The batch expires one
// year out so it is allocatable in most tests.
func (f *FixtureFactory) Batch(medicineID int64, opts ...func(*BatchFixture)) BatchFixture {
	seq := f.nextSeq()

	batch := BatchFixture{
		ID:         int64(seq),
		MedicineID: medicineID,
		BatchNo:    fmt.Sprintf("B-%04d", seq),
		Quantity:   100,
		ExpiryDate: time.Now().AddDate(1, 0, 0),
		CreatedAt:  time.Now(),
	}

	for _, opt := range opts {
		opt(&batch)
	}

	return batch
}

// WithQuantity sets the batch quantity
func WithQuantity(quantity int) func(*BatchFixture) {
	return func(b *BatchFixture) {
		b.Quantity = quantity
	}
}

// WithExpiry sets the batch expiry date
func WithExpiry(expiry time.Time) func(*BatchFixture) {
	return func(b *BatchFixture) {
		b.ExpiryDate = expiry
	}
}

// WithBatchNo sets the batch number
func WithBatchNo(batchNo string) func(*BatchFixture) {
	return func(b *BatchFixture) {
		b.BatchNo = batchNo
	}
}

// DefaultTestRoles returns standard test roles
func DefaultTestRoles() []RoleFixture {
	return []RoleFixture{
		{ID: 1, Name: "admin"},
		{ID: 2, Name: "pharmacist"},
		{ID: 3, Name: "assistant"},
	}
}
