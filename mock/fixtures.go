package mock

import (
	"context"
	"errors"
	"sync"

	tmock "github.com/stretchr/testify/mock"

	"github.com/centraunit/vmkit"
)

// Core interfaces
type Database interface {
	Connect() error
	IsConnected() bool
}

type Cache interface {
	Get(key string) any
	DB() Database
}

// DisposeLog records disposal order across fixtures.
type DisposeLog struct {
	mu    sync.Mutex
	names []string
}

func (l *DisposeLog) add(name string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.names = append(l.names, name)
	l.mu.Unlock()
}

func (l *DisposeLog) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.names...)
}

// Mock implementations
type MockDB struct {
	Name        string
	Log         *DisposeLog
	FailDispose bool
	isConnected bool
}

func NewMockDB() (Database, error) {
	db := &MockDB{Name: "db"}
	return db, db.Connect()
}

func (m *MockDB) Connect() error {
	m.isConnected = true
	return nil
}

func (m *MockDB) IsConnected() bool {
	return m.isConnected
}

func (m *MockDB) Dispose(context.Context) error {
	m.isConnected = false
	m.Log.add(m.Name)
	if m.FailDispose {
		return errors.New("simulated dispose failure")
	}
	return nil
}

type MockCache struct {
	db Database
}

func NewMockCache(db Database) (Cache, error) {
	return &MockCache{db: db}, nil
}

func (m *MockCache) Get(string) any {
	return nil
}

func (m *MockCache) DB() Database {
	return m.db
}

// Circular dependency test types
type CircularService1 interface {
	GetService2() CircularService2
}

type CircularService2 interface {
	GetService1() CircularService1
}

type CircularImpl1 struct {
	svc2 CircularService2
}

func NewCircularImpl1(svc2 CircularService2) (CircularService1, error) {
	return &CircularImpl1{svc2: svc2}, nil
}

func (i *CircularImpl1) GetService2() CircularService2 { return i.svc2 }

type CircularImpl2 struct {
	svc1 CircularService1
}

func NewCircularImpl2(svc1 CircularService1) (CircularService2, error) {
	return &CircularImpl2{svc1: svc1}, nil
}

func (i *CircularImpl2) GetService1() CircularService1 { return i.svc1 }

// LazyImpl1 breaks the cycle by deferring its dependency.
type LazyImpl1 struct {
	svc2 vmkit.Lazy[CircularService2]
}

func NewLazyImpl1(svc2 vmkit.Lazy[CircularService2]) (CircularService1, error) {
	return &LazyImpl1{svc2: svc2}, nil
}

func (i *LazyImpl1) GetService2() CircularService2 {
	svc, err := i.svc2()
	if err != nil {
		return nil
	}
	return svc
}

// FailingDB fails construction on demand.
func NewFailingDB(shouldFail bool) func() (Database, error) {
	return func() (Database, error) {
		if shouldFail {
			return nil, errors.New("simulated boot failure")
		}
		return NewMockDB()
	}
}

type DeepService3 interface {
	GetValue() string
}

type DeepService2 interface {
	GetService3() DeepService3
}

type DeepService1 interface {
	GetService2() DeepService2
}

type DeepImpl3 struct {
	Value string
}

func NewDeepImpl3() (DeepService3, error) {
	return &DeepImpl3{Value: "deep"}, nil
}

func (d *DeepImpl3) GetValue() string {
	return d.Value
}

type DeepImpl2 struct {
	svc3 DeepService3
}

func NewDeepImpl2(svc3 DeepService3) (DeepService2, error) {
	return &DeepImpl2{svc3: svc3}, nil
}

func (d *DeepImpl2) GetService3() DeepService3 {
	return d.svc3
}

type DeepImpl1 struct {
	svc2 DeepService2
}

func NewDeepImpl1(svc2 DeepService2) (DeepService1, error) {
	return &DeepImpl1{svc2: svc2}, nil
}

func (d *DeepImpl1) GetService2() DeepService2 {
	return d.svc2
}

type ComplexService struct {
	DB    Database
	Cache Cache
}

func NewComplexService(db Database, cache Cache) (*ComplexService, error) {
	return &ComplexService{DB: db, Cache: cache}, nil
}

// Lifecycle fixtures

// PageOptions are the activation options of MockViewModel.
type PageOptions struct {
	ID int
}

// MockViewModel is a view-model whose guards and hooks are driven by
// testify expectations.
type MockViewModel struct {
	vmkit.Base
	tmock.Mock
}

func NewMockViewModel() *MockViewModel {
	return &MockViewModel{}
}

func (m *MockViewModel) CanActivate(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockViewModel) Activate(ctx context.Context, opts PageOptions) error {
	return m.Called(ctx, opts).Error(0)
}

func (m *MockViewModel) CanDeactivate(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockViewModel) Deactivate(ctx context.Context) error {
	if err := m.Called(ctx).Error(0); err != nil {
		return err
	}
	return m.Base.Deactivate(ctx)
}

// PlainViewModel relies on every default Base provides.
type PlainViewModel struct {
	vmkit.Base
	Opts PageOptions
}

func (p *PlainViewModel) Activate(_ context.Context, opts PageOptions) error {
	p.Opts = opts
	return nil
}

// Picker is a modal returning the chosen label.
type Picker struct {
	vmkit.BaseModal[string]
	Choices []string
}

func NewPicker() (*Picker, error) {
	p := &Picker{}
	p.Results().SetFallback("none")
	return p, nil
}

func (p *Picker) Activate(_ context.Context, choices []string) error {
	p.Choices = choices
	return nil
}

// MockPresenter records every modal it is asked to show.
type MockPresenter struct {
	tmock.Mock
}

func (m *MockPresenter) Present(ctx context.Context, modal any) error {
	return m.Called(ctx, modal).Error(0)
}
