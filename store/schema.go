package store

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// schema holds the declared structural metadata for a single entity type.
type schema struct {
	tableName          string
	partitionKey       string
	sortKey            string
	indexPartitionKeys map[string]string
	indexSortKeys      map[string]string
}

// Registry maps entity types to their declared table and key schema.
//
// Declarations are expected to happen once, during program initialization
// (typically from init functions), and are read by repositories on every
// operation afterwards. The registry is guarded by a read-write mutex so
// late declarations remain safe, but the intended lifecycle is
// declare-then-read.
type Registry struct {
	mu      sync.RWMutex
	schemas map[reflect.Type]*schema
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		schemas: make(map[reflect.Type]*schema),
	}
}

// DefaultRegistry is the process-wide registry used by the package-level
// Register and resolution functions, and by repositories constructed
// without an explicit registry.
var DefaultRegistry = NewRegistry()

// entityType normalizes a type witness to its underlying type identity.
// Accepts a value, a pointer to a value, or a reflect.Type, so an instance
// may be passed wherever a type is expected.
func entityType(model any) reflect.Type {
	t, ok := model.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(model)
	}
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// blank reports whether s is empty or consists only of whitespace.
func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// schemaFor returns the schema entry for t, creating it if needed.
// Callers must hold the write lock.
func (r *Registry) schemaFor(t reflect.Type) *schema {
	s, ok := r.schemas[t]
	if !ok {
		s = &schema{
			indexPartitionKeys: make(map[string]string),
			indexSortKeys:      make(map[string]string),
		}
		r.schemas[t] = s
	}
	return s
}

// lookup returns the schema entry for model, or nil if none was declared.
// Callers must hold the registry lock for the duration of any field reads.
func (r *Registry) lookup(model any) *schema {
	t := entityType(model)
	if t == nil {
		return nil
	}
	return r.schemas[t]
}

// RegisterTable declares the DynamoDB table name for an entity type.
// An empty name defaults to the type's own name. A table name, once set,
// cannot be re-declared.
func (r *Registry) RegisterTable(model any, name string) error {
	t := entityType(model)
	if t == nil {
		return fmt.Errorf("%w: nil entity type", ErrInvalidSchema)
	}
	if name == "" {
		name = t.Name()
	} else if blank(name) {
		return fmt.Errorf("%w: blank table name for %s", ErrInvalidSchema, t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.schemaFor(t)
	if s.tableName != "" {
		return fmt.Errorf("%w: table name already declared for %s", ErrDuplicateDeclaration, t)
	}
	s.tableName = name
	return nil
}

// RegisterPartitionKey declares the partition key attribute for an entity
// type. An empty name defaults to field. At most one partition key may be
// declared per type.
func (r *Registry) RegisterPartitionKey(model any, field, name string) error {
	t := entityType(model)
	if t == nil {
		return fmt.Errorf("%w: nil entity type", ErrInvalidSchema)
	}
	attr, err := keyAttribute(t, field, name)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.schemaFor(t)
	if s.partitionKey != "" {
		return fmt.Errorf("%w: partition key already declared for %s", ErrDuplicateDeclaration, t)
	}
	s.partitionKey = attr
	return nil
}

// RegisterSortKey declares the sort key attribute for an entity type.
// An empty name defaults to field. At most one sort key may be declared
// per type.
func (r *Registry) RegisterSortKey(model any, field, name string) error {
	t := entityType(model)
	if t == nil {
		return fmt.Errorf("%w: nil entity type", ErrInvalidSchema)
	}
	attr, err := keyAttribute(t, field, name)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.schemaFor(t)
	if s.sortKey != "" {
		return fmt.Errorf("%w: sort key already declared for %s", ErrDuplicateDeclaration, t)
	}
	s.sortKey = attr
	return nil
}

// RegisterIndexPartitionKey declares the partition key attribute of a
// secondary index for an entity type. At most one partition key may be
// declared per index name.
func (r *Registry) RegisterIndexPartitionKey(model any, field, index, name string) error {
	t := entityType(model)
	if t == nil {
		return fmt.Errorf("%w: nil entity type", ErrInvalidSchema)
	}
	if blank(index) {
		return fmt.Errorf("%w: blank index name for %s", ErrInvalidSchema, t)
	}
	attr, err := keyAttribute(t, field, name)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.schemaFor(t)
	if _, exists := s.indexPartitionKeys[index]; exists {
		return fmt.Errorf("%w: partition key already declared for index %q on %s", ErrDuplicateDeclaration, index, t)
	}
	s.indexPartitionKeys[index] = attr
	return nil
}

// RegisterIndexSortKey declares the sort key attribute of a secondary index
// for an entity type. At most one sort key may be declared per index name.
func (r *Registry) RegisterIndexSortKey(model any, field, index, name string) error {
	t := entityType(model)
	if t == nil {
		return fmt.Errorf("%w: nil entity type", ErrInvalidSchema)
	}
	if blank(index) {
		return fmt.Errorf("%w: blank index name for %s", ErrInvalidSchema, t)
	}
	attr, err := keyAttribute(t, field, name)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.schemaFor(t)
	if _, exists := s.indexSortKeys[index]; exists {
		return fmt.Errorf("%w: sort key already declared for index %q on %s", ErrDuplicateDeclaration, index, t)
	}
	s.indexSortKeys[index] = attr
	return nil
}

// keyAttribute resolves the attribute name for a key declaration: an
// explicit name wins, an empty name defaults to the field itself.
func keyAttribute(t reflect.Type, field, name string) (string, error) {
	if blank(field) {
		return "", fmt.Errorf("%w: blank field name for %s", ErrInvalidSchema, t)
	}
	if name == "" {
		return field, nil
	}
	if blank(name) {
		return "", fmt.Errorf("%w: blank attribute name for %s", ErrInvalidSchema, t)
	}
	return name, nil
}

// TableName resolves the declared table name for an entity type or instance.
// The second return value is false if no table name was declared.
func (r *Registry) TableName(model any) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.lookup(model)
	if s == nil || s.tableName == "" {
		return "", false
	}
	return s.tableName, true
}

// PartitionKey resolves the declared partition key attribute for an entity
// type or instance. The second return value is false if none was declared.
func (r *Registry) PartitionKey(model any) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.lookup(model)
	if s == nil || s.partitionKey == "" {
		return "", false
	}
	return s.partitionKey, true
}

// SortKey resolves the declared sort key attribute for an entity type or
// instance. The second return value is false if none was declared.
func (r *Registry) SortKey(model any) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.lookup(model)
	if s == nil || s.sortKey == "" {
		return "", false
	}
	return s.sortKey, true
}

// IndexPartitionKey resolves the partition key attribute declared for the
// named secondary index. It returns an empty string (and no error) if none
// was declared, and ErrInvalidSchema if index is blank.
func (r *Registry) IndexPartitionKey(model any, index string) (string, error) {
	if blank(index) {
		return "", fmt.Errorf("%w: blank index name", ErrInvalidSchema)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.lookup(model)
	if s == nil {
		return "", nil
	}
	return s.indexPartitionKeys[index], nil
}

// IndexSortKey resolves the sort key attribute declared for the named
// secondary index. It returns an empty string (and no error) if none was
// declared, and ErrInvalidSchema if index is blank.
func (r *Registry) IndexSortKey(model any, index string) (string, error) {
	if blank(index) {
		return "", fmt.Errorf("%w: blank index name", ErrInvalidSchema)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.lookup(model)
	if s == nil {
		return "", nil
	}
	return s.indexSortKeys[index], nil
}

// --- Package-level convenience functions over DefaultRegistry ---

// RegisterTable declares the table name for model in the DefaultRegistry.
func RegisterTable(model any, name string) error {
	return DefaultRegistry.RegisterTable(model, name)
}

// RegisterPartitionKey declares the partition key for model in the DefaultRegistry.
func RegisterPartitionKey(model any, field, name string) error {
	return DefaultRegistry.RegisterPartitionKey(model, field, name)
}

// RegisterSortKey declares the sort key for model in the DefaultRegistry.
func RegisterSortKey(model any, field, name string) error {
	return DefaultRegistry.RegisterSortKey(model, field, name)
}

// RegisterIndexPartitionKey declares a secondary index partition key for
// model in the DefaultRegistry.
func RegisterIndexPartitionKey(model any, field, index, name string) error {
	return DefaultRegistry.RegisterIndexPartitionKey(model, field, index, name)
}

// RegisterIndexSortKey declares a secondary index sort key for model in the
// DefaultRegistry.
func RegisterIndexSortKey(model any, field, index, name string) error {
	return DefaultRegistry.RegisterIndexSortKey(model, field, index, name)
}

// Must panics if err is non-nil. It is intended for schema registration in
// init functions, where a declaration error is a programming mistake:
//
//	func init() {
//	    store.Must(store.RegisterTable(User{}, "users"))
//	    store.Must(store.RegisterPartitionKey(User{}, "pk", ""))
//	}
func Must(err error) {
	if err != nil {
		panic(err)
	}
}
