// Package store provides a schema-registry-driven object mapping layer for
// single-table DynamoDB access.
//
// Facet separates structural declaration from data access: an entity type's
// table name and key attributes are declared once with a [Registry]
// (typically the package-level DefaultRegistry, from init functions), and a
// generic [Repository] resolves those declarations on every call to build
// key maps and key-condition expressions.
//
// # Declaring a schema
//
// Declarations are keyed by type identity; an instance or a pointer may be
// passed wherever a type is expected:
//
//	type User struct {
//	    PK    string `dynamodbav:"pk"`
//	    SK    string `dynamodbav:"sk"`
//	    Email string `dynamodbav:"email"`
//	}
//
//	func init() {
//	    store.Must(store.RegisterTable(User{}, "users"))
//	    store.Must(store.RegisterPartitionKey(User{}, "pk", ""))
//	    store.Must(store.RegisterSortKey(User{}, "sk", ""))
//	    store.Must(store.RegisterIndexPartitionKey(User{}, "type", "EmailIndex", ""))
//	    store.Must(store.RegisterIndexSortKey(User{}, "email", "EmailIndex", ""))
//	}
//
// Conflicting declarations (a second partition key, a second per-index key
// of the same kind) fail immediately with [ErrDuplicateDeclaration];
// resolution of an undeclared fact is not an error until an operation
// actually needs it, at which point the operation fails with
// [ErrMissingSchema].
//
// # Using a repository
//
//	repo := store.New[User](client, store.Config{})
//
//	created, err := repo.Create(ctx, &user)       // conditional write, no overwrite
//	found, err := repo.Get(ctx, "USER", "user-1") // point read
//	result, err := repo.Query(ctx, store.Query{
//	    PartitionValue: "USER",
//	    SortValue:      "2024-",
//	    Comparator:     store.BeginsWith,
//	})
//
// # Soft deletes
//
// [Repository.SoftDelete] stamps the item's deletedAt attribute instead of
// removing it. It is a read followed by a write with no transaction around
// them: concurrent writes to the same key can race, and the last write wins.
// Use [Repository.Remove] for a hard delete.
//
// # Errors
//
// The package defines domain-specific errors, matched with errors.Is:
//
//   - [ErrInvalidSchema] - malformed declaration input (blank names)
//   - [ErrDuplicateDeclaration] - conflicting second declaration
//   - [ErrMissingSchema] - operation requires an undeclared structural fact
//   - [ErrNotFound] - point read found no item
//   - [ErrInvalidInput] - required argument absent
//
// Failures from DynamoDB itself are logged and returned unchanged, so
// callers can inspect store-specific detail such as
// ConditionalCheckFailedException.
package store
