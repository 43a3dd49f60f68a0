package yachtsql

// IsolationLevel mirrors the levels TransactionConfig.IsolationLevel names in
// the config. The engine does not run a multi-statement transaction manager
// (ddl.Dispatcher has no BEGIN case, so a BEGIN keyword classifies as a query,
// and there is no txn registry or snapshot), so this only changes which
// isolation level a session reports itself as running under; every
// statement sees the table's current committed state.
type IsolationLevel string

const (
	IsolationReadCommitted  IsolationLevel = "read_committed"
	IsolationRepeatableRead IsolationLevel = "repeatable_read"
	IsolationSerializable   IsolationLevel = "serializable"
)
