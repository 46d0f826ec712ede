package wasmvm

// Section names which of a contract's four exports is currently running,
// and gates which host calls that export is allowed to make.
type Section uint8

const (
	SectionNone Section = iota
	SectionDeploy
	SectionMetadata
	SectionExec
	SectionUpdate
)

func (s Section) String() string {
	switch s {
	case SectionDeploy:
		return "Deploy"
	case SectionMetadata:
		return "Metadata"
	case SectionExec:
		return "Exec"
	case SectionUpdate:
		return "Update"
	default:
		return "None"
	}
}

// allowedHostCalls is the static (section, call name) permission table.
// Fixed on purpose: the set of host calls a section may reach is part of
// consensus, so it is a plain map literal rather than anything
// dynamically registered.
var allowedHostCalls = map[Section]map[string]bool{
	SectionDeploy: set(
		"db_init", "db_lookup", "db_set", "db_del", "db_get", "db_contains_key",
		"zkas_db_set", "log", "hash_poseidon",
	),
	SectionMetadata: set(
		"db_lookup", "db_get", "db_contains_key", "log", "hash_poseidon",
		"get_call_index", "set_return_data",
	),
	SectionExec: set(
		"db_lookup", "db_get", "db_contains_key", "log", "hash_poseidon",
		"get_call_index", "set_return_data",
		"tx_local_append_coin", "tx_local_new_coins_contains",
	),
	SectionUpdate: set(
		"db_lookup", "db_get", "db_contains_key", "db_set", "db_del",
		"log", "hash_poseidon", "get_call_index", "set_return_data",
		"merkle_add", "sparse_merkle_insert_batch",
	),
}

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// permitted reports whether call is reachable from section. Exec is
// purely read-only against the coin tree and nullifier SMT: merkle_add
// and sparse_merkle_insert_batch are only reachable from Update, where
// consensus state changes land. Writes to the zkas tree are only ever
// reachable via zkas_db_set, which only Deploy grants — db_set itself
// never reaches the reserved trees (pkg/store enforces that
// independently via ContractDb.tree's reserved-name check).
func permitted(s Section, call string) bool {
	return allowedHostCalls[s][call]
}
