package store

import "github.com/darkfi-core/engine/pkg/crypto"

// ContractDb is a thin, reserved-name-checking view over one contract's
// named trees within an overlay. The host ABI only ever reaches the store
// through a ContractDb, never through BlockchainOverlay's raw tree names,
// so a contract can never touch TreeZkas or TreeMonotree directly.
type ContractDb struct {
	overlay    *BlockchainOverlay
	contractID crypto.ContractId
}

// NewContractDb returns a ContractDb scoped to contractID within overlay.
func NewContractDb(overlay *BlockchainOverlay, contractID crypto.ContractId) *ContractDb {
	return &ContractDb{overlay: overlay, contractID: contractID}
}

func (c *ContractDb) tree(name string) (string, error) {
	if name == TreeZkas || name == TreeMonotree || name == TreeWasm {
		return "", ErrReservedTree
	}
	return contractTreeName(c.contractID, name), nil
}

// Get reads key from the named db.
func (c *ContractDb) Get(name string, key []byte) ([]byte, error) {
	tree, err := c.tree(name)
	if err != nil {
		return nil, err
	}
	return c.overlay.Get(tree, key)
}

// Set stages key=value in the named db.
func (c *ContractDb) Set(name string, key, value []byte) error {
	tree, err := c.tree(name)
	if err != nil {
		return err
	}
	return c.overlay.Insert(tree, key, value)
}

// Delete stages removal of key in the named db.
func (c *ContractDb) Delete(name string, key []byte) error {
	tree, err := c.tree(name)
	if err != nil {
		return err
	}
	return c.overlay.Remove(tree, key)
}

// ContainsKey reports whether key is present in the named db.
func (c *ContractDb) ContainsKey(name string, key []byte) (bool, error) {
	tree, err := c.tree(name)
	if err != nil {
		return false, err
	}
	return c.overlay.ContainsKey(tree, key)
}

// SetZkas writes a contract's compiled circuit bincode. Only deployment
// logic (never the host ABI) is allowed to call this.
func (c *ContractDb) SetZkas(namespace string, bincode []byte) error {
	tree := contractTreeName(c.contractID, TreeZkas)
	return c.overlay.Insert(tree, []byte(namespace), bincode)
}

// GetZkas reads back a contract's compiled circuit bincode.
func (c *ContractDb) GetZkas(namespace string) ([]byte, error) {
	tree := contractTreeName(c.contractID, TreeZkas)
	return c.overlay.Get(tree, []byte(namespace))
}

// SetWasm writes a contract's deployed module bytecode. Only deployment
// logic is allowed to call this.
func (c *ContractDb) SetWasm(bincode []byte) error {
	tree := contractTreeName(c.contractID, TreeWasm)
	return c.overlay.Insert(tree, []byte("code"), bincode)
}

// GetWasm reads back a contract's deployed module bytecode.
func (c *ContractDb) GetWasm() ([]byte, error) {
	tree := contractTreeName(c.contractID, TreeWasm)
	return c.overlay.Get(tree, []byte("code"))
}

// IsLocked reports whether the Deployooor contract's lock bit for this
// ContractId has been set, refusing further redeployment.
func (c *ContractDb) IsLocked() (bool, error) {
	tree := contractTreeName(c.contractID, TreeWasm)
	return c.overlay.ContainsKey(tree, []byte("locked"))
}

// Lock sets the Deployooor's lock bit for this ContractId.
func (c *ContractDb) Lock() error {
	tree := contractTreeName(c.contractID, TreeWasm)
	return c.overlay.Insert(tree, []byte("locked"), []byte{1})
}
