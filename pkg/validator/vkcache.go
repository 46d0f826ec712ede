package validator

import (
	"bytes"
	"sync"

	"github.com/darkfi-core/engine/pkg/contract"
	"github.com/darkfi-core/engine/pkg/zkas"
	"github.com/darkfi-core/engine/pkg/zkverify"
)

type vkKey struct {
	contractID contract.ContractId
	namespace  string
}

type vkEntry struct {
	vk  *zkverify.VerifyingKey
	gas uint64
}

// VerifyingKeyCache holds one compiled VerifyingKey per (ContractId,
// namespace), since PLONK setup is expensive enough that running it on
// every proof verification would dominate validation cost. Each entry
// also carries the circuit's gas cost (computed once from the same
// decoded binary) so the proof-verification pass doesn't re-decode the
// zkas bincode a second time just for CircuitGas. A redeploy invalidates
// every entry for that ContractId, since the circuit bincode behind a
// namespace may have changed.
type VerifyingKeyCache struct {
	mu      sync.Mutex
	entries map[vkKey]vkEntry
}

// NewVerifyingKeyCache returns an empty cache.
func NewVerifyingKeyCache() *VerifyingKeyCache {
	return &VerifyingKeyCache{entries: make(map[vkKey]vkEntry)}
}

// Get returns the cached VerifyingKey and gas cost for (contractID,
// namespace), building (and caching) them from bincode if absent.
func (c *VerifyingKeyCache) Get(contractID contract.ContractId, namespace string, bincode []byte) (*zkverify.VerifyingKey, uint64, error) {
	key := vkKey{contractID: contractID, namespace: namespace}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return e.vk, e.gas, nil
	}
	c.mu.Unlock()

	binary, err := zkas.Decode(bytes.NewReader(bincode))
	if err != nil {
		return nil, 0, err
	}
	_, vk, err := zkverify.Build(binary)
	if err != nil {
		return nil, 0, err
	}
	gas := zkverify.CircuitGas(binary)

	c.mu.Lock()
	c.entries[key] = vkEntry{vk: vk, gas: gas}
	c.mu.Unlock()
	return vk, gas, nil
}

// Invalidate drops every cached entry for contractID, called whenever
// that contract is redeployed.
func (c *VerifyingKeyCache) Invalidate(contractID contract.ContractId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if key.contractID == contractID {
			delete(c.entries, key)
		}
	}
}
