// Package ledger is the append-only store of anonymous vote records. Votes
// are chained into hash-linked blocks so tampering with a recorded vote is
// detectable, and the whole chain can be sealed with the election key once
// voting ends.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/benbjohnson/clock"

	"election-backend/models"
)

type Ledger struct {
	path   string
	mu     sync.RWMutex
	blocks []*models.Block
	clk    clock.Clock
}

type chainFile struct {
	Blocks []*models.Block `json:"blocks"`
}

// Open loads the vote chain from path, starting empty when no file exists.
func Open(path string, clk clock.Clock) (*Ledger, error) {
	l := &Ledger{
		path:   path,
		blocks: make([]*models.Block, 0),
		clk:    clk,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("failed to read ledger: %v", err)
	}

	var chain chainFile
	if err := json.Unmarshal(data, &chain); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ledger: %v", err)
	}
	l.blocks = chain.Blocks

	return l, nil
}

// Append records one vote as a new block at the chain head. The write is
// durable before Append returns; a failure here must be treated by callers
// as a fatal operational error because the redeemed token is already gone.
func (l *Ledger) Append(v models.Vote) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal vote: %v", err)
	}

	ts := l.clk.Now().Unix()
	if n := len(l.blocks); n > 0 && ts < l.blocks[n-1].Timestamp {
		ts = l.blocks[n-1].Timestamp
	}

	block := models.NewBlock(uint64(len(l.blocks)), ts, data, l.headHashLocked())

	l.blocks = append(l.blocks, block)
	if err := l.persistLocked(); err != nil {
		// Roll the in-memory chain back so it matches what is on disk.
		l.blocks = l.blocks[:len(l.blocks)-1]
		return err
	}

	return nil
}

// Votes decodes every block back into its vote record.
func (l *Ledger) Votes() ([]models.Vote, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	votes := make([]models.Vote, 0, len(l.blocks))
	for _, b := range l.blocks {
		var v models.Vote
		if err := json.Unmarshal(b.Data, &v); err != nil {
			return nil, fmt.Errorf("failed to decode vote in block %d: %v", b.Index, err)
		}
		votes = append(votes, v)
	}
	return votes, nil
}

func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.blocks)
}

// Verify re-validates every block hash and link.
func (l *Ledger) Verify() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return models.ValidateChain(l.blocks)
}

// HeadHash returns the hash of the newest block, or 32 zero bytes for an
// empty chain.
func (l *Ledger) HeadHash() []byte {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.headHashLocked()
}

func (l *Ledger) headHashLocked() []byte {
	if len(l.blocks) == 0 {
		return make([]byte, 32)
	}
	return l.blocks[len(l.blocks)-1].Hash
}

func (l *Ledger) persistLocked() error {
	data, err := json.MarshalIndent(chainFile{Blocks: l.blocks}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %v", err)
	}

	tempPath := l.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write ledger: %v", err)
	}

	if err := os.Rename(tempPath, l.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save ledger: %v", err)
	}

	return nil
}
