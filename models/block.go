package models

import (
	"bytes"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"
)

// Block is one entry of the append-only vote ledger. Each block carries a
// single serialized Vote and links to its predecessor by hash, so any
// after-the-fact edit or reorder breaks the chain.
type Block struct {
	Index     uint64 `json:"index"`
	Timestamp int64  `json:"timestamp"`
	Data      []byte `json:"data"`
	PrevHash  []byte `json:"prev_hash"`
	Hash      []byte `json:"hash"`
}

func NewBlock(index uint64, timestamp int64, data, prevHash []byte) *Block {
	b := &Block{
		Index:     index,
		Timestamp: timestamp,
		Data:      data,
		PrevHash:  prevHash,
	}
	b.Hash = b.ComputeHash()
	return b
}

func (b *Block) ComputeHash() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, b.Index)
	binary.Write(buf, binary.BigEndian, b.Timestamp)
	buf.Write(b.Data)
	buf.Write(b.PrevHash)
	return crypto.Keccak256(buf.Bytes())
}

func (b *Block) Validate() bool {
	return bytes.Equal(b.ComputeHash(), b.Hash)
}

// ValidateChain checks every block's hash and its link to the previous block.
func ValidateChain(blocks []*Block) bool {
	if len(blocks) == 0 {
		return true
	}

	if !blocks[0].Validate() {
		return false
	}

	for i := 1; i < len(blocks); i++ {
		cur, prev := blocks[i], blocks[i-1]

		if !cur.Validate() {
			return false
		}
		if !bytes.Equal(cur.PrevHash, prev.Hash) {
			return false
		}
		if cur.Index != prev.Index+1 {
			return false
		}
		if cur.Timestamp < prev.Timestamp {
			return false
		}
	}

	return true
}
