package pkguid

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// Epoch of goweave snowflake IDs: 2025-12-01T00:00:00+07:00.
const Epoch int64 = 1764522000000

//nolint:gochecknoglobals // snowflake.Epoch is library state, set once
var setEpoch sync.Once

// Snowflake generates 64-bit IDs that sort by creation time.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake uses a random node number, which keeps concurrent processes
// apart without coordination in all but 1 of 1024 cases.
func NewSnowflake() (*Snowflake, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1<<snowflake.NodeBits))
	if err != nil {
		return nil, fmt.Errorf("pick snowflake node: %w", err)
	}
	return NewSnowflakeNode(n.Int64())
}

// NewSnowflakeNode uses a fixed node number in [0, 1023].
func NewSnowflakeNode(node int64) (*Snowflake, error) {
	setEpoch.Do(func() { snowflake.Epoch = Epoch })

	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", node, err)
	}
	return &Snowflake{node: n}, nil
}

func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}

// GenerateString is Generate in base 10.
func (s *Snowflake) GenerateString() string {
	return s.node.Generate().String()
}
