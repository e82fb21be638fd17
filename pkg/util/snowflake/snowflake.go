package snowflake

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

var (
	node     *snowflake.Node
	nodeOnce sync.Once
	machine  int64 = 1
)

// Init initialises the snowflake node. Call once at startup.
// machineID must be unique per instance in a multi-node deployment (0-1023).
func Init(machineID int64) {
	machine = machineID
	nodeOnce.Do(func() {
		if machine < 0 || machine > 1023 {
			machine = 1
			zap.L().Warn("invalid snowflake machineID in config, using default 1")
		}
		var err error
		node, err = snowflake.NewNode(machine)
		if err != nil {
			zap.L().Fatal("failed to initialize snowflake node", zap.Error(err))
		}
		zap.L().Info("snowflake node initialized", zap.Int64("machineID", machine))
	})
}

// GenerateID returns a new snowflake id as int64.
func GenerateID() int64 {
	if node == nil {
		Init(machine)
	}
	return node.Generate().Int64()
}

// GenerateIDString returns a new snowflake id as a string.
// Used for ids that cross a JSON boundary, where int64 loses precision
// in JavaScript.
func GenerateIDString() string {
	if node == nil {
		Init(machine)
	}
	return node.Generate().String()
}
