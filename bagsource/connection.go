package bagsource

import (
	"strings"

	"github.com/foxglove/go-rosbag"

	"github.com/wkalt/streamcap"
	"github.com/wkalt/streamcap/channel"
	"github.com/wkalt/streamcap/ros1msg"
	"github.com/wkalt/streamcap/ros1wire"
	"github.com/wkalt/streamcap/schema"
)

// resolvedConnection is a bag connection (ROS1's channel analogue) plus the
// schema parsed from its messageDefinition, if parsing succeeded.
type resolvedConnection struct {
	conn       rosbag.Connection
	topic      string
	schemaName string
	parsed     *streamcap.ParsedChannel
	faulty     bool
}

// parseConnection builds a resolvedConnection from a bag connection
// header, deserializing ROS1 wire-format bytes against the schema parsed
// from its embedded message definition. A connection whose definition
// fails to parse is marked faulty: Initialize still succeeds, but its
// messages are quarantined rather than dropping the whole bag, matching
// mcapsource's faulty-channel policy.
func parseConnection(conn rosbag.Connection) *resolvedConnection {
	rc := &resolvedConnection{conn: conn, topic: conn.Data.Topic, schemaName: conn.Data.Type}

	pkg, name := splitSchemaName(conn.Data.Type)
	parsed, err := ros1msg.ParseROS1MessageDefinition(pkg, name, []byte(conn.Data.MessageDefinition))
	if err != nil {
		rc.faulty = true
		return rc
	}

	deserialize := func(data []byte) (any, error) {
		d := ros1wire.NewDecoder(data)
		return schema.Decode(parsed, d)
	}
	rc.parsed = &streamcap.ParsedChannel{
		Deserialize: deserialize,
		Datatypes:   channel.Datatypes(parsed),
	}
	return rc
}

func splitSchemaName(name string) (pkg, typeName string) {
	i := strings.LastIndex(name, "/")
	if i < 0 {
		return "", name
	}
	return name[:i], name[i+1:]
}

func connectionMismatch(a, b rosbag.Connection) bool {
	return a.Data.Topic != b.Data.Topic || a.Data.Type != b.Data.Type || a.Data.MD5Sum != b.Data.MD5Sum
}
