package parser

import "sort"

// Field names shared by several schemas.
const (
	FieldSimTime           = "simTime"
	FieldTimeSinceCreation = "timeSinceCreation"
)

// Built-in report schemas.
var (
	Occupancy = &Schema{
		Name:        "occupancy",
		Description: "buffer occupancy: avg %, variance, min, max per snapshot",
		Fields: []Field{
			Num(FieldSimTime), Num("avgOccupancy"), Num("variance"), Num("min"), Num("max"),
		},
	}

	Delay = &Schema{
		Name:        "delay",
		Description: "message delays by message type and priority",
		Fields: []Field{
			Label("messageType"), Num("priority"), Num("delay"),
		},
	}

	Traffic = &Schema{
		Name:        "traffic",
		Description: "share of transferred bytes per message type",
		Fields: []Field{
			Num(FieldSimTime), Num("oneToOne"), Num("broadcast"), Num("multicast"), Num("data"),
		},
	}

	DeliveryProbability = &Schema{
		Name:        "delivery",
		Description: "one-to-one message delivery probability",
		Fields: []Field{
			Num(FieldSimTime), Num("deliveryProbability"),
		},
	}

	Broadcast = &Schema{
		Name:        "broadcast",
		Description: "share of nodes reached by broadcasts over time since creation",
		Fields: []Field{
			Num(FieldTimeSinceCreation), Num("reachedPercentage"),
		},
	}

	Multicast = &Schema{
		Name:        "multicast",
		Description: "multicast delivery ratios over time since creation",
		Fields: []Field{
			Num(FieldTimeSinceCreation), Num("minDeliveryRatio"), Num("avgDeliveryRatio"),
		},
	}

	Energy = &Schema{
		Name:        "energy",
		Description: "node energy level: avg, min, max per snapshot",
		Fields: []Field{
			Num(FieldSimTime), Num("avgEnergy"), Num("min"), Num("max"),
		},
	}

	DataSync = &Schema{
		Name:        "datasync",
		Description: "data synchronization: memory usage, data age and distance",
		Fields: []Field{
			Num(FieldSimTime), Num("avgUsedMemory"), Num("avgDataAge"), Num("avgDataDistance"),
		},
	}
)

var builtinSchemas = map[string]*Schema{
	Occupancy.Name:           Occupancy,
	Delay.Name:               Delay,
	Traffic.Name:             Traffic,
	DeliveryProbability.Name: DeliveryProbability,
	Broadcast.Name:           Broadcast,
	Multicast.Name:           Multicast,
	Energy.Name:              Energy,
	DataSync.Name:            DataSync,
}

// LookupSchema returns the built-in schema with the given name.
func LookupSchema(name string) (*Schema, bool) {
	s, ok := builtinSchemas[name]
	return s, ok
}

// SchemaNames returns the names of all built-in schemas, sorted.
func SchemaNames() []string {
	names := make([]string, 0, len(builtinSchemas))
	for name := range builtinSchemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schemas returns all built-in schemas ordered by name.
func Schemas() []*Schema {
	names := SchemaNames()
	out := make([]*Schema, len(names))
	for i, name := range names {
		out[i] = builtinSchemas[name]
	}
	return out
}
